package handlers

import (
	"net/http"
	"strconv"

	"shift-tracker/internal/domain/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShiftHandler запросы по сменам: статус, день, календарь, отчет
type ShiftHandler struct {
	shiftService services.ShiftService
	logger       *zap.Logger
}

// NewShiftHandler создает новый ShiftHandler
func NewShiftHandler(shiftService services.ShiftService, logger *zap.Logger) *ShiftHandler {
	return &ShiftHandler{
		shiftService: shiftService,
		logger:       logger,
	}
}

// CalendarResponse дни месяца, в которые были смены
type CalendarResponse struct {
	DriverID   string   `json:"driver_id"`
	Year       int      `json:"year"`
	Month      int      `json:"month"`
	WorkedDays []string `json:"worked_days"`
}

// GetStatus текущий статус водителя
func (h *ShiftHandler) GetStatus(c *gin.Context) {
	status, err := h.shiftService.GetCurrentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to get current status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetDaySummary смены водителя за день
func (h *ShiftHandler) GetDaySummary(c *gin.Context) {
	summary, err := h.shiftService.GetDaySummary(c.Request.Context(), c.Param("id"), c.Param("date"))
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to get day summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetCalendar отмечает рабочие дни месяца
func (h *ShiftHandler) GetCalendar(c *gin.Context) {
	year, month, ok := parsePeriod(c)
	if !ok {
		return
	}

	driverID := c.Param("id")
	days, err := h.shiftService.GetWorkedDays(c.Request.Context(), driverID, year, month)
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to get calendar")
		return
	}

	c.JSON(http.StatusOK, &CalendarResponse{
		DriverID:   driverID,
		Year:       year,
		Month:      month,
		WorkedDays: days,
	})
}

// GetMonthlyReport отчет по всем водителям за месяц
func (h *ShiftHandler) GetMonthlyReport(c *gin.Context) {
	year, month, ok := parsePeriod(c)
	if !ok {
		return
	}

	report, err := h.shiftService.GetMonthlyReport(c.Request.Context(), year, month)
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to build monthly report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// parsePeriod читает обязательные параметры year и month
func parsePeriod(c *gin.Context) (int, int, bool) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid year",
			Code:  "INVALID_PERIOD",
		})
		return 0, 0, false
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid month",
			Code:  "INVALID_PERIOD",
		})
		return 0, 0, false
	}

	return year, month, true
}

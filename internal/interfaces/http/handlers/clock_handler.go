package handlers

import (
	"net/http"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/domain/services"
	"shift-tracker/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClockHandler отметки о начале и конце смены
type ClockHandler struct {
	clockService services.ClockService
	logger       *zap.Logger
}

// NewClockHandler создает новый ClockHandler
func NewClockHandler(clockService services.ClockService, logger *zap.Logger) *ClockHandler {
	return &ClockHandler{
		clockService: clockService,
		logger:       logger,
	}
}

// LocationRequest координаты устройства
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Point возвращает координаты запроса
func (r *LocationRequest) Point() entities.GeoPoint {
	return entities.GeoPoint{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// ClockInRequest запрос на начало смены
type ClockInRequest struct {
	LocationRequest
	Note *string `json:"note,omitempty"`
}

// TicketEntryRequest талон в запросе на завершение смены
type TicketEntryRequest struct {
	CompanyName  string  `json:"company_name" binding:"required"`
	TicketNumber string  `json:"ticket_number" binding:"required"`
	Hours        float64 `json:"hours" binding:"gte=0"`
	PhotoRef     *string `json:"photo_ref,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// ClockOutRequest запрос на завершение смены
type ClockOutRequest struct {
	LocationRequest
	Note          *string              `json:"note,omitempty"`
	FuelUsed      *float64             `json:"fuel_used,omitempty" binding:"omitempty,gte=0"`
	TicketEntries []TicketEntryRequest `json:"ticket_entries,omitempty" binding:"omitempty,dive"`
}

// ClockIn начинает смену текущего пользователя
func (h *ClockHandler) ClockIn(c *gin.Context) {
	var req ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid clock-in request", zap.Error(err))
		badRequest(c, "Invalid request data", err)
		return
	}

	receipt, err := h.clockService.ClockIn(c.Request.Context(), &services.ClockInCommand{
		DriverID: middleware.CurrentDriverID(c),
		Point:    req.Point(),
		Note:     req.Note,
	})
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to clock in")
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ClockOut завершает смену текущего пользователя
func (h *ClockHandler) ClockOut(c *gin.Context) {
	var req ClockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid clock-out request", zap.Error(err))
		badRequest(c, "Invalid request data", err)
		return
	}

	tickets := make([]entities.TicketEntry, 0, len(req.TicketEntries))
	for _, t := range req.TicketEntries {
		tickets = append(tickets, entities.TicketEntry{
			CompanyName:  t.CompanyName,
			TicketNumber: t.TicketNumber,
			Hours:        t.Hours,
			PhotoRef:     t.PhotoRef,
			Note:         t.Note,
		})
	}

	receipt, err := h.clockService.ClockOut(c.Request.Context(), &services.ClockOutCommand{
		DriverID:      middleware.CurrentDriverID(c),
		Point:         req.Point(),
		Note:          req.Note,
		FuelUsed:      req.FuelUsed,
		TicketEntries: tickets,
	})
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to clock out")
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// ValidateLocation проверяет точку до отправки отметки
func (h *ClockHandler) ValidateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	check, err := h.clockService.CheckLocation(req.Point())
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to validate location")
		return
	}

	c.JSON(http.StatusOK, check)
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/domain/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultListLimit = 20

// DriverHandler обработчик HTTP запросов для водителей
type DriverHandler struct {
	driverService services.DriverService
	logger        *zap.Logger
}

// NewDriverHandler создает новый DriverHandler
func NewDriverHandler(driverService services.DriverService, logger *zap.Logger) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		logger:        logger,
	}
}

// RegisterDriverRequest запрос на регистрацию пользователя
type RegisterDriverRequest struct {
	ID       string        `json:"id" binding:"required"`
	FullName string        `json:"full_name" binding:"required"`
	Email    string        `json:"email" binding:"required,email"`
	Role     entities.Role `json:"role,omitempty"`
}

// DriverResponse ответ с информацией о водителе
type DriverResponse struct {
	ID        string            `json:"id"`
	FullName  string            `json:"full_name"`
	Initials  string            `json:"initials"`
	Email     string            `json:"email"`
	Role      entities.Role     `json:"role"`
	Metadata  entities.Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ListDriversResponse ответ со списком водителей
type ListDriversResponse struct {
	Drivers []*DriverResponse `json:"drivers"`
	Total   int               `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
	HasMore bool              `json:"has_more"`
}

// RegisterDriver создает учетную запись
func (h *DriverHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid register driver request", zap.Error(err))
		badRequest(c, "Invalid request data", err)
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), &services.RegisterDriverCommand{
		ID:       req.ID,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to register driver")
		return
	}

	c.JSON(http.StatusCreated, toDriverResponse(driver))
}

// GetDriver получает водителя по ID
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to get driver")
		return
	}

	c.JSON(http.StatusOK, toDriverResponse(driver))
}

// ListDrivers получает список водителей с фильтрами
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	filters := &entities.DriverFilters{Limit: defaultListLimit}

	if roleStr := c.Query("role"); roleStr != "" {
		role := entities.Role(roleStr)
		filters.Role = &role
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	drivers, total, err := h.driverService.ListDrivers(c.Request.Context(), filters)
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to list drivers")
		return
	}

	driverResponses := make([]*DriverResponse, len(drivers))
	for i, driver := range drivers {
		driverResponses[i] = toDriverResponse(driver)
	}

	c.JSON(http.StatusOK, &ListDriversResponse{
		Drivers: driverResponses,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
		HasMore: filters.Offset+len(drivers) < total,
	})
}

func toDriverResponse(driver *entities.Driver) *DriverResponse {
	return &DriverResponse{
		ID:        driver.ID,
		FullName:  driver.FullName,
		Initials:  driver.Initials(),
		Email:     driver.Email,
		Role:      driver.Role,
		Metadata:  driver.Metadata,
		CreatedAt: driver.CreatedAt,
		UpdatedAt: driver.UpdatedAt,
	}
}

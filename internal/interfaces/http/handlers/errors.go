package handlers

import (
	"errors"
	"net/http"

	"shift-tracker/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// GeofenceErrorResponse отказ в отметке вне зоны
type GeofenceErrorResponse struct {
	ErrorResponse
	DistanceKm float64 `json:"distance_km"`
	RadiusKm   float64 `json:"radius_km"`
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// handleServiceError обрабатывает ошибки из сервисного слоя
func handleServiceError(c *gin.Context, logger *zap.Logger, err error, message string) {
	var violation *entities.GeofenceViolation

	switch {
	case errors.As(err, &violation):
		logger.Info(message, zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, GeofenceErrorResponse{
			ErrorResponse: ErrorResponse{
				Error:   "Location is outside the allowed area",
				Code:    "OUTSIDE_GEOFENCE",
				Details: violation.Error(),
			},
			DistanceKm: violation.DistanceKm,
			RadiusKm:   violation.RadiusKm,
		})
	case errors.Is(err, entities.ErrDriverNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Driver not found",
			Code:  "DRIVER_NOT_FOUND",
		})
	case errors.Is(err, entities.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Location not found",
			Code:  "LOCATION_NOT_FOUND",
		})
	case errors.Is(err, entities.ErrDriverExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Driver already exists",
			Code:  "DRIVER_EXISTS",
		})
	case errors.Is(err, entities.ErrInvalidEmail), errors.Is(err, entities.ErrInvalidName),
		errors.Is(err, entities.ErrInvalidRole), errors.Is(err, entities.ErrInvalidDriverID):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid driver data",
			Code:    "INVALID_DATA",
			Details: err.Error(),
		})
	case errors.Is(err, entities.ErrInvalidLocation), errors.Is(err, entities.ErrInvalidTimestamp),
		errors.Is(err, entities.ErrInvalidFuel), errors.Is(err, entities.ErrInvalidTicket),
		errors.Is(err, entities.ErrInvalidClockKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid clock data",
			Code:    "INVALID_DATA",
			Details: err.Error(),
		})
	case errors.Is(err, entities.ErrInvalidDate), errors.Is(err, entities.ErrInvalidMonth):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid period",
			Code:    "INVALID_PERIOD",
			Details: err.Error(),
		})
	case errors.Is(err, entities.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Unauthorized",
			Code:  "UNAUTHORIZED",
		})
	case errors.Is(err, entities.ErrStoreUnavailable):
		logger.Error(message, zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Storage is temporarily unavailable",
			Code:  "STORE_UNAVAILABLE",
		})
	default:
		logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}

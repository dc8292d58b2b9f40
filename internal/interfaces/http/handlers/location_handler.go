package handlers

import (
	"context"
	"net/http"
	"time"

	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const streamWriteWait = 10 * time.Second

// LocationHandler обработчик HTTP запросов для живой карты
type LocationHandler struct {
	locationService services.LocationService
	pollInterval    time.Duration
	upgrader        websocket.Upgrader
	logger          *zap.Logger
}

// NewLocationHandler создает новый LocationHandler
func NewLocationHandler(locationService services.LocationService, pollInterval time.Duration, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		pollInterval:    pollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// доступ уже проверен middleware по токену
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// LiveMapResponse снимок живой карты
type LiveMapResponse struct {
	Markers     []*entities.LiveMapMarker `json:"markers"`
	Count       int                       `json:"count"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

// UpdateLocation принимает текущую точку водителя
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	location, err := h.locationService.UpdateLiveLocation(c.Request.Context(), c.Param("id"), req.Point())
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to update location")
		return
	}

	c.JSON(http.StatusOK, location)
}

// GetLocation возвращает последнюю точку водителя
func (h *LocationHandler) GetLocation(c *gin.Context) {
	location, err := h.locationService.GetLiveLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to get location")
		return
	}

	c.JSON(http.StatusOK, location)
}

// ListLiveLocations возвращает текущие маркеры карты
func (h *LocationHandler) ListLiveLocations(c *gin.Context) {
	snapshot, err := h.snapshot(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err, "Failed to list live locations")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// StreamLiveLocations отправляет снимок карты по websocket каждые pollInterval
func (h *LocationHandler) StreamLiveLocations(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// читаем, чтобы обработать close и pong от клиента
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		snapshot, err := h.snapshot(ctx)
		if err != nil {
			h.logger.Warn("Failed to load live locations for stream", zap.Error(err))
		} else {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(snapshot); err != nil {
				h.logger.Debug("Live map stream closed", zap.Error(err))
				return
			}
		}

		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case <-ticker.C:
		}
	}
}

func (h *LocationHandler) snapshot(ctx context.Context) (*LiveMapResponse, error) {
	markers, err := h.locationService.ListLiveLocations(ctx)
	if err != nil {
		return nil, err
	}
	if markers == nil {
		markers = []*entities.LiveMapMarker{}
	}

	return &LiveMapResponse{
		Markers:     markers,
		Count:       len(markers),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

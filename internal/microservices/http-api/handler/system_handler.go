package handler

import (
	"net/http"
	"time"

	"canpi-panel/internal/microservices/http-api/dto"
	"canpi-panel/internal/microservices/http-api/service"
	"canpi-panel/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
)

// SessionSource reports the live browser relay sessions
type SessionSource interface {
	Count() int
	Sessions() []websocket.SessionInfo
	UpstreamURL() string
}

type SystemHandler struct {
	panels   service.PanelService
	sessions SessionSource
	started  time.Time
}

func NewSystemHandler(panels service.PanelService, sessions SessionSource) *SystemHandler {
	return &SystemHandler{
		panels:   panels,
		sessions: sessions,
		started:  time.Now(),
	}
}

func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/sessions", h.Sessions)
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Panels:     h.panels.Count(),
		Sessions:   h.sessions.Count(),
		CangridURI: h.panels.CangridURI(),
		Upstream:   h.sessions.UpstreamURL(),
	})
}

func (h *SystemHandler) Sessions(c *gin.Context) {
	infos := h.sessions.Sessions()
	out := make([]dto.SessionDTO, 0, len(infos))
	for _, s := range infos {
		out = append(out, dto.SessionDTO{
			ID:        s.ID,
			Connected: s.Connected,
			Sent:      s.Sent,
			Received:  s.Received,
			Dropped:   s.Dropped,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}

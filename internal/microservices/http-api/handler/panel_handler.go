package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"canpi-panel/internal/microservices/http-api/dto"
	"canpi-panel/internal/microservices/http-api/service"
	"canpi-panel/internal/panel"

	"github.com/gin-gonic/gin"
)

const (
	IndexTemplate = "index.html"
	PanelTemplate = "panel_index.html"
)

type PanelHandler struct {
	svc service.PanelService
}

func NewPanelHandler(svc service.PanelService) *PanelHandler {
	return &PanelHandler{svc: svc}
}

// RegisterPages mounts the HTML routes under /layout
func (h *PanelHandler) RegisterPages(rg *gin.RouterGroup) {
	rg.GET("", h.Index)
	rg.GET("/", h.Index)
	rg.GET("/panel/:index", h.Panel)
	rg.GET("/diagram", h.Diagram)
}

// RegisterRoutes mounts the JSON routes under /api/panels
func (h *PanelHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/current", h.Current)
}

func (h *PanelHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, IndexTemplate, gin.H{
		"panels":      h.svc.List(),
		"cangrid_uri": h.svc.CangridURI(),
	})
}

// Panel selects the panel named by the path index and renders it
func (h *PanelHandler) Panel(c *gin.Context) {
	idx, err := strconv.ParseUint(c.Param("index"), 10, 8)
	if err != nil {
		// clear any earlier selection, the index is never valid
		_, _ = h.svc.Select(0)
		c.String(http.StatusNotFound, "panel not found")
		return
	}

	def, err := h.svc.Select(uint8(idx))
	if err != nil {
		slog.Warn("panel_not_found", "index", idx)
		c.String(http.StatusNotFound, "panel not found")
		return
	}

	c.HTML(http.StatusOK, PanelTemplate, gin.H{
		"panel_index": idx,
		"panel_file":  def.JSONFile,
		"panel_title": def.Title,
		"cangrid_uri": h.svc.CangridURI(),
	})
}

// Diagram serves the JSON definition of the current panel
func (h *PanelHandler) Diagram(c *gin.Context) {
	_, def, err := h.svc.Current()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.File(def.JSONFile)
}

func (h *PanelHandler) List(c *gin.Context) {
	entries := h.svc.List()
	resp := dto.PanelListResponse{
		Panels: make([]dto.PanelDTO, 0, len(entries)),
		Count:  len(entries),
	}
	for _, e := range entries {
		resp.Panels = append(resp.Panels, toPanelDTO(e))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PanelHandler) Current(c *gin.Context) {
	idx, def, err := h.svc.Current()
	if err != nil {
		if errors.Is(err, service.ErrNoCurrent) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no panel selected"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read current panel"})
		return
	}
	c.JSON(http.StatusOK, toPanelDTO(panel.Entry{Index: idx, Title: def.Title, File: def.JSONFile}))
}

func toPanelDTO(e panel.Entry) dto.PanelDTO {
	return dto.PanelDTO{Index: e.Index, Title: e.Title, File: e.File}
}

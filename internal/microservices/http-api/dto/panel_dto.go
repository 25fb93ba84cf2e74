package dto

import "time"

// PanelDTO is one entry of GET /api/panels
type PanelDTO struct {
	Index uint8  `json:"index"`
	Title string `json:"title"`
	File  string `json:"json_file"`
}

// PanelListResponse is the body of GET /api/panels
type PanelListResponse struct {
	Panels []PanelDTO `json:"panels"`
	Count  int        `json:"count"`
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Panels     int    `json:"panels"`
	Sessions   int    `json:"sessions"`
	CangridURI string `json:"cangrid_uri"`
	Upstream   string `json:"upstream"`
}

// SessionDTO is one entry of GET /api/sessions
type SessionDTO struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	Sent      int64     `json:"sent"`
	Received  int64     `json:"received"`
	Dropped   int64     `json:"dropped"`
}

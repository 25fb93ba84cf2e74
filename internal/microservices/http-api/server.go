package httpapi

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"canpi-panel/internal/config"
	"canpi-panel/internal/microservices/echo"
	"canpi-panel/internal/microservices/http-api/handler"
	"canpi-panel/internal/microservices/http-api/middleware"
	"canpi-panel/internal/microservices/http-api/service"
	"canpi-panel/internal/microservices/websocket"
	"canpi-panel/internal/panel"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

const (
	limiterSweep = time.Minute
	limiterIdle  = 5 * time.Minute
)

// Server is the panel web service
type Server struct {
	cfg     *config.Config
	state   *service.AppState
	hub     *websocket.Hub
	limiter *middleware.RateLimiter

	server   *http.Server
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a server for the loaded panels. Browser sessions relay
// to cfg.RelayURL.
func NewServer(cfg *config.Config, panels panel.Hash) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:     cfg,
		state:   service.NewAppState(cfg.CangridURI, panels),
		hub:     websocket.NewHub(cfg.RelayURL, nil),
		limiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *Server) State() *service.AppState { return s.state }
func (s *Server) Hub() *websocket.Hub       { return s.hub }

// LoadTemplates parses the built-in page templates, then any *.html files in
// the configured template directory, which replace built-ins of the same name.
func LoadTemplates(glob string) (*template.Template, error) {
	tmpl, err := template.New("").ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse built-in templates: %w", err)
	}
	if glob == "" {
		return tmpl, nil
	}
	tmpl, err = tmpl.ParseGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", glob, err)
	}
	return tmpl, nil
}

// Router builds the gin engine with every route mounted
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := LoadTemplates(s.cfg.TemplateGlob())
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(s.limiter.Middleware())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/layout")
	})

	panels := handler.NewPanelHandler(s.state)
	panels.RegisterPages(r.Group("/layout"))

	api := r.Group("/api")
	handler.NewSystemHandler(s.state, s.hub).RegisterRoutes(api)
	panels.RegisterRoutes(api.Group("/panels"))

	r.GET("/ws", websocket.WSHandler(s.hub))
	r.GET("/echo", echo.Handler())

	if s.cfg.StaticPath != "" {
		r.Static("/static", s.cfg.StaticPath)
	}
	return r, nil
}

// Start listens on the configured host:port and serves in the background
func (s *Server) Start() error {
	r, err := s.Router()
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.cfg.HostPort)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HostPort, err)
	}
	s.listener = listener

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("http_serve_failed", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.sweepLimiter()
	}()

	slog.Info("panel_server_started",
		"addr", listener.Addr().String(),
		"panels", s.state.Count(),
		"upstream", s.hub.UpstreamURL(),
	)
	return nil
}

// Addr is the bound listen address, useful when HostPort asked for port 0
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.HostPort
	}
	return s.listener.Addr().String()
}

// Stop closes browser sessions and shuts the HTTP server down
func (s *Server) Stop() error {
	s.cancel()
	s.hub.CloseAll()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	slog.Info("panel_server_stopped")
	return err
}

func (s *Server) sweepLimiter() {
	ticker := time.NewTicker(limiterSweep)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Cleanup(limiterIdle); n > 0 {
				slog.Debug("rate_limiter_swept", "removed", n)
			}
		}
	}
}

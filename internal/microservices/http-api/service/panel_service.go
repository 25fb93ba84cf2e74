package service

import (
	"errors"
	"sync"

	"canpi-panel/internal/panel"
)

var (
	ErrPanelNotFound = errors.New("panel not found")
	ErrNoCurrent     = errors.New("no panel selected")
)

// PanelService is what the panel handlers need from the application state
type PanelService interface {
	List() []panel.Entry
	Count() int
	Select(index uint8) (panel.Definition, error)
	Current() (uint8, panel.Definition, error)
	CangridURI() string
}

// AppState is the shared state of the panel web server
type AppState struct {
	mu         sync.RWMutex
	cangridURI string
	current    *uint8
	panels     panel.Hash
}

func NewAppState(cangridURI string, panels panel.Hash) *AppState {
	if panels == nil {
		panels = panel.Hash{}
	}
	return &AppState{
		cangridURI: cangridURI,
		panels:     panels,
	}
}

func (s *AppState) List() []panel.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panels.Entries()
}

func (s *AppState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.panels)
}

// Select makes index the current panel. The current panel is reset first,
// so an unknown index leaves nothing selected.
func (s *AppState) Select(index uint8) (panel.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	def, ok := s.panels[index]
	if !ok {
		return panel.Definition{}, ErrPanelNotFound
	}
	s.current = &index
	return def, nil
}

func (s *AppState) Current() (uint8, panel.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return 0, panel.Definition{}, ErrNoCurrent
	}
	idx := *s.current
	return idx, s.panels[idx], nil
}

func (s *AppState) CangridURI() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cangridURI
}

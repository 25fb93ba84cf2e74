package port

import "sync"

// App is the host-side handle of an application runtime: a set of named
// ports created on first use.
type App struct {
	mu    sync.Mutex
	ports map[string]*Port
}

// NewApp returns an App exposing the given ports.
// With no names it pre-creates SendMessage and MessageReceiver.
func NewApp(names ...string) *App {
	if len(names) == 0 {
		names = []string{SendMessage, MessageReceiver}
	}
	a := &App{ports: make(map[string]*Port, len(names))}
	for _, n := range names {
		a.ports[n] = NewPort(n)
	}
	return a
}

// Port returns the port called name, creating it if needed
func (a *App) Port(name string) *Port {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.ports[name]
	if !ok {
		p = NewPort(name)
		a.ports[name] = p
	}
	return p
}

// Outbound is shorthand for the app's sendMessage port.
func (a *App) Outbound() *Port { return a.Port(SendMessage) }

// Inbound is shorthand for the app's messageReceiver port.
func (a *App) Inbound() *Port { return a.Port(MessageReceiver) }

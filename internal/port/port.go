package port

import (
	"sync"
)

// Well-known port names exposed by the panel application.
const (
	SendMessage     = "sendMessage"     // app -> host
	MessageReceiver = "messageReceiver" // host -> app
)

// Outbound is a port the application emits payloads on.
// Hosts subscribe to it to receive each payload.
type Outbound interface {
	Subscribe(fn func(payload string)) (unsubscribe func())
}

// Inbound is a port the host delivers payloads to.
type Inbound interface {
	Send(payload string)
}

// Port is a named in-memory communication channel between the application
// and surrounding host code. It is both Outbound and Inbound: whoever holds
// the port can send on it, and every subscriber sees every payload.
type Port struct {
	Name string

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(string)
	order  []int // subscription order
}

// NewPort creates an empty port
func NewPort(name string) *Port {
	return &Port{
		Name: name,
		subs: make(map[int]func(string)),
	}
}

// Subscribe registers fn and returns a function that removes it again.
// Calling unsubscribe more than once is a no-op.
func (p *Port) Subscribe(fn func(payload string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.order = append(p.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { p.remove(id) })
	}
}

func (p *Port) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.subs, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Send delivers payload synchronously to every subscriber, in the order they
// subscribed. A port with no subscribers drops the payload.
func (p *Port) Send(payload string) {
	for _, fn := range p.snapshot() {
		fn(payload)
	}
}

// Subscribers returns the number of active subscriptions
func (p *Port) Subscribers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// copy under read lock so subscribers may (un)subscribe from inside a callback
func (p *Port) snapshot() []func(string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fns := make([]func(string), 0, len(p.order))
	for _, id := range p.order {
		fns = append(fns, p.subs[id])
	}
	return fns
}

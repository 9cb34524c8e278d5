// Package notifytest provides recording notify.Sink and notify.View implementations.
package notifytest

import (
	"sync"

	"github.com/lanraragi/lrrctl/internal/notify"
)

type Notification struct {
	Kind       notify.Kind
	Heading    string
	Body       string
	Persistent bool
}

// Sink records every notification it gets.
type Sink struct {
	mu    sync.Mutex
	items []Notification
}

func (s *Sink) add(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, n)
}

func (s *Sink) Success(heading, body string) {
	s.add(Notification{Kind: notify.KindSuccess, Heading: heading, Body: body})
}

func (s *Sink) Error(heading, detail string) {
	s.add(Notification{Kind: notify.KindError, Heading: heading, Body: detail})
}

func (s *Sink) Warning(heading, body string, persistent bool) {
	s.add(Notification{Kind: notify.KindWarning, Heading: heading, Body: body, Persistent: persistent})
}

func (s *Sink) Info(heading, body string, persistent bool) {
	s.add(Notification{Kind: notify.KindInfo, Heading: heading, Body: body, Persistent: persistent})
}

func (s *Sink) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Kinds returns the recorded kinds in order.
func (s *Sink) Kinds() []notify.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(s.items))
	for _, n := range s.items {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// View records the presentation state and every change of it.
type View struct {
	mu      sync.Mutex
	running bool
	enabled bool
	Changes []string
}

func NewView() *View {
	return &View{enabled: true}
}

func (v *View) SetRunningIndicator(running bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.running = running
	if running {
		v.Changes = append(v.Changes, "running")
	} else {
		v.Changes = append(v.Changes, "idle")
	}
}

func (v *View) SetControlsEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled
	if enabled {
		v.Changes = append(v.Changes, "enabled")
	} else {
		v.Changes = append(v.Changes, "disabled")
	}
}

func (v *View) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

func (v *View) ControlsEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enabled
}

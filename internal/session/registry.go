package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type registryEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Registry holds the live controllers keyed by candidate session id.
type Registry struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry returns an empty registry. A nil clk uses the wall clock.
func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{clock: clk, entries: make(map[string]*registryEntry)}
}

// Put registers ctrl, closing any controller previously stored under its id.
func (r *Registry) Put(ctrl *Controller) {
	r.mu.Lock()
	prev := r.entries[ctrl.ID()]
	r.entries[ctrl.ID()] = &registryEntry{ctrl: ctrl, lastSeen: r.clock.Now()}
	r.mu.Unlock()

	if prev != nil && prev.ctrl != ctrl {
		prev.ctrl.Close()
	}
}

// Get returns the controller for id and marks it as recently used.
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.clock.Now()
	return e.ctrl, true
}

// Remove closes and forgets the controller for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		e.ctrl.Close()
	}
}

// Sweep closes controllers idle for longer than ttl and returns their ids.
func (r *Registry) Sweep(ttl time.Duration) []string {
	cutoff := r.clock.Now().Add(-ttl)

	r.mu.Lock()
	var stale []*registryEntry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, e := range stale {
		e.ctrl.Close()
		ids = append(ids, e.ctrl.ID())
	}
	return ids
}

// Len returns the number of live controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// CloseAll tears down every controller, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
}

package config

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/modalkit/internal/action"
)

// ReloadEvent describes the outcome of one bindings reload attempt.
type ReloadEvent struct {
	// Path is the bindings file that changed.
	Path string

	// Keymap is the freshly compiled root, nil when compilation failed.
	Keymap *action.Keymap

	// Diagnostics holds the validation errors of a failed reload.
	Diagnostics *action.Diagnostics
}

// Ok reports whether the reload produced a usable keymap.
func (e ReloadEvent) Ok() bool {
	return e.Keymap != nil
}

// Observer receives reload events.
type Observer func(event ReloadEvent)

// Subscription is an active observer registration.
type Subscription struct {
	id       uuid.UUID
	notifier *ReloadNotifier
}

// ID returns the subscription identifier.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// ReloadNotifier fans reload events out to subscribers.
type ReloadNotifier struct {
	mu        sync.RWMutex
	observers map[uuid.UUID]Observer
}

// NewReloadNotifier creates an empty notifier.
func NewReloadNotifier() *ReloadNotifier {
	return &ReloadNotifier{
		observers: make(map[uuid.UUID]Observer),
	}
}

// Subscribe registers an observer for all future reload events.
func (n *ReloadNotifier) Subscribe(obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New()
	n.observers[id] = obs
	return &Subscription{id: id, notifier: n}
}

// Publish delivers an event to every subscriber, synchronously and in
// unspecified order.
func (n *ReloadNotifier) Publish(event ReloadEvent) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.observers))
	for _, obs := range n.observers {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(event)
	}
}

// Len returns the number of active subscriptions.
func (n *ReloadNotifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

func (n *ReloadNotifier) unsubscribe(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.observers, id)
}

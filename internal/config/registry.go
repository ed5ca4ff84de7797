package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/status"
)

// ErrDriverNotRegistered is returned by Create* methods when no factory has
// been registered under the requested driver name.
var ErrDriverNotRegistered = errors.New("config: driver not registered")

// Registry maps driver names to their constructor functions for each
// collaborator type. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	wake    map[string]func(DriverEntry) (conversation.WakeDetector, error)
	capture map[string]func(DriverEntry) (conversation.Capturer, error)
	speech  map[string]func(DriverEntry) (conversation.Speaker, error)
	status  map[string]func(DriverEntry) (status.Driver, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		wake:    make(map[string]func(DriverEntry) (conversation.WakeDetector, error)),
		capture: make(map[string]func(DriverEntry) (conversation.Capturer, error)),
		speech:  make(map[string]func(DriverEntry) (conversation.Speaker, error)),
		status:  make(map[string]func(DriverEntry) (status.Driver, error)),
	}
}

// RegisterWake registers a wake-detector factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterWake(name string, factory func(DriverEntry) (conversation.WakeDetector, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wake[name] = factory
}

// RegisterCapture registers an utterance-capture factory under name.
func (r *Registry) RegisterCapture(name string, factory func(DriverEntry) (conversation.Capturer, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capture[name] = factory
}

// RegisterSpeech registers a speaker factory under name.
func (r *Registry) RegisterSpeech(name string, factory func(DriverEntry) (conversation.Speaker, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = factory
}

// RegisterStatus registers a status-driver factory under name.
func (r *Registry) RegisterStatus(name string, factory func(DriverEntry) (status.Driver, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[name] = factory
}

// CreateWake instantiates a wake detector using the factory registered under
// entry.Name. Returns [ErrDriverNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateWake(entry DriverEntry) (conversation.WakeDetector, error) {
	r.mu.RLock()
	factory, ok := r.wake[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: wake/%q", ErrDriverNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateCapture instantiates an utterance capturer using the factory
// registered under entry.Name.
func (r *Registry) CreateCapture(entry DriverEntry) (conversation.Capturer, error) {
	r.mu.RLock()
	factory, ok := r.capture[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: capture/%q", ErrDriverNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSpeech instantiates a speaker using the factory registered under
// entry.Name.
func (r *Registry) CreateSpeech(entry DriverEntry) (conversation.Speaker, error) {
	r.mu.RLock()
	factory, ok := r.speech[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrDriverNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateStatus instantiates a status driver using the factory registered
// under entry.Name.
func (r *Registry) CreateStatus(entry DriverEntry) (status.Driver, error) {
	r.mu.RLock()
	factory, ok := r.status[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: status/%q", ErrDriverNotRegistered, entry.Name)
	}
	return factory(entry)
}

// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package registry holds the global module state a host embedding this
// index needs: a single process-wide, mutex-guarded map from index id to
// the live *engine.Engine instance, so a host's relation-cache
// invalidation and module-shutdown hooks have one place to call into.
package registry

import "sync"

// Engine is the subset of *engine.Engine the registry needs, expressed as
// an interface so this package never imports internal/engine (engine
// holds no reference back to the registry; registration is the caller's
// job after Open succeeds).
type Engine interface {
	Invalidate()
	Close() error
}

// Registry is a process-wide table of open index instances, keyed by
// whatever id the host uses to name an index (e.g. a relation OID).
type Registry struct {
	mu    sync.RWMutex
	byID  map[uint64]Engine
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{byID: map[uint64]Engine{}}
}

// Register associates id with eng, replacing any previous entry (the
// caller is responsible for closing a replaced instance first if needed).
func (r *Registry) Register(id uint64, eng Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = eng
}

// Get returns the engine registered for id, if any.
func (r *Registry) Get(id uint64) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eng, ok := r.byID[id]
	return eng, ok
}

// Invalidate calls Invalidate on the engine registered for id, per the
// host's relation-cache invalidation hook: the index instance may be
// invalidated at any time and must tolerate re-open afterward.
func (r *Registry) Invalidate(id uint64) {
	r.mu.RLock()
	eng, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		eng.Invalidate()
	}
}

// Shutdown closes every registered engine and empties the registry, per
// the host's module-shutdown hook.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, eng := range r.byID {
		if err := eng.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.byID, id)
	}
	return firstErr
}

// Unregister removes id from the registry without closing it (used when
// the caller has already closed the engine itself).
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

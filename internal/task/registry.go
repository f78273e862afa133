package task

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps task types to their executors. Registration happens at
// startup; lookups are concurrency-safe.
type Registry struct {
	mu        sync.RWMutex
	executors map[Type]Executor
}

// NewRegistry returns an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[Type]Executor)}
}

// Register binds an executor to a task type, replacing any prior binding.
func (r *Registry) Register(t Type, executor Executor) {
	if executor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[t] = executor
}

// Resolve returns the executor bound to a task type.
func (r *Registry) Resolve(t Type) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	executor, ok := r.executors[t]
	if !ok {
		return nil, fmt.Errorf("no executor registered for task type %q", t)
	}
	return executor, nil
}

// Types returns the registered task types in stable order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]Type, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

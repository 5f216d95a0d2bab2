package modules

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type entry struct {
	name   string
	module Module
}

// Registry runs modules together and closes them in reverse order.
type Registry struct {
	entries []entry
	wg      sync.WaitGroup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a module. Names only label errors.
func (r *Registry) Add(name string, m Module) {
	r.entries = append(r.entries, entry{name: name, module: m})
}

// Names lists the registered modules in start order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// RunAll starts every module in its own goroutine.
func (r *Registry) RunAll(ctx context.Context) {
	for _, e := range r.entries {
		r.wg.Add(1)
		go e.module.Run(ctx, &r.wg)
	}
}

// Wait blocks until every started module has returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// CloseAll closes modules last-added first and joins their errors.
func (r *Registry) CloseAll() error {
	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if err := e.module.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

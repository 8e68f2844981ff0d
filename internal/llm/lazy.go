package llm

import (
	"context"
	"sync"
)

// LazyBackend defers backend construction until first use. Concurrent first
// callers share a single construction: one goroutine runs the constructor,
// the rest block and receive the same backend or the same error. A failed
// construction is sticky.
type LazyBackend struct {
	name string
	make func() (Backend, error)

	once    sync.Once
	backend Backend
	err     error
}

// NewLazy wraps a backend constructor for single-flight initialization
func NewLazy(name string, make func() (Backend, error)) *LazyBackend {
	return &LazyBackend{name: name, make: make}
}

func (l *LazyBackend) get() (Backend, error) {
	l.once.Do(func() {
		l.backend, l.err = l.make()
	})
	return l.backend, l.err
}

// Name returns the provider name without triggering construction
func (l *LazyBackend) Name() string {
	return l.name
}

// Generate constructs the backend on first call and delegates to it
func (l *LazyBackend) Generate(ctx context.Context, prompt string) (string, error) {
	backend, err := l.get()
	if err != nil {
		return "", err
	}
	return backend.Generate(ctx, prompt)
}

// IsAvailable reports false when construction fails
func (l *LazyBackend) IsAvailable(ctx context.Context) bool {
	backend, err := l.get()
	if err != nil {
		return false
	}
	return backend.IsAvailable(ctx)
}

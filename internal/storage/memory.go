package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository implements Repository in process memory. State lives for
// the lifetime of the process.
type MemoryRepository[T any] struct {
	mu     sync.RWMutex
	items  map[string]T
	order  []string
	closed bool
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository[T any]() *MemoryRepository[T] {
	return &MemoryRepository[T]{
		items: make(map[string]T),
	}
}

// Create stores v under id
func (r *MemoryRepository[T]) Create(ctx context.Context, id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.items[id]; exists {
		return fmt.Errorf("%s: %w", id, ErrAlreadyExists)
	}

	r.items[id] = v
	r.order = append(r.order, id)
	return nil
}

// Get retrieves the record stored under id
func (r *MemoryRepository[T]) Get(ctx context.Context, id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if r.closed {
		return zero, ErrClosed
	}

	v, ok := r.items[id]
	if !ok {
		return zero, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return v, nil
}

// Update replaces the record stored under id
func (r *MemoryRepository[T]) Update(ctx context.Context, id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.items[id]; !exists {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	r.items[id] = v
	return nil
}

// Delete removes the record stored under id
func (r *MemoryRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.items[id]; !exists {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	delete(r.items, id)
	for i, k := range r.order {
		if k == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns the records accepted by keep in insertion order
func (r *MemoryRepository[T]) List(ctx context.Context, keep func(T) bool) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}

	result := make([]T, 0, len(r.order))
	for _, id := range r.order {
		v := r.items[id]
		if keep == nil || keep(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

// Count returns the number of stored records
func (r *MemoryRepository[T]) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrClosed
	}
	return len(r.items), nil
}

// Ping reports whether the repository accepts requests
func (r *MemoryRepository[T]) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Close drops all records and rejects further requests
func (r *MemoryRepository[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.items = make(map[string]T)
	r.order = nil
	return nil
}

package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrClosed        = errors.New("repository is closed")
)

// Repository defines the interface for keyed record storage
type Repository[T any] interface {
	Create(ctx context.Context, id string, v T) error
	Get(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	// List returns records accepted by keep (all when nil) in insertion order
	List(ctx context.Context, keep func(T) bool) ([]T, error)
	Count(ctx context.Context) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

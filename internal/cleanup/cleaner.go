package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/health-assistant/internal/models"
)

// SessionStore is the part of the assessment manager the cleaner needs
type SessionStore interface {
	GetExpired(ctx context.Context) ([]*models.Session, error)
	DeleteIfExpired(ctx context.Context, id string) (bool, error)
}

// Cleaner handles periodic removal of idle assessment sessions
type Cleaner struct {
	store    SessionStore
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store SessionStore, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Cleaner{
		store:    store,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep deletes every expired session once and returns how many were removed
func (c *Cleaner) Sweep(ctx context.Context) int {
	expired, err := c.store.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired sessions", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("no expired sessions found")
		return 0
	}

	slog.Info("found expired sessions", "count", len(expired))

	removed := 0
	for _, s := range expired {
		deleted, err := c.store.DeleteIfExpired(ctx, s.ID)
		if err != nil {
			slog.Error("failed to delete expired session",
				"error", err,
				"id", s.ID,
			)
			continue
		}
		if !deleted {
			slog.Debug("session active again, kept", "id", s.ID)
			continue
		}

		slog.Info("expired session deleted",
			"id", s.ID,
			"kind", s.Kind,
			"last_activity", s.UpdatedAt,
		)
		removed++
	}
	return removed
}

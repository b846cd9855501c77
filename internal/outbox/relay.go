package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// Relay defaults. A 5-second poll keeps index cleanup lag well under
// user-visible staleness; 100 events per tick bounds one tick's work.
const (
	DefaultInterval   = 5 * time.Second
	DefaultBatchLimit = 100
)

// ErrAlreadyRunning means another relay process holds the lock file.
var ErrAlreadyRunning = errors.New("outbox relay already running")

// Store defines the outbox persistence operations the relay needs.
type Store interface {
	// ListUnpublished returns pending events oldest first, at most limit.
	ListUnpublished(ctx context.Context, limit int32) ([]Event, error)

	// MarkPublished stamps the event's published_at. Called only after
	// the event's effect has been applied.
	MarkPublished(ctx context.Context, id int64) error
}

// Index defines the vector-index operation the relay applies.
type Index interface {
	DeleteByMaterial(ctx context.Context, materialID int32) error
}

// Option configures a Relay.
type Option func(*Relay)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchLimit sets how many pending events one tick may process.
func WithBatchLimit(n int32) Option {
	return func(r *Relay) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithLockFile makes Run hold an exclusive file lock for its lifetime
// so at most one relay drains the outbox per host.
func WithLockFile(path string) Option {
	return func(r *Relay) {
		r.lockPath = path
	}
}

// Relay polls the outbox and applies pending events to the vector
// index. It is the only component allowed to mark events published.
type Relay struct {
	store    Store
	index    Index
	logger   *slog.Logger
	interval time.Duration
	limit    int32
	lockPath string
}

// NewRelay creates a Relay.
func NewRelay(store Store, index Index, logger *slog.Logger, opts ...Option) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		store:    store,
		index:    index,
		logger:   logger,
		interval: DefaultInterval,
		limit:    DefaultBatchLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is canceled. One tick runs immediately so a
// restart drains the backlog without waiting a full interval. Returns
// nil on cancellation, ErrAlreadyRunning if the lock is held elsewhere.
func (r *Relay) Run(ctx context.Context) error {
	if r.lockPath != "" {
		lock := flock.New(r.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquiring relay lock %s: %w", r.lockPath, err)
		}
		if !locked {
			return ErrAlreadyRunning
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("releasing relay lock", "path", r.lockPath, "error", err)
			}
		}()
	}

	r.logger.Info("outbox relay started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick drains up to one batch of pending events. Each event is applied
// independently: a failing event is logged and left pending for the
// next tick, and never blocks the events behind it. An event is marked
// published only after its index effect succeeded, so a crash between
// the two replays the delete, which is idempotent.
func (r *Relay) Tick(ctx context.Context) {
	events, err := r.store.ListUnpublished(ctx, r.limit)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("listing pending outbox events", "error", err)
		}
		return
	}

	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		r.apply(ctx, ev)
	}
}

func (r *Relay) apply(ctx context.Context, ev Event) {
	if ev.Aggregate != AggregateMaterial || ev.EventType != EventDelete {
		// Unknown events stay pending so a newer relay can pick
		// them up after a rolling upgrade.
		r.logger.Warn("skipping unrecognized outbox event",
			"event_id", ev.ID, "aggregate", ev.Aggregate, "event_type", ev.EventType)
		return
	}

	payload, err := DecodeDeletePayload(ev.Payload)
	if err != nil {
		r.logger.Error("malformed outbox payload",
			"event_id", ev.ID, "error", err)
		return
	}

	if err := r.index.DeleteByMaterial(ctx, payload.MaterialID); err != nil {
		r.logger.Error("applying outbox delete",
			"event_id", ev.ID, "material_id", payload.MaterialID, "error", err)
		return
	}

	if err := r.store.MarkPublished(ctx, ev.ID); err != nil {
		// The delete already happened; the event replays next tick
		// and the repeated delete is a no-op.
		r.logger.Error("marking outbox event published",
			"event_id", ev.ID, "error", err)
		return
	}

	r.logger.Debug("outbox event published",
		"event_id", ev.ID, "material_id", payload.MaterialID)
}

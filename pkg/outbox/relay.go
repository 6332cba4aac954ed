package outbox

import (
	"context"
	"log/slog"
	"time"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
	now       func() time.Time
}

type Option func(*Relay)

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLease(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.lease = d
		}
	}
}

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string, opts ...Option) *Relay {
	r := &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.log.Error("relay batch error", "relay_id", r.relayID, "err", err)
			}
		}
	}
}

// RelayOnce moves one batch and reports how many events were sent. Failed
// events are marked and left for a later batch. The lease on the rest of
// the batch is renewed once half of it has elapsed.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	leasedAt := r.now()
	sent := make([]int64, 0, len(events))
	for i, e := range events {
		if r.now().Sub(leasedAt) > r.lease/2 {
			if err := r.store.ExtendLease(ctx, r.relayID, pendingIDs(events[i:]), r.lease); err != nil {
				r.log.Warn("relay lease extension failed", "relay_id", r.relayID, "err", err)
			}
			leasedAt = r.now()
		}
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			if merr := r.store.MarkFailed(ctx, e.ID, err.Error()); merr != nil {
				r.log.Error("relay mark failed error", "event_id", e.ID, "err", merr)
			}
			continue
		}
		sent = append(sent, e.ID)
	}
	if len(sent) > 0 {
		if err := r.store.MarkSent(ctx, sent); err != nil {
			return 0, err
		}
	}
	return len(sent), nil
}

func pendingIDs(events []Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

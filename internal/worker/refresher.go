// Package worker runs the background snapshot refresher: it keeps the cached
// availability snapshot in step with writes made by other processes, via the
// Redis change channel, plus a periodic full re-sync as a safety net.
package worker

import (
	"context"
	"time"

	"tripledoble/internal/events"

	"github.com/rs/zerolog"
)

// SnapshotSource rebuilds the availability snapshot from storage.
type SnapshotSource interface {
	RefreshSnapshot(ctx context.Context) error
}

// ChangeListener delivers cross-process reservation change notifications.
type ChangeListener interface {
	Listen(ctx context.Context, handler func(events.ReservationEventPayload)) error
}

type SnapshotRefresher struct {
	source         SnapshotSource
	listener       ChangeListener
	bus            *events.EventBus
	retryPolicy    RetryPolicy
	resyncInterval time.Duration
	kick           chan struct{}
	logger         zerolog.Logger
}

// NewSnapshotRefresher builds a refresher with sane defaults. listener and
// bus may each be nil; the periodic re-sync still runs.
func NewSnapshotRefresher(
	source SnapshotSource,
	listener ChangeListener,
	bus *events.EventBus,
	retry RetryPolicy,
	resyncInterval time.Duration,
	logger zerolog.Logger,
) *SnapshotRefresher {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 30 * time.Second
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if resyncInterval <= 0 {
		resyncInterval = 5 * time.Minute
	}

	w := &SnapshotRefresher{
		source:         source,
		listener:       listener,
		bus:            bus,
		retryPolicy:    retry,
		resyncInterval: resyncInterval,
		kick:           make(chan struct{}, 1),
		logger:         logger.With().Str("component", "snapshot_refresher").Logger(),
	}
	// Подписка оформляется сразу, чтобы события, опубликованные до запуска
	// цикла, не потерялись.
	w.subscribeLocal()
	return w
}

// Start runs the refresh loop until ctx is done. Local bus events and remote
// change notifications collapse into a single pending kick, so a burst of
// writes costs one refresh.
func (w *SnapshotRefresher) Start(ctx context.Context) {
	w.logger.Info().Dur("resync_interval", w.resyncInterval).Msg("snapshot refresher started")
	defer w.logger.Info().Msg("snapshot refresher stopped")

	if w.listener != nil {
		go w.listenRemote(ctx)
	}

	ticker := time.NewTicker(w.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refreshWithRetry(ctx)
		case <-w.kick:
			w.refreshWithRetry(ctx)
		}
	}
}

// Kick schedules a refresh. Safe to call from any goroutine; collapses with
// any refresh already pending.
func (w *SnapshotRefresher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *SnapshotRefresher) subscribeLocal() {
	if w.bus == nil {
		return
	}
	handler := func(*events.Event) error {
		w.Kick()
		return nil
	}
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationConfirmed,
		events.EventReservationRejected,
		events.EventReservationDeleted,
	} {
		w.bus.Subscribe(eventType, handler)
	}
}

func (w *SnapshotRefresher) listenRemote(ctx context.Context) {
	for {
		err := w.listener.Listen(ctx, func(payload events.ReservationEventPayload) {
			w.logger.Debug().
				Int64("reservation_id", payload.ReservationID).
				Str("status", payload.Status).
				Msg("change notification received")
			w.Kick()
		})
		if ctx.Err() != nil {
			return
		}
		w.logger.Error().Err(err).Msg("change listener disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(1)):
		}
	}
}

func (w *SnapshotRefresher) refreshWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		err := w.source.RefreshSnapshot(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Error().Err(err).
			Int("attempt", attempt).
			Dur("next_delay", delay).
			Msg("snapshot refresh failed")

		if attempt == w.retryPolicy.MaxRetries {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

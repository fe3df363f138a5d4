package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/pier11/marina-map/internal/queue"
	"github.com/pier11/marina-map/internal/repository"
)

// Observer receives outcome counts for the pairing and map-delete
// workflows. *metrics.Metrics satisfies it.
type Observer interface {
	ObservePairing(operation, outcome string)
	ObserveMapDelete(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObservePairing(string, string) {}
func (nopObserver) ObserveMapDelete(string)       {}

// Options carries the collaborators shared by every service. Nil fields
// fall back to no-ops.
type Options struct {
	Events   queue.Publisher
	Observer Observer
	Log      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Events == nil {
		o.Events = queue.NopPublisher{}
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// publish sends events after a commit. A broker failure is logged and
// never surfaces to the caller.
func (o Options) publish(ctx context.Context, evs ...queue.Event) {
	actor := actorID(ctx)
	for _, ev := range evs {
		ev.ActorID = actor
		if err := o.Events.Publish(ctx, ev); err != nil {
			o.Log.Warn("publish event failed",
				zap.String("type", ev.Type), zap.String("event_id", ev.ID), zap.Error(err))
		}
	}
}

// withTx runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise. A transaction the store aborts over competing
// locks comes back as Conflict so the caller can resubmit.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if repository.IsLockConflict(err) {
				err = conflict(msgConcurrentUpdate)
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// translate maps repository lookup sentinels to API errors. Anything
// else passes through untouched.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrBoatNotFound):
		return notFound(msgBoatNotFound)
	case errors.Is(err, repository.ErrPositionNotFound):
		return notFound(msgPositionNotFound)
	case errors.Is(err, repository.ErrMapNotFound):
		return notFound(msgMapNotFound)
	case errors.Is(err, repository.ErrUserNotFound):
		return notFound(msgUserNotFound)
	}
	return err
}

// outcome labels err for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

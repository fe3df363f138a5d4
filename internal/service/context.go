package service

import (
	"context"

	"github.com/pier11/marina-map/internal/model"
)

type actorKey struct{}

// WithActor stores the authenticated user on ctx so services can stamp
// audit events with it.
func WithActor(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, actorKey{}, u)
}

// ActorFrom returns the user stored by WithActor, or nil.
func ActorFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(actorKey{}).(*model.User)
	return u
}

func actorID(ctx context.Context) uint64 {
	if u := ActorFrom(ctx); u != nil {
		return u.ID
	}
	return 0
}

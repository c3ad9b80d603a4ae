package auth

import (
	"context"

	"github.com/clinicdesk/clinic-api/internal/policy"
)

type contextKey string

const actorKey contextKey = "actor"

func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (policy.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(policy.Actor)
	return actor, ok
}

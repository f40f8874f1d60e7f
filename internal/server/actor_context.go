package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/hardhat-labs/scenecontract/modules/scene/domain/types"
)

type actorCtxKey struct{}

func withActor(ctx context.Context, actor types.Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

func currentActor(ctx context.Context) (types.Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(types.Actor)
	return a, ok
}

type roleCtxKey struct{}

func withRoleSlug(ctx context.Context, roleSlug string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, strings.TrimSpace(strings.ToLower(roleSlug)))
}

func currentRoleSlug(ctx context.Context) string {
	if v, ok := ctx.Value(roleCtxKey{}).(string); ok {
		return v
	}
	return ""
}

const (
	headerCompanyID   = "X-Company-ID"
	headerActorID     = "X-Actor-ID"
	headerActorGroups = "X-Actor-Groups"
	headerActorFlags  = "X-Actor-Flags"
	headerActorRole   = "X-Actor-Role"
)

// actorFromRequest builds the caller identity from gateway-injected headers.
// Groups are a comma list; flags are comma-separated name or name=false pairs.
func actorFromRequest(r *http.Request, company Company) types.Actor {
	actor := types.Actor{
		ID:        strings.TrimSpace(r.Header.Get(headerActorID)),
		CompanyID: company.ID,
	}
	for _, raw := range strings.Split(r.Header.Get(headerActorGroups), ",") {
		if g := strings.TrimSpace(raw); g != "" {
			actor.Groups = append(actor.Groups, g)
		}
	}
	for _, raw := range strings.Split(r.Header.Get(headerActorFlags), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if actor.Flags == nil {
			actor.Flags = make(map[string]bool)
		}
		name, value, found := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !found {
			actor.Flags[name] = true
			continue
		}
		actor.Flags[name] = strings.TrimSpace(strings.ToLower(value)) != "false"
	}
	return actor
}

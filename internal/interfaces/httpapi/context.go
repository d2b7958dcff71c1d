package httpapi

import (
	"context"
	"fmt"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/user"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// requirePrincipal returns the caller set by RequireAuth. Routes that reach a
// claim mutation without it are misconfigured, so the caller sees a 401.
func requirePrincipal(ctx context.Context) (user.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	if !ok || p.UserID == "" {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return p, nil
}

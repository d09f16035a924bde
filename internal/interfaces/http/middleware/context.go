package middleware

import (
	"context"

	"github.com/yumzoom/yumzoom/internal/application/ratelimit"
	"github.com/yumzoom/yumzoom/internal/domain/apiapp"
)

type contextKey int

const (
	userIDContextKey contextKey = iota
	claimsContextKey
	decisionContextKey
	tagsContextKey
)

// ContextWithUserID returns ctx carrying the acting user.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextGetUserID returns the acting user, set either from a session token
// or from the owner of the calling API application.
func ContextGetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDContextKey).(string)
	return v
}

// ContextGetClaims returns the session token claims, if any.
func ContextGetClaims(ctx context.Context) *Claims {
	v, _ := ctx.Value(claimsContextKey).(*Claims)
	return v
}

// ContextGetDecision returns the admission decision of a public API request.
func ContextGetDecision(ctx context.Context) *ratelimit.Decision {
	v, _ := ctx.Value(decisionContextKey).(*ratelimit.Decision)
	return v
}

// ContextGetApplication returns the calling API application, if any.
func ContextGetApplication(ctx context.Context) *apiapp.Application {
	if d := ContextGetDecision(ctx); d != nil {
		return d.Application
	}
	return nil
}

//Personal.AI order the ending

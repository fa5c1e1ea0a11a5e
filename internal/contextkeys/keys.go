// Package contextkeys provides shared context key definitions used across Luna packages.
// This package exists to avoid circular imports between packages that need to read/write
// context values (e.g., server and orchestrator).
package contextkeys

import "context"

// Key is the type for all Luna context keys.
type Key string

const (
	// TurnID stores the unique identifier for one conversation turn.
	// The HTTP layer mints it so handler logs and pipeline logs can be
	// joined; the orchestrator mints its own for console turns.
	TurnID Key = "luna.turn_id"

	// UserID stores the account the current operation belongs to.
	UserID Key = "luna.user_id"

	// ExecutionID stores the execution a dispatch operation is scoped to.
	ExecutionID Key = "luna.execution_id"
)

// WithTurnID returns a new context with the turn ID set.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, TurnID, turnID)
}

// GetTurnID retrieves the turn ID from context.
// Returns empty string if not set.
func GetTurnID(ctx context.Context) string {
	if v := ctx.Value(TurnID); v != nil {
		return v.(string)
	}
	return ""
}

// WithUserID returns a new context with the user ID set.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserID, userID)
}

// GetUserID retrieves the user ID from context.
// Returns empty string if not set.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserID); v != nil {
		return v.(string)
	}
	return ""
}

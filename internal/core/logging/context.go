package logging

import "context"

type contextKey string

const (
	tabIDKey  contextKey = "tab_id"
	userIDKey contextKey = "user_id"
)

// WithTabID tags ctx with the client instance id (the lease holder id).
func WithTabID(ctx context.Context, tabID string) context.Context {
	return context.WithValue(ctx, tabIDKey, tabID)
}

// WithUserID tags ctx with the server account id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// TabID returns the tab id from ctx, or "".
func TabID(ctx context.Context) string {
	id, _ := ctx.Value(tabIDKey).(string)
	return id
}

// UserID returns the user id from ctx, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

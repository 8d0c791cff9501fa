// Package notice holds the transient status messages shown to the user
// after an action finishes ("Preferences updated", "Could not mark as read").
// They are distinct from server notifications: notices never leave the client.
package notice

import (
	"context"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one status message.
type Notice struct {
	ID        int64     `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists notices.
type Store interface {
	Save(ctx context.Context, n Notice) (int64, error)
	List(ctx context.Context, limit int) ([]Notice, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Package notification holds the client-side model of server notifications
// and the read-status cache consulted before every mark-read request.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ID is an opaque notification identifier. The server may encode it as a
// JSON string or number; both decode to the same ID.
type ID string

// UnmarshalJSON accepts string and numeric identifiers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Known reports whether l is one of the enumerated levels.
func (l Level) Known() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError, LevelSuccess:
		return true
	}
	return false
}

// Notification is the client's read-only copy of a server notification.
// Message is opaque markup and is never interpreted.
type Notification struct {
	ID           ID        `json:"id" validate:"required"`
	Message      string    `json:"message"`
	Level        Level     `json:"level"`
	Unread       bool      `json:"unread"`
	TargetURL    string    `json:"target_url,omitempty"`
	EmailSubject string    `json:"email_subject,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// UnmarshalJSON also accepts target_object_url, which the list endpoint uses
// in place of target_url.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	var wire struct {
		plain
		TargetObjectURL string `json:"target_object_url"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*n = Notification(wire.plain)
	if n.TargetURL == "" {
		n.TargetURL = wire.TargetObjectURL
	}
	return nil
}

// Title is the short single-line text used in lists and alerts.
func (n Notification) Title() string {
	if n.EmailSubject != "" {
		return n.EmailSubject
	}
	return StripMarkup(n.Message)
}

// Page is one page of the paginated notification collection. Next is nil on
// the last page.
type Page struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []Notification `json:"results"`
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fields the client relies on. Unknown levels are
// accepted and rendered as info.
func Validate(n Notification) error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("invalid notification %q: %w", n.ID, err)
	}
	return nil
}

// Sanitize drops results that fail Validate and returns the errors for the
// dropped entries. The remaining order is preserved.
func Sanitize(results []Notification) ([]Notification, []error) {
	var errs []error
	kept := results[:0:0]
	for _, n := range results {
		if err := Validate(n); err != nil {
			errs = append(errs, err)
			continue
		}
		kept = append(kept, n)
	}
	return kept, errs
}

// ParseID converts user input such as a CLI argument to an ID. The server
// uses UUIDs; integer ids are accepted for older deployments.
func ParseID(s string) (ID, error) {
	if u, err := uuid.Parse(s); err == nil {
		return ID(u.String()), nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ID(s), nil
	}
	return "", fmt.Errorf("invalid notification id %q", s)
}

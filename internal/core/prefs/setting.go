// Package prefs models the web/email notification preference matrix.
//
// Email delivery refines web delivery: email enabled implies web enabled at
// every level. Enabling email forces web on, disabling web forces email off.
package prefs

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Channel is a delivery channel.
type Channel string

const (
	ChannelWeb   Channel = "web"
	ChannelEmail Channel = "email"
)

// ParseChannel parses "web" or "email".
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelWeb, ChannelEmail:
		return Channel(s), nil
	}
	return "", fmt.Errorf("unknown channel %q (want web or email)", s)
}

// Setting is one preference row as returned by the API. The global row has
// neither organization nor type.
type Setting struct {
	ID               string  `json:"id" validate:"required"`
	Organization     *string `json:"organization"`
	OrganizationName string  `json:"organization_name,omitempty"`
	Type             *string `json:"type"`
	Web              bool    `json:"web"`
	Email            bool    `json:"email"`
}

// IsGlobal reports whether s is the user's global row.
func (s Setting) IsGlobal() bool {
	return s.Organization == nil && s.Type == nil
}

// OrgID returns the organization id, empty for the global row.
func (s Setting) OrgID() string {
	if s.Organization == nil {
		return ""
	}
	return *s.Organization
}

// TypeName returns the notification type, empty for the global row.
func (s Setting) TypeName() string {
	if s.Type == nil {
		return ""
	}
	return *s.Type
}

// Pair is a web/email toggle pair.
type Pair struct {
	Web   bool `json:"web"`
	Email bool `json:"email"`
}

// Valid reports whether the pair satisfies email => web.
func (p Pair) Valid() bool {
	return !p.Email || p.Web
}

// Normalize repairs a pair violating email => web by turning email off.
func (p Pair) Normalize() Pair {
	if !p.Valid() {
		p.Email = false
	}
	return p
}

// With returns p with channel ch set to v, applying the implication rule.
func (p Pair) With(ch Channel, v bool) Pair {
	switch ch {
	case ChannelWeb:
		p.Web = v
		if !v {
			p.Email = false
		}
	case ChannelEmail:
		p.Email = v
		if v {
			p.Web = true
		}
	}
	return p
}

// Get returns the value of channel ch.
func (p Pair) Get(ch Channel) bool {
	if ch == ChannelEmail {
		return p.Email
	}
	return p.Web
}

func (s Setting) pair() Pair { return Pair{Web: s.Web, Email: s.Email} }

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSetting checks the fields the matrix relies on.
func ValidateSetting(s Setting) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid setting: %w", err)
	}
	if (s.Organization == nil) != (s.Type == nil) {
		return fmt.Errorf("invalid setting %s: organization and type must both be set or both be null", s.ID)
	}
	return nil
}

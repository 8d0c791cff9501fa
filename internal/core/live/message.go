// Package live decodes frames from the notification websocket and routes
// them to handlers through a dispatch table.
package live

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/colonyops/beacon/internal/core/notification"
)

// Kind tags a decoded message.
type Kind string

const (
	KindCountUpdate  Kind = "count-update"
	KindReloadSignal Kind = "reload-signal"
	KindPush         Kind = "push-notification"
	KindObjectAck    Kind = "object-subscription-ack"
)

// Frame types sent by the server in the "type" field.
const (
	FrameNotification = "notification"
	FrameObject       = "object_notification"
)

// Message is implemented by every decoded message.
type Message interface {
	Kind() Kind
}

// Count is the unread badge value. The server caps large counts and sends
// the string "99+" instead of a number.
type Count struct {
	Value    int  `json:"value"`
	Overflow bool `json:"overflow,omitempty"`
}

// String renders the badge text.
func (c Count) String() string {
	if c.Overflow {
		return strconv.Itoa(c.Value) + "+"
	}
	return strconv.Itoa(c.Value)
}

// Zero reports whether the badge should be removed.
func (c Count) Zero() bool { return c.Value == 0 && !c.Overflow }

// UnmarshalJSON accepts a number or a string such as "7" or "99+".
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseCount(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode count: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("decode count: negative value %d", n)
	}
	*c = Count{Value: n}
	return nil
}

// ParseCount parses badge text.
func ParseCount(s string) (Count, error) {
	s = strings.TrimSpace(s)
	overflow := strings.HasSuffix(s, "+")
	n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil || n < 0 {
		return Count{}, fmt.Errorf("decode count: invalid value %q", s)
	}
	return Count{Value: n, Overflow: overflow}, nil
}

// CountUpdate replaces the unread badge.
type CountUpdate struct {
	Count Count `json:"count"`
}

func (CountUpdate) Kind() Kind { return KindCountUpdate }

// ReloadSignal asks the client to discard its list and fetch it again.
type ReloadSignal struct{}

func (ReloadSignal) Kind() Kind { return KindReloadSignal }

// PushNotification announces a new notification to alert on.
type PushNotification struct {
	Notification notification.Notification `json:"notification"`
}

func (PushNotification) Kind() Kind { return KindPush }

// ObjectAck reports that notifications for the subscribed object are
// disabled until ValidTill, or permanently when ValidTill is nil.
type ObjectAck struct {
	ValidTill *time.Time `json:"valid_till"`
}

func (ObjectAck) Kind() Kind { return KindObjectAck }

// Permanent reports whether the object is muted without expiry.
func (a ObjectAck) Permanent() bool { return a.ValidTill == nil }

// ObjectSubscribe is the frame sent after connecting to receive ObjectAck
// messages for one object.
type ObjectSubscribe struct {
	Type      string `json:"type"`
	ObjectID  string `json:"object_id"`
	AppLabel  string `json:"app_label"`
	ModelName string `json:"model_name"`
}

// NewObjectSubscribe builds the subscription frame.
func NewObjectSubscribe(app, model, id string) ObjectSubscribe {
	return ObjectSubscribe{Type: FrameObject, ObjectID: id, AppLabel: app, ModelName: model}
}

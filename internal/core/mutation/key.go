package mutation

import "strings"

// Key identifies the resource a mutation affects. Keys are slash separated
// paths; a key covers every key below it.
type Key string

// Well-known roots.
const (
	KeyNotifications Key = "notification"
	KeyPreferences   Key = "preference"
	KeyObjects       Key = "object"
)

// Join appends path segments to k.
func (k Key) Join(parts ...string) Key {
	if len(parts) == 0 {
		return k
	}
	return Key(string(k) + "/" + strings.Join(parts, "/"))
}

// Conflicts reports whether k and other overlap: equal, or one is a path
// prefix of the other.
func (k Key) Conflicts(other Key) bool {
	a, b := string(k), string(other)
	if a == b {
		return true
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(b, a) && b[len(a)] == '/'
}

// NotificationKey is the key for one notification's read state.
func NotificationKey(id string) Key { return KeyNotifications.Join(id) }

// SettingKey is the key for one preference row.
func SettingKey(orgID, settingID string) Key {
	return KeyPreferences.Join("org", orgID, "setting", settingID)
}

// OrgKey is the key for an organization aggregate.
func OrgKey(orgID string) Key { return KeyPreferences.Join("org", orgID) }

// ObjectKey is the key for one object's mute state.
func ObjectKey(app, model, id string) Key { return KeyObjects.Join(app, model, id) }

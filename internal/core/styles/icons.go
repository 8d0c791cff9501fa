package styles

import "github.com/colonyops/beacon/internal/core/notification"

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconBell      = "\U000F009A" // 󰂚
	IconBellOff   = "\U000F009B" // 󰂛
	IconUnread    = "●"
	IconRead      = " "
	IconDot       = "•"
	IconConnected = "\U000F0318" // 󰌘
	IconOffline   = "\U000F0319" // 󰌙
)

// Level icons.
var (
	IconInfo    = "" //
	IconSuccess = "" //
	IconWarning = "" //
	IconError   = "" //
)

// LevelIcon returns the icon for a notification level.
func LevelIcon(level notification.Level) string {
	switch level {
	case notification.LevelSuccess:
		return IconSuccess
	case notification.LevelWarning:
		return IconWarning
	case notification.LevelError:
		return IconError
	default:
		return IconInfo
	}
}

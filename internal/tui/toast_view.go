package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/beacon/internal/core/alert"
	"github.com/colonyops/beacon/internal/core/notification"
	"github.com/colonyops/beacon/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders push alerts and notices as one stack, alerts first.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders the stack, oldest at top and newest at bottom.
func (v *ToastView) View(alerts []alert.Alert) string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 && len(alerts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(alerts)+len(toasts))
	for _, a := range alerts {
		rendered = append(rendered, renderAlert(a))
	}
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}
	return strings.Join(rendered, "\n")
}

func renderAlert(a alert.Alert) string {
	n := a.Notification
	content := styles.LevelIcon(n.Level) + " " + truncate(n.Title(), toastWidth-6)
	if n.TargetURL != "" {
		content += "\n" + styles.MutedStyle.Render("o open · x dismiss")
	}
	return styles.ToastStyle(n.Level).Width(toastWidth).Render(content)
}

func renderToast(t toast) string {
	level := notification.Level(t.notice.Level)
	content := styles.LevelIcon(level) + " " + t.notice.Message
	return styles.ToastStyle(level).Width(toastWidth).Render(content)
}

// Overlay replaces the bottom lines of background with the toast stack,
// right aligned.
func (v *ToastView) Overlay(background string, alerts []alert.Alert, width, height int) string {
	content := v.View(alerts)
	if content == "" {
		return background
	}

	bg := strings.Split(background, "\n")
	for len(bg) < height {
		bg = append(bg, "")
	}

	toastLines := strings.Split(content, "\n")
	start := max(len(bg)-len(toastLines), 0)
	for i, line := range toastLines {
		if start+i >= len(bg) {
			break
		}
		bg[start+i] = lipgloss.PlaceHorizontal(width, lipgloss.Right, line)
	}
	return strings.Join(bg, "\n")
}

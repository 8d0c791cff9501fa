// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/beacon/internal/core/notification"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	DividerStyle lipgloss.Style
	MutedStyle   lipgloss.Style

	// List rows.
	UnreadMarkerStyle   lipgloss.Style
	RowTitleStyle       lipgloss.Style
	RowTitleUnreadStyle lipgloss.Style
	RowTimeStyle        lipgloss.Style
	SelectedBorderStyle lipgloss.Style

	// Chrome.
	BadgeStyle       lipgloss.Style
	TabActiveStyle   lipgloss.Style
	TabInactiveStyle lipgloss.Style
	StatusBarStyle   lipgloss.Style
	OnStyle          lipgloss.Style
	OffStyle         lipgloss.Style

	// Toasts, one per level.
	ToastInfoStyle    lipgloss.Style
	ToastSuccessStyle lipgloss.Style
	ToastWarningStyle lipgloss.Style
	ToastErrorStyle   lipgloss.Style

	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	ModalHelpStyle  lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	UnreadMarkerStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	RowTitleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	RowTitleUnreadStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	RowTimeStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SelectedBorderStyle = lipgloss.NewStyle().Foreground(p.Primary)

	BadgeStyle = lipgloss.NewStyle().
		Background(p.Error).
		Foreground(p.Background).
		Bold(true).
		Padding(0, 1)
	TabActiveStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true).Underline(true)
	TabInactiveStyle = lipgloss.NewStyle().Foreground(p.Muted)
	StatusBarStyle = lipgloss.NewStyle().Foreground(p.Muted)
	OnStyle = lipgloss.NewStyle().Foreground(p.Success)
	OffStyle = lipgloss.NewStyle().Foreground(p.Muted)

	toast := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	ToastInfoStyle = toast.BorderForeground(p.Primary)
	ToastSuccessStyle = toast.BorderForeground(p.Success)
	ToastWarningStyle = toast.BorderForeground(p.Warning)
	ToastErrorStyle = toast.BorderForeground(p.Error)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.Foreground)
	ModalHelpStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginTop(1)
}

// ApplyTheme switches to the named theme and reports whether it exists.
func ApplyTheme(name string) bool {
	p, ok := GetPalette(name)
	if ok {
		SetTheme(p)
	}
	return ok
}

// ToastStyle returns the toast frame for a notification level.
func ToastStyle(level notification.Level) lipgloss.Style {
	switch level {
	case notification.LevelError:
		return ToastErrorStyle
	case notification.LevelWarning:
		return ToastWarningStyle
	case notification.LevelSuccess:
		return ToastSuccessStyle
	default:
		return ToastInfoStyle
	}
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := hexPtr(CurrentPalette.Foreground)
	primary := hexPtr(CurrentPalette.Primary)
	secondary := hexPtr(CurrentPalette.Secondary)
	muted := hexPtr(CurrentPalette.Muted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = primary
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}

package tui

import (
	"fmt"

	"github.com/colonyops/beacon/internal/core/prefs"
	"github.com/colonyops/beacon/internal/core/styles"
)

type prefLineKind int

const (
	prefGlobal prefLineKind = iota
	prefOrg
	prefRow
)

// prefLine is one selectable line of the preferences view.
type prefLine struct {
	kind      prefLineKind
	orgID     string
	settingID string
	label     string
	pair      prefs.Pair
	// counts, organization lines only
	web, email, total int
}

// buildPrefLines flattens the matrix into global, organization and row
// lines in display order.
func buildPrefLines(m *prefs.Matrix) []prefLine {
	if m == nil {
		return nil
	}

	var lines []prefLine
	if p, id, ok := m.Global(); ok {
		lines = append(lines, prefLine{kind: prefGlobal, settingID: id, label: "All notifications", pair: p})
	}
	for _, org := range m.Orgs() {
		name := org.Name
		if name == "" {
			name = org.ID
		}
		lines = append(lines, prefLine{
			kind:  prefOrg,
			orgID: org.ID,
			label: name,
			pair:  org.Aggregate,
			web:   org.WebCount,
			email: org.EmailCount,
			total: len(org.Rows),
		})
		for _, r := range org.Rows {
			lines = append(lines, prefLine{
				kind:      prefRow,
				orgID:     org.ID,
				settingID: r.ID,
				label:     r.Type,
				pair:      r.Pair,
			})
		}
	}
	return lines
}

func toggle(on bool, label string) string {
	if on {
		return styles.OnStyle.Render("[x] " + label)
	}
	return styles.OffStyle.Render("[ ] " + label)
}

func renderPrefLine(l prefLine, selected bool) string {
	border := "  "
	if selected {
		border = styles.SelectedBorderStyle.Render("┃") + " "
	}

	cols := toggle(l.pair.Web, "web") + "  " + toggle(l.pair.Email, "email")
	var label string
	switch l.kind {
	case prefGlobal:
		label = styles.HeaderStyle.Render(l.label)
	case prefOrg:
		counts := styles.MutedStyle.Render(fmt.Sprintf("%d/%d web  %d/%d email", l.web, l.total, l.email, l.total))
		label = styles.HeaderStyle.Render(l.label) + "  " + counts
	default:
		label = "    " + l.label
	}

	return border + cols + "  " + label
}

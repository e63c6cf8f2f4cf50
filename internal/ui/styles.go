package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme colors used throughout the UI.
const (
	ColorAccent    = "86"  // titles, focused borders
	ColorHighlight = "205" // selection
	ColorDanger    = "196" // errors
	ColorMuted     = "241" // hints, disabled actions
	ColorText      = "252"
	ColorWarning   = "208"
	ColorOK        = "42" // read values
)

// Styles contains shared style definitions used across views and modals.
var Styles = struct {
	Title        lipgloss.Style
	TitleWarning lipgloss.Style

	Pane        lipgloss.Style // unfocused pane border
	PaneFocused lipgloss.Style
	Box         lipgloss.Style // modal box
	BoxDanger   lipgloss.Style

	Selected lipgloss.Style
	Muted    lipgloss.Style
	Normal   lipgloss.Style
	Hint     lipgloss.Style
	Section  lipgloss.Style
	Empty    lipgloss.Style
	Value    lipgloss.Style
	Error    lipgloss.Style
	Details  lipgloss.Style

	StatusBar      lipgloss.Style
	StatusBarError lipgloss.Style
	ActionKey      lipgloss.Style
	ActionDisabled lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	TitleWarning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Pane: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	PaneFocused: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(1, 2),
	BoxDanger: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDanger)).
		Padding(1, 2),
	Selected: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Section: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
	Value: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorOK)),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Details: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorWarning)),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("236")).
		Padding(0, 1),
	StatusBarError: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)).
		Background(lipgloss.Color("236")).
		Bold(true).
		Padding(0, 1),
	ActionKey: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true),
	ActionDisabled: lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")),
}

// NewCompactListDelegate returns a single-line list delegate with shared styles.
func NewCompactListDelegate() list.DefaultDelegate {
	d := list.NewDefaultDelegate()
	d.SetSpacing(0)
	d.ShowDescription = false
	d.Styles.SelectedTitle = Styles.Selected.PaddingLeft(1)
	d.Styles.NormalTitle = Styles.Normal.PaddingLeft(1)
	d.Styles.DimmedTitle = Styles.Muted.PaddingLeft(1)
	return d
}

// newTableStyles returns table styles matching the theme.
func newTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ColorHighlight)).
		Background(lipgloss.Color("236")).
		Bold(true)
	return s
}

package ui

import tea "github.com/charmbracelet/bubbletea"

// View is a screen region or modal with its own Elm-style model.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}

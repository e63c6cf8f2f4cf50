package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModal asks a yes/no question. Enter or y confirms; Esc or n cancels.
type ConfirmModal struct {
	Title     string
	Label     string
	Details   string
	OnConfirm func() tea.Msg
}

// Ensure ConfirmModal implements View.
var _ View = (*ConfirmModal)(nil)

// NewConfirmModal creates a confirmation modal.
func NewConfirmModal(title, label string, onConfirm func() tea.Msg) *ConfirmModal {
	return &ConfirmModal{Title: title, Label: label, OnConfirm: onConfirm}
}

// WithDetails adds warning details to the modal.
func (m *ConfirmModal) WithDetails(details string) *ConfirmModal {
	m.Details = details
	return m
}

// NewQuitConfirmModal asks before quitting with a live connection.
func NewQuitConfirmModal(address string) *ConfirmModal {
	return NewConfirmModal("Quit?", "Connected to "+address, tea.Quit).
		WithDetails("The connection will be closed.")
}

// Init implements View.
func (m *ConfirmModal) Init() tea.Cmd { return nil }

// Update implements View.
func (m *ConfirmModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "n":
			return m, func() tea.Msg { return DismissModalMsg{} }
		case "enter", "y":
			if m.OnConfirm != nil {
				return m, m.OnConfirm
			}
		}
	}
	return m, nil
}

// View implements View.
func (m *ConfirmModal) View() string {
	content := Styles.TitleWarning.Render(m.Title) + "\n\n"
	content += m.Label
	if m.Details != "" {
		content += "\n" + Styles.Details.Render(m.Details)
	}
	content += "\n\n" + Styles.Hint.Render("y/Enter: confirm  Esc: cancel")
	return Styles.BoxDanger.Render(content)
}

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/ble"
)

// WriteModal prompts for a characteristic UUID and a text payload.
// Tab switches fields, Enter submits, Esc cancels.
type WriteModal struct {
	uuid    textinput.Model
	payload textinput.Model
	field   int // 0 = uuid, 1 = payload
	err     string
}

// Ensure WriteModal implements View.
var _ View = (*WriteModal)(nil)

// NewWriteModal creates the prompt, prefilled with uuid when non-empty.
func NewWriteModal(uuid string) *WriteModal {
	u := textinput.New()
	u.Placeholder = "2A39 or 00002a39-0000-1000-8000-00805f9b34fb"
	u.Prompt = "UUID: "
	u.Width = 40
	u.SetValue(uuid)

	p := textinput.New()
	p.Placeholder = "text to send"
	p.Prompt = "Data: "
	p.Width = 40

	m := &WriteModal{uuid: u, payload: p}
	if uuid == "" {
		m.focus(0)
	} else {
		m.focus(1)
	}
	return m
}

func (m *WriteModal) focus(field int) {
	m.field = field
	if field == 0 {
		m.uuid.Focus()
		m.payload.Blur()
	} else {
		m.payload.Focus()
		m.uuid.Blur()
	}
}

// Values returns the trimmed UUID and the raw payload.
func (m *WriteModal) Values() (string, string) {
	return strings.TrimSpace(m.uuid.Value()), m.payload.Value()
}

// Err is the validation message shown in the prompt, if any.
func (m *WriteModal) Err() string { return m.err }

// Init implements View.
func (m *WriteModal) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements View.
func (m *WriteModal) Update(msg tea.Msg) (View, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			return m, func() tea.Msg { return DismissModalMsg{} }
		case "tab", "shift+tab", "up", "down":
			m.focus(1 - m.field)
			return m, nil
		case "enter":
			return m, m.submit()
		}
	}
	var cmd tea.Cmd
	if m.field == 0 {
		m.uuid, cmd = m.uuid.Update(msg)
	} else {
		m.payload, cmd = m.payload.Update(msg)
	}
	return m, cmd
}

func (m *WriteModal) submit() tea.Cmd {
	uuid, payload := m.Values()
	switch {
	case uuid == "" || payload == "":
		m.err = "Please enter both a characteristic UUID and data."
		return nil
	case !ble.ValidUUID(uuid):
		m.err = "Not a UUID: " + uuid
		return nil
	}
	m.err = ""
	data := []byte(payload)
	return func() tea.Msg { return WriteMsg{UUID: uuid, Payload: data} }
}

// View implements View.
func (m *WriteModal) View() string {
	content := Styles.Title.Render("Write characteristic") + "\n\n"
	content += m.uuid.View() + "\n"
	content += m.payload.View() + "\n"
	if m.err != "" {
		content += "\n" + Styles.Error.Render(m.err) + "\n"
	}
	content += "\n" + Styles.Hint.Render("Tab: next field  Enter: write  Esc: cancel")
	return Styles.Box.Render(content)
}

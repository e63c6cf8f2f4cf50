package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/ble"
	"blescope/internal/session"
)

// ServicesView shows the GATT table of the connected device and a transcript
// of the last connect.
type ServicesView struct {
	table      table.Model
	transcript viewport.Model
	lines      []string
	listing    session.Listing
	focused    bool
}

// Ensure ServicesView implements View.
var _ View = (*ServicesView)(nil)

// NewServicesView creates an empty services view.
func NewServicesView() *ServicesView {
	t := table.New(
		table.WithColumns(serviceColumns(60)),
		table.WithRows(nil),
		table.WithHeight(6),
		table.WithStyles(newTableStyles()),
	)
	vp := viewport.New(60, 8)
	v := &ServicesView{table: t, transcript: vp}
	v.refreshTranscript()
	return v
}

// serviceColumns splits width across UUID / Properties / Signal.
func serviceColumns(width int) []table.Column {
	uuidW := max(width*45/100, 8)
	signalW := 9
	propsW := max(width-uuidW-signalW-4, 10)
	return []table.Column{
		{Title: "UUID", Width: uuidW},
		{Title: "Properties", Width: propsW},
		{Title: "Signal", Width: signalW},
	}
}

// Init implements View.
func (v *ServicesView) Init() tea.Cmd { return nil }

// SetSize sets the inner size; the table gets the top half.
func (v *ServicesView) SetSize(w, h int) {
	tableH := max(h/2-2, 3)
	v.table.SetColumns(serviceColumns(w))
	v.table.SetWidth(w)
	v.table.SetHeight(tableH)
	v.transcript.Width = w
	v.transcript.Height = max(h-tableH-4, 3)
	v.refreshTranscript()
}

// SetFocused toggles keyboard focus on the table.
func (v *ServicesView) SetFocused(f bool) {
	v.focused = f
	if f {
		v.table.Focus()
	} else {
		v.table.Blur()
	}
}

// SetListing replaces the table rows and the transcript body.
func (v *ServicesView) SetListing(header []string, l session.Listing) {
	v.listing = l
	rows := make([]table.Row, len(l.Rows))
	for i, r := range l.Rows {
		rows[i] = table.Row(r.Cells())
	}
	v.table.SetRows(rows)
	if len(rows) > 0 && v.table.Cursor() >= len(rows) {
		v.table.SetCursor(0)
	}
	v.lines = append(append([]string(nil), header...), l.Transcript()...)
	v.refreshTranscript()
}

// Clear removes rows and transcript.
func (v *ServicesView) Clear() {
	v.listing = session.Listing{}
	v.table.SetRows(nil)
	v.lines = nil
	v.refreshTranscript()
}

// ResetTranscript starts a new transcript with lines.
func (v *ServicesView) ResetTranscript(lines ...string) {
	v.lines = append([]string(nil), lines...)
	v.refreshTranscript()
}

// Append adds lines to the transcript.
func (v *ServicesView) Append(lines ...string) {
	v.lines = append(v.lines, lines...)
	v.refreshTranscript()
}

// Rows returns the table rows as displayed.
func (v *ServicesView) Rows() []table.Row { return v.table.Rows() }

// Transcript returns the transcript lines.
func (v *ServicesView) Transcript() []string { return v.lines }

// SelectedRow returns the characteristic under the cursor.
func (v *ServicesView) SelectedRow() (session.Row, bool) {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.listing.Rows) {
		return session.Row{}, false
	}
	return v.listing.Rows[i], true
}

func (v *ServicesView) refreshTranscript() {
	if len(v.lines) == 0 {
		v.transcript.SetContent(Styles.Empty.Render("Not connected."))
		return
	}
	v.transcript.SetContent(strings.Join(v.lines, "\n"))
	v.transcript.GotoBottom()
}

// Update implements View.
func (v *ServicesView) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	cmds = append(cmds, cmd)
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			v.transcript, cmd = v.transcript.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return v, tea.Batch(cmds...)
}

// View implements View.
func (v *ServicesView) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Services") + "\n")
	if len(v.listing.Rows) == 0 {
		b.WriteString(Styles.Empty.Render("No characteristics.") + "\n")
	} else {
		b.WriteString(v.table.View() + "\n")
		if r, ok := v.SelectedRow(); ok {
			b.WriteString(rowSummary(r) + "\n")
		}
	}
	b.WriteString(Styles.Section.Render("Transcript") + "\n")
	b.WriteString(v.transcript.View())
	return b.String()
}

// rowSummary renders the known name and last value of a characteristic.
func rowSummary(r session.Row) string {
	uuid := ble.ShortUUID(r.Characteristic.UUID)
	name := ble.KnownName(uuid)
	if name == "" {
		name = "in service " + ble.ShortUUID(r.ServiceUUID)
	}
	head := Styles.Selected.Render(uuid) + " " + Styles.Muted.Render(name)
	switch {
	case r.ReadErr != nil:
		return head + "  " + Styles.Error.Render("error: "+r.ReadErr.Error())
	case r.Attempted:
		return head + "  " + Styles.Value.Render(session.FormatValue(r.Value))
	case !r.Characteristic.Properties.Readable():
		return head + "  " + Styles.Muted.Render(fmt.Sprintf("(%s)", r.Characteristic.Properties))
	default:
		return head
	}
}

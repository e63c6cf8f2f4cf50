package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/ble"
	"blescope/internal/progress"
	"blescope/internal/session"
)

const (
	defaultActivityWidth  = 72
	defaultActivityHeight = 18
	maxActivityLines      = 500
)

// ActivityLog records task and session events. It is always collecting and
// is shown as an overlay with SPC l; esc closes it.
type ActivityLog struct {
	lines    []string
	viewport viewport.Model
	now      func() time.Time
}

// Ensure ActivityLog implements View.
var _ View = (*ActivityLog)(nil)

// NewActivityLog creates an empty log.
func NewActivityLog() *ActivityLog {
	vp := viewport.New(defaultActivityWidth, defaultActivityHeight)
	vp.Style = Styles.PaneFocused
	return &ActivityLog{viewport: vp, now: time.Now}
}

// Record appends a line for ev if it is worth showing.
func (l *ActivityLog) Record(ev any) {
	line := describeEvent(ev)
	if line == "" {
		return
	}
	ts := l.now()
	if pe, ok := ev.(progress.Event); ok && !pe.Timestamp.IsZero() {
		ts = pe.Timestamp
	}
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", ts.Format("15:04:05"), line))
	if len(l.lines) > maxActivityLines {
		l.lines = l.lines[len(l.lines)-maxActivityLines:]
	}
	l.refresh()
}

// Lines returns the recorded lines.
func (l *ActivityLog) Lines() []string { return l.lines }

func (l *ActivityLog) refresh() {
	content := strings.Join(l.lines, "\n")
	if content == "" {
		content = "No activity yet."
	}
	l.viewport.SetContent(content)
	l.viewport.GotoBottom()
}

// Init implements View.
func (l *ActivityLog) Init() tea.Cmd {
	l.refresh()
	return nil
}

// Update implements View.
func (l *ActivityLog) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" || msg.String() == "q" {
			return l, func() tea.Msg { return DismissModalMsg{} }
		}
	case tea.WindowSizeMsg:
		l.viewport.Width = max(msg.Width-6, 40)
		l.viewport.Height = max(msg.Height/2+4, 10)
		l.refresh()
		return l, nil
	}
	var cmd tea.Cmd
	l.viewport, cmd = l.viewport.Update(msg)
	return l, cmd
}

// View implements View.
func (l *ActivityLog) View() string {
	header := Styles.Title.Render("Activity") + Styles.Hint.Render("  Esc: close")
	return header + "\n" + l.viewport.View()
}

// describeEvent renders one feed event for the log.
func describeEvent(ev any) string {
	switch e := ev.(type) {
	case progress.Event:
		line := fmt.Sprintf("%s %s", statusIcon(e.Status), e.Message)
		if e.Err != nil && e.Status == progress.StatusError {
			line += ": " + e.Err.Error()
		}
		return line
	case session.ScanStarted:
		return fmt.Sprintf("scanning for %s", e.Timeout)
	case session.DeviceFound:
		return fmt.Sprintf("found %s", e.Entry.Label)
	case session.ScanFinished:
		return fmt.Sprintf("scan found %d device(s)", len(e.Entries))
	case session.ScanFailed:
		return "scan failed: " + e.Err.Error()
	case session.Connecting:
		return "connecting to " + e.Address
	case session.ServiceDiscovered:
		return "service " + ble.ShortUUID(e.UUID)
	case session.CharacteristicListed:
		return fmt.Sprintf("  characteristic %s (%s)", ble.ShortUUID(e.Characteristic.UUID), e.Characteristic.Properties)
	case session.CharacteristicRead:
		return fmt.Sprintf("  read %s: %s", ble.ShortUUID(e.UUID), session.FormatValue(e.Value))
	case session.CharacteristicReadFailed:
		return fmt.Sprintf("  read %s failed: %v", ble.ShortUUID(e.UUID), e.Err)
	case session.Connected:
		return fmt.Sprintf("connected to %s (%d characteristics)", e.Device.Address, len(e.Listing.Rows))
	case session.ConnectFailed:
		return fmt.Sprintf("connect to %s failed: %v", e.Address, e.Err)
	case session.ReadAllFinished:
		return "read all finished"
	case session.WriteDone:
		return fmt.Sprintf("wrote %d byte(s) to %s", e.Bytes, ble.ShortUUID(e.UUID))
	case session.WriteFailed:
		return fmt.Sprintf("write to %s failed: %v", ble.ShortUUID(e.UUID), e.Err)
	case session.Disconnected:
		return fmt.Sprintf("disconnected from %s (%s)", e.Address, e.Reason)
	case session.DisconnectFailed:
		return fmt.Sprintf("disconnect from %s failed: %v", e.Address, e.Err)
	case session.Notice:
		return e.Message
	}
	return ""
}

func statusIcon(s progress.Status) string {
	switch s {
	case progress.StatusRunning:
		return "●"
	case progress.StatusDone:
		return "✓"
	case progress.StatusError:
		return "✗"
	case progress.StatusAborted:
		return "⊘"
	default:
		return "•"
	}
}

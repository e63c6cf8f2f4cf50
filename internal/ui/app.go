package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"blescope/internal/artifact"
	"blescope/internal/progress"
	"blescope/internal/session"
	"blescope/internal/taskq"
	"blescope/internal/ui/textutil"
)

// Deps are the collaborators the UI drives.
type Deps struct {
	Session  *session.Session
	Queue    *taskq.Queue
	Feed     *progress.Feed
	Captures *artifact.Store // nil disables export
	Logger   *slog.Logger
	Backend  string // shown in the header
}

// AppModel is the root model. It owns every widget and derives enabled
// actions from session events.
type AppModel struct {
	Mode       AppMode
	Devices    *DeviceListView
	Panel      *DevicePanel
	Services   *ServicesView
	Activity   *ActivityLog
	Overlays   OverlayStack
	Focus      *FocusManager
	KeyHandler *KeyHandler

	Session  *session.Session
	Queue    *taskq.Queue
	Feed     *progress.Feed
	Captures *artifact.Store
	Logger   *slog.Logger
	Backend  string

	// Status is the status bar text; StatusIsError renders it as an error.
	Status        string
	StatusIsError bool

	connectedAddr string
	busyTask      string
	spinner       spinner.Model
	width         int
	height        int
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model with the default key bindings.
func NewAppModel(deps Deps) *AppModel {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = Styles.Title

	a := &AppModel{
		Mode:       ModeDisconnected,
		Devices:    NewDeviceListView(),
		Panel:      NewDevicePanel(),
		Services:   NewServicesView(),
		Activity:   NewActivityLog(),
		Focus:      NewFocusManager(FocusDevices, FocusServices),
		KeyHandler: NewKeyHandler(defaultKeybinds()),
		Session:    deps.Session,
		Queue:      deps.Queue,
		Feed:       deps.Feed,
		Captures:   deps.Captures,
		Logger:     logger,
		Backend:    deps.Backend,
		Status:     "Ready. Press s to scan.",
		spinner:    s,
	}
	return a
}

// defaultKeybinds registers every action key.
func defaultKeybinds() *KeybindRegistry {
	msg := func(m tea.Msg) tea.Cmd { return func() tea.Msg { return m } }
	connected := []AppMode{ModeConnected}
	disconnected := []AppMode{ModeDisconnected}

	reg := NewKeybindRegistry()
	reg.BindWithDesc("s", msg(ScanMsg{}), "Scan")
	reg.BindWithDescForMode("enter", msg(ConnectMsg{}), "Connect", disconnected)
	reg.BindWithDescForMode("c", msg(ConnectMsg{}), "Connect", disconnected)
	reg.BindWithDescForMode("d", msg(DisconnectMsg{}), "Disconnect", connected)
	reg.BindWithDescForMode("r", msg(ReadAllMsg{}), "Read all", connected)
	reg.BindWithDescForMode("w", msg(ShowWriteMsg{}), "Write", connected)
	reg.BindWithDescForMode("e", msg(ExportMsg{}), "Export", connected)
	reg.BindWithDesc("ctrl+x", msg(CancelTaskMsg{}), "Cancel")
	reg.BindWithDesc("tab", msg(FocusNextMsg{}), "Next pane")
	reg.BindWithDesc("q", msg(RequestQuitMsg{}), "Quit")
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")

	reg.BindWithDesc("SPC s", msg(ScanMsg{}), "Scan")
	reg.BindWithDescForMode("SPC c", msg(ConnectMsg{}), "Connect", disconnected)
	reg.BindWithDescForMode("SPC d", msg(DisconnectMsg{}), "Disconnect", connected)
	reg.BindWithDescForMode("SPC r", msg(ReadAllMsg{}), "Read all", connected)
	reg.BindWithDescForMode("SPC w", msg(ShowWriteMsg{}), "Write", connected)
	reg.BindWithDescForMode("SPC e", msg(ExportMsg{}), "Export capture", connected)
	reg.BindWithDesc("SPC x", msg(CancelTaskMsg{}), "Cancel task")
	reg.BindWithDesc("SPC l", msg(ShowActivityMsg{}), "Activity log")
	reg.BindWithDesc("SPC q", msg(RequestQuitMsg{}), "Quit")
	return reg
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (a *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: a}
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	return tea.Batch(listenCmd(a.Feed), a.Activity.Init())
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case feedMsg:
		cmd := a.handleFeedEvent(msg.Event)
		return a, tea.Batch(cmd, listenCmd(a.Feed))
	case feedClosedMsg:
		return a, nil
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		a.Overlays.UpdateTop(msg)
		return a, nil
	case spinner.TickMsg:
		var cmds []tea.Cmd
		if a.busyTask != "" && msg.ID == a.spinner.ID() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		_, cmd := a.Devices.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)
	case DismissModalMsg:
		a.Overlays.Pop()
		return a, nil
	case ScanMsg:
		return a, a.handleScan()
	case ConnectMsg:
		return a, a.handleConnect()
	case DisconnectMsg:
		return a, a.handleDisconnect()
	case ReadAllMsg:
		return a, a.handleReadAll()
	case ShowWriteMsg:
		return a, a.handleShowWrite()
	case WriteMsg:
		return a, a.handleWrite(msg)
	case ExportMsg:
		return a, a.handleExport()
	case CancelTaskMsg:
		return a, a.handleCancel()
	case ShowActivityMsg:
		a.Overlays.Push(a.Activity)
		return a, a.Activity.Init()
	case FocusNextMsg:
		a.setFocus(a.Focus.Next())
		return a, nil
	case RequestQuitMsg:
		return a, a.handleRequestQuit()
	case tea.KeyMsg:
		if a.Overlays.Len() > 0 {
			cmd, _ := a.Overlays.UpdateTop(msg)
			return a, cmd
		}
		if consumed, cmd := a.KeyHandler.Handle(msg, a.Mode); consumed {
			return a, cmd
		}
		return a, a.updateFocused(msg)
	}

	if a.Overlays.Len() > 0 {
		cmd, _ := a.Overlays.UpdateTop(msg)
		return a, cmd
	}
	return a, nil
}

// updateFocused routes navigation keys to the focused pane.
func (a *AppModel) updateFocused(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	if a.Focus.Is(FocusServices) {
		_, cmd = a.Services.Update(msg)
		return cmd
	}
	before, _ := a.Devices.Selected()
	_, cmd = a.Devices.Update(msg)
	if after, ok := a.Devices.Selected(); ok && after.Label != before.Label && a.Mode == ModeDisconnected {
		a.Panel.Show(after.Device, false)
	}
	return cmd
}

func (a *AppModel) setFocus(id string) {
	a.Focus.SetFocus(id)
	a.Services.SetFocused(id == FocusServices)
}

func (a *AppModel) resize(w, h int) {
	a.width, a.height = w, h
	left, right := a.paneWidths()
	bodyH := max(h-5, 8)
	a.Devices.SetSize(left-4, bodyH-2)
	a.Panel.Width = right - 4
	a.Services.SetSize(right-4, bodyH-12)
}

func (a *AppModel) paneWidths() (int, int) {
	w := a.width
	if w == 0 {
		w = 120
	}
	left := max(w*2/5, 30)
	return left, max(w-left, 30)
}

func (a *AppModel) setStatus(s string) {
	a.Status = s
	a.StatusIsError = false
}

func (a *AppModel) setError(s string) {
	a.Status = s
	a.StatusIsError = true
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	if top, ok := a.Overlays.Peek(); ok {
		w, h := a.width, a.height
		if w == 0 || h == 0 {
			return top.View()
		}
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, top.View())
	}

	left, right := a.paneWidths()
	devStyle, svcStyle := Styles.Pane, Styles.Pane
	if a.Focus.Is(FocusDevices) {
		devStyle = Styles.PaneFocused
	} else {
		svcStyle = Styles.PaneFocused
	}
	devices := devStyle.Width(left - 2).Render(a.Devices.View())
	rightCol := lipgloss.JoinVertical(lipgloss.Left,
		Styles.Pane.Width(right-2).Render(a.Panel.View()),
		svcStyle.Width(right-2).Render(a.Services.View()),
	)

	var b strings.Builder
	b.WriteString(a.header() + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, devices, rightCol) + "\n")
	b.WriteString(a.statusBar() + "\n")
	b.WriteString(a.actionBar())
	if help := RenderKeybindHelp(a.KeyHandler, a.Mode); help != "" {
		b.WriteString("\n" + help)
	}
	return b.String()
}

func (a *AppModel) header() string {
	h := Styles.Title.Render("blescope")
	if a.Backend != "" {
		h += Styles.Muted.Render(" [" + a.Backend + "]")
	}
	h += "  " + Styles.Normal.Render(a.Mode.String())
	if a.connectedAddr != "" {
		h += Styles.Muted.Render(" " + a.connectedAddr)
	}
	if a.busyTask != "" {
		h += "  " + a.spinner.View() + " " + Styles.Muted.Render(a.busyTask+"…")
	}
	return h
}

func (a *AppModel) statusBar() string {
	style := Styles.StatusBar
	if a.StatusIsError {
		style = Styles.StatusBarError
	}
	if a.width > 0 {
		return style.Width(a.width).Render(textutil.Truncate(a.Status, a.width-2))
	}
	return style.Render(a.Status)
}

// actionBar lists action keys; disabled ones are dimmed.
func (a *AppModel) actionBar() string {
	type action struct {
		key, label string
		enabled    bool
	}
	_, hasSelection := a.Devices.Selected()
	connected := a.Mode == ModeConnected
	actions := []action{
		{"s", "Scan", true},
		{"enter", "Connect", !connected && hasSelection},
		{"d", "Disconnect", connected},
		{"r", "Read", connected},
		{"w", "Write", connected},
		{"e", "Export", connected && a.Captures != nil},
		{"ctrl+x", "Cancel", a.busyTask != ""},
		{"SPC", "Help", true},
		{"q", "Quit", true},
	}
	parts := make([]string, len(actions))
	for i, ac := range actions {
		if ac.enabled {
			parts[i] = Styles.ActionKey.Render(ac.key) + " " + Styles.Muted.Render(ac.label)
		} else {
			parts[i] = Styles.ActionDisabled.Render(ac.key + " " + ac.label)
		}
	}
	return strings.Join(parts, "  ")
}

// ActionEnabled reports whether the named action is currently available.
// Names: scan, connect, disconnect, read, write, export.
func (a *AppModel) ActionEnabled(name string) bool {
	_, hasSelection := a.Devices.Selected()
	connected := a.Mode == ModeConnected
	switch name {
	case "scan":
		return true
	case "connect":
		return !connected && hasSelection
	case "disconnect", "read", "write":
		return connected
	case "export":
		return connected && a.Captures != nil
	}
	return false
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/session"
)

// deviceItem implements list.Item for a registry entry.
type deviceItem struct {
	session.Entry
}

func (d deviceItem) FilterValue() string { return d.Label }
func (d deviceItem) Title() string       { return d.Label }
func (d deviceItem) Description() string { return "" }

// DeviceListView lists the devices of the latest scan.
type DeviceListView struct {
	list     list.Model
	spinner  spinner.Model
	scanning bool
	message  string // shown instead of the list: progress, empty result, scan error
	isError  bool
	width    int
	height   int
}

// Ensure DeviceListView implements View.
var _ View = (*DeviceListView)(nil)

// NewDeviceListView creates an empty device list.
func NewDeviceListView() *DeviceListView {
	l := list.New(nil, NewCompactListDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(true)
	l.DisableQuitKeybindings()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = Styles.Title

	return &DeviceListView{
		list:    l,
		spinner: s,
		message: "Press s to scan for BLE devices.",
	}
}

// Init implements View.
func (d *DeviceListView) Init() tea.Cmd { return nil }

// SetSize sets the inner size of the pane.
func (d *DeviceListView) SetSize(w, h int) {
	d.width, d.height = w, h
	d.list.SetSize(w, max(h-1, 1))
}

// StartScan clears the list and starts the spinner.
func (d *DeviceListView) StartScan() tea.Cmd {
	d.scanning = true
	d.isError = false
	d.message = "Scanning for BLE devices..."
	d.list.SetItems(nil)
	return d.spinner.Tick
}

// AddDevice appends a device found while scanning.
func (d *DeviceListView) AddDevice(e session.Entry) tea.Cmd {
	return d.list.InsertItem(len(d.list.Items()), deviceItem{e})
}

// FinishScan replaces the items with the final scan result.
func (d *DeviceListView) FinishScan(entries []session.Entry) {
	d.scanning = false
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = deviceItem{e}
	}
	d.list.SetItems(items)
	d.list.Select(0)
	d.message = ""
	if len(entries) == 0 {
		d.message = "No BLE devices found."
	}
}

// FailScan shows err in place of the list.
func (d *DeviceListView) FailScan(err error) {
	d.scanning = false
	d.list.SetItems(nil)
	d.message = "Error: " + err.Error()
	d.isError = true
}

// Scanning reports whether a scan is in progress.
func (d *DeviceListView) Scanning() bool { return d.scanning }

// Len returns the number of listed devices.
func (d *DeviceListView) Len() int { return len(d.list.Items()) }

// Labels returns the listed labels in display order.
func (d *DeviceListView) Labels() []string {
	items := d.list.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.(deviceItem).Label
	}
	return out
}

// Selected returns the highlighted entry.
func (d *DeviceListView) Selected() (session.Entry, bool) {
	it, ok := d.list.SelectedItem().(deviceItem)
	if !ok {
		return session.Entry{}, false
	}
	return it.Entry, true
}

// Update implements View.
func (d *DeviceListView) Update(msg tea.Msg) (View, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !d.scanning {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(tick)
		return d, cmd
	}
	var cmd tea.Cmd
	d.list, cmd = d.list.Update(msg)
	return d, cmd
}

// View implements View.
func (d *DeviceListView) View() string {
	var b strings.Builder
	title := fmt.Sprintf("Devices (%d)", d.Len())
	if d.scanning {
		title += " " + d.spinner.View()
	}
	b.WriteString(Styles.Title.Render(title) + "\n")

	switch {
	case d.message != "" && d.Len() == 0:
		style := Styles.Empty
		if d.isError {
			style = Styles.Error
		}
		b.WriteString(style.Render(d.message))
	default:
		if d.list.Width() == 0 {
			d.list.SetSize(50, 10)
		}
		b.WriteString(d.list.View())
	}
	return b.String()
}

package ui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"blescope/internal/ble"
	"blescope/internal/ui/textutil"
)

// DevicePanel shows advertisement details of one device.
type DevicePanel struct {
	Device    *ble.Device
	Connected bool
	Width     int // columns available; 0 disables clipping
}

// NewDevicePanel creates an empty panel.
func NewDevicePanel() *DevicePanel {
	return &DevicePanel{}
}

// Show displays d.
func (p *DevicePanel) Show(d ble.Device, connected bool) {
	d = d.Clone()
	p.Device = &d
	p.Connected = connected
}

// Clear empties the panel.
func (p *DevicePanel) Clear() {
	p.Device = nil
	p.Connected = false
}

// Lines renders the panel body as plain text lines.
func (p *DevicePanel) Lines() []string {
	if p.Device == nil {
		return []string{"No device selected."}
	}
	d := p.Device
	lines := []string{
		"Device: " + d.DisplayName(),
		"MAC Address: " + d.Address,
		fmt.Sprintf("RSSI: %d dBm", d.RSSI),
	}
	if d.TxPower != nil {
		lines = append(lines, fmt.Sprintf("Tx Power: %d dBm", *d.TxPower))
	}
	if p.Connected {
		lines = append(lines, "State: connected")
	}

	lines = append(lines, "UUIDs:")
	if len(d.ServiceUUIDs) == 0 {
		lines = append(lines, "  (none advertised)")
	}
	for _, u := range d.ServiceUUIDs {
		line := "  - " + ble.ShortUUID(u)
		if name := ble.KnownName(u); name != "" {
			line += " " + name
		}
		lines = append(lines, line)
	}

	lines = append(lines, "Manufacturer Data:")
	if len(d.ManufacturerData) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, id := range d.VendorIDs() {
		lines = append(lines, fmt.Sprintf("  - 0x%04X: %s", id, hex.EncodeToString(d.ManufacturerData[id])))
	}
	return lines
}

// View renders the panel.
func (p *DevicePanel) View() string {
	lines := textutil.ClipLines(p.Lines(), p.Width)
	for i, l := range lines {
		switch {
		case strings.HasSuffix(l, ":") && !strings.HasPrefix(l, " "):
			lines[i] = Styles.Section.Render(l)
		case strings.HasPrefix(l, "  ("), l == "No device selected.":
			lines[i] = Styles.Empty.Render(l)
		}
	}
	return Styles.Title.Render("Device") + "\n" + strings.Join(lines, "\n")
}

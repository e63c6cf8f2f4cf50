package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"blescope/internal/ble"
	"blescope/internal/progress"
	"blescope/internal/session"
)

func TestDevicePanel_Lines(t *testing.T) {
	p := NewDevicePanel()
	assert.Equal(t, []string{"No device selected."}, p.Lines())

	tx := 4
	p.Show(ble.Device{
		Address:          sensorAddr,
		Name:             "Sensor1",
		RSSI:             -60,
		TxPower:          &tx,
		ServiceUUIDs:     []string{"180D"},
		ManufacturerData: map[uint16][]byte{0x004C: {0x02, 0x15}},
	}, false)

	lines := p.Lines()
	assert.Equal(t, "Device: Sensor1", lines[0])
	assert.Contains(t, lines, "MAC Address: "+sensorAddr)
	assert.Contains(t, lines, "Tx Power: 4 dBm")
	assert.Contains(t, lines, "  - 0x004C: 0215")
	assert.NotContains(t, lines, "State: connected")

	p.Clear()
	assert.Equal(t, []string{"No device selected."}, p.Lines())
}

func TestDeviceListView_ScanLifecycle(t *testing.T) {
	d := NewDeviceListView()
	d.SetSize(40, 10)

	d.StartScan()
	assert.True(t, d.Scanning())
	d.AddDevice(session.Entry{Label: "b", Device: ble.Device{Address: "B"}})
	assert.Equal(t, 1, d.Len())

	d.FinishScan([]session.Entry{
		{Label: "a", Device: ble.Device{Address: "A"}},
		{Label: "b", Device: ble.Device{Address: "B"}},
	})
	assert.False(t, d.Scanning())
	assert.Equal(t, []string{"a", "b"}, d.Labels())
	sel, ok := d.Selected()
	assert.True(t, ok)
	assert.Equal(t, "A", sel.Device.Address)

	d.FailScan(errors.New("boom"))
	assert.Equal(t, 0, d.Len())
	assert.Contains(t, d.View(), "Error: boom")
}

func TestServicesView_SelectedRow(t *testing.T) {
	v := NewServicesView()
	assert.Contains(t, v.View(), "No characteristics.")

	l := session.NewListing("A", []ble.Service{{UUID: "180F", Characteristics: []ble.Characteristic{
		{UUID: "2A19", Properties: ble.PropRead},
	}}}, -70)
	v.SetListing([]string{"header"}, l)

	row, ok := v.SelectedRow()
	assert.True(t, ok)
	assert.Equal(t, "2A19", row.Characteristic.UUID)
	assert.Equal(t, "header", v.Transcript()[0])
	assert.Contains(t, v.View(), "Battery Level")

	v.Clear()
	_, ok = v.SelectedRow()
	assert.False(t, ok)
}

func TestActivityLog_Record(t *testing.T) {
	l := NewActivityLog()
	l.now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }

	l.Record(session.DeviceFound{Entry: session.Entry{Label: "Sensor1"}, Count: 1})
	l.Record(progress.Event{Task: "scan", Message: "scan failed", Status: progress.StatusError, Err: errors.New("off")})
	l.Record(struct{}{})

	lines := l.Lines()
	assert.Equal(t, []string{
		"[15:04:05] found Sensor1",
		"[15:04:05] ✗ scan failed: off",
	}, lines)
	assert.True(t, strings.Contains(l.View(), "Activity"))
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "Not connected. Connect to a device first.", describeError(ble.ErrNotConnected))
	assert.Equal(t, "Invalid device selected. Scan again.", describeError(session.ErrUnknownDevice))
	assert.Equal(t, "plain", describeError(errors.New("plain")))
	assert.Equal(t, "", describeError(nil))
}

package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blescope/internal/ble"
)

func TestListing_Transcript(t *testing.T) {
	l := NewListing("A", []ble.Service{
		{UUID: "0000180d-0000-1000-8000-00805f9b34fb", Characteristics: []ble.Characteristic{
			{UUID: "2A37", Properties: ble.PropRead | ble.PropNotify},
			{UUID: "2A39", Properties: ble.PropWrite},
		}},
		{UUID: "180F", Characteristics: []ble.Characteristic{
			{UUID: "2A19", Properties: ble.PropRead},
		}},
	}, -60)
	l.setValue("2A37", []byte{0x00, 0x48})
	l.setReadErr("2a19", errors.New("timeout"))

	assert.Equal(t, []string{
		"[Service] 180D",
		"  - 2A37 (read, notify)",
		"    * Data: 0048",
		"  - 2A39 (write)",
		"",
		"[Service] 180F",
		"  - 2A19 (read)",
		"    * Error reading: timeout",
	}, l.Transcript())
}

func TestListing_CloneIsDeep(t *testing.T) {
	l := NewListing("A", []ble.Service{{UUID: "180F", Characteristics: []ble.Characteristic{{UUID: "2A19", Properties: ble.PropRead}}}}, -70)
	l.setValue("2A19", []byte{0x5A})
	c := l.Clone()
	c.Rows[0].Value[0] = 0
	c.Services[0].Characteristics[0].UUID = "FFFF"
	assert.Equal(t, []byte{0x5A}, l.Rows[0].Value)
	assert.Equal(t, "2A19", l.Services[0].Characteristics[0].UUID)
}

func TestListing_RowLookup(t *testing.T) {
	l := NewListing("A", []ble.Service{{UUID: "180F", Characteristics: []ble.Characteristic{{UUID: "2A19"}}}}, -70)
	r, ok := l.Row("00002a19-0000-1000-8000-00805f9b34fb")
	require.True(t, ok)
	assert.Equal(t, "180F", r.ServiceUUID)
	_, ok = l.Row("2A00")
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "(empty)", FormatValue(nil))
	assert.Equal(t, `48690a  "Hi."`, FormatValue([]byte("Hi\n")))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	e, isNew := r.Observe(ble.Device{Address: "A", RSSI: -80})
	assert.True(t, isNew)
	assert.Equal(t, "Unknown (A) -80 dBm", e.Label)

	e, isNew = r.Observe(ble.Device{Address: "A", Name: "Tag", RSSI: -75})
	assert.False(t, isNew)
	assert.Equal(t, "Tag (A) -75 dBm", e.Label)
	assert.Equal(t, 1, r.Len())

	d, ok := r.Lookup("Tag (A) -75 dBm")
	require.True(t, ok)
	assert.Equal(t, "A", d.Address)
	d, ok = r.Lookup("Unknown (A) -80 dBm")
	require.True(t, ok, "a label shown earlier in the scan still resolves")
	assert.Equal(t, "Tag", d.Name)

	r.Reset()
	assert.Equal(t, 0, r.Len())
	_, ok = r.Lookup("Tag (A) -75 dBm")
	assert.False(t, ok, "labels are forgotten on reset")
}

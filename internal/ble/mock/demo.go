package mock

import (
	"errors"

	"blescope/internal/ble"
)

// Demo returns a client populated with a few plausible peripherals.
// Used by --backend=mock so the UI can be exercised without a radio.
func Demo() *Client {
	tx := 4
	c := New(
		ble.Device{
			Address:      "AA:BB:CC:DD:EE:FF",
			Name:         "Sensor1",
			RSSI:         -60,
			ServiceUUIDs: []string{"180D", "180F"},
			Connectable:  true,
			TxPower:      &tx,
		},
		ble.Device{
			Address:          "11:22:33:44:55:66",
			Name:             "",
			RSSI:             -82,
			ManufacturerData: map[uint16][]byte{0x004C: {0x02, 0x15, 0x01}},
		},
		ble.Device{
			Address:      "C0:FF:EE:00:00:01",
			Name:         "Thermo",
			RSSI:         -71,
			ServiceUUIDs: []string{"181A"},
			Connectable:  true,
		},
	)

	hr := c.AddPeripheral("AA:BB:CC:DD:EE:FF",
		ble.Service{UUID: "180D", Characteristics: []ble.Characteristic{
			{UUID: "2A37", Properties: ble.PropRead | ble.PropNotify},
			{UUID: "2A38", Properties: ble.PropRead},
			{UUID: "2A39", Properties: ble.PropWrite},
		}},
		ble.Service{UUID: "180F", Characteristics: []ble.Characteristic{
			{UUID: "2A19", Properties: ble.PropRead | ble.PropNotify},
		}},
	)
	hr.SetValue("2A37", []byte{0x00, 0x48})
	hr.SetValue("2A38", []byte{0x01})
	hr.SetValue("2A19", []byte{0x5A})

	th := c.AddPeripheral("C0:FF:EE:00:00:01",
		ble.Service{UUID: "181A", Characteristics: []ble.Characteristic{
			{UUID: "2A6E", Properties: ble.PropRead},
			{UUID: "2A6F", Properties: ble.PropRead},
		}},
	)
	th.SetValue("2A6E", []byte{0x0A, 0x08})
	th.FailRead("2A6F", errInsufficientAuth)
	return c
}

var errInsufficientAuth = errors.New("ATT error 0x05: insufficient authentication")

// Package ble defines the boundary between blescope and a BLE client stack.
//
// Everything protocol-level (advertisement parsing, link setup, ATT/GATT
// transactions) happens behind Client and Conn. Implementations live in the
// goble, tinygo and mock subpackages.
package ble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotConnected          = errors.New("not connected")
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
	ErrBackendUnavailable    = errors.New("ble backend unavailable on this platform")
)

// Device is one peripheral seen while scanning.
type Device struct {
	Address          string
	Name             string
	ServiceUUIDs     []string
	ManufacturerData map[uint16][]byte
	RSSI             int // dBm
	Connectable      bool
	TxPower          *int // dBm, nil when not advertised
}

// DisplayName returns the advertised name, or "Unknown".
func (d Device) DisplayName() string {
	if strings.TrimSpace(d.Name) == "" {
		return "Unknown"
	}
	return d.Name
}

// Merge folds a later advertisement for the same address into d.
// Name and RSSI take the newer value; service UUIDs and manufacturer data accumulate.
func (d *Device) Merge(later Device) {
	if later.Name != "" {
		d.Name = later.Name
	}
	d.RSSI = later.RSSI
	d.Connectable = d.Connectable || later.Connectable
	if later.TxPower != nil {
		d.TxPower = later.TxPower
	}
	seen := make(map[string]bool, len(d.ServiceUUIDs))
	for _, u := range d.ServiceUUIDs {
		seen[NormalizeUUID(u)] = true
	}
	for _, u := range later.ServiceUUIDs {
		if !seen[NormalizeUUID(u)] {
			d.ServiceUUIDs = append(d.ServiceUUIDs, u)
			seen[NormalizeUUID(u)] = true
		}
	}
	if len(later.ManufacturerData) > 0 && d.ManufacturerData == nil {
		d.ManufacturerData = make(map[uint16][]byte, len(later.ManufacturerData))
	}
	for id, data := range later.ManufacturerData {
		d.ManufacturerData[id] = data
	}
}

// Clone returns a deep copy of d.
func (d Device) Clone() Device {
	out := d
	out.ServiceUUIDs = append([]string(nil), d.ServiceUUIDs...)
	if d.ManufacturerData != nil {
		out.ManufacturerData = make(map[uint16][]byte, len(d.ManufacturerData))
		for id, data := range d.ManufacturerData {
			out.ManufacturerData[id] = append([]byte(nil), data...)
		}
	}
	if d.TxPower != nil {
		p := *d.TxPower
		out.TxPower = &p
	}
	return out
}

// VendorIDs returns manufacturer data keys in ascending order.
func (d Device) VendorIDs() []uint16 {
	ids := make([]uint16, 0, len(d.ManufacturerData))
	for id := range d.ManufacturerData {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Characteristic is a GATT characteristic as reported by discovery.
type Characteristic struct {
	UUID       string
	Properties Properties
}

// Service is a GATT service and its characteristics.
type Service struct {
	UUID            string
	Characteristics []Characteristic
}

// Client is a BLE central.
type Client interface {
	// Scan reports advertisements to handler until ctx is done.
	// A ctx deadline ending the scan is not an error.
	Scan(ctx context.Context, handler func(Device)) error
	// Connect dials the peripheral with the given address.
	Connect(ctx context.Context, address string) (Conn, error)
}

// Conn is an open connection to one peripheral.
type Conn interface {
	Address() string
	Services(ctx context.Context) ([]Service, error)
	Read(ctx context.Context, charUUID string) ([]byte, error)
	Write(ctx context.Context, charUUID string, data []byte, withResponse bool) error
	Disconnect() error
	// Done is closed when the link goes away, for any reason.
	Done() <-chan struct{}
}

// FindCharacteristic returns the characteristic with the given UUID in any of services.
// Short and full UUID forms compare equal.
func FindCharacteristic(services []Service, charUUID string) (Characteristic, error) {
	want := NormalizeUUID(charUUID)
	for _, s := range services {
		for _, c := range s.Characteristics {
			if NormalizeUUID(c.UUID) == want {
				return c, nil
			}
		}
	}
	return Characteristic{}, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, charUUID)
}

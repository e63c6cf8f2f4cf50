// Package session owns the BLE state of one running application: the devices
// found by the latest scan, the active connection and its GATT listing.
//
// A Session is driven from a single task queue worker and reports everything
// it does as events on a progress.Emitter. It never touches the UI.
package session

import (
	"fmt"
	"sort"
	"sync"

	"blescope/internal/ble"
)

// Entry is one row of the device list.
type Entry struct {
	Label  string
	Device ble.Device
}

// Label renders the display key for d: "<name or Unknown> (<address>) <rssi> dBm".
func Label(d ble.Device) string {
	return fmt.Sprintf("%s (%s) %d dBm", d.DisplayName(), d.Address, d.RSSI)
}

// Registry collects devices reported during a scan, one entry per address.
// Labels change with RSSI; every label handed out since the last Reset keeps
// resolving to its address. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]ble.Device // address -> merged device
	labels  map[string]string     // any label issued this scan -> address
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]ble.Device), labels: make(map[string]string)}
}

// Reset forgets every device.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = make(map[string]ble.Device)
	r.labels = make(map[string]string)
}

// Observe records an advertisement. Repeated reports for the same address are
// merged. Returns the resulting entry and whether the address was new.
func (r *Registry) Observe(d ble.Device) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, seen := r.devices[d.Address]
	if seen {
		prev.Merge(d)
		d = prev
	} else {
		d = d.Clone()
	}
	r.devices[d.Address] = d
	label := Label(d)
	r.labels[label] = d.Address
	return Entry{Label: label, Device: d.Clone()}, !seen
}

// Entries returns every device ordered by label.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, Entry{Label: Label(d), Device: d.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Lookup finds a device by address or by any label issued since the last Reset.
func (r *Registry) Lookup(key string) (ble.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.devices[key]; ok {
		return d.Clone(), true
	}
	if addr, ok := r.labels[key]; ok {
		return r.devices[addr].Clone(), true
	}
	for _, d := range r.devices {
		if Label(d) == key {
			return d.Clone(), true
		}
	}
	return ble.Device{}, false
}

// Len returns the number of distinct devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

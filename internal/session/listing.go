package session

import (
	"encoding/hex"
	"fmt"
	"strings"

	"blescope/internal/ble"
)

// Row is one characteristic of the connected device.
type Row struct {
	ServiceUUID    string
	Characteristic ble.Characteristic
	RSSI           int    // signal of the connected device, dBm
	Value          []byte // last value read
	ReadErr        error  // last read failure
	Attempted      bool   // a read was tried since connect
}

// Cells returns the services table columns: UUID, properties and signal.
func (r Row) Cells() []string {
	return []string{
		ble.ShortUUID(r.Characteristic.UUID),
		r.Characteristic.Properties.String(),
		fmt.Sprintf("%d dBm", r.RSSI),
	}
}

// Listing is the GATT table of the connected device.
type Listing struct {
	Address  string
	Services []ble.Service
	Rows     []Row
}

// NewListing flattens services into rows tagged with rssi.
func NewListing(address string, services []ble.Service, rssi int) Listing {
	l := Listing{Address: address, Services: services}
	for _, s := range services {
		for _, c := range s.Characteristics {
			l.Rows = append(l.Rows, Row{ServiceUUID: s.UUID, Characteristic: c, RSSI: rssi})
		}
	}
	return l
}

// Empty reports whether the listing has no services.
func (l Listing) Empty() bool { return len(l.Services) == 0 }

// Row returns the row for charUUID in any spelling.
func (l Listing) Row(charUUID string) (Row, bool) {
	if i := l.index(charUUID); i >= 0 {
		return l.Rows[i], true
	}
	return Row{}, false
}

func (l Listing) index(charUUID string) int {
	want := ble.NormalizeUUID(charUUID)
	for i, r := range l.Rows {
		if ble.NormalizeUUID(r.Characteristic.UUID) == want {
			return i
		}
	}
	return -1
}

func (l *Listing) setValue(charUUID string, v []byte) {
	if i := l.index(charUUID); i >= 0 {
		l.Rows[i].Value = append([]byte(nil), v...)
		l.Rows[i].ReadErr = nil
		l.Rows[i].Attempted = true
	}
}

func (l *Listing) setReadErr(charUUID string, err error) {
	if i := l.index(charUUID); i >= 0 {
		l.Rows[i].ReadErr = err
		l.Rows[i].Attempted = true
	}
}

// Clone returns a deep copy.
func (l Listing) Clone() Listing {
	out := Listing{Address: l.Address}
	for _, s := range l.Services {
		s.Characteristics = append([]ble.Characteristic(nil), s.Characteristics...)
		out.Services = append(out.Services, s)
	}
	for _, r := range l.Rows {
		r.Value = append([]byte(nil), r.Value...)
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Transcript renders the listing the way the services panel shows it:
//
//	[Service] 180D
//	  - 2A37 (read, notify)
//	    * Data: 5a
func (l Listing) Transcript() []string {
	var lines []string
	for i, s := range l.Services {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "[Service] "+ble.ShortUUID(s.UUID))
		for _, c := range s.Characteristics {
			lines = append(lines, fmt.Sprintf("  - %s (%s)", ble.ShortUUID(c.UUID), c.Properties))
			r, ok := l.Row(c.UUID)
			if !ok || !r.Attempted {
				continue
			}
			if r.ReadErr != nil {
				lines = append(lines, "    * Error reading: "+r.ReadErr.Error())
			} else {
				lines = append(lines, "    * Data: "+hex.EncodeToString(r.Value))
			}
		}
	}
	return lines
}

// FormatValue renders v as hex followed by its printable ASCII form.
func FormatValue(v []byte) string {
	if len(v) == 0 {
		return "(empty)"
	}
	var ascii strings.Builder
	for _, b := range v {
		if b >= 0x20 && b < 0x7f {
			ascii.WriteByte(b)
		} else {
			ascii.WriteByte('.')
		}
	}
	return fmt.Sprintf("%s  %q", hex.EncodeToString(v), ascii.String())
}

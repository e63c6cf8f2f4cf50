// Package artifact saves snapshots of a connected device's GATT table.
package artifact

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"blescope/internal/ble"
	"blescope/internal/session"
)

const (
	// DirEnv overrides the capture directory (used by tests).
	DirEnv = "BLESCOPE_CAPTURE_DIR"
	// DefaultBase is the capture directory under the user's home.
	DefaultBase = ".blescope/captures"
)

// Store writes captures to <base>/<address>/<timestamp>.{json,txt}.
type Store struct {
	baseDir string
	now     func() time.Time
}

// Capture is the saved form of one listing.
type Capture struct {
	Address    string            `json:"address"`
	Name       string            `json:"name,omitempty"`
	RSSI       int               `json:"rssi"`
	CapturedAt time.Time         `json:"captured_at"`
	Rows       []CapturedRow     `json:"characteristics"`
	Vendors    map[string]string `json:"manufacturer_data,omitempty"`
}

// CapturedRow is one characteristic in a capture.
type CapturedRow struct {
	Service    string `json:"service"`
	UUID       string `json:"uuid"`
	Properties string `json:"properties"`
	Value      string `json:"value,omitempty"` // hex
	Error      string `json:"error,omitempty"`
}

// NewStore roots the store at dir, or at $BLESCOPE_CAPTURE_DIR, or at
// ~/.blescope/captures, in that order.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, DefaultBase)
	}
	return &Store{baseDir: dir, now: time.Now}, nil
}

// BaseDir returns the root directory.
func (s *Store) BaseDir() string { return s.baseDir }

// DeviceDir returns the directory holding captures of address.
func (s *Store) DeviceDir(address string) string {
	name := strings.ToLower(strings.NewReplacer(":", "-", "/", "-", " ", "-").Replace(address))
	return filepath.Join(s.baseDir, name)
}

// NewCapture builds a capture of listing taken from device d.
func NewCapture(d ble.Device, l session.Listing, at time.Time) Capture {
	c := Capture{Address: d.Address, Name: d.Name, RSSI: d.RSSI, CapturedAt: at.UTC()}
	for _, r := range l.Rows {
		row := CapturedRow{
			Service:    ble.ShortUUID(r.ServiceUUID),
			UUID:       ble.ShortUUID(r.Characteristic.UUID),
			Properties: r.Characteristic.Properties.String(),
		}
		switch {
		case r.ReadErr != nil:
			row.Error = r.ReadErr.Error()
		case r.Attempted:
			row.Value = hex.EncodeToString(r.Value)
		}
		c.Rows = append(c.Rows, row)
	}
	for _, id := range d.VendorIDs() {
		if c.Vendors == nil {
			c.Vendors = make(map[string]string)
		}
		c.Vendors[fmt.Sprintf("0x%04X", id)] = hex.EncodeToString(d.ManufacturerData[id])
	}
	return c
}

// Save writes the capture as JSON and the listing transcript as text.
// It returns the path of the JSON file.
func (s *Store) Save(d ble.Device, l session.Listing) (string, error) {
	dir := s.DeviceDir(d.Address)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create capture dir: %w", err)
	}
	at := s.now()
	stem := filepath.Join(dir, at.UTC().Format("20060102T150405.000Z"))

	data, err := json.MarshalIndent(NewCapture(d, l, at), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode capture: %w", err)
	}
	if err := os.WriteFile(stem+".json", append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write capture: %w", err)
	}
	text := strings.Join(l.Transcript(), "\n") + "\n"
	if err := os.WriteFile(stem+".txt", []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return stem + ".json", nil
}

// List returns the JSON capture paths for address, oldest first.
// A device with no captures yields an empty slice.
func (s *Store) List(address string) ([]string, error) {
	entries, err := os.ReadDir(s.DeviceDir(address))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			out = append(out, filepath.Join(s.DeviceDir(address), e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load reads a capture written by Save.
func Load(path string) (Capture, error) {
	var c Capture
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode capture %s: %w", path, err)
	}
	return c, nil
}

package session

import (
	"time"

	"blescope/internal/ble"
)

// Events posted by Session. Each is delivered in order on the session's emitter.

type ScanStarted struct {
	Timeout time.Duration
}

// DeviceFound is posted the first time an address is seen during a scan.
type DeviceFound struct {
	Entry Entry
	Count int // distinct devices so far
}

type ScanFinished struct {
	Entries []Entry
}

type ScanFailed struct {
	Err error
}

type Connecting struct {
	Label   string
	Address string
}

type ServiceDiscovered struct {
	Address string
	UUID    string
}

type CharacteristicListed struct {
	ServiceUUID    string
	Characteristic ble.Characteristic
}

type CharacteristicRead struct {
	ServiceUUID string
	UUID        string
	Value       []byte
}

// CharacteristicReadFailed never ends enumeration; it only annotates one row.
type CharacteristicReadFailed struct {
	ServiceUUID string
	UUID        string
	Err         error
}

type Connected struct {
	Device  ble.Device
	Listing Listing
}

type ConnectFailed struct {
	Address string
	Err     error
}

// ReadAllFinished carries the listing after a manual refresh.
type ReadAllFinished struct {
	Listing Listing
}

type WriteDone struct {
	UUID         string
	Bytes        int
	WithResponse bool
}

type WriteFailed struct {
	UUID string
	Err  error
}

// Disconnected is posted after a requested disconnect and when the link drops.
type Disconnected struct {
	Address string
	Reason  string
}

type DisconnectFailed struct {
	Address string
	Err     error
}

// Notice is informational text with no state change.
type Notice struct {
	Message string
}

// Disconnect reasons.
const (
	ReasonRequested = "requested"
	ReasonLinkLost  = "link lost"
)

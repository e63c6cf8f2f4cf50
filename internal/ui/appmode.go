package ui

// AppMode is the connection state the UI is in. Key hints and enabled
// actions depend on it.
type AppMode int

const (
	ModeDisconnected AppMode = iota
	ModeConnected
)

func (m AppMode) String() string {
	switch m {
	case ModeDisconnected:
		return "Disconnected"
	case ModeConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

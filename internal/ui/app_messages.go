package ui

// ScanMsg starts a scan (s / SPC s).
type ScanMsg struct{}

// ConnectMsg connects to the selected device (enter, c / SPC c).
type ConnectMsg struct{}

// DisconnectMsg drops the active connection (d / SPC d).
type DisconnectMsg struct{}

// ReadAllMsg re-reads every readable characteristic (r / SPC r).
type ReadAllMsg struct{}

// ShowWriteMsg opens the write prompt (w / SPC w).
type ShowWriteMsg struct{}

// WriteMsg is sent by the write prompt on submit.
type WriteMsg struct {
	UUID    string
	Payload []byte
}

// ExportMsg saves the connected device's listing to the capture store (e / SPC e).
type ExportMsg struct{}

// CancelTaskMsg cancels the running task (ctrl+x / SPC x).
type CancelTaskMsg struct{}

// ShowActivityMsg opens the activity log (SPC l).
type ShowActivityMsg struct{}

// FocusNextMsg moves focus to the next pane (tab).
type FocusNextMsg struct{}

// RequestQuitMsg asks to quit; it confirms first while connected.
type RequestQuitMsg struct{}

// DismissModalMsg closes the top modal (esc).
type DismissModalMsg struct{}

// feedMsg carries one event received from the session feed.
type feedMsg struct {
	Event any
}

// feedClosedMsg is returned once the feed is closed; listening stops.
type feedClosedMsg struct{}

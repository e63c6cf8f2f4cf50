package ui

// Focusable pane IDs.
const (
	FocusDevices  = "devices"
	FocusServices = "services"
)

// FocusManager tracks which pane receives navigation keys.
type FocusManager struct {
	Current string
	Order   []string
}

// NewFocusManager focuses the first of order.
func NewFocusManager(order ...string) *FocusManager {
	f := &FocusManager{Order: order}
	if len(order) > 0 {
		f.Current = order[0]
	}
	return f
}

// Next moves focus to the following pane, wrapping around.
func (f *FocusManager) Next() string {
	if len(f.Order) == 0 {
		return ""
	}
	idx := f.index(f.Current)
	f.Current = f.Order[(idx+1)%len(f.Order)]
	return f.Current
}

// SetFocus focuses id if it is a known pane.
func (f *FocusManager) SetFocus(id string) bool {
	if f.index(id) < 0 {
		return false
	}
	f.Current = id
	return true
}

// Is reports whether id has focus.
func (f *FocusManager) Is(id string) bool {
	return f.Current == id
}

func (f *FocusManager) index(id string) int {
	for i, o := range f.Order {
		if o == id {
			return i
		}
	}
	return -1
}

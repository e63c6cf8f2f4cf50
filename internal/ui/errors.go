package ui

import (
	"context"
	"errors"

	"blescope/internal/ble"
	"blescope/internal/session"
	"blescope/internal/taskq"
)

// describeError turns known failures into status bar text.
func describeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ble.ErrNotConnected):
		return "Not connected. Connect to a device first."
	case errors.Is(err, session.ErrAlreadyConnected):
		return "Already connected. Disconnect first."
	case errors.Is(err, session.ErrUnknownDevice):
		return "Invalid device selected. Scan again."
	case errors.Is(err, session.ErrInvalidInput):
		return "Please enter both a characteristic UUID and data."
	case errors.Is(err, session.ErrNotWritable):
		return "That characteristic does not accept writes."
	case errors.Is(err, ble.ErrUnknownCharacteristic):
		return "No such characteristic on the connected device."
	case errors.Is(err, ble.ErrBackendUnavailable):
		return "Bluetooth backend is not available on this platform."
	case errors.Is(err, taskq.ErrQueueFull):
		return "Busy: too many actions queued. Try again shortly."
	case errors.Is(err, taskq.ErrClosed):
		return "Shutting down."
	case errors.Is(err, context.DeadlineExceeded):
		return "Timed out: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	default:
		return err.Error()
	}
}

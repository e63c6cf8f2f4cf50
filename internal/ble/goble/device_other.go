//go:build !linux

package goble

import (
	gble "github.com/go-ble/ble"

	"blescope/internal/ble"
)

func newDevice(int) (gble.Device, error) {
	return nil, ble.ErrBackendUnavailable
}

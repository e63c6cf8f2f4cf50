//go:build linux

package goble

import (
	gble "github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func newDevice(hciID int) (gble.Device, error) {
	dev, err := linux.NewDevice(gble.OptDeviceID(hciID))
	if err != nil {
		return nil, err
	}
	return dev, nil
}

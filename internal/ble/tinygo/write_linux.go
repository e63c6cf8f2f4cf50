//go:build linux

package tinygo

import "tinygo.org/x/bluetooth"

// BlueZ support in the stack has no acknowledged write.
const writeResponseSupported = false

func writeCharacteristic(ch bluetooth.DeviceCharacteristic, data []byte, _ bool) error {
	_, err := ch.WriteWithoutResponse(data)
	return err
}

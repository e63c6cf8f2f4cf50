package ble

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// baseSuffix is the tail of the Bluetooth Base UUID 00000000-0000-1000-8000-00805F9B34FB.
const baseSuffix = "-0000-1000-8000-00805f9b34fb"

// NormalizeUUID returns the canonical lowercase 128-bit form of a UUID.
// 16-bit ("180D", "0x180d") and 32-bit short forms are expanded against the
// Bluetooth Base UUID. Input that is not a UUID is returned trimmed and lowercased.
func NormalizeUUID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	switch len(s) {
	case 4:
		if isHex(s) {
			return "0000" + s + baseSuffix
		}
	case 8:
		if isHex(s) {
			return s + baseSuffix
		}
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return s
	}
	return u.String()
}

// ValidUUID reports whether s is a short or full UUID.
func ValidUUID(s string) bool {
	n := NormalizeUUID(s)
	_, err := uuid.Parse(n)
	return err == nil
}

// ShortUUID returns the shortest display form: "180D" for SIG-assigned
// 16-bit UUIDs, 8 hex digits for 32-bit ones, the full form otherwise.
func ShortUUID(s string) string {
	n := NormalizeUUID(s)
	if !strings.HasSuffix(n, baseSuffix) || len(n) != 36 {
		return n
	}
	head := n[:8]
	if strings.HasPrefix(head, "0000") {
		return strings.ToUpper(head[4:])
	}
	return strings.ToUpper(head)
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

package ble

import "strings"

// Properties is the GATT characteristic properties bit field (Bluetooth Core Vol 3, Part G, 3.3.1.1).
type Properties uint8

const (
	PropBroadcast Properties = 1 << iota
	PropRead
	PropWriteWithoutResponse
	PropWrite
	PropNotify
	PropIndicate
	PropAuthenticatedSignedWrites
	PropExtendedProperties
)

var propNames = []struct {
	p    Properties
	name string
}{
	{PropBroadcast, "broadcast"},
	{PropRead, "read"},
	{PropWriteWithoutResponse, "write-without-response"},
	{PropWrite, "write"},
	{PropNotify, "notify"},
	{PropIndicate, "indicate"},
	{PropAuthenticatedSignedWrites, "authenticated-signed-writes"},
	{PropExtendedProperties, "extended-properties"},
}

// Has reports whether all bits of q are set in p.
func (p Properties) Has(q Properties) bool { return p&q == q }

// Readable reports whether a read may be attempted.
func (p Properties) Readable() bool { return p.Has(PropRead) }

// Writable reports whether any kind of write is supported.
func (p Properties) Writable() bool {
	return p.Has(PropWrite) || p.Has(PropWriteWithoutResponse)
}

// Names returns property names in bit order.
func (p Properties) Names() []string {
	var out []string
	for _, pn := range propNames {
		if p.Has(pn.p) {
			out = append(out, pn.name)
		}
	}
	return out
}

// String joins the property names with ", ".
func (p Properties) String() string {
	return strings.Join(p.Names(), ", ")
}

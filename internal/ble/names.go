package ble

// knownNames maps SIG-assigned 16-bit UUIDs to their assigned names.
var knownNames = map[string]string{
	// services
	"1800": "Generic Access",
	"1801": "Generic Attribute",
	"180A": "Device Information",
	"180D": "Heart Rate",
	"180F": "Battery Service",
	"1809": "Health Thermometer",
	"1810": "Blood Pressure",
	"1816": "Cycling Speed and Cadence",
	"181A": "Environmental Sensing",
	"FE59": "Nordic DFU",
	// characteristics
	"2A00": "Device Name",
	"2A01": "Appearance",
	"2A04": "Peripheral Preferred Connection Parameters",
	"2A05": "Service Changed",
	"2A19": "Battery Level",
	"2A24": "Model Number String",
	"2A25": "Serial Number String",
	"2A26": "Firmware Revision String",
	"2A27": "Hardware Revision String",
	"2A28": "Software Revision String",
	"2A29": "Manufacturer Name String",
	"2A37": "Heart Rate Measurement",
	"2A38": "Body Sensor Location",
	"2A39": "Heart Rate Control Point",
	"2A6E": "Temperature",
	"2A6F": "Humidity",
}

// KnownName returns the assigned name for a SIG UUID, or "".
func KnownName(s string) string {
	return knownNames[ShortUUID(s)]
}

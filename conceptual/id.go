package conceptual

import (
	"regexp"
	"strings"
)

// DeviceID names one tracked device, and so one filter session.
type DeviceID string

func (d DeviceID) String() string {
	return string(d)
}

func (d DeviceID) Empty() bool {
	return d == ""
}

var unsafeDeviceChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeDeviceID trims and lower-cases a device name, replacing anything that
// would be awkward in a URL path or MQTT topic level with a dash.
func SanitizeDeviceID(name string) DeviceID {
	name = strings.ToLower(strings.TrimSpace(name))
	name = unsafeDeviceChars.ReplaceAllString(name, "-")
	return DeviceID(strings.Trim(name, "-"))
}

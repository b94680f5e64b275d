package stream

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/types/fix"
)

// Line is one line of input, attributed to a device.
type Line struct {
	Device conceptual.DeviceID
	Data   []byte
}

// ScanLines reads lines from reader and attributes each to the device its JSON names,
// or to fallback when it names none (eg. NMEA sentences).
// Scanner errors are sent on the error channel, which is closed with the line channel.
func ScanLines(ctx context.Context, reader io.Reader, fallback conceptual.DeviceID) (<-chan Line, <-chan error) {
	out := make(chan Line)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			data := bytes.TrimSpace(scanner.Bytes())
			if len(data) == 0 {
				continue
			}
			line := Line{Device: fallback, Data: bytes.Clone(data)}
			if data[0] == '{' {
				if id := conceptual.SanitizeDeviceID(fix.DeviceOf(data)); !id.Empty() {
					line.Device = id
				}
			}
			select {
			case <-ctx.Done():
				return
			case out <- line:
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return out, errs
}

package influxdb

import (
	"errors"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

const Measurement = "smoothedfix"

var ErrNotConfigured = errors.New("influxdb export not configured")

// NewSmoothedFixPoint builds the point written for one smoothed fix.
// Missing readings are left out rather than written as zero.
func NewSmoothedFixPoint(device conceptual.DeviceID, f fix.SmoothedFix) *write.Point {
	p := influxdb2.NewPointWithMeasurement(Measurement).
		SetTime(f.Time).
		AddTag("device", device.String()).
		AddTag("status", string(f.Status)).
		AddField("lat", f.Lat).
		AddField("lon", f.Lon).
		AddField("accuracy", f.Accuracy)
	if f.Heading != nil {
		p.AddField("heading", *f.Heading)
	}
	if f.Speed != nil {
		p.AddField("speed", *f.Speed)
	}
	if f.Altitude != nil {
		p.AddField("altitude", *f.Altitude)
	}
	return p
}

// ExportSmoothed posts smoothed fixes to an InfluxDB Write API.
// Because it accepts a slice, use batches. The Write API will buffer and flush.
// Invalid emissions are not written. The last error encountered is returned.
func ExportSmoothed(config *params.InfluxExportConfig, device conceptual.DeviceID, fixes []fix.SmoothedFix) error {
	if !config.Enabled() {
		return ErrNotConfigured
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	if config.BatchSize > 0 {
		opts.SetBatchSize(config.BatchSize)
	}
	client := influxdb2.NewClientWithOptions(config.ServerURL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for _, f := range fixes {
		if f.Status == fix.StatusInvalid {
			continue
		}
		writeAPI.WritePoint(NewSmoothedFixPoint(device, f))
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}

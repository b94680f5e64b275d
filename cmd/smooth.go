/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/geo/clean"
	"github.com/rotblauer/fixd/metrics/influxdb"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/session"
	"github.com/rotblauer/fixd/stream"
	"github.com/rotblauer/fixd/trackz"
	"github.com/rotblauer/fixd/types/fix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	optSmoothDevice string
	optSmoothSerial string
	optSmoothBaud   uint
	optSmoothFormat string
	optSmoothInflux bool
	optSmoothMeter  time.Duration
	optSmoothIn     string
	optSmoothClean  bool
	optSmoothOut    string
)

// smoothCmd represents the smooth command
var smoothCmd = &cobra.Command{
	Use:   "smooth",
	Short: "Smooth fixes from stdin or a serial GPS",
	Long: `Reads raw fixes, one per line, and writes one smoothed fix per raw fix to stdout.

Lines may be fix JSON objects, GeoJSON Features, arrays or FeatureCollections of either,
or NMEA 0183 sentences (GGA and RMC). Fixes are routed to a filter per device;
the device is the feature's properties.Name, or the object's "device" field,
or --device for lines that name none.

Exact repeats of recent fixes are dropped. With --clean, so are fixes with
implausible speeds or elevations, and fixes that teleport.

Examples:

  fixd simulate --scenario walk | fixd smooth --format geojson
  fixd smooth --serial /dev/ttyUSB0 --baud 9600 --device boat --influx
  fixd smooth --in rye8.ndjson.gz --out rye8-smoothed.ndjson.gz
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)

		ctx, cancel := interruptContext()
		defer cancel()

		cfg, err := sessionConfig()
		if err != nil {
			log.Fatalln(err)
		}

		var in io.Reader = os.Stdin
		if optSmoothSerial != "" {
			port, err := serial.Open(serial.OpenOptions{
				PortName:        optSmoothSerial,
				BaudRate:        optSmoothBaud,
				DataBits:        8,
				StopBits:        1,
				MinimumReadSize: 1,
				ParityMode:      serial.PARITY_NONE,
			})
			if err != nil {
				log.Fatalln(err)
			}
			defer port.Close()
			slog.Info("Serial port opened", "port", optSmoothSerial, "baud", optSmoothBaud)
			in = port
		} else if optSmoothIn != "" {
			f, err := trackz.Open(optSmoothIn)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			in = f
		}

		var out io.Writer = os.Stdout
		if optSmoothOut != "" {
			var w io.WriteCloser
			var err error
			if trackz.IsGZ(optSmoothOut) {
				w, err = trackz.NewGZFileWriter(optSmoothOut, nil)
			} else {
				w, err = os.OpenFile(optSmoothOut, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0660)
			}
			if err != nil {
				log.Fatalln(err)
			}
			defer func() {
				if err := w.Close(); err != nil {
					slog.Error("Failed to close output", "error", err)
				}
			}()
			out = w
		}

		opts := smoothOptions{
			Device:  conceptual.SanitizeDeviceID(optSmoothDevice),
			Format:  optSmoothFormat,
			Meter:   optSmoothMeter,
			Session: cfg,
		}
		if optSmoothClean {
			opts.Clean = params.DefaultCleanConfig()
			if err := viper.UnmarshalKey("clean", opts.Clean); err != nil {
				log.Fatalln(err)
			}
		}
		if optSmoothInflux {
			opts.Influx, err = influxConfig()
			if err != nil {
				log.Fatalln(err)
			}
			if !opts.Influx.Enabled() {
				log.Fatalln("--influx requires INFLUXDB_URL and INFLUXDB_BUCKET")
			}
		}
		if err := runSmooth(ctx, in, out, opts); err != nil {
			slog.Error("Smooth failed", "error", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(smoothCmd)

	pFlags := smoothCmd.PersistentFlags()
	pFlags.StringVar(&optSmoothDevice, "device", params.DefaultDeviceName, "Device for lines that name none")
	pFlags.StringVar(&optSmoothIn, "in", "", "Read fixes from this file (.gz is decompressed) instead of stdin")
	pFlags.StringVar(&optSmoothOut, "out", "", "Append smoothed fixes to this file (.gz is compressed) instead of stdout")
	pFlags.StringVar(&optSmoothSerial, "serial", "", "Read NMEA from this serial port instead of stdin")
	pFlags.UintVar(&optSmoothBaud, "baud", 9600, "Serial port baud rate")
	pFlags.StringVar(&optSmoothFormat, "format", "json", "Output format (json, geojson)")
	pFlags.BoolVar(&optSmoothInflux, "influx", false, "Also export smoothed fixes to InfluxDB (INFLUXDB_* env)")
	pFlags.BoolVar(&optSmoothClean, "clean", false, "Drop implausible fixes and teleportations before smoothing")
	pFlags.DurationVar(&optSmoothMeter, "meter", 0, "Log throughput at this interval (0 disables)")
}

type smoothOptions struct {
	Device  conceptual.DeviceID
	Format  string
	Meter   time.Duration
	Session *params.SessionConfig
	// Influx, if set, receives every smoothed fix.
	Influx *params.InfluxExportConfig
	// Clean, if set, drops implausible raw fixes per device.
	Clean *params.TrackCleaningConfig
}

// smoother routes decoded fixes to per-device sessions and writes the results.
type smoother struct {
	opts     smoothOptions
	registry *session.Registry
	dedupe   func(conceptual.DeviceID, fix.RawFix) bool
	decoders *session.DeviceState[*fix.Decoder]
	cleaners *session.DeviceState[*clean.Cleaner]
	meter    *stream.Meter
	enc      *json.Encoder
	exports  map[conceptual.DeviceID][]fix.SmoothedFix
	skipped  int
}

func runSmooth(ctx context.Context, in io.Reader, out io.Writer, opts smoothOptions) error {
	if opts.Format != "json" && opts.Format != "geojson" {
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	if opts.Session == nil {
		opts.Session = params.DefaultSessionConfig()
	}
	if opts.Device.Empty() {
		opts.Device = conceptual.DeviceID(params.DefaultDeviceName)
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	registry := session.NewRegistry(opts.Session)
	// Nobody listens here.
	registry.Feed = nil
	go registry.Start()
	defer registry.Stop()

	s := &smoother{
		opts:     opts,
		registry: registry,
		dedupe:   session.NewDedupeFunc(opts.Session.DedupeCacheSize),
		decoders: session.NewDeviceState(opts.Session, func(conceptual.DeviceID) *fix.Decoder {
			return fix.NewDecoder()
		}),
		cleaners: session.NewDeviceState(opts.Session, func(conceptual.DeviceID) *clean.Cleaner {
			return clean.NewCleaner(opts.Clean)
		}),
		meter:    stream.NewMeter(opts.Meter),
		enc:      json.NewEncoder(w),
		exports:  make(map[conceptual.DeviceID][]fix.SmoothedFix),
	}
	defer s.meter.Stop()
	registry.OnSessionEnd(s.decoders.Remove)
	registry.OnSessionEnd(s.cleaners.Remove)

	lines, errs := stream.ScanLines(ctx, in, opts.Device)
	for line := range lines {
		s.meter.MarkRead(line.Device, time.Now(), line.Data)
		if err := s.line(line); err != nil {
			return err
		}
		// Live sources trickle; keep the output current.
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if err := <-errs; err != nil {
		return err
	}
	if err := s.flushExports(true); err != nil {
		return err
	}
	if opts.Meter > 0 {
		s.meter.Log()
	}
	if s.skipped > 0 {
		slog.Warn("Skipped undecodable lines", "count", s.skipped)
	}
	return nil
}

func (s *smoother) decoder(device conceptual.DeviceID) *fix.Decoder {
	return s.decoders.Get(device)
}

func (s *smoother) cleaner(device conceptual.DeviceID) *clean.Cleaner {
	return s.cleaners.Get(device)
}

func (s *smoother) line(line stream.Line) error {
	var writeErr error
	err := s.decoder(line.Device).Scan(bytes.NewReader(line.Data), func(raw fix.RawFix) error {
		if !s.dedupe(line.Device, raw) {
			return nil
		}
		if s.opts.Clean != nil && !s.cleaner(line.Device).Keep(raw) {
			slog.Debug("Dropped implausible fix", "device", line.Device, "time", raw.Time)
			return nil
		}
		out, err := s.registry.Update(line.Device, raw)
		if err != nil {
			writeErr = err
			return err
		}
		s.meter.MarkEmitted(out)
		if s.opts.Influx != nil {
			s.exports[line.Device] = append(s.exports[line.Device], out)
		}
		var v any = out
		if s.opts.Format == "geojson" {
			v = out.ToFeature(line.Device.String())
		}
		if err := s.enc.Encode(v); err != nil {
			writeErr = err
			return err
		}
		return nil
	})
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		s.skipped++
		slog.Warn("Skipping line", "device", line.Device, "error", err)
	}
	return s.flushExports(false)
}

// flushExports writes full export batches, or everything when all is set.
func (s *smoother) flushExports(all bool) error {
	if s.opts.Influx == nil {
		return nil
	}
	for device, batch := range s.exports {
		if len(batch) == 0 || (!all && uint(len(batch)) < s.opts.Influx.BatchSize) {
			continue
		}
		if err := influxdb.ExportSmoothed(s.opts.Influx, device, batch); err != nil {
			return fmt.Errorf("influx export: %w", err)
		}
		slog.Debug("Exported to InfluxDB", "device", device, "count", len(batch))
		delete(s.exports, device)
	}
	return nil
}

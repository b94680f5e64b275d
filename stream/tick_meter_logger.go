package stream

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/types/fix"
)

// Meter counts fixes flowing through a host and logs throughput on a ticker.
type Meter struct {
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}

	mu      sync.Mutex
	last    time.Time // time of the last fix read
	devices map[conceptual.DeviceID]struct{}

	reg        metrics.Registry
	read       metrics.Counter
	bytes      metrics.Counter
	readMeter  metrics.Meter
	bytesMeter metrics.Meter
	statuses   map[fix.Status]metrics.Counter
}

// NewMeter starts a meter logging every interval. Stop it when done.
func NewMeter(interval time.Duration) *Meter {
	// Meters are no-ops without this global.
	metrics.Enabled = true

	m := &Meter{
		interval:   interval,
		started:    time.Now(),
		done:       make(chan struct{}),
		devices:    make(map[conceptual.DeviceID]struct{}),
		reg:        metrics.NewRegistry(),
		read:       metrics.NewCounter(),
		bytes:      metrics.NewCounter(),
		readMeter:  metrics.NewMeter(),
		bytesMeter: metrics.NewMeter(),
		statuses:   make(map[fix.Status]metrics.Counter),
	}
	for name, metric := range map[string]any{
		"read.count":  m.read,
		"bytes.count": m.bytes,
		"read.meter":  m.readMeter,
		"bytes.meter": m.bytesMeter,
	} {
		if err := m.reg.Register(name, metric); err != nil {
			panic(err)
		}
	}
	for _, s := range []fix.Status{
		fix.StatusPassthrough, fix.StatusAcquired, fix.StatusWarmup, fix.StatusHeld,
		fix.StatusStationary, fix.StatusMoving, fix.StatusGated, fix.StatusInvalid,
	} {
		m.statuses[s] = metrics.NewRegisteredCounter("status."+string(s), m.reg)
	}
	if interval > 0 {
		m.ticker = time.NewTicker(interval)
		go m.run()
	}
	return m
}

// MarkRead counts one line of input.
func (m *Meter) MarkRead(device conceptual.DeviceID, at time.Time, data []byte) {
	m.read.Inc(1)
	m.bytes.Inc(int64(len(data)))
	m.readMeter.Mark(1)
	m.bytesMeter.Mark(int64(len(data)))
	m.mu.Lock()
	m.last = at
	m.devices[device] = struct{}{}
	m.mu.Unlock()
}

// MarkEmitted counts one filter output by status.
func (m *Meter) MarkEmitted(s fix.SmoothedFix) {
	if c, ok := m.statuses[s.Status]; ok {
		c.Inc(1)
	}
}

// StatusCount returns the number of outputs seen with status s.
func (m *Meter) StatusCount(s fix.Status) int64 {
	c, ok := m.statuses[s]
	if !ok {
		return 0
	}
	return c.Snapshot().Count()
}

func (m *Meter) Read() int64 {
	return m.read.Snapshot().Count()
}

func (m *Meter) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C:
			m.Log()
		}
	}
}

func (m *Meter) Log() {
	readSnap := m.readMeter.Snapshot()
	bytesSnap := m.bytesMeter.Snapshot()

	m.mu.Lock()
	devices := make([]string, 0, len(m.devices))
	for d := range m.devices {
		devices = append(devices, d.String())
	}
	last := m.last
	m.mu.Unlock()
	sort.Strings(devices)

	slog.Info("Read fixes", "n", humanize.Comma(m.Read()),
		"devices", strings.Join(devices, ","),
		"read.last", last.Format(time.DateTime),
		"fps", common.DecimalToFixed(readSnap.Rate1(), 1),
		"bps", humanize.Bytes(uint64(bytesSnap.Rate1())),
		"total.bytes", humanize.Bytes(uint64(m.bytes.Snapshot().Count())),
		"moving", m.StatusCount(fix.StatusMoving),
		"stationary", m.StatusCount(fix.StatusStationary),
		"gated", m.StatusCount(fix.StatusGated),
		"running", time.Since(m.started).Round(time.Second))
}

// Stop stops the ticker and the meters. It is safe to call on a nil Meter.
func (m *Meter) Stop() {
	if m == nil {
		return
	}
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.done)
	}
	m.readMeter.Stop()
	m.bytesMeter.Stop()
}

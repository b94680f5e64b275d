package fix

import (
	"fmt"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// KnotsToMetersPerSecond converts NMEA speeds.
const KnotsToMetersPerSecond = 0.514444

// DefaultUERE is the user equivalent range error in meters,
// multiplied by HDOP to estimate horizontal accuracy.
const DefaultUERE = 5.0

// NMEAAssembler builds RawFixes out of a stream of NMEA sentences.
// GGA sentences contribute altitude and HDOP; each valid RMC completes a fix.
type NMEAAssembler struct {
	// UERE scales HDOP into meters.
	UERE float64
	// FallbackAccuracy is used until a GGA has reported HDOP.
	FallbackAccuracy float64

	altitude *float64
	hdop     float64
}

func NewNMEAAssembler() *NMEAAssembler {
	return &NMEAAssembler{
		UERE:             DefaultUERE,
		FallbackAccuracy: 25,
	}
}

// Feed parses one sentence. It returns a fix and true when the sentence
// completed one; void fixes and other sentence types return false.
func (a *NMEAAssembler) Feed(sentence string) (RawFix, bool, error) {
	s, err := nmea.Parse(sentence)
	if err != nil {
		return RawFix{}, false, fmt.Errorf("parse nmea: %w", err)
	}
	switch s.DataType() {
	case nmea.TypeGGA:
		m := s.(nmea.GGA)
		if m.FixQuality == nmea.Invalid {
			a.altitude = nil
			a.hdop = 0
			return RawFix{}, false, nil
		}
		a.altitude = Float(m.Altitude)
		a.hdop = m.HDOP
	case nmea.TypeRMC:
		m := s.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			return RawFix{}, false, nil
		}
		return a.fromRMC(m), true, nil
	}
	return RawFix{}, false, nil
}

func (a *NMEAAssembler) fromRMC(m nmea.RMC) RawFix {
	acc := a.FallbackAccuracy
	if a.hdop > 0 {
		acc = a.hdop * a.UERE
	}
	speed := m.Speed * KnotsToMetersPerSecond
	out := RawFix{
		Time:     rmcTime(m),
		Lat:      m.Latitude,
		Lon:      m.Longitude,
		Altitude: Clone(a.altitude),
		Accuracy: acc,
		Speed:    Float(speed),
	}
	// Course over ground is meaningless without ground speed.
	if speed > 0 {
		out.Heading = Float(m.Course)
	}
	return out
}

func rmcTime(m nmea.RMC) time.Time {
	if !m.Date.Valid || !m.Time.Valid {
		return time.Now().UTC()
	}
	year := 2000 + m.Date.YY
	if m.Date.YY >= 80 {
		year = 1900 + m.Date.YY
	}
	return time.Date(year, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, m.Time.Millisecond*int(time.Millisecond), time.UTC)
}

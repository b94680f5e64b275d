package locfilter

import (
	"math"

	"github.com/rotblauer/fixd/geo"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/types/fix"
)

// estimator is a scalar Kalman-style blend of the position history.
// Its covariance is carried between updates: it shrinks as consistent
// accurate fixes arrive and grows with every predict step.
type estimator struct {
	processNoise     float64
	measurementNoise float64
	outlierCeiling   float64
	covariance       float64
}

func newEstimator(config *params.LocationFilterConfig) *estimator {
	return &estimator{
		processNoise:     config.ProcessNoise,
		measurementNoise: config.MeasurementNoise,
		outlierCeiling:   config.OutlierCeiling,
		covariance:       config.InitialCovariance,
	}
}

type estimate struct {
	Lat, Lon float64
	Altitude *float64
	Accuracy float64
}

// blend seeds the estimate with the newest member no worse than the outlier ceiling,
// then folds the other members in, oldest first, each weighted by its accuracy.
// With no usable member it falls back to the lock, or with no lock to the oldest member.
// members must not be empty.
func (e *estimator) blend(members []fix.RawFix, locked *fix.SmoothedFix) estimate {
	seed := -1
	for i := len(members) - 1; i >= 0; i-- {
		if members[i].Accuracy <= e.outlierCeiling {
			seed = i
			break
		}
	}
	if seed < 0 {
		if locked != nil {
			return estimate{Lat: locked.Lat, Lon: locked.Lon, Altitude: fix.Clone(locked.Altitude), Accuracy: locked.Accuracy}
		}
		m := members[0]
		return estimate{Lat: m.Lat, Lon: m.Lon, Altitude: fix.Clone(m.Altitude), Accuracy: m.Accuracy}
	}

	s := members[seed]
	est := estimate{Lat: s.Lat, Lon: s.Lon, Altitude: fix.Clone(s.Altitude), Accuracy: s.Accuracy}
	for i, m := range members {
		if i == seed {
			continue
		}
		e.covariance += e.processNoise
		if m.Accuracy > e.outlierCeiling {
			continue
		}
		w := math.Max(0, 1-m.Accuracy/e.outlierCeiling)
		k := e.covariance / (e.covariance + e.measurementNoise) * w
		est.Lat += k * (m.Lat - est.Lat)
		// est.Lon stays unwrapped around the seed until the end.
		est.Lon += k * (geo.UnwrapLon(s.Lon, m.Lon) - est.Lon)
		if m.Altitude != nil {
			if est.Altitude == nil {
				est.Altitude = fix.Clone(m.Altitude)
			} else {
				*est.Altitude += k * (*m.Altitude - *est.Altitude)
			}
		}
		e.covariance *= 1 - k
		est.Accuracy = math.Min(est.Accuracy, m.Accuracy)
	}
	est.Lon = geo.NormalizeLon(est.Lon)
	return est
}

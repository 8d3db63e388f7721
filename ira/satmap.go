package ira

import (
	"errors"

	"github.com/iridium-toolkit/reassemble/frame"
)

// ErrNoEphemeris is returned by the no-op SatelliteMatcher: the satmap mode
// has no orbital-mechanics backend in this module.
var ErrNoEphemeris = errors.New("ira: no ephemeris backend configured for satmap")

// SatelliteMatcher is the interface a TLE/SGP4-backed implementation would
// satisfy to support the satmap mode: given an observation time and an
// ECEF-ish position in kilometers, return the name and distance of the
// closest known satellite.
type SatelliteMatcher interface {
	ClosestSatellite(t frame.Time, xyzKM [3]float64) (name string, km float64, err error)
}

// noopMatcher always fails, so the satmap mode fails loudly instead of
// silently producing meaningless output when no ephemeris source is wired.
type noopMatcher struct{}

func (noopMatcher) ClosestSatellite(frame.Time, [3]float64) (string, float64, error) {
	return "", 0, ErrNoEphemeris
}

// NoopMatcher is the default SatelliteMatcher used when no ephemeris
// backend has been configured.
var NoopMatcher SatelliteMatcher = noopMatcher{}

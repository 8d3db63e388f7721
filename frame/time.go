package frame

import (
	"math"
	"time"
)

// Time is an absolute UTC instant represented as microseconds since the Unix
// epoch. flags float64-seconds timestamps as a source of
// cumulative rounding error at the expiry-window comparisons every
// reassembler performs (280s/1000s/5s/2000s); a 64-bit microsecond count
// keeps those comparisons exact integer arithmetic while still covering the
// full recording-time range any real capture spans.
type Time int64

// FromSeconds builds a Time from a float64 seconds-since-epoch value, the
// unit frames arrive in.
func FromSeconds(sec float64) Time {
	return Time(math.Round(sec * 1e6))
}

// Seconds returns the instant as float64 seconds since the Unix epoch, for
// formatting and interop with code that still wants a float.
func (t Time) Seconds() float64 {
	return float64(t) / 1e6
}

// AddSeconds returns t shifted by the given number of (possibly fractional)
// seconds.
func (t Time) AddSeconds(sec float64) Time {
	return t + Time(math.Round(sec*1e6))
}

// Sub returns t-o in seconds.
func (t Time) Sub(o Time) float64 {
	return float64(t-o) / 1e6
}

// Time converts to a standard library time.Time in UTC.
func (t Time) Time() time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

package ira

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iridium-toolkit/reassemble/frame"
)

// LiveMap altitude bands and sample-expiry windows.
const (
	SatAltMin = 700.0 // km
	SatAltMax = 800.0 // km
	GroundAlt = 100.0 // km

	Interval   = 60.0 // seconds, snapshot cadence
	SatExpiry  = 8 * Interval
	GroundExpiry = 4 * Interval
)

type satSample struct {
	Lat, Lon, Alt float64
	Time          frame.Time
}

type beamSample struct {
	Lat, Lon float64
	Time     frame.Time
}

// snapshot is the JSON document written atomically by LiveMap, matching the
// original tool's "time/sats/beam" layout verbatim.
type snapshot struct {
	Time int64                  `json:"time"`
	Sats map[string]snapPos     `json:"sats"`
	Beam map[string]snapBeamPos `json:"beam"`
}

type snapPos struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

type snapBeamPos struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LiveMap bins IRA positions into per-satellite and per-ground-beam samples
// and periodically writes an atomic JSON snapshot.
type LiveMap struct {
	Path string

	sats map[int]*satSample
	beam map[int]*beamSample

	lastWrite frame.Time
}

// Update feeds one decoded IRA record into the live map.
func (lm *LiveMap) Update(r *Record) {
	if lm.sats == nil {
		lm.sats = make(map[int]*satSample)
	}
	if lm.beam == nil {
		lm.beam = make(map[int]*beamSample)
	}

	switch {
	case r.Alt >= SatAltMin && r.Alt <= SatAltMax:
		prev := lm.sats[r.Sat]
		if prev != nil && prev.Lat == r.Lat && prev.Lon == r.Lon {
			prev.Time = r.Time
			break
		}
		lm.sats[r.Sat] = &satSample{Lat: r.Lat, Lon: r.Lon, Alt: r.Alt, Time: r.Time}
	case r.Alt < GroundAlt:
		lm.beam[r.Beam] = &beamSample{Lat: r.Lat, Lon: r.Lon, Time: r.Time}
	}

	lm.expire(r.Time)

	if lm.lastWrite == 0 || r.Time.Seconds()-lm.lastWrite.Seconds() >= Interval {
		lm.lastWrite = r.Time
		if err := lm.write(r.Time); err != nil {
			fmt.Fprintf(os.Stderr, "WARN: live-map: %v\n", err)
		}
	}
}

func (lm *LiveMap) expire(now frame.Time) {
	for k, s := range lm.sats {
		if s.Time.Seconds()+SatExpiry <= now.Seconds() {
			delete(lm.sats, k)
		}
	}
	for k, s := range lm.beam {
		if s.Time.Seconds()+GroundExpiry <= now.Seconds() {
			delete(lm.beam, k)
		}
	}
}

// write atomically (temp file + rename) replaces the snapshot at lm.Path.
func (lm *LiveMap) write(now frame.Time) error {
	snap := snapshot{
		Time: int64(now.Seconds()),
		Sats: make(map[string]snapPos, len(lm.sats)),
		Beam: make(map[string]snapBeamPos, len(lm.beam)),
	}
	for k, s := range lm.sats {
		snap.Sats[fmt.Sprintf("%d", k)] = snapPos{Lat: s.Lat, Lon: s.Lon, Alt: s.Alt}
	}
	for k, s := range lm.beam {
		snap.Beam[fmt.Sprintf("%d", k)] = snapBeamPos{Lat: s.Lat, Lon: s.Lon}
	}

	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(lm.Path)
	tmp, err := os.CreateTemp(dir, ".live-map-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, lm.Path)
}

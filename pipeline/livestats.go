package pipeline

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/iridium-toolkit/reassemble/frame"
)

// TimeslotWidth is the live-stats bucketing width.
const TimeslotWidth = 600.0 // seconds

type dirType struct {
	dir string
	typ string
}

// liveStats buckets UL/DL per-type frame counts into fixed-width time
// slots, emitting a Graphite-style line per slot as it rolls over.
type liveStats struct {
	slotStart  float64
	haveSlot   bool
	counts     map[dirType]int
	lastEmit   float64
}

func (ls *liveStats) update(e *frame.Enriched, out io.Writer) {
	if ls.counts == nil {
		ls.counts = make(map[dirType]int)
	}

	sec := e.Time.Seconds()
	if !ls.haveSlot {
		ls.slotStart = slotFloor(sec)
		ls.haveSlot = true
	}

	if sec >= ls.slotStart+TimeslotWidth {
		ls.emitLines(out)
		ls.lastEmit = ls.slotStart
		ls.slotStart = slotFloor(sec)
		ls.counts = make(map[dirType]int)
	}

	dir := "dl"
	if e.UL {
		dir = "ul"
	}
	key := dirType{dir, e.Typ}
	ls.counts[key]++
}

func slotFloor(sec float64) float64 {
	return float64(int64(sec/TimeslotWidth)) * TimeslotWidth
}

// emitLines renders this slot's graphite lines; the Orchestrator calls it on
// slot rollover via update and once more at end of run, before persisting
// state.
func (ls *liveStats) emitLines(out io.Writer) {
	for key, n := range ls.counts {
		fmt.Fprintf(out, "iridium.parsed.%s.%s %d %d\n", key.dir, key.typ, n, int64(ls.slotStart))
	}
}

// loadState reads the persisted (timeslot, counts) pair: a deliberate length-prefixed binary format (not pickle) — an
// 8-byte big-endian timeslot followed by a length-prefixed gob blob of the
// counts map.
func (ls *liveStats) loadState(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	var slotBits uint64
	if err := binary.Read(f, binary.BigEndian, &slotBits); err != nil {
		return fmt.Errorf("pipeline: reading live-stats timeslot: %w", err)
	}
	slotStart := math.Float64frombits(slotBits)

	var blobLen uint32
	if err := binary.Read(f, binary.BigEndian, &blobLen); err != nil {
		return fmt.Errorf("pipeline: reading live-stats blob length: %w", err)
	}
	blob := make([]byte, blobLen)
	if _, err := io.ReadFull(f, blob); err != nil {
		return fmt.Errorf("pipeline: reading live-stats blob: %w", err)
	}

	dec := gob.NewDecoder(bytes.NewReader(blob))
	counts := make(map[string]int)
	if err := dec.Decode(&counts); err != nil {
		return fmt.Errorf("pipeline: decoding live-stats counts: %w", err)
	}

	ls.slotStart = slotStart
	ls.haveSlot = true
	ls.counts = make(map[dirType]int, len(counts))
	for k, v := range counts {
		var dt dirType
		fmt.Sscanf(k, "%2s:%s", &dt.dir, &dt.typ)
		ls.counts[dt] = v
	}
	return nil
}

func (ls *liveStats) saveState(path string) error {
	flat := make(map[string]int, len(ls.counts))
	for k, v := range ls.counts {
		flat[fmt.Sprintf("%s:%s", k.dir, k.typ)] = v
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(flat); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := binary.Write(f, binary.BigEndian, math.Float64bits(ls.slotStart)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.BigEndian, uint32(buf.Len())); err != nil {
		return err
	}
	_, err = f.Write(buf.Bytes())
	return err
}

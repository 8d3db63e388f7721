// Package ida implements the IDA L2 reassembler: it joins
// hex-fragment IDA frames into complete L2 PDUs by (frequency, uplink,
// fragment counter), de-duplicates repeated fragments, and expires open
// fragment chains that never complete.
package ida

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iridium-toolkit/reassemble/frame"
)

// Tunable dedupe/join/expiry constants.
const (
	DefaultDedupeTimeWindow = 1.0   // seconds
	DefaultDedupeFreqWindow = 200.0 // Hz
	DefaultJoinFreqWindow   = 260.0 // Hz
	DefaultJoinTimeWindow   = 280.0 // seconds
	DefaultChainExpiry      = 1000.0 // seconds
)

var idaBody = regexp.MustCompile(`^(?:.* )?cont=(\d) (\d) ctr=(\d+) \d+ len=(\d+) 0:.?000 \[([0-9a-f.!]*)\]\s+..../.... CRC:OK`)

// Fragment is one parsed, not-yet-joined IDA frame body.
type Fragment struct {
	Cont   bool
	Ctr    int
	Length int
	Hex    string
	UL     bool
	Time   frame.Time
	FreqHz int64
	Level  float64
}

// PDU is a completed (or single-fragment) IDA L2 protocol data unit.
type PDU struct {
	Data   []byte
	Time   frame.Time
	UL     bool
	Level  float64
	FreqHz int64
}

// Stats accumulates the termination counters requires.
type Stats struct {
	Lines     int
	Filtered  int
	Ok        int
	Broken    int
	Fragments int
	Dupes     int
}

type chain struct {
	freqHz  int64
	times   []frame.Time
	lastCtr int
	hexData string
	cont    bool
	ul      bool
}

// Reassembler is the IDA L2 state machine. Zero value is ready to use.
type Reassembler struct {
	DedupeTimeWindow float64
	DedupeFreqWindow float64
	JoinFreqWindow   float64
	JoinTimeWindow   float64
	ChainExpiry      float64

	Stats Stats

	buf []*chain

	haveLast bool
	lastTime frame.Time
	lastData string
	lastFreq int64
}

func (r *Reassembler) defaults() {
	if r.DedupeTimeWindow == 0 {
		r.DedupeTimeWindow = DefaultDedupeTimeWindow
	}
	if r.DedupeFreqWindow == 0 {
		r.DedupeFreqWindow = DefaultDedupeFreqWindow
	}
	if r.JoinFreqWindow == 0 {
		r.JoinFreqWindow = DefaultJoinFreqWindow
	}
	if r.JoinTimeWindow == 0 {
		r.JoinTimeWindow = DefaultJoinTimeWindow
	}
	if r.ChainExpiry == 0 {
		r.ChainExpiry = DefaultChainExpiry
	}
}

// Filter applies predicate: typ must be "IDA:", the data
// must carry " CRC:OK", and the IDA body regex must match. Returns nil, nil
// when the frame isn't relevant (not an error); returns a parse error when
// it looked like an IDA CRC:OK frame but the body regex failed to match.
func Filter(e *frame.Enriched) (*Fragment, error) {
	if e.Typ != "IDA:" {
		return nil, nil
	}
	if !strings.Contains(e.Data, " CRC:OK") {
		return nil, nil
	}
	m := idaBody.FindStringSubmatch(e.Data)
	if m == nil {
		return nil, fmt.Errorf("couldn't parse IDA: %s", e.Data)
	}

	ctr, err := strconv.ParseInt(m[3], 2, 64)
	if err != nil {
		return nil, fmt.Errorf("bad ctr field %q: %w", m[3], err)
	}
	length, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, fmt.Errorf("bad len field %q: %w", m[4], err)
	}

	return &Fragment{
		Cont:   m[1] == "1",
		Ctr:    int(ctr),
		Length: length,
		Hex:    m[5],
		UL:     e.UL,
		Time:   e.Time,
		FreqHz: e.FreqHz,
		Level:  e.Level,
	}, nil
}

// Process runs one fragment through the dedupe/join/expire state machine
//, returning zero or one completed PDUs.
func (r *Reassembler) Process(m *Fragment) []PDU {
	r.defaults()

	if r.isDupe(m) {
		r.Stats.Dupes++
		return nil
	}
	r.haveLast = true
	r.lastTime = m.Time
	r.lastData = m.Hex
	r.lastFreq = m.FreqHz

	var out []PDU
	matched := false
	for i, c := range r.buf {
		last := c.times[len(c.times)-1]
		if freqClose(c.freqHz, m.FreqHz, r.JoinFreqWindow) &&
			last.Seconds() <= m.Time.Seconds() && m.Time.Seconds() <= last.Seconds()+r.JoinTimeWindow &&
			(c.lastCtr+1)%8 == m.Ctr && c.ul == m.UL {

			r.buf = append(r.buf[:i], r.buf[i+1:]...)
			c.hexData = c.hexData + "." + m.Hex
			c.times = append(c.times, m.Time)
			if m.Cont {
				c.lastCtr = m.Ctr
				c.cont = m.Cont
				r.buf = append(r.buf, c)
			} else {
				r.Stats.Ok++
				data := decodeIDAHex(c.hexData)
				out = append(out, PDU{Data: data, Time: m.Time, UL: c.ul, Level: m.Level, FreqHz: c.freqHz})
			}
			r.Stats.Fragments++
			matched = true
			break
		}
	}

	if !matched {
		switch {
		case m.Ctr == 0 && !m.Cont:
			data := decodeIDAHex(m.Hex)
			out = append(out, PDU{Data: data, Time: m.Time, UL: m.UL, Level: m.Level, FreqHz: m.FreqHz})
		case m.Ctr == 0 && m.Cont:
			r.Stats.Fragments++
			r.buf = append(r.buf, &chain{
				freqHz:  m.FreqHz,
				times:   []frame.Time{m.Time},
				lastCtr: m.Ctr,
				hexData: m.Hex,
				cont:    m.Cont,
				ul:      m.UL,
			})
		default: // m.Ctr > 0: orphan fragment, no open chain matched
			r.Stats.Broken++
			r.Stats.Fragments++
		}
	}

	r.expire(m.Time)

	return out
}

// expire drops every open chain whose last fragment is at least ChainExpiry
// seconds older than now, counting each as broken, so no stale chain
// survives past the call.
func (r *Reassembler) expire(now frame.Time) {
	kept := r.buf[:0]
	for _, c := range r.buf {
		last := c.times[len(c.times)-1]
		if last.Seconds()+r.ChainExpiry <= now.Seconds() {
			r.Stats.Broken++
			continue
		}
		kept = append(kept, c)
	}
	r.buf = kept
}

func (r *Reassembler) isDupe(m *Fragment) bool {
	if !r.haveLast {
		return false
	}
	withinTime := r.lastTime.Seconds()-r.DedupeTimeWindow <= m.Time.Seconds() && m.Time.Seconds() <= r.lastTime.Seconds()+r.DedupeTimeWindow
	withinFreq := float64(r.lastFreq)-r.DedupeFreqWindow < float64(m.FreqHz) && float64(m.FreqHz) < float64(r.lastFreq)+r.DedupeFreqWindow
	return withinTime && r.lastData == m.Hex && withinFreq
}

func freqClose(a, b int64, window float64) bool {
	diff := float64(a - b)
	return -window < diff && diff < window
}

// decodeIDAHex turns a dot/bang-separated hex fragment string into bytes,
// treating '.' and '!' as field separators to drop.
func decodeIDAHex(s string) []byte {
	clean := strings.NewReplacer(".", "", "!", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		// Any odd-length or non-hex remainder indicates an upstream bug in
		// the body regex (it only ever captures [0-9a-f.!]); surface empty
		// bytes rather than panicking on malformed captures.
		return nil
	}
	return data
}

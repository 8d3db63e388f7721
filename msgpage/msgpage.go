// Package msgpage implements the MSG/MS3 paging reassembler: it joins
// 7-bit/BCD paging fragments keyed by (ric, seq, fmt) and validates their
// checksum or digit-string law.
package msgpage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iridium-toolkit/reassemble/frame"
)

// JoinExpiry is the open-message lifetime.
const JoinExpiry = 2000.0 // seconds

var msgBody = regexp.MustCompile(
	`ric:(\d+) fmt:(\d+) seq:(\d+) (OK|[A-Z]+) ctr=(\d+)/(\d+) csum=([0-9a-f]+) \[([0-9a-f]*)\]\.([01]*)`)

var ms3Body = regexp.MustCompile(
	`ric:(\d+) fmt:3 seq:(\d+) (OK|[A-Z]+) ctr=(\d+)/(\d+) bcd:([0-9]*)`)

// Fragment is one parsed MSG/MS3 line.
type Fragment struct {
	RIC      int
	Fmt      int
	Seq      int
	Ctr      int
	CtrMax   int
	Checksum int
	HaveCsum bool
	Bits     string
	BCD      string
	Time     frame.Time
}

// ParseMSG parses an MSG-minor (fmt 3 or 5) line per Returns
// nil, nil for non-"OK" (dropped) lines.
func ParseMSG(e *frame.Enriched) (*Fragment, error) {
	m := msgBody.FindStringSubmatch(e.Data)
	if m == nil {
		return nil, fmt.Errorf("couldn't parse MSG: %s", e.Data)
	}
	if m[4] != "OK" {
		return nil, nil
	}

	ric, _ := strconv.Atoi(m[1])
	fmtN, _ := strconv.Atoi(m[2])
	seq, _ := strconv.Atoi(m[3])
	ctr, _ := strconv.Atoi(m[5])
	ctrMax, _ := strconv.Atoi(m[6])
	csum, err := strconv.ParseInt(m[7], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("bad csum field %q: %w", m[7], err)
	}

	bits := hexToBits(m[8]) + m[9]

	return &Fragment{
		RIC: ric, Fmt: fmtN, Seq: seq, Ctr: ctr, CtrMax: ctrMax,
		Checksum: int(csum), HaveCsum: true, Bits: bits, Time: e.Time,
	}, nil
}

// ParseMS3 parses an MS3-minor line: a direct BCD string, no checksum.
func ParseMS3(e *frame.Enriched) (*Fragment, error) {
	m := ms3Body.FindStringSubmatch(e.Data)
	if m == nil {
		return nil, fmt.Errorf("couldn't parse MS3: %s", e.Data)
	}
	if m[3] != "OK" {
		return nil, nil
	}

	ric, _ := strconv.Atoi(m[1])
	seq, _ := strconv.Atoi(m[2])
	ctr, _ := strconv.Atoi(m[4])
	ctrMax, _ := strconv.Atoi(m[5])

	return &Fragment{RIC: ric, Fmt: 3, Seq: seq, Ctr: ctr, CtrMax: ctrMax, BCD: m[6], Time: e.Time}, nil
}

func hexToBits(h string) string {
	var b strings.Builder
	for _, c := range h {
		v, _ := strconv.ParseUint(string(c), 16, 8)
		fmt.Fprintf(&b, "%04b", v)
	}
	return b.String()
}

// Message is a MSG/MS3 join-buffer entry.
type Message struct {
	RIC, Fmt, Seq int
	PCnt          int
	Parts         [][]byte
	Set           []bool
	Checksum      int
	HaveCsum      bool
	BCD           map[int]string
	Time          frame.Time
}

type idKey struct {
	ric, seq, fmt int
}

// Reassembler is the MSG/MS3 join state machine keyed by (ric, seq, fmt).
type Reassembler struct {
	buf map[idKey]*Message
}

// Result is an emitted paging message.
type Result struct {
	RIC, Seq int
	Time     frame.Time
	Text     string
	Checksum int
	HaveCsum bool
	OK       bool
	Missing  bool
}

// Process feeds one fragment into its join slot, emitting a Result as soon
// as the message completes; a completed message whose checksum or digit
// check fails is emitted with OK false. Incomplete messages are emitted only
// by Expire.
func (r *Reassembler) Process(f *Fragment) *Result {
	if r.buf == nil {
		r.buf = make(map[idKey]*Message)
	}
	key := idKey{f.RIC, f.Seq, f.Fmt}

	msg, ok := r.buf[key]
	if !ok {
		msg = &Message{RIC: f.RIC, Fmt: f.Fmt, Seq: f.Seq, PCnt: f.CtrMax,
			Parts: make([][]byte, f.CtrMax+1), Set: make([]bool, f.CtrMax+1),
			BCD: make(map[int]string)}
		r.buf[key] = msg
	}

	if f.HaveCsum && msg.HaveCsum && msg.Checksum != f.Checksum {
		fmt.Printf("WARN: msg: csum changed mid-stream for ric=%d seq=%d\n", f.RIC, f.Seq)
	}
	if f.HaveCsum {
		msg.Checksum = f.Checksum
		msg.HaveCsum = true
	}
	msg.Time = f.Time

	if f.Ctr < len(msg.Set) {
		if f.Fmt == 3 {
			msg.BCD[f.Ctr] = f.BCD
		} else {
			groups, _ := frame.SliceExtra(f.Bits, 7)
			var b []byte
			for _, g := range groups {
				v, _ := strconv.ParseUint(g, 2, 8)
				b = append(b, byte(v))
			}
			msg.Parts[f.Ctr] = b
		}
		msg.Set[f.Ctr] = true
	}

	if !allSet(msg.Set) {
		return nil
	}

	delete(r.buf, key)
	return finalize(msg)
}

func allSet(set []bool) bool {
	for _, s := range set {
		if !s {
			return false
		}
	}
	return true
}

// Expire drops slots idle for at least JoinExpiry seconds, emitting each
// with "[MISSING]" placeholders for unset parts.
func (r *Reassembler) Expire(now frame.Time) []Result {
	var out []Result
	for key, msg := range r.buf {
		if msg.Time.Seconds()+JoinExpiry <= now.Seconds() {
			delete(r.buf, key)
			res := finalize(msg)
			res.Missing = true
			out = append(out, *res)
		}
	}
	return out
}

func finalize(msg *Message) *Result {
	var text string
	var correct bool

	if msg.Fmt == 3 {
		var b strings.Builder
		allDigits := true
		for i := 0; i <= msg.PCnt; i++ {
			if s, ok := msg.BCD[i]; ok {
				b.WriteString(s)
			} else {
				b.WriteString("[MISSING]")
				allDigits = false
			}
		}
		text = strings.TrimRight(b.String(), "c")
		correct = allDigits && isAllDigits(text)
	} else {
		var all []byte
		for i, part := range msg.Parts {
			if !msg.Set[i] {
				text += "[MISSING]"
				continue
			}
			all = append(all, part...)
		}
		for len(all) > 0 && all[len(all)-1] == 0x03 {
			all = all[:len(all)-1]
		}
		text += string(all)
		sum := 0
		for _, c := range all {
			sum += int(c)
		}
		want := (^(sum % 128)) & 0x7f
		correct = msg.HaveCsum && want == msg.Checksum
	}

	return &Result{RIC: msg.RIC, Seq: msg.Seq, Time: msg.Time, Text: text,
		Checksum: msg.Checksum, HaveCsum: msg.HaveCsum, OK: correct}
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Line renders the "msg" output line.
func Line(r Result) string {
	status := "OK"
	if !r.OK {
		status = "fail"
	}
	csum := ""
	if r.HaveCsum {
		csum = fmt.Sprintf("[%02x]", r.Checksum)
	}
	return fmt.Sprintf("Message %d %d @%s (len:%d) %s {%s}: %s",
		r.RIC, r.Seq, r.Time.Time().Format("2006-01-02T15:04:05Z"), len(r.Text), csum, status, r.Text)
}

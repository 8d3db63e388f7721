// Package sbd implements the SBD L3 reassembler: it joins IDA
// L2 PDUs carrying uplink or downlink SBD segments into a single SBD object,
// driven by the msgcnt from the prehdr and the msgno from the body
// sub-header.
package sbd

import (
	"fmt"
	"os"

	"github.com/iridium-toolkit/reassemble/frame"
	"github.com/iridium-toolkit/reassemble/ida"
)

// JoinExpiry is the open-slot lifetime.
const JoinExpiry = 5.0 // seconds

// Object is a joined (or single-fragment) SBD message. Typ accumulates the
// hex tag of every fragment merged into it; Prehdr is the leading sub-header
// bytes captured from the first fragment only.
type Object struct {
	Typ    string
	Prehdr []byte
	Data   []byte
	Time   frame.Time
	UL     bool
	FreqHz int64
}

type slot struct {
	msgno  int
	msgcnt int
	obj    *Object
	time   frame.Time
	ul     bool
}

// Stats tracks the termination counters for this reassembler.
type Stats struct {
	Dropped int
	Ok      int
	Broken  int
}

// Reassembler is the SBD L3 join state machine.
type Reassembler struct {
	Stats Stats
	slots []*slot
}

// eligible reports whether an IDA PDU's leading tag bytes mark it as
// carrying an SBD segment, given the frame's direction.
func eligible(data []byte, ul bool) bool {
	if len(data) < 2 {
		return false
	}
	if data[0] == 0x76 {
		if data[1] == 0x05 {
			return false
		}
		if ul {
			return data[1] >= 0x0c && data[1] <= 0x0e
		}
		return data[1] >= 0x08 && data[1] <= 0x0b
	}
	if data[0] == 0x06 && data[1] == 0x00 {
		if len(data) < 3 {
			return false
		}
		switch data[2] {
		case 0x10, 0x20, 0x40, 0x50, 0x70:
			return true
		}
	}
	return false
}

// parseSBDHeader splits one eligible PDU's payload into its typ tag, prehdr
// bytes, message body, and the (msgno, msgcnt) pair used to drive joining.
// msgcnt is -1 when the fragment carries no msgcnt of its own (plain
// continuation fragments inherit msgcnt from the join slot they attach to).
func parseSBDHeader(data []byte, ul bool) (typ string, prehdr, body []byte, msgno, msgcnt int, ok bool, warn string) {
	typ = fmt.Sprintf("%02x%02x", data[0], data[1])
	data = data[2:]

	if typ == "0600" {
		if len(data) < 29 {
			return typ, nil, nil, 0, 0, false, ""
		}
		prehdr = append([]byte(nil), data[:29]...)
		data = data[29:]
		msgcnt = int(prehdr[15])
		msgno = 1
		if msgcnt == 0 {
			msgno = 0
		}
		return typ, prehdr, data, msgno, msgcnt, true, ""
	}

	switch {
	case typ == "7608" && len(data) >= 7 && data[0] == 0x26:
		prehdr = append([]byte(nil), data[:7]...)
		data = data[7:]
		msgcnt = int(prehdr[3])
	case typ == "7608" && len(data) >= 5 && data[0] == 0x20:
		prehdr = append([]byte(nil), data[:5]...)
		data = data[5:]
		msgcnt = int(prehdr[3])
	case typ == "7608":
		if len(data) < 7 {
			return typ, nil, nil, 0, 0, false, ""
		}
		prehdr = append([]byte(nil), data[:7]...)
		data = data[7:]
		msgcnt = int(prehdr[3])
		warn = "DL pkt with unclear header"
	default:
		msgcnt = -1
	}

	if ul && len(data) >= 3 && data[0] == 0x50 {
		prehdr = append([]byte(nil), data[:3]...)
		data = data[3:]
	}

	switch {
	case len(data) == 0:
		msgno = 0
	case len(data) > 3 && data[0] == 0x10:
		hdr := data[:3]
		data = data[3:]
		msgno = int(hdr[2])
		blen := int(hdr[1])
		if len(data) < blen {
			return typ, prehdr, nil, 0, 0, false, ""
		}
		if len(data) > blen {
			data = data[:blen]
		}
	default:
		msgno = 0
	}

	return typ, prehdr, data, msgno, msgcnt, true, warn
}

// Process runs one IDA L2 PDU through the join state machine, returning a
// completed Object when a message finishes.
func (r *Reassembler) Process(p ida.PDU) *Object {
	if !eligible(p.Data, p.UL) {
		r.Stats.Dropped++
		return nil
	}

	typ, prehdr, body, msgno, msgcnt, ok, warn := parseSBDHeader(p.Data, p.UL)
	if !ok {
		fmt.Fprintf(os.Stderr, "WARN: sbd: couldn't parse message sub-header\n")
		r.Stats.Dropped++
		return nil
	}
	if warn != "" {
		fmt.Fprintf(os.Stderr, "WARN: sbd: %s\n", warn)
	}

	r.expire(p.Time)

	obj := &Object{Typ: typ, Prehdr: prehdr, Data: body, Time: p.Time, UL: p.UL, FreqHz: p.FreqHz}

	switch {
	case msgno == 0:
		r.Stats.Ok++
		return obj

	case msgcnt == 1 && msgno == 1:
		r.Stats.Ok++
		return obj

	case msgcnt > 1:
		r.slots = append(r.slots, &slot{msgno: msgno, msgcnt: msgcnt, obj: obj, time: p.Time, ul: p.UL})
		return nil

	case msgno > 1:
		for i, s := range r.slots {
			if s.ul != p.UL || s.msgno+1 != msgno {
				continue
			}
			s.obj.Data = append(s.obj.Data, body...)
			s.obj.Typ += typ
			s.time = p.Time
			if msgno == s.msgcnt {
				r.slots = append(r.slots[:i], r.slots[i+1:]...)
				r.Stats.Ok++
				return s.obj
			}
			s.msgno = msgno
			return nil
		}
		fmt.Fprintf(os.Stderr, "WARN: sbd: orphan fragment msgno=%d msgcnt=%d\n", msgno, msgcnt)
		r.Stats.Broken++
		return nil

	default:
		r.Stats.Broken++
		return nil
	}
}

// expire drops join slots idle for at least JoinExpiry seconds, counting
// each as broken.
func (r *Reassembler) expire(now frame.Time) {
	kept := r.slots[:0]
	for _, s := range r.slots {
		if s.time.Seconds()+JoinExpiry <= now.Seconds() {
			r.Stats.Broken++
			continue
		}
		kept = append(kept, s)
	}
	r.slots = kept
}

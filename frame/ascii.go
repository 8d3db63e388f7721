package frame

import (
	"strconv"
	"strings"
)

// ToASCII renders data as a printable string, the Go equivalent of the
// original tool's util.to_ascii: non-printable bytes become '.', and when
// escape is true they're rendered as "\xHH" instead.
func ToASCII(data []byte, escape bool) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else if escape {
			b.WriteString(`\x`)
			if c < 0x10 {
				b.WriteByte('0')
			}
			b.WriteString(strconv.FormatUint(uint64(c), 16))
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// SliceExtra splits a string of '0'/'1' bits into groups of n, returning the
// full groups and whatever's left over (shorter than n bits), mirroring
// util.slice_extra used by the MSG/MS3 reassembler to carve 7-bit groups out
// of a bitstring.
func SliceExtra(bits string, n int) (groups []string, rest string) {
	for len(bits) >= n {
		groups = append(groups, bits[:n])
		bits = bits[n:]
	}
	return groups, bits
}

// IriEpoch is the Iridium epoch used by "iritime" fields: a 32-bit count of
// 90ms ticks since 2014-05-11T14:23:55Z.
const IriEpoch int64 = 1399818235

// FmtIriTime decodes a 32-bit iritime tick count into a Unix-seconds value
// and an ISO-ish display string, mirroring util.fmt_iritime.
func FmtIriTime(ticks uint32) (int64, string) {
	sec := IriEpoch + int64(ticks)*90/1000
	ms := (int64(ticks) * 90) % 1000
	t := Time(sec*1_000_000 + ms*1000).Time()
	return sec, t.Format("2006-01-02T15:04:05.000Z")
}

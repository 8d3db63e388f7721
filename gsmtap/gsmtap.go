// Package gsmtap builds GSMTAP v2 headers over IDA L2 LAPDm payloads, and
// optionally wraps them in a fake UDP/IPv4/Ethernet/PCAP frame stack.
package gsmtap

import (
	"encoding/binary"

	"github.com/iridium-toolkit/reassemble/ida"
)

// Header is the 16-byte GSMTAP v2 header.
type Header struct {
	Version     uint8
	HdrLen      uint8
	Type        uint8
	Timeslot    uint8
	ARFCN       uint16
	SignalDBm   int8
	SNR         int8
	FrameNumber uint32
	SubType     uint8
	Antenna     uint8
	SubSlot     uint8
	Res         uint8
}

const (
	typeUm  = 2
	ulFlag  = 0x4000
	subType = 1
)

// Encode builds the 16-byte GSMTAP v2 header for one IDA L2 PDU.
func Encode(p ida.PDU) []byte {
	arfcn := uint16(channelOf(p.FreqHz))
	if p.UL {
		arfcn |= ulFlag
	}

	level := p.Level
	if level < -126 {
		level = -126
	}
	if level > 127 {
		level = 127
	}

	h := Header{
		Version:     2,
		HdrLen:      4,
		Type:        typeUm,
		Timeslot:    0,
		ARFCN:       arfcn,
		SignalDBm:   int8(level),
		SNR:         0,
		FrameNumber: uint32(p.FreqHz),
		SubType:     subType,
		Antenna:     0,
		SubSlot:     0,
		Res:         0,
	}

	buf := make([]byte, 16)
	buf[0] = h.Version
	buf[1] = h.HdrLen
	buf[2] = h.Type
	buf[3] = h.Timeslot
	binary.BigEndian.PutUint16(buf[4:6], h.ARFCN)
	buf[6] = byte(h.SignalDBm)
	buf[7] = byte(h.SNR)
	binary.BigEndian.PutUint32(buf[8:12], h.FrameNumber)
	buf[12] = h.SubType
	buf[13] = h.Antenna
	buf[14] = h.SubSlot
	buf[15] = h.Res

	return append(buf, p.Data...)
}

// channelOf recovers the channel number from an absolute frequency using the
// same base/width constants the frame package channelizes with.
func channelOf(freqHz int64) int64 {
	const base = 1_616_000_000
	const width = 41_667
	return (freqHz - base) / width
}

// Filterable reports whether a PDU should be dropped from PCAP/GSMTAP output
// unless "all" is requested.
func Filterable(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if len(data) == 1 {
		return true
	}
	lo := data[0] & 0xf
	hi := data[0] >> 4
	return lo == 6 || lo == 8 || hi == 7
}

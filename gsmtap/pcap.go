package gsmtap

import (
	"encoding/binary"

	"github.com/iridium-toolkit/reassemble/frame"
	"github.com/iridium-toolkit/reassemble/ida"
)

// PCAP file-header constants.
const (
	pcapMagic   = 0xA1B2C3D4
	pcapMajor   = 2
	pcapMinor   = 4
	pcapNetwork = 1 // Ethernet
)

// FileHeader returns the 24-byte classic PCAP file header.
func FileHeader() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], pcapMagic)
	binary.LittleEndian.PutUint16(buf[4:6], pcapMajor)
	binary.LittleEndian.PutUint16(buf[6:8], pcapMinor)
	// thiszone, sigfigs are 0
	binary.LittleEndian.PutUint32(buf[16:20], 0xFFFF) // snaplen
	binary.LittleEndian.PutUint32(buf[20:24], pcapNetwork)
	return buf
}

const (
	udpSrcPort = 45988
	udpDstPort = 4729

	ipSrcDL = "127.0.0.1"
	ipDstDL = "10.0.0.1"
)

// Record wraps one GSMTAP payload in fake UDP/IPv4/Ethernet and returns the
// PCAP per-packet record (16-byte record header + payload). Direction
// reverses src/dst when UL vs DL.
func Record(p ida.PDU) []byte {
	gsmtap := Encode(p)

	udp := buildUDP(gsmtap)
	ip := buildIPv4(udp, p.UL)
	eth := buildEthernet(ip)

	sec, usec := splitTime(p.Time)

	rec := make([]byte, 16)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(sec))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(usec))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(len(eth)))
	binary.LittleEndian.PutUint32(rec[12:16], uint32(len(eth)))

	return append(rec, eth...)
}

func splitTime(t frame.Time) (sec, usec int64) {
	s := t.Seconds()
	sec = int64(s)
	usec = int64((s - float64(sec)) * 1e6)
	return sec, usec
}

func buildUDP(payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], udpSrcPort)
	binary.BigEndian.PutUint16(buf[2:4], udpDstPort)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(buf)))
	// checksum left as 0 (optional in IPv4 UDP)
	copy(buf[8:], payload)
	return buf
}

func buildIPv4(payload []byte, ul bool) []byte {
	src, dst := ipSrcDL, ipDstDL
	if ul {
		src, dst = dst, src
	}

	buf := make([]byte, 20+len(payload))
	buf[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	buf[8] = 64   // TTL
	buf[9] = 0x11 // UDP
	copy(buf[12:16], parseIPv4(src))
	copy(buf[16:20], parseIPv4(dst))
	copy(buf[20:], payload)
	return buf
}

func parseIPv4(s string) []byte {
	out := make([]byte, 4)
	var octet, idx int
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			out[idx] = byte(octet)
			idx++
			octet = 0
			continue
		}
		octet = octet*10 + int(s[i]-'0')
	}
	return out
}

func buildEthernet(payload []byte) []byte {
	buf := make([]byte, 14+len(payload))
	// dst/src MAC left zeroed
	binary.BigEndian.PutUint16(buf[12:14], 0x0800) // IPv4
	copy(buf[14:], payload)
	return buf
}

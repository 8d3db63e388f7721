package ida

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/iridium-toolkit/reassemble/frame"
)

// majorName maps the IDA application-layer major tag to its category label.
var majorName = map[byte]string{
	0x03: "CC",
	0x83: "CC(dest)",
	0x05: "MM",
	0x06: "06",
	0x08: "08",
	0x09: "SMS",
	0x89: "SMS(dest)",
	0x76: "SBD",
}

// minorName maps the full (major,minor) tag pair to a human message name.
var minorName = map[string]string{
	"0301": "Alerting",
	"0302": "Call Proceeding",
	"0303": "Progress",
	"0305": "Setup",
	"030f": "Connect Acknowledge",
	"0325": "Disconnect",
	"032a": "Release Complete",
	"032d": "Release",
	"0502": "Location Updating Accept",
	"0504": "Location Updating Reject",
	"0508": "Location Updating Request",
	"0512": "Authentication Request",
	"0514": "Authentication Response",
	"0518": "Identity request",
	"0519": "Identity response",
	"051a": "TMSI Reallocation Command",
	"0600": "Register/SBD:uplink",
	"0901": "CP-DATA",
	"0904": "CP-ACK",
	"0910": "CP-ERROR",
	"7605": "7605",
	"7608": "downlink #1",
	"7609": "downlink #2",
	"760a": "downlink #3+",
	"760c": "uplink initial",
	"760d": "uplink #2",
	"760e": "uplink #3",
}

// Classify splits an L2 PDU's first two bytes into its major/minor
// transaction tags, clearing the "destination side" bit for majors 0x83/0x89.
func Classify(data []byte) (tmaj, tmin string, rest []byte) {
	if len(data) < 2 {
		return "", "", data
	}
	b0, b1 := data[0], data[1]
	tmaj = fmt.Sprintf("%02x", b0)
	if b0 == 0x83 || b0 == 0x89 {
		tmin = fmt.Sprintf("%02x%02x", b0&0x7f, b1)
	} else {
		tmin = fmt.Sprintf("%02x%02x", b0, b1)
	}
	return tmaj, tmin, data[2:]
}

// AppLine renders the one pretty-printed output line for a decoded PDU.
func AppLine(p PDU) string {
	if len(p.Data) <= 2 {
		return ""
	}

	fbase := p.FreqHz - frame.BaseFreq
	fchan := fbase / frame.ChannelWidth
	foff := fbase % frame.ChannelWidth
	freqPrint := fmt.Sprintf("%3d|%05d", fchan, foff)

	ul := "DL"
	if p.UL {
		ul = "UL"
	}

	_, tmin, data := Classify(p.Data)

	var tstr string
	if name, ok := minorName[tmin]; ok {
		tstr = fmt.Sprintf("[%s: %s]", majorName[p.Data[0]], name)
	} else if maj, ok := majorName[p.Data[0]]; ok {
		tstr = fmt.Sprintf("[%s: ?]", maj)
	} else {
		tstr = "[?]"
	}

	strtime := p.Time.Time().Format("2006-01-02T15:04:05.00Z")

	var b strings.Builder
	fmt.Fprintf(&b, "%s ", strtime)
	fmt.Fprintf(&b, "%s %s [%s] %-36s ", freqPrint, ul, tmin, tstr)

	switch tmin {
	case "0600", "760c", "760d", "760e", "7608", "7609", "760a":
		data = appendSBDPrehdr(&b, ul, tmin, data)
	case "032d", "032a":
		if len(data) == 4 && data[0] == 8 {
			data = data[1:]
			var rv string
			rv, data = pDisc(data)
			fmt.Fprintf(&b, "%s ", rv)
		}
	case "0325":
		var rv string
		rv, data = pDisc(data)
		fmt.Fprintf(&b, "%s ", rv)
	case "0502":
		var rv string
		rv, data = pLAI(data)
		fmt.Fprintf(&b, "%s ", rv)
		if len(data) >= 1 && data[0] == 0x17 {
			data = data[1:]
			rv, data = pMobileIdentity(data)
			fmt.Fprintf(&b, "%s ", rv)
		}
		if len(data) >= 1 && data[0] == 0xa1 {
			fmt.Fprintf(&b, "Follow-on Proceed ")
			data = data[1:]
		}
	case "0508":
		if len(data) > 6 && data[0]&0xf == 0 && data[6] == 0x28 {
			if data[0]>>4 == 7 {
				fmt.Fprintf(&b, "key=none ")
			} else {
				fmt.Fprintf(&b, "key=%d ", data[0]>>4)
			}
			data = data[1:]
			var rv string
			rv, data = pLAI(data)
			fmt.Fprintf(&b, "%s ", rv)
			data = data[1:] // skip classmark
			rv, data = pMobileIdentity(data)
			fmt.Fprintf(&b, "%s ", rv)
		}
	case "051a":
		var rv string
		rv, data = pLAI(data)
		fmt.Fprintf(&b, "%s ", rv)
		rv, data = pMobileIdentity(data)
		fmt.Fprintf(&b, "%s ", rv)
	case "0504":
		if len(data) > 0 && data[0] == 2 {
			fmt.Fprintf(&b, "02(IMSI unknown in HLR) ")
			data = data[1:]
		}
	case "0518":
		if len(data) > 0 && data[0] == 2 {
			fmt.Fprintf(&b, "02(IMEI) ")
			data = data[1:]
		} else if len(data) > 0 && data[0] == 1 {
			fmt.Fprintf(&b, "01(IMSI) ")
			data = data[1:]
		}
	case "0519":
		rv, rest := pMobileIdentity(data)
		fmt.Fprintf(&b, "[%s] ", rv)
		data = rest
	}

	if len(data) > 0 {
		hexParts := make([]string, len(data))
		for i, c := range data {
			hexParts[i] = fmt.Sprintf("%02x", c)
		}
		fmt.Fprintf(&b, "%s | %s", strings.Join(hexParts, " "), frame.ToASCII(data, true))
	}

	return b.String()
}

// appendSBDPrehdr writes the SBD sub-header portion of the idapp output
// line and returns the payload remaining after the prehdr
// and any 0x10-tagged message-body sub-header have been consumed.
func appendSBDPrehdr(b *strings.Builder, ul, tmin string, data []byte) []byte {
	var prehdr, hdr string
	var addlen = -1

	switch {
	case ul == "UL" && tmin == "0600":
		if len(data) < 29 {
			fmt.Fprintf(b, "ERR:short")
			return nil
		}
		hdr := data[:29]
		data = data[29:]
		prehdr = "<" + hex.EncodeToString(hdr[0:4])

		switch {
		case hdr[0] == 0x20:
			prehdr += fmt.Sprintf(",%02x", hdr[4])
			bcd := bcdDigits(hdr[5:13])
			prehdr += "," + bcd[0:1] + ",imei:" + bcd[1:]
			prehdr += fmt.Sprintf(" MOMSN=%02x%02x", hdr[13], hdr[14])
			addlen = int(hdr[17])
		case hdr[0] == 0x10 || hdr[0] == 0x40 || hdr[0] == 0x50 || hdr[0] == 0x70:
			prehdr += "," + hex.EncodeToString(hdr[4:8])
			prehdr += fmt.Sprintf(",%02x%02x", hdr[8], hdr[9])
			prehdr += fmt.Sprintf(",%02x%02x", hdr[10], hdr[11])
			prehdr += fmt.Sprintf(",%02x%02x%02x", hdr[12], hdr[13], hdr[14])
		default:
			prehdr += "[ERR:hdrtype]"
			prehdr += " " + hex.EncodeToString(hdr[4:15])
		}

		prehdr += fmt.Sprintf(" msgct:%d", hdr[15])
		prehdr += " " + hex.EncodeToString(hdr[16:25])

		ts := hdr[25:29]
		var tsi uint32
		for _, c := range ts {
			tsi = tsi<<8 | uint32(c)
		}
		_, strtime := frame.FmtIriTime(tsi)
		prehdr += " t:" + strtime
		prehdr += ">"
		hdr2 := ""
		fmt.Fprintf(b, "%-22s %-10s ", prehdr, hdr2)
		return data

	case ul == "UL" && (tmin == "760c" || tmin == "760d" || tmin == "760e"):
		if len(data) >= 3 && data[0] == 0x50 {
			prehdr = "<" + hex.EncodeToString(data[:3]) + ">"
			data = data[3:]
		}

	case ul == "DL" && (tmin == "7608" || tmin == "7609" || tmin == "760a"):
		switch {
		case tmin == "7608" && len(data) >= 7 && data[0] == 0x26:
			prehdr = "<" + hex.EncodeToString(data[:7]) + ">"
			data = data[7:]
		case tmin == "7608" && len(data) >= 5 && data[0] == 0x20:
			prehdr = "<" + hex.EncodeToString(data[:5]) + ">"
			data = data[5:]
		case tmin == "7608":
			prehdr = "<ERR:prehdr_type?>"
		}

	default:
		prehdr = "<ERR:nomatch>"
	}

	fmt.Fprintf(b, "%-22s %-10s ", prehdr, hdr)

	if tmin != "0600" && len(data) > 0 {
		if data[0] == 0x10 && len(data) >= 3 {
			hb := data[:3]
			data = data[3:]
			addlen = int(hb[1])
			hdr = "<" + hex.EncodeToString(hb) + ">"
			fmt.Fprintf(b, "%s ", hdr)
		} else {
			fmt.Fprintf(b, "ERR:no_0x10 ")
		}
	}

	if addlen >= 0 && len(data) != addlen {
		fmt.Fprintf(b, "ERR:len(%d!=%d) ", len(data), addlen)
	}

	return data
}

func bcdDigits(b []byte) string {
	var s strings.Builder
	for _, x := range b {
		fmt.Fprintf(&s, "%x%x", x&0xf, x>>4)
	}
	return s.String()
}

// pMobileIdentity decodes the GSM Mobile-Identity IEI:
// 1-byte length, 1-byte type/odd-indicator nibble, then either a 7-byte
// BCD-packed IMSI/IMEI or a 4-byte TMSI.
func pMobileIdentity(data []byte) (string, []byte) {
	if len(data) < 2 {
		return "PARSE_FAIL", data
	}
	ieiLen := data[0]
	ieiDig := data[1] >> 4
	ieiOdd := (data[1] >> 3) & 1
	ieiTyp := data[1] & 7

	switch ieiTyp {
	case 1, 2: // IMSI / IMEI
		if ieiOdd == 1 && ieiLen == 8 && len(data) >= 9 {
			s := fmt.Sprintf("%x", ieiDig)
			for _, x := range data[2:9] {
				s += fmt.Sprintf("%x%x", x&0xf, x>>4)
			}
			kind := [5]string{"", "imsi", "imei"}[ieiTyp]
			return fmt.Sprintf("%s:%s", kind, s), data[9:]
		}
		return "PARSE_FAIL", data
	case 4: // TMSI
		if ieiOdd == 0 && ieiLen == 5 && ieiDig == 0xf && len(data) >= 6 {
			return fmt.Sprintf("tmsi:%02x%02x%02x%02x", data[2], data[3], data[4], data[5]), data[6:]
		}
		return "PARSE_FAIL", data
	default:
		return "PARSE_FAIL", data
	}
}

// pLAI decodes a Location Area Identity: MCC/MNC/LAC from 5 bytes.
func pLAI(lai []byte) (string, []byte) {
	if len(lai) < 5 || lai[1]>>4 != 15 {
		return "PARSE_FAIL", lai
	}
	s := fmt.Sprintf("MCC=%d%d%d", lai[0]&0xf, lai[0]>>4, lai[1]&0xf)
	s += fmt.Sprintf("/MNC=%d%d", lai[2]>>4, lai[2]&0xf)
	s += fmt.Sprintf("/LAC=%02x%02x", lai[3], lai[4])
	return s, lai[5:]
}

// causeTable maps the Q.931-derived Release/Disconnect cause codes named
// explicitly.
var causeTable = map[byte]string{
	1:   "Unassigned number",
	16:  "Normal call clearing",
	17:  "User busy",
	31:  "Normal, unspecified",
	34:  "No channel available",
	41:  "Temporary failure",
	57:  "Bearer cap. not authorized",
	127: "Interworking, unspecified",
}

// pDisc decodes the Cause IE carried by Release/Disconnect messages.
func pDisc(disc []byte) (string, []byte) {
	if len(disc) < 3 || disc[0] < 2 || disc[1]>>4 != 0xe {
		return "PARSE_FAIL", disc
	}
	net := disc[1] & 0xf
	cause := disc[2] & 0x7f

	var s string
	switch net {
	case 0:
		s = "Loc:user "
	case 2:
		s = "Net:local"
	case 3:
		s = "Net:trans"
	case 4:
		s = "Net:remot"
	default:
		s = fmt.Sprintf("Net: %3d ", net)
	}

	if name, ok := causeTable[cause]; ok {
		s += fmt.Sprintf(" Cause(%02d) %s", cause, name)
	} else {
		s += fmt.Sprintf(" Cause: %d", cause)
	}

	if len(disc) > 3 && (disc[2]>>7) == 1 && disc[0] == 3 && disc[3] == 0x88 {
		s += " CCBS not poss."
		return s, disc[4:]
	}

	return s, disc[3:]
}

package pipeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/iridium-toolkit/reassemble/frame"
)

// ITLCoincidenceMS is the time tolerance, in milliseconds, used to correlate
// IRA: and ITL: frames; frequencies are not compared.
const ITLCoincidenceMS = 1

// itlMap correlates IRA: and ITL: frames by millisecond-timestamp
// coincidence to build the iridium-internal plane/slot -> public
// satellite-number table for the "itlmap" mode.
type itlMap struct {
	pendingIRA map[int64]int // ms timestamp -> satellite number
	table      map[[2]int]int
}

func (m *itlMap) update(e *frame.Enriched) {
	if m.pendingIRA == nil {
		m.pendingIRA = make(map[int64]int)
		m.table = make(map[[2]int]int)
	}

	if e.Typ != "ITL:" {
		return
	}

	msKey := int64(e.Time.Seconds() * 1000)
	for k, satNo := range m.pendingIRA {
		if abs64(k-msKey) <= ITLCoincidenceMS {
			plane, slot := decodeITLPlaneSlot(e.Data)
			m.table[[2]int{plane, slot}] = satNo
		}
	}
}

// WithSatNo records a satellite-number observation at a given IRA
// timestamp, to be correlated against a following ITL: frame.
func (m *itlMap) WithSatNo(t frame.Time, satNo int) {
	if m.pendingIRA == nil {
		m.pendingIRA = make(map[int64]int)
		m.table = make(map[[2]int]int)
	}
	m.pendingIRA[int64(t.Seconds()*1000)] = satNo
}

func decodeITLPlaneSlot(data string) (plane, slot int) {
	// ITL: frame bodies carry "plane:N slot:M" tokens; a minimal scan
	// avoids pulling in a second regex just for two integers.
	fmt.Sscanf(data, "plane:%d slot:%d", &plane, &slot)
	return plane, slot
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (m *itlMap) report(out io.Writer) {
	var keys [][2]int
	for k := range m.table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		fmt.Fprintf(out, "plane:%d slot:%d -> sat:%d\n", k[0], k[1], m.table[k])
	}
}

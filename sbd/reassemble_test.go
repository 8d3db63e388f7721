package sbd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iridium-toolkit/reassemble/ida"
)

// pdu0600 builds a single-fragment "mboxcheck"/register-style SBD PDU: tag
// 0600, a 29-byte prehdr with msgct at offset 15, payload follows directly.
func pdu0600(payload []byte, msgcnt int, ul bool) ida.PDU {
	prehdr := make([]byte, 29)
	prehdr[0] = 0x20
	prehdr[15] = byte(msgcnt)
	data := append([]byte{0x06, 0x00}, prehdr...)
	data = append(data, payload...)
	return ida.PDU{Data: data, UL: ul}
}

// pdu7608First builds the first fragment of a multi-part DL message: tag
// 7608 with a 5-byte (0x20-marked) prehdr carrying msgcnt, followed by the
// {0x10,len,msgno} body sub-header.
func pdu7608First(payload []byte, msgno, msgcnt int) ida.PDU {
	prehdr := []byte{0x20, 0, 0, byte(msgcnt), 0}
	body := append([]byte{0x10, byte(len(payload)), byte(msgno)}, payload...)
	data := append([]byte{0x76, 0x08}, prehdr...)
	data = append(data, body...)
	return ida.PDU{Data: data}
}

// pdu7609Continuation builds a bare continuation fragment: tag 7609 (no
// prehdr of its own), just the {0x10,len,msgno} body sub-header.
func pdu7609Continuation(payload []byte, msgno int) ida.PDU {
	body := append([]byte{0x10, byte(len(payload)), byte(msgno)}, payload...)
	data := append([]byte{0x76, 0x09}, body...)
	return ida.PDU{Data: data}
}

func TestEligibleRejectsUnrelatedTag(t *testing.T) {
	assert.False(t, eligible([]byte{0x05, 0x08}, false))
}

func TestEligibleAcceptsDownlinkTag(t *testing.T) {
	assert.True(t, eligible([]byte{0x76, 0x08, 0x00}, false))
	assert.False(t, eligible([]byte{0x76, 0x0d, 0x00}, false))
	assert.True(t, eligible([]byte{0x76, 0x0d, 0x00}, true))
}

func TestProcessSingleMessage(t *testing.T) {
	p := pdu0600([]byte("hi"), 1, false)
	var r Reassembler
	obj := r.Process(p)
	require.NotNil(t, obj)
	assert.Equal(t, []byte("hi"), obj.Data)
	assert.Equal(t, "0600", obj.Typ)
	assert.Equal(t, 1, r.Stats.Ok)
}

func TestProcessJoinsTwoParts(t *testing.T) {
	p1 := pdu7608First([]byte("AB"), 1, 2)
	p2 := pdu7609Continuation([]byte("CD"), 2)

	var r Reassembler
	assert.Nil(t, r.Process(p1))
	obj := r.Process(p2)
	require.NotNil(t, obj)
	assert.Equal(t, []byte("ABCD"), obj.Data)
	assert.Equal(t, "76087609", obj.Typ)
	assert.Equal(t, 1, r.Stats.Ok)
}

func TestProcessOrphanContinuationCountsBroken(t *testing.T) {
	p := pdu7609Continuation([]byte("CD"), 2)
	var r Reassembler
	assert.Nil(t, r.Process(p))
	assert.Equal(t, 1, r.Stats.Broken)
}

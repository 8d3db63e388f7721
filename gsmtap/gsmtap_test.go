package gsmtap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iridium-toolkit/reassemble/ida"
)

func TestEncodeHeaderLength(t *testing.T) {
	p := ida.PDU{Data: []byte{0x01, 0x02, 0x03}, FreqHz: 1616041667, UL: false}
	out := Encode(p)
	assert.Len(t, out, 16+3)
	assert.Equal(t, byte(2), out[0])  // version
	assert.Equal(t, byte(4), out[1])  // hdr_len
	assert.Equal(t, byte(2), out[2])  // type Um
}

func TestEncodeSetsULFlagOnARFCN(t *testing.T) {
	p := ida.PDU{Data: []byte{0x01}, FreqHz: 1616041667, UL: true}
	out := Encode(p)
	arfcn := uint16(out[4])<<8 | uint16(out[5])
	assert.NotZero(t, arfcn&0x4000)
}

func TestFilterableDropsShortAndTaggedPayloads(t *testing.T) {
	assert.True(t, Filterable([]byte{0x76}))
	assert.True(t, Filterable([]byte{0x06, 0x00}))
	assert.True(t, Filterable([]byte{0x78, 0x00}))
	assert.False(t, Filterable([]byte{0x05, 0x08}))
}

func TestRecordReversesDirectionAddressing(t *testing.T) {
	dl := Record(ida.PDU{Data: []byte{0x01}, UL: false})
	ul := Record(ida.PDU{Data: []byte{0x01}, UL: true})
	assert.NotEqual(t, dl, ul)
}

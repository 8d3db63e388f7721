package ida

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyClearsDestBit(t *testing.T) {
	tmaj, tmin, rest := Classify([]byte{0x83, 0x2d, 0x01, 0x02})
	assert.Equal(t, "83", tmaj)
	assert.Equal(t, "032d", tmin)
	assert.Equal(t, []byte{0x01, 0x02}, rest)
}

func TestClassifyPlainTag(t *testing.T) {
	tmaj, tmin, rest := Classify([]byte{0x05, 0x08, 0xaa})
	assert.Equal(t, "05", tmaj)
	assert.Equal(t, "0508", tmin)
	assert.Equal(t, []byte{0xaa}, rest)
}

func TestPLAIDecodesFields(t *testing.T) {
	lai := []byte{0x21, 0xf3, 0x65, 0x12, 0x34}
	s, rest := pLAI(lai)
	assert.Contains(t, s, "MCC=")
	assert.Contains(t, s, "LAC=1234")
	assert.Empty(t, rest)
}

func TestPDiscKnownCause(t *testing.T) {
	disc := []byte{0x02, 0xe0, 0x10}
	s, _ := pDisc(disc)
	assert.Contains(t, s, "Normal call clearing")
}

func TestAppLineSBDUplinkHasIMEI(t *testing.T) {
	data := make([]byte, 2+29+2)
	data[0] = 0x06
	data[1] = 0x00
	hdr := data[2:31]
	hdr[0] = 0x20
	copy(hdr[5:13], []byte{0x21, 0x43, 0x65, 0x87, 0x09, 0x21, 0x43, 0x00})
	p := PDU{Data: data, UL: true}
	line := AppLine(p)
	assert.Contains(t, line, "imei:")
}

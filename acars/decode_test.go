package acars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iridium-toolkit/reassemble/sbd"
)

func oddParity(b byte) byte {
	if (onesCount(b) % 2) == 0 {
		return b ^ 0x80
	}
	return b
}

func onesCount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

func buildMessage(mode, tail, ack, label, blockID, text string, term byte) []byte {
	var out []byte
	raw := []byte(mode + tail + ack + label + blockID + text)
	for _, c := range raw {
		out = append(out, oddParity(c))
	}
	out = append(out, oddParity(term))
	return out
}

func TestDecodeRejectsNonACARS(t *testing.T) {
	obj := &sbd.Object{Data: []byte{0x02, 0x01, 0x02}}
	m, err := Decode(obj)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDecodeBasicMessage(t *testing.T) {
	body := buildMessage("2", ".N12345", string(rune(0x06)), "5Z", "1", "HELLO", 0x03)
	data := append([]byte{Indicator}, body...)
	obj := &sbd.Object{Data: data}

	m, err := Decode(obj)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "N12345", m.Tail)
	assert.Equal(t, "5Z", m.Label)
	assert.False(t, m.Continues)
	assert.Contains(t, m.Errors, ErrCRCMissing)
}

package msgpage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iridium-toolkit/reassemble/frame"
)

func mustEnrich(t *testing.T, line string) *frame.Enriched {
	t.Helper()
	r, err := frame.Parse(line)
	require.NoError(t, err)
	en := &frame.Enricher{}
	e, err := en.Enrich(r, frame.Options{})
	require.NoError(t, err)
	return e
}

func TestParseMSGDropsNonOK(t *testing.T) {
	e := mustEnrich(t, "MSG: p-1000-e000 0.0 10|+00100 100% 1 8 DL ric:123 fmt:5 seq:1 BADCRC ctr=0/0 csum=00 [].")
	f, err := ParseMSG(e)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestParseMS3AllDigits(t *testing.T) {
	e := mustEnrich(t, "MSG: p-1000-e000 0.0 10|+00100 100% 1 8 DL ric:456 fmt:3 seq:2 OK ctr=0/0 bcd:12345")
	f, err := ParseMS3(e)
	require.NoError(t, err)
	require.NotNil(t, f)
	var r Reassembler
	res := r.Process(f)
	require.NotNil(t, res)
	assert.True(t, res.OK)
	assert.Equal(t, "12345", res.Text)
}

func TestReassemblerJoinsTwoFmt5Parts(t *testing.T) {
	e1 := mustEnrich(t, "MSG: p-1000-e000 0.0 10|+00100 100% 1 8 DL ric:9 fmt:5 seq:1 OK ctr=0/1 csum=00 [48].0000100")
	e2 := mustEnrich(t, "MSG: p-1000-e000 0.0 10|+00100 100% 1 8 DL ric:9 fmt:5 seq:1 OK ctr=1/1 csum=00 [].")

	f1, err := ParseMSG(e1)
	require.NoError(t, err)
	f2, err := ParseMSG(e2)
	require.NoError(t, err)

	var r Reassembler
	assert.Nil(t, r.Process(f1))
	res := r.Process(f2)
	require.NotNil(t, res)
}

func TestExpireEmitsMissingPlaceholder(t *testing.T) {
	e1 := mustEnrich(t, "MSG: p-1000-e000 0.0 10|+00100 100% 1 8 DL ric:9 fmt:5 seq:1 OK ctr=0/1 csum=00 [48].0000100")
	f1, err := ParseMSG(e1)
	require.NoError(t, err)

	var r Reassembler
	assert.Nil(t, r.Process(f1))

	late := f1.Time.AddSeconds(2001)
	out := r.Expire(late)
	require.Len(t, out, 1)
	assert.True(t, out[0].Missing)
	assert.Contains(t, out[0].Text, "[MISSING]")
}

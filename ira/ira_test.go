package ira

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

func TestParseBasicPosition(t *testing.T) {
	e := mustEnrich(t, "IRA: p-1000-e000 0.0 10|+00100 100% 1 8 DL sat:13 beam:19 pos=(-23.4560/123.4560) alt=780 bc_sb:02 PAGE(tmsi:1a2b3c4d,msc_id:3)")
	r, err := Parse(e)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 13, r.Sat)
	assert.Equal(t, 19, r.Beam)
	assert.InDelta(t, -23.456, r.Lat, 1e-6)
	require.Len(t, r.Pages, 1)
	assert.Equal(t, 3, r.Pages[0].MSCID)
}

func TestParseWithXYZ(t *testing.T) {
	e := mustEnrich(t, "IRA: p-1000-e000 0.0 10|+00100 100% 1 8 DL sat:1 beam:2 xyz=(100,-200,300) pos=(1.0/2.0) alt=750 bc_sb:00")
	r, err := Parse(e)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.HaveXYZ)
	assert.Equal(t, [3]float64{400, -800, 1200}, r.XYZKM)
}

func TestParseRejectsNonIRA(t *testing.T) {
	e := mustEnrich(t, "IBC: p-1000-e000 0.0 10|+00100 100% 1 8 DL data")
	r, err := Parse(e)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestNoopMatcherFails(t *testing.T) {
	_, _, err := NoopMatcher.ClosestSatellite(0, [3]float64{})
	assert.ErrorIs(t, err, ErrNoEphemeris)
}

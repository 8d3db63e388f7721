package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTotality(t *testing.T) {
	line := "IDA: p-1000-e000 5000.0 10|+00100 100% 1 8 DL  cont=0 0 ctr=0 0 len=3 0:000 [ab.cd.ef]  ..../.... CRC:OK"
	r, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "IDA:", r.Typ)
	assert.Equal(t, "p-1000-e000", r.Name)
	assert.Equal(t, "DL", r.ULDL)
	assert.Contains(t, r.Data, "CRC:OK")
}

func TestParseShortLineFails(t *testing.T) {
	_, err := Parse("IDA: only three fields")
	assert.Error(t, err)
}

func TestEnrichSingleIDAFrame(t *testing.T) {
	line := "IDA: p-1000-e000 5000.0 10|+00100 100% 1 8 DL  cont=0 0 ctr=0 0 len=3 0:000 [ab.cd.ef]  ..../.... CRC:OK"
	r, err := Parse(line)
	require.NoError(t, err)

	en := &Enricher{}
	e, err := en.Enrich(r, Options{})
	require.NoError(t, err)

	assert.Equal(t, BaseFreq+10*ChannelWidth+100, e.FreqHz)
	assert.Equal(t, byte('p'), e.FType)
	assert.InDelta(t, 1005.0, e.Time.Seconds(), 1e-9)
	assert.True(t, e.Perfect)
	assert.False(t, e.UL)
	assert.Equal(t, 100, e.Confidence)
}

func TestEnrichLevelTriple(t *testing.T) {
	line := "IRA: p-1000-e000 0.0 1616000000 90% 34.5|-100|12.3 56 DL data"
	r, err := Parse(line)
	require.NoError(t, err)
	en := &Enricher{}
	e, err := en.Enrich(r, Options{})
	require.NoError(t, err)
	assert.Equal(t, 34.5, e.Level)
	require.NotNil(t, e.Noise)
	require.NotNil(t, e.SNR)
	assert.Equal(t, -100.0, *e.Noise)
	assert.Equal(t, 12.3, *e.SNR)
}

func TestEnrichLevelZeroMagnitude(t *testing.T) {
	line := "IRA: p-1000-e000 0.0 1616000000 90% 0 56 DL data"
	r, err := Parse(line)
	require.NoError(t, err)
	en := &Enricher{}
	e, err := en.Enrich(r, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Level)
}

func TestPerfectFlagNonE(t *testing.T) {
	line := "IDA: p-1000-UW:0-LCW:0-FIX:00 5000.0 10|+00100 100% 1 8 DL data"
	r, err := Parse(line)
	require.NoError(t, err)
	en := &Enricher{}
	e, err := en.Enrich(r, Options{})
	require.NoError(t, err)
	assert.True(t, e.Perfect)
}

package frame

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Enriched is an immutable Frame: a Raw record plus every derived field a
// reassembler needs. Once built by Enrich, a
// Enriched is never mutated -- reassemblers that need to track state keep
// their own buffers keyed or indexed by values copied out of one.
type Enriched struct {
	Raw

	FreqHz   int64
	FreqChan int
	FreqOff  int64 // signed, centered on the channel: off - width/2

	Confidence int
	Symbols    int
	UL         bool

	Level float64
	Noise *float64 // nil when unknown
	SNR   *float64 // nil when unknown

	FType     byte // 0 when Name didn't decompose
	StartTime string
	Attr      string

	Time    Time
	TimeNS  int64 // only meaningful when FType == 'j'
	Perfect bool
}

// FreqPrint renders the channel and centered offset pair as "%3d|%+06d".
func (e *Enriched) FreqPrint() string {
	return fmt.Sprintf("%3d|%+06d", e.FreqChan, e.FreqOff)
}

// Enricher holds the cross-frame state Enrich needs: today just the
// one-time "perfect requested but no EC info found" warning latch, scoped
// to one Enricher value instead of a package global.
type Enricher struct {
	warnedPerfect bool
}

// Options controls Enrich's behavior for a particular pipeline mode.
type Options struct {
	WantPerfect bool // caller intends to filter on Perfect
}

// Enrich derives every field of an Enriched frame from a freshly parsed Raw
// one.
func (en *Enricher) Enrich(r *Raw, opts Options) (*Enriched, error) {
	e := &Enriched{Raw: *r}
	e.UL = r.ULFlag()

	freqHz, err := parseFrequency(r.Frequency)
	if err != nil {
		return nil, fmt.Errorf("invalid frequency %q: %w", r.Frequency, err)
	}
	e.FreqHz = freqHz

	fbase := freqHz - BaseFreq
	fchan := fbase / ChannelWidth
	foff := fbase % ChannelWidth
	if foff < 0 {
		fchan--
		foff += ChannelWidth
	}
	e.FreqChan = int(fchan)
	e.FreqOff = foff - ChannelWidth/2

	if len(r.Name) > 3 && r.Name[1] == '-' {
		e.FType = r.Name[0]
		rest := r.Name[2:]
		if idx := strings.IndexByte(rest, '-'); idx >= 0 {
			e.StartTime = rest[:idx]
			e.Attr = rest[idx+1:]
		} else {
			e.StartTime = rest
			e.Attr = ""
		}
	}

	conf, err := parseConfidence(r.Confidence)
	if err != nil {
		return nil, fmt.Errorf("invalid confidence %q: %w", r.Confidence, err)
	}
	e.Confidence = conf

	mstime, err := strconv.ParseFloat(strings.TrimSpace(r.MsTimeText), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid mstime %q: %w", r.MsTimeText, err)
	}

	symbols, err := strconv.Atoi(strings.TrimSpace(r.Symbols))
	if err != nil {
		return nil, fmt.Errorf("invalid symbols %q: %w", r.Symbols, err)
	}
	e.Symbols = symbols

	en.enrichLevel(e, r.Level)
	en.enrichTime(e, mstime)
	en.enrichPerfect(e, opts)

	return e, nil
}

func parseFrequency(s string) (int64, error) {
	if idx := strings.IndexByte(s, '|'); idx >= 0 {
		chanStr, offStr := s[:idx], s[idx+1:]
		chanN, err := strconv.ParseInt(chanStr, 10, 64)
		if err != nil {
			return 0, err
		}
		off, err := strconv.ParseInt(offStr, 10, 64)
		if err != nil {
			return 0, err
		}
		return BaseFreq + ChannelWidth*chanN + off, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// enrichLevel implements level rule: a pipe-delimited triple
// is already in dBm; a bare magnitude is converted with 20*log10, with a
// zero value forced to 1 before the log (so it maps to 0 dBm instead of
// -Inf). An unparseable magnitude logs a diagnostic and forces level=0.
func (en *Enricher) enrichLevel(e *Enriched, s string) {
	if idx := strings.IndexByte(s, '|'); idx >= 0 {
		parts := strings.SplitN(s, "|", 3)
		lvl, errL := strconv.ParseFloat(parts[0], 64)
		noise, errN := strconv.ParseFloat(parts[1], 64)
		snr, errS := strconv.ParseFloat(parts[2], 64)
		if errL == nil && errN == nil && errS == nil {
			e.Level = lvl
			e.Noise = &noise
			e.SNR = &snr
			return
		}
	}

	mag, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid signal level:", s)
		e.Level = 0
		return
	}
	if mag == 0 {
		mag = 1
	}
	e.Level = math.Log10(mag) * 20
}

// enrichTime implements the absolute-time rule, including the 'j' branch
// (marked deprecated upstream but still seen in the wild, so it's kept
// rather than rejected).
func (en *Enricher) enrichTime(e *Enriched, mstime float64) {
	switch e.FType {
	case 'p':
		start, err := strconv.ParseFloat(e.StartTime, 64)
		if err != nil {
			e.Time = FromSeconds(mstime / 1000)
			return
		}
		e.Time = FromSeconds(start + mstime/1000)
	case 'j':
		e.Time = FromSeconds(mstime)
		e.TimeNS = int64(mstime * 1e9)
	default:
		if start, err := strconv.ParseFloat(e.StartTime, 64); err == nil {
			e.Time = FromSeconds(start + mstime/1000)
		} else {
			e.Time = FromSeconds(mstime / 1000)
		}
	}
}

func (en *Enricher) enrichPerfect(e *Enriched, opts Options) {
	switch {
	case strings.HasPrefix(e.Attr, "e"):
		e.Perfect = e.Attr == "e000"
	default:
		e.Perfect = e.Attr == "UW:0-LCW:0-FIX:00"
		if opts.WantPerfect && !en.warnedPerfect {
			en.warnedPerfect = true
			fmt.Fprintln(os.Stderr, "'perfect' requested, but no EC info found")
		}
	}
}

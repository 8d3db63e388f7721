package pipeline

import (
	"fmt"
	"io"

	"github.com/iridium-toolkit/reassemble/frame"
)

// statsSNR accumulates per-type running signal/SNR/noise/confidence/symbol
// averages for the "stats-snr" mode.
type statsSNR struct {
	perType map[string]*snrAccum
	total   snrAccum
}

type snrAccum struct {
	count      int
	levelSum   float64
	noiseSum   float64
	snrSum     float64
	noiseN     int
	snrN       int
	confSum    int
	symbolsSum int
}

func (s *statsSNR) update(e *frame.Enriched) {
	if s.perType == nil {
		s.perType = make(map[string]*snrAccum)
	}
	acc, ok := s.perType[e.Typ]
	if !ok {
		acc = &snrAccum{}
		s.perType[e.Typ] = acc
	}

	for _, a := range []*snrAccum{acc, &s.total} {
		a.count++
		a.levelSum += e.Level
		a.confSum += e.Confidence
		a.symbolsSum += e.Symbols
		if e.Noise != nil {
			a.noiseSum += *e.Noise
			a.noiseN++
		}
		if e.SNR != nil {
			a.snrSum += *e.SNR
			a.snrN++
		}
	}
}

func (s *statsSNR) report(out io.Writer) {
	for typ, acc := range s.perType {
		fmt.Fprintln(out, formatSNRLine(typ, acc))
	}
	fmt.Fprintln(out, formatSNRLine("TOTAL", &s.total))
}

func formatSNRLine(label string, a *snrAccum) string {
	if a.count == 0 {
		return fmt.Sprintf("%-8s n=0", label)
	}
	avgLevel := a.levelSum / float64(a.count)
	avgConf := float64(a.confSum) / float64(a.count)
	avgSymbols := float64(a.symbolsSum) / float64(a.count)
	line := fmt.Sprintf("%-8s n=%-6d level=%6.2f conf=%5.1f%% symbols=%6.1f",
		label, a.count, avgLevel, avgConf, avgSymbols)
	if a.noiseN > 0 {
		line += fmt.Sprintf(" noise=%6.2f", a.noiseSum/float64(a.noiseN))
	}
	if a.snrN > 0 {
		line += fmt.Sprintf(" snr=%6.2f", a.snrSum/float64(a.snrN))
	}
	return line
}

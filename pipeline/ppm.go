package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iridium-toolkit/reassemble/frame"
)

// ppmTracker correlates IBC: host-receive time against the embedded
// Iridium frame time to estimate clock drift, for the "ppm" mode.
type ppmTracker struct {
	haveFirst bool
	firstHost float64
	firstIri  float64

	lastHost float64
	lastIri  float64

	haveLast bool
}

// hostTimeFromName pulls the host-receive timestamp carried in an IBC: frame's name
// field, formatted "p-<unixsecs>-...".
func hostTimeFromName(name string) (float64, bool) {
	parts := strings.SplitN(name, "-", 3)
	if len(parts) < 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *ppmTracker) update(e *frame.Enriched, out io.Writer, opts Options) {
	if e.Typ != "IBC:" {
		return
	}
	host, ok := hostTimeFromName(e.Name)
	if !ok {
		return
	}
	iri := e.Time.Seconds()

	if !p.haveFirst {
		p.haveFirst = true
		p.firstHost = host
		p.firstIri = iri
	}

	var delta float64
	if p.haveLast {
		hostDelta := host - p.lastHost
		iriDelta := iri - p.lastIri
		if iriDelta != 0 {
			delta = (hostDelta - iriDelta) / iriDelta * 1e6
		}
		if opts.TDelta {
			fmt.Fprintf(out, "%s tdelta=%.3f ppm=%.2f\n", e.Time.Time().Format("2006-01-02T15:04:05.000Z"), hostDelta-iriDelta, delta)
		}
		if opts.Grafana {
			fmt.Fprintf(out, "iridium.live.ppm %.2f %d\n", delta, int64(iri))
		}
	}

	p.lastHost = host
	p.lastIri = iri
	p.haveLast = true
}

func (p *ppmTracker) report(out io.Writer) {
	if !p.haveFirst || !p.haveLast {
		fmt.Fprintln(out, "ppm: insufficient IBC: frames observed")
		return
	}
	hostDelta := p.lastHost - p.firstHost
	iriDelta := p.lastIri - p.firstIri
	if iriDelta == 0 {
		fmt.Fprintln(out, "ppm: zero time span observed")
		return
	}
	ppm := (hostDelta - iriDelta) / iriDelta * 1e6
	fmt.Fprintf(out, "aggregate ppm: %.3f over %.1fs\n", ppm, iriDelta)
}

// Package pipeline implements the Orchestrator: it selects
// exactly one reassembler by mode, feeds it frames from a Source, and
// writes its output to an io.Writer, one frame at a time, strictly
// single-threaded.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iridium-toolkit/reassemble/acars"
	"github.com/iridium-toolkit/reassemble/frame"
	"github.com/iridium-toolkit/reassemble/gsmtap"
	"github.com/iridium-toolkit/reassemble/ida"
	"github.com/iridium-toolkit/reassemble/ira"
	"github.com/iridium-toolkit/reassemble/msgpage"
	"github.com/iridium-toolkit/reassemble/sbd"
	"github.com/iridium-toolkit/reassemble/source"
	"github.com/iridium-toolkit/reassemble/tui"
)

// Mode names the reassembler the Orchestrator runs.
type Mode string

const (
	ModeIDA       Mode = "ida"
	ModeIDAPP     Mode = "idapp"
	ModeGSMTAP    Mode = "gsmtap"
	ModeLAP       Mode = "lap"
	ModeSBD       Mode = "sbd"
	ModeACARS     Mode = "acars"
	ModePage      Mode = "page"
	ModeSatmap    Mode = "satmap"
	ModeMSG       Mode = "msg"
	ModeStatsSNR  Mode = "stats-snr"
	ModeLiveStats Mode = "live-stats"
	ModeLiveMap   Mode = "live-map"
	ModePPM       Mode = "ppm"
	ModeITLMap    Mode = "itlmap"
)

// Options carries the mode-specific `-a` vocabulary.
type Options struct {
	Perfect    bool
	Incomplete bool
	JSON       bool
	ShowErrs   bool
	Debug      bool
	State      string
	Grafana    bool
	TDelta     bool
	All        bool
	TUI        bool
	Station    string
	Topics     []string
	MapPath    string
}

// Orchestrator runs exactly one reassembler end to end.
type Orchestrator struct {
	Mode    Mode
	Options Options

	Stats RunStats

	idaR    ida.Reassembler
	sbdR    sbd.Reassembler
	msgR    msgpage.Reassembler
	snrAcc  statsSNR
	liveSt  liveStats
	ppmAcc  ppmTracker
	itlAcc  itlMap
	liveMap *ira.LiveMap
	dash    *tui.Dashboard
}

// tuiTitles names the dashboard window title for each mode that supports
// the "-a tui" live view.
var tuiTitles = map[Mode]string{
	ModeLiveStats: "LIVE STATS",
	ModeLiveMap:   "LIVE MAP",
	ModeMSG:       "PAGING",
}

// RunStats aggregates the termination counters printed at end of run.
type RunStats struct {
	Lines    int
	Parsed   int
	Enriched int
	Dropped  int
}

// Run drains src, dispatching each parsed-and-enriched frame to the
// selected mode's handler, and writes output lines to out. When
// Options.TUI is set and the mode supports a live view, the drain runs in
// a background goroutine feeding a gocui dashboard on the calling
// goroutine instead.
func (o *Orchestrator) Run(src source.Source, out io.Writer) error {
	en := &frame.Enricher{}

	if o.Mode == ModeLiveMap {
		path := o.Options.MapPath
		if path == "" {
			path = "live-map.json"
		}
		o.liveMap = &ira.LiveMap{Path: path}
	}
	if o.Mode == ModeLiveStats && o.Options.State != "" {
		if err := o.liveSt.loadState(o.Options.State); err != nil {
			return fmt.Errorf("pipeline: loading live-stats state: %w", err)
		}
	}

	title, tuiEligible := tuiTitles[o.Mode]
	if !o.Options.TUI || !tuiEligible {
		return o.drain(src, out, en)
	}

	o.dash = tui.New(title)
	var drainErr error
	if err := o.dash.RunWith(func() error {
		drainErr = o.drain(src, out, en)
		return drainErr
	}); err != nil {
		return err
	}
	return drainErr
}

func (o *Orchestrator) drain(src source.Source, out io.Writer, en *frame.Enricher) error {
	for {
		line, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		o.Stats.Lines++

		raw, err := frame.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR: parse: %v\n", err)
			o.Stats.Dropped++
			continue
		}
		o.Stats.Parsed++

		e, err := en.Enrich(raw, frame.Options{WantPerfect: o.Options.Perfect})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERR: enrich: %v\n", err)
			o.Stats.Dropped++
			continue
		}
		o.Stats.Enriched++

		switch o.Mode {
		case ModeIDA:
			f, err := ida.Filter(e)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
				continue
			}
			if f == nil {
				continue
			}
			for _, pdu := range o.idaR.Process(f) {
				fmt.Fprintln(out, idaLine(pdu))
			}

		case ModeIDAPP:
			f, err := ida.Filter(e)
			if err != nil || f == nil {
				continue
			}
			for _, pdu := range o.idaR.Process(f) {
				if l := ida.AppLine(pdu); l != "" {
					fmt.Fprintln(out, l)
				}
			}

		case ModeSBD, ModeACARS:
			f, err := ida.Filter(e)
			if err != nil || f == nil {
				continue
			}
			for _, pdu := range o.idaR.Process(f) {
				obj := o.sbdR.Process(pdu)
				if obj == nil {
					continue
				}
				if o.Mode == ModeSBD {
					fmt.Fprintln(out, sbdLine(*obj))
					continue
				}
				msg, err := acars.Decode(obj)
				if err != nil || msg == nil {
					continue
				}
				msg.Source.StationID = o.Options.Station
				if msg.HasErrors() && !o.Options.ShowErrs {
					continue
				}
				if o.Options.JSON {
					if s, err := acars.JSON(msg); err == nil {
						fmt.Fprintln(out, s)
					}
				} else {
					fmt.Fprintln(out, acars.Line(msg))
				}
			}

		case ModeGSMTAP, ModeLAP:
			f, err := ida.Filter(e)
			if err != nil || f == nil {
				continue
			}
			for _, pdu := range o.idaR.Process(f) {
				if !o.Options.All && gsmtap.Filterable(pdu.Data) {
					continue
				}
				if o.Mode == ModeLAP {
					out.Write(gsmtap.Record(pdu))
				} else {
					out.Write(gsmtap.Encode(pdu))
				}
			}

		case ModePage:
			r, err := ira.Parse(e)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERR: %v\n", err)
				continue
			}
			if r == nil {
				continue
			}
			for _, l := range ira.PageLines(r) {
				fmt.Fprintln(out, l)
			}

		case ModeSatmap:
			r, err := ira.Parse(e)
			if err != nil || r == nil || !r.HaveXYZ {
				continue
			}
			if _, _, err := ira.NoopMatcher.ClosestSatellite(r.Time, r.XYZKM); err != nil {
				fmt.Fprintf(os.Stderr, "ERR: satmap: %v\n", err)
			}

		case ModeLiveMap:
			r, err := ira.Parse(e)
			if err != nil || r == nil {
				continue
			}
			o.liveMap.Update(r)
			if o.dash != nil {
				o.dash.Bump(fmt.Sprintf("sat:%d", r.Sat))
			}

		case ModeMSG:
			var fr *msgpage.Fragment
			var perr error
			if e.Typ == "MSG:" {
				fr, perr = msgpage.ParseMSG(e)
			} else if e.Typ == "MS3:" {
				fr, perr = msgpage.ParseMS3(e)
			} else {
				continue
			}
			if perr != nil {
				fmt.Fprintf(os.Stderr, "ERR: %v\n", perr)
				continue
			}
			if fr == nil {
				continue
			}
			if o.dash != nil {
				o.dash.Bump(fmt.Sprintf("ric:%d", fr.RIC))
			}
			if res := o.msgR.Process(fr); res != nil {
				fmt.Fprintln(out, msgpage.Line(*res))
			}
			for _, res := range o.msgR.Expire(e.Time) {
				fmt.Fprintln(out, msgpage.Line(res))
			}

		case ModeStatsSNR:
			o.snrAcc.update(e)

		case ModeLiveStats:
			o.liveSt.update(e, out)
			if o.dash != nil {
				o.dash.Bump(e.Typ)
			}

		case ModePPM:
			o.ppmAcc.update(e, out, o.Options)

		case ModeITLMap:
			if e.Typ == "IRA:" {
				if r, err := ira.Parse(e); err == nil && r != nil {
					o.itlAcc.WithSatNo(r.Time, r.Sat)
				}
			}
			o.itlAcc.update(e)
		}
	}

	switch o.Mode {
	case ModeStatsSNR:
		o.snrAcc.report(out)
	case ModeLiveStats:
		o.liveSt.emitLines(out)
		if o.Options.State != "" {
			if err := o.liveSt.saveState(o.Options.State); err != nil {
				fmt.Fprintf(os.Stderr, "ERR: saving live-stats state: %v\n", err)
			}
		}
	case ModePPM:
		o.ppmAcc.report(out)
	case ModeITLMap:
		o.itlAcc.report(out)
	}

	return nil
}

func idaLine(p ida.PDU) string {
	ul := "DL"
	if p.UL {
		ul = "UL"
	}
	fbase := p.FreqHz - frame.BaseFreq
	fchan := fbase / frame.ChannelWidth
	foff := fbase % frame.ChannelWidth
	hexParts := make([]string, len(p.Data))
	for i, b := range p.Data {
		hexParts[i] = fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf("%s %3d|%+06d %s %s | %s",
		p.Time.Time().Format("2006-01-02T15:04:05.000Z"), fchan, foff, ul,
		strings.Join(hexParts, ""), frame.ToASCII(p.Data, true))
}

func sbdLine(o sbd.Object) string {
	ul := "DL"
	if o.UL {
		ul = "UL"
	}
	prehdrParts := make([]string, len(o.Prehdr))
	for i, b := range o.Prehdr {
		prehdrParts[i] = fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf("%s %s %s %s", o.Time.Time().Format("2006-01-02T15:04:05.000Z"), ul,
		strings.Join(prehdrParts, ""), frame.ToASCII(o.Data, true))
}

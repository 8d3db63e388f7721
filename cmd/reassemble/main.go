// Command reassemble drives the Orchestrator over a single input source,
// selecting one reassembler by mode.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/iridium-toolkit/reassemble/pipeline"
	"github.com/iridium-toolkit/reassemble/source"
)

var modeTopics = map[pipeline.Mode][]string{
	pipeline.ModeIDA:       {"IDA"},
	pipeline.ModeIDAPP:     {"IDA"},
	pipeline.ModeGSMTAP:    {"IDA"},
	pipeline.ModeLAP:       {"IDA"},
	pipeline.ModeSBD:       {"IDA"},
	pipeline.ModeACARS:     {"IDA"},
	pipeline.ModePage:      {"IRA"},
	pipeline.ModeSatmap:    {"IRA"},
	pipeline.ModeMSG:       {"MSG", "MS3"},
	pipeline.ModeStatsSNR:  {"ALL"},
	pipeline.ModeLiveStats: {"ALL"},
	pipeline.ModeLiveMap:   {"IRA"},
	pipeline.ModePPM:       {"IBC"},
	pipeline.ModeITLMap:    {"IRA", "ITL"},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: reassemble -m <mode> [-a opt,opt] -i <input> [-o <output>]")
	fmt.Fprintln(os.Stderr, "Modes: ida idapp gsmtap lap sbd acars page satmap msg stats-snr live-stats live-map ppm itlmap")
	pflag.PrintDefaults()
}

func main() {
	var (
		verbose   bool
		input     string
		output    string
		modeFlag  string
		aOpts     string
		station   string
		mapPath   string
	)

	pflag.BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics")
	pflag.StringVarP(&input, "input", "i", "/dev/stdin", "input source: file path, /dev/stdin, or zmq:topic,...")
	pflag.StringVarP(&output, "output", "o", "-", "output path, or - for stdout")
	pflag.StringVarP(&modeFlag, "mode", "m", "", "reassembler mode (required)")
	pflag.StringVarP(&aOpts, "aopts", "a", "", "comma-separated mode-specific options")
	pflag.StringVarP(&station, "station", "", "", "station identifier recorded in acars JSON output")
	pflag.StringVar(&mapPath, "map", "live-map.json", "live-map snapshot path")
	pflag.Usage = usage
	pflag.Parse()

	if modeFlag == "" {
		usage()
		os.Exit(2)
	}
	mode := pipeline.Mode(modeFlag)

	opts := parseAOpts(aOpts)
	opts.Station = station
	opts.MapPath = mapPath
	opts.Topics = modeTopics[mode]

	src, err := source.Open(input, opts.Topics)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reassemble: opening input:", err)
		os.Exit(1)
	}
	defer src.Close()

	var out *os.File
	if output == "-" {
		out = os.Stdout
	} else {
		out, err = os.Create(output)
		if err != nil {
			fmt.Fprintln(os.Stderr, "reassemble: opening output:", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	o := &pipeline.Orchestrator{Mode: mode, Options: opts}
	if err := o.Run(src, out); err != nil {
		fmt.Fprintln(os.Stderr, "reassemble:", err)
		os.Exit(1)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "lines=%d parsed=%d enriched=%d dropped=%d\n",
			o.Stats.Lines, o.Stats.Parsed, o.Stats.Enriched, o.Stats.Dropped)
	}
}

func parseAOpts(s string) pipeline.Options {
	var o pipeline.Options
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "perfect":
			o.Perfect = true
		case "incomplete":
			o.Incomplete = true
		case "json":
			o.JSON = true
		case "showerrs":
			o.ShowErrs = true
		case "debug":
			o.Debug = true
		case "grafana":
			o.Grafana = true
		case "tdelta":
			o.TDelta = true
		case "all":
			o.All = true
		case "tui":
			o.TUI = true
		}
		if strings.HasPrefix(tok, "state=") {
			o.State = strings.TrimPrefix(tok, "state=")
		}
	}
	return o
}

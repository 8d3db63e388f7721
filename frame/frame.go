// Package frame implements the common frame intake and normalization layer:
// tokenizing one demodulator output line into a Raw record, then deriving
// frequency channelization, signal level, absolute time and the perfect-frame
// flag.
package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// BaseFreq and ChannelWidth define the Iridium L-band channel plan used to
// resolve "<chan>|<off>" frequency tokens and to print channelized output.
const (
	BaseFreq     int64 = 1_616_000_000 // Hz
	ChannelWidth int64 = 41_667        // Hz
)

// Raw is the tokenized but otherwise unprocessed frame record produced by
// Parse. Fields keep their original textual form; Enrich derives the typed
// values a reassembler actually needs.
type Raw struct {
	Typ         string // 4-character tag ending in ':', e.g. "IDA:"
	Name        string // opaque recording identifier
	MsTimeText  string
	Frequency   string
	Confidence  string
	Level       string
	Symbols     string
	ULDL        string
	Data        string // remainder of the line, internal spaces preserved
}

// ParseError describes why a line failed to tokenize.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("couldn't parse input line: %s", e.Line)
}

const whitespace = " \t\r\n\v\f"

// splitFields mimics Python's str.split(None, maxsplit): it splits s on runs
// of whitespace, stopping after at most n-1 splits, and returns up to n
// fields where the last one is whatever remains (internal whitespace
// preserved). Returns fewer than n fields if s runs out of tokens.
func splitFields(s string, n int) []string {
	fields := make([]string, 0, n)
	rest := s
	for len(fields) < n-1 {
		rest = strings.TrimLeft(rest, whitespace)
		if rest == "" {
			return fields
		}
		idx := strings.IndexAny(rest, whitespace)
		if idx < 0 {
			fields = append(fields, rest)
			return fields
		}
		fields = append(fields, rest[:idx])
		rest = rest[idx:]
	}
	rest = strings.TrimLeft(rest, whitespace)
	if rest != "" {
		fields = append(fields, rest)
	}
	return fields
}

// Parse tokenizes one input line into a Raw frame record. On
// failure it returns a *ParseError and the caller is expected to log it to
// stderr, bump its line counter, and drop the line -- Parse itself has no
// side effects.
func Parse(line string) (*Raw, error) {
	f := splitFields(line, 9)
	if len(f) != 9 {
		return nil, &ParseError{Line: line}
	}
	return &Raw{
		Typ:        f[0],
		Name:       f[1],
		MsTimeText: f[2],
		Frequency:  f[3],
		Confidence: f[4],
		Level:      f[5],
		Symbols:    f[6],
		ULDL:       f[7],
		Data:       f[8],
	}, nil
}

// ULFlag reports whether ULDL denotes an uplink frame.
func (r *Raw) ULFlag() bool {
	return r.ULDL == "UL"
}

func parseConfidence(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	return strconv.Atoi(s)
}

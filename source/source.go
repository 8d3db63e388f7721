// Package source abstracts the origin of frame-descriptor lines: a file, a
// pipe, or a stream announced as a "zmq:" URL.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source yields successive frame-descriptor text lines.
type Source interface {
	// Next returns the next line (without trailing newline), or io.EOF when
	// the source is exhausted.
	Next() (string, error)
	Close() error
}

// fileSource reads newline-delimited lines from an *os.File (covers both a
// real file path and "/dev/stdin").
type fileSource struct {
	f   *os.File
	r   *bufio.Scanner
}

func (s *fileSource) Next() (string, error) {
	if s.r.Scan() {
		return s.r.Text(), nil
	}
	if err := s.r.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *fileSource) Close() error { return s.f.Close() }

// zmqSource documents the "zmq:" contract without implementing a ZeroMQ
// transport: it's an explicit external-collaborator stub a real subscriber
// would replace.
type zmqSource struct {
	endpoint string
	topics   []string
}

func (s *zmqSource) Next() (string, error) {
	return "", fmt.Errorf("source: zmq subscriber not implemented for %s (topics %v) — wire an external zmq collaborator", s.endpoint, s.topics)
}

func (s *zmqSource) Close() error { return nil }

// Open resolves an input designator: a file path, "/dev/stdin",
// or "zmq:topic1,topic2".
func Open(designator string, topics []string) (Source, error) {
	if strings.HasPrefix(designator, "zmq:") {
		return &zmqSource{endpoint: "tcp://localhost:4223", topics: topics}, nil
	}

	var f *os.File
	var err error
	if designator == "/dev/stdin" || designator == "-" {
		f = os.Stdin
	} else {
		f, err = os.Open(designator)
		if err != nil {
			return nil, err
		}
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &fileSource{f: f, r: sc}, nil
}

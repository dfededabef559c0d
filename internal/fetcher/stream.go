package fetcher

import (
	"bufio"
	"io"
	"strings"
)

// readChunkSize bounds how much of the body is buffered at once, so a
// multi-gigabyte source never has to fit in memory.
const readChunkSize = 64 * 1024

// LineStream yields a large response body one line at a time, reading the
// underlying body in bounded chunks and splitting on newline boundaries.
// It is a finite, forward-only sequence: there is no seeking back.
type LineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	lines   int
}

// NewLineStream wraps any reader, which keeps tests free of the HTTP
// transport: an in-memory byte stream works the same as a response body.
func NewLineStream(body io.ReadCloser) *LineStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, readChunkSize), 1024*1024)
	return &LineStream{
		body:    body,
		scanner: scanner,
	}
}

// NewLineStreamFromString builds a stream over an in-memory body.
func NewLineStreamFromString(body string) *LineStream {
	return NewLineStream(io.NopCloser(strings.NewReader(body)))
}

// Next returns the next line without its trailing newline. It returns
// io.EOF when the body is exhausted.
func (s *LineStream) Next() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	s.lines++
	return s.scanner.Text(), nil
}

// Lines reports how many lines have been consumed so far.
func (s *LineStream) Lines() int {
	return s.lines
}

func (s *LineStream) Close() error {
	return s.body.Close()
}

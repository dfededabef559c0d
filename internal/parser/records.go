package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"propcalc/server/config"
	"propcalc/server/internal/fetcher"
)

// RowError marks a single malformed row. The stream stays usable after one;
// any other non-EOF error from the stream is terminal.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RecordStream turns a line stream into named CSV records. The header is
// read and schema-checked on construction, so a file missing required
// columns is rejected before any row is seen.
type RecordStream struct {
	lines  *fetcher.LineStream
	header []string
	row    int
}

// NewRecordStream reads the header line and validates it against the
// source's schema variant.
func NewRecordStream(source string, variant config.SchemaVariant, lines *fetcher.LineStream) (*RecordStream, error) {
	headerLine, err := lines.Next()
	if err == io.EOF {
		return nil, &SchemaError{Source: source, Missing: requiredColumns[variant]}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header, err := splitLine(headerLine)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	if err := ValidateHeader(source, variant, header); err != nil {
		return nil, err
	}

	return &RecordStream{lines: lines, header: header}, nil
}

// Header returns the lower-cased column names in file order.
func (s *RecordStream) Header() []string {
	return s.header
}

// Next yields the next row keyed by column name, plus the raw fields in
// file order. It returns io.EOF at the end of the file. Blank lines are
// skipped; a malformed line comes back as a *RowError the caller can tally
// without stopping the stream. Errors from the underlying stream itself
// (transport failures, over-long lines) are sticky, so they come back
// unwrapped and the caller must treat them as terminal.
func (s *RecordStream) Next() (map[string]string, []string, error) {
	for {
		line, err := s.lines.Next()
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		s.row++
		fields, err := splitLine(line)
		if err != nil {
			return nil, nil, &RowError{Row: s.row, Err: err}
		}
		return RowMap(s.header, fields), fields, nil
	}
}

// Row reports the number of data rows consumed so far.
func (s *RecordStream) Row() int {
	return s.row
}

// splitLine parses one physical line as a CSV record, honoring quoting.
// DLD exports never put newlines inside quoted fields, which is what lets
// the transport split on line boundaries in the first place.
func splitLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	return r.Read()
}

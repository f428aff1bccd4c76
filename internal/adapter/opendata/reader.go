package opendata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/road-crash-etl-service/internal/domain"
)

// ErrHeader is returned when the stream has no usable header line.
var ErrHeader = errors.New("csv header missing or unreadable")

const utf8BOM = "\ufeff"

// LineReader yields one domain.RawRow per CSV line, keyed by the header.
// It reads lazily and never holds more than the current record.
type LineReader struct {
	csv    *csv.Reader
	header []string
	line   int
}

// NewLineReader reads the header line from r. A stream without a header is
// unusable, so any failure here is returned to the caller.
func NewLineReader(r io.Reader) (*LineReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return nil, ErrHeader
	case err != nil:
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %w", ErrHeader, err)
		}
		return nil, streamError(err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		cols[i] = strings.TrimSpace(h)
	}
	if len(cols) == 1 && cols[0] == "" {
		return nil, ErrHeader
	}

	return &LineReader{csv: cr, header: cols, line: 1}, nil
}

// Header returns the column names in file order.
func (r *LineReader) Header() []string {
	return r.header
}

// Line returns the 1-based line number of the last record read.
func (r *LineReader) Line() int {
	return r.line
}

// Next returns the next row. It returns io.EOF at the end of the stream, a
// *domain.RowFormatError for a line that cannot be tokenized (the reader
// stays usable), and an error wrapping domain.ErrStreamTransport when the
// underlying stream fails.
func (r *LineReader) Next() (domain.RawRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) && !errors.Is(err, domain.ErrStreamTransport) {
			r.line = parseErr.StartLine
			return nil, &domain.RowFormatError{Field: "line", Value: fmt.Sprint(parseErr.StartLine), Err: parseErr.Err}
		}
		return nil, streamError(err)
	}
	r.line, _ = r.csv.FieldPos(0)

	row := make(domain.RawRow, len(r.header))
	for i, col := range r.header {
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row, nil
}

func streamError(err error) error {
	if errors.Is(err, domain.ErrStreamTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStreamTransport, err)
}

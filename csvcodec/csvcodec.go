// Package csvcodec maps an ordered list of inventory items to a single-column
// CSV table and back.
//
// The first row is always the Header. Every other row holds one item in its
// first column. Values with commas, quotes or line breaks are quoted the way
// encoding/csv does it (RFC 4180).
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Header is the label of the only column
const Header = "Товары"

// DecodeError is returned by Decode for input that is not a valid table
type DecodeError struct {
	// 1-based line in the input, 0 if not known
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csvcodec: line %d: %s", e.Line, e.Err)
	}
	return "csvcodec: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrNoHeader is wrapped in DecodeError when input has no rows at all
var ErrNoHeader = errors.New("missing header row")

// Encode serializes items as a table. Item order is preserved.
func Encode(items []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{Header}); err != nil {
		return nil, err
	}
	row := []string{""}
	for _, item := range items {
		if item == "" {
			// csv.Writer emits an empty line for a single empty field
			// and csv.Reader skips empty lines, so quote it explicitly
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		row[0] = item
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a table created by Encode. The header row is discarded.
// Rows may have more than one column, only the first one is used.
// The result is never nil for valid input.
func Decode(d []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(d))
	// be lenient about extra columns
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, &DecodeError{Err: ErrNoHeader}
		}
		return nil, toDecodeError(err)
	}

	res := []string{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toDecodeError(err)
		}
		res = append(res, rec[0])
	}
	return res, nil
}

func toDecodeError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &DecodeError{Line: pe.Line, Err: pe.Err}
	}
	return &DecodeError{Err: err}
}

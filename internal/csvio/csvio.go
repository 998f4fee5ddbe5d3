// Package csvio reads and writes contact sets as CSV.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"contactbook/internal/data/contacts"
	apperrors "contactbook/internal/errors"
)

// Header is the first row written on export and accepted on import.
var Header = []string{"name", "phone", "address"}

// LegacyHeader is accepted on import so files exported by earlier releases
// still load. Exports always use Header.
var LegacyHeader = []string{"nombre", "telefono", "direccion"}

// Sentinel causes for whole-file failures.
var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrInvalidHeader = errors.New("csv header is invalid")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encode writes the header followed by one row per contact.
func Encode(w io.Writer, list []contacts.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, c := range list {
		if err := cw.Write([]string{c.Name, c.Phone, c.Address}); err != nil {
			return errors.Wrapf(err, "failed to write csv row for %q", c.Name)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// RowError describes a data row that could not be turned into a contact.
type RowError struct {
	Line   int
	Fields []string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: row %q is malformed: %s", e.Line, strings.Join(e.Fields, ","), e.Reason)
}

// AppError converts the row error into the shared error model.
func (e *RowError) AppError() *apperrors.AppError {
	return apperrors.ValidationError(apperrors.CodeRowFormat, e.Error(), nil).
		WithModule("csvio").
		WithField("line", e.Line)
}

// Decoder reads contacts from a CSV stream after validating its header.
type Decoder struct {
	r    *csv.Reader
	line int
}

// NewDecoder reads and validates the header row. It returns an EmptyFile error
// when the input holds no rows and an InvalidHeader error when the trimmed
// header is neither Header nor LegacyHeader.
func NewDecoder(r io.Reader) (*Decoder, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.ValidationError(apperrors.CodeEmptyFile, "the CSV file is empty", ErrEmptyFile).
			WithModule("csvio")
	}
	if err != nil && !isParseError(err) {
		return nil, errors.Wrap(err, "failed to read csv header")
	}
	if err != nil || !headerMatches(header) {
		return nil, apperrors.ValidationError(apperrors.CodeInvalidHeader,
			"invalid CSV header, expected: "+strings.Join(Header, ","), ErrInvalidHeader).
			WithModule("csvio").
			WithField("header", strings.Join(header, ","))
	}

	line, _ := cr.FieldPos(0)
	return &Decoder{r: cr, line: line}, nil
}

// Next returns the next contact. A malformed row yields a *RowError and
// decoding may continue; io.EOF marks the end of input.
func (d *Decoder) Next() (contacts.Contact, error) {
	record, err := d.r.Read()
	if errors.Is(err, io.EOF) {
		return contacts.Contact{}, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			d.line = parseErr.StartLine
			return contacts.Contact{}, &RowError{Line: parseErr.StartLine, Fields: record, Reason: parseErr.Err.Error()}
		}
		return contacts.Contact{}, errors.Wrap(err, "failed to read csv row")
	}
	d.line, _ = d.r.FieldPos(0)

	if len(record) != len(Header) {
		return contacts.Contact{}, &RowError{
			Line:   d.line,
			Fields: record,
			Reason: fmt.Sprintf("expected %d columns, got %d", len(Header), len(record)),
		}
	}

	c := contacts.Contact{
		Name:    strings.TrimSpace(record[0]),
		Phone:   strings.TrimSpace(record[1]),
		Address: strings.TrimSpace(record[2]),
	}
	if c.Name == "" || c.Phone == "" || c.Address == "" {
		return contacts.Contact{}, &RowError{Line: d.line, Fields: record, Reason: "name, phone and address must not be empty"}
	}
	return c, nil
}

// Line returns the input line of the most recently read row.
func (d *Decoder) Line() int {
	return d.line
}

func headerMatches(header []string) bool {
	return sameColumns(header, Header) || sameColumns(header, LegacyHeader)
}

func sameColumns(header, want []string) bool {
	if len(header) != len(want) {
		return false
	}
	for i, h := range header {
		if strings.TrimSpace(h) != want[i] {
			return false
		}
	}
	return true
}

func isParseError(err error) bool {
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr)
}

// Package tabular converts between typed records and delimited rows whose
// header names each field. Cells hold plain decimal text and boolean literals.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/money"
)

// Record is implemented by every row type.
type Record interface {
	Values() []string
}

// Row is one parsed line keyed by header name.
type Row map[string]string

// Get returns the first non-empty cell among the given field names.
func (r Row) Get(fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(r[f]); v != "" {
			return v
		}
	}
	return ""
}

// Options controls the delimiter. The zero value uses commas.
type Options struct {
	Delimiter rune
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Write emits the header followed by one row per record.
func Write[T Record](w io.Writer, header []string, records []T, opts Options) error {
	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()

	if err := cw.Write(header); err != nil {
		return apperror.Wrap(err, apperror.CodeTabularWriteFailed, "header")
	}
	for i, rec := range records {
		values := rec.Values()
		if len(values) != len(header) {
			return apperror.New(apperror.CodeTabularWriteFailed,
				apperror.WithContext(fmt.Sprintf("row %d has %d cells, header has %d", i, len(values), len(header))))
		}
		if err := cw.Write(values); err != nil {
			return apperror.Wrap(err, apperror.CodeTabularWriteFailed, fmt.Sprintf("row %d", i))
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperror.Wrap(err, apperror.CodeTabularWriteFailed, "flush")
	}
	return nil
}

// Read parses every row under the first line's header. Header names are
// trimmed; a missing cell reads as empty.
func Read(r io.Reader, opts Options) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.delimiter()
	cr.FieldsPerRecord = -1
	// leading-space trimming would swallow empty tab-separated cells
	cr.TrimLeadingSpace = !unicode.IsSpace(cr.Comma)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeTabularReadFailed, "header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []Row
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeTabularReadFailed, fmt.Sprintf("line %d", len(rows)+2))
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = strings.TrimSpace(cells[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FormatDecimal renders plain decimal text.
func FormatDecimal(d decimal.Decimal) string {
	return d.String()
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(a money.Amount) string {
	return a.StringFixed(2)
}

func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatOptionalInt renders nil as an empty cell.
func FormatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// FormatOptionalDecimal renders nil as an empty cell.
func FormatOptionalDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func FormatBool(b bool) string {
	return strconv.FormatBool(b)
}

// ParseDecimal parses a required decimal cell.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalidCell(field, s, err)
	}
	return d, nil
}

// ParseOptionalDecimal returns nil for an empty cell.
func ParseOptionalDecimal(field, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDecimal(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseMoney parses a required non-negative amount.
func ParseMoney(field, s string) (money.Amount, error) {
	d, err := ParseDecimal(field, s)
	if err != nil {
		return money.Zero, err
	}
	a, err := money.New(d)
	if err != nil {
		return money.Zero, invalidCell(field, s, err)
	}
	return a, nil
}

// ParseInt parses a required integer cell.
func ParseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalidCell(field, s, err)
	}
	return n, nil
}

// ParseOptionalInt returns nil for an empty cell.
func ParseOptionalInt(field, s string) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := ParseInt(field, s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseBool accepts the literals strconv understands; empty reads as false.
func ParseBool(field, s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, invalidCell(field, s, err)
	}
	return b, nil
}

func invalidCell(field, value string, cause error) error {
	return apperror.New(apperror.CodeInvalidRow,
		apperror.WithCause(cause),
		apperror.WithContext(fmt.Sprintf("field %s: %q", field, value)))
}

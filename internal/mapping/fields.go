package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mkacik/budget/internal/datetime"
)

// Field extractor variant tags. The sets are closed: the schema wire format
// depends on these exact names.
const (
	VariantFromColumn             = "FromColumn"
	VariantEmpty                  = "Empty"
	VariantFromCreditDebitColumns = "FromCreditDebitColumns"
)

func getCol(record []string, col int) (string, error) {
	if col < 0 || col >= len(record) {
		return "", &ColumnOutOfRangeError{Col: col, RowLen: len(record)}
	}
	return record[col], nil
}

// DateField extracts the transaction date from one column, interpreted in the
// declared source zone. FromColumn is the only strategy; a date is always
// required.
type DateField struct {
	Col int
	TZ  datetime.TZ
}

func (f *DateField) fromRecord(record []string) (string, error) {
	field, err := getCol(record, f.Col)
	if err != nil {
		return "", err
	}
	value, err := datetime.NormalizeDate(field, f.TZ)
	if err != nil {
		return "", &ParseError{Kind: KindDate, Value: field}
	}
	return value, nil
}

// TimeField extracts the optional transaction time: either from a column or
// always empty for statements that carry no time at all.
type TimeField struct {
	Variant string
	Col     int
	TZ      datetime.TZ
}

func (f *TimeField) fromRecord(record []string) (*string, error) {
	switch f.Variant {
	case VariantEmpty:
		return nil, nil
	case VariantFromColumn:
		field, err := getCol(record, f.Col)
		if err != nil {
			return nil, err
		}
		value, err := datetime.NormalizeTime(field, f.TZ)
		if err != nil {
			return nil, &ParseError{Kind: KindTime, Value: field}
		}
		return &value, nil
	default:
		return nil, fmt.Errorf("unknown time field variant %q", f.Variant)
	}
}

// AmountField extracts the signed amount. FromColumn reads a single column,
// optionally skipping rows whose raw text contains SkipPattern.
// FromCreditDebitColumns reads two columns where exactly one is populated per
// row, each with its own invert flag.
type AmountField struct {
	Variant string

	// FromColumn
	Col         int
	Invert      bool
	SkipPattern *string

	// FromCreditDebitColumns
	First        int
	InvertFirst  bool
	Second       int
	InvertSecond bool
}

func (f *AmountField) fromRecord(record []string) (decimal.Decimal, error) {
	switch f.Variant {
	case VariantFromColumn:
		field, err := getCol(record, f.Col)
		if err != nil {
			return decimal.Zero, err
		}
		if f.SkipPattern != nil && strings.Contains(field, *f.SkipPattern) {
			return decimal.Zero, ErrSkip
		}
		return parseAmount(field, f.Invert)
	case VariantFromCreditDebitColumns:
		first, err := getCol(record, f.First)
		if err != nil {
			return decimal.Zero, err
		}
		second, err := getCol(record, f.Second)
		if err != nil {
			return decimal.Zero, err
		}
		if first != "" && second != "" {
			return decimal.Zero, &AmbiguousAmountError{First: f.First, Second: f.Second}
		}
		if first != "" {
			return parseAmount(first, f.InvertFirst)
		}
		return parseAmount(second, f.InvertSecond)
	default:
		return decimal.Zero, fmt.Errorf("unknown amount field variant %q", f.Variant)
	}
}

// Matches values like "1,234.56". Deliberately narrow: only this one shape
// gets its commas stripped before parsing; anything else is passed through
// as-is and fails parsing if commas remain.
var thousandsSeparator = regexp.MustCompile(`-?\d+,\d+\.\d\d`)

func stripThousandsSeparator(s string) string {
	if thousandsSeparator.MatchString(s) {
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

func parseAmount(field string, invert bool) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(stripThousandsSeparator(field))
	if err != nil {
		return decimal.Zero, &ParseError{Kind: KindAmount, Value: field}
	}
	if invert {
		value = value.Neg()
	}
	return value, nil
}

// TextField extracts a column verbatim, empty string included.
type TextField struct {
	Col int
}

func (f *TextField) fromRecord(record []string) (string, error) {
	return getCol(record, f.Col)
}

package mapping

import (
	"errors"
	"fmt"
)

// ErrSkip marks a row that is intentionally not a transaction (for example a
// "Not Available" placeholder line). It silently reduces the import output set
// and is never surfaced as a failure.
var ErrSkip = errors.New("row skipped")

// ColumnOutOfRangeError reports a schema column index past the end of a row.
type ColumnOutOfRangeError struct {
	Col    int
	RowLen int
}

func (e *ColumnOutOfRangeError) Error() string {
	return fmt.Sprintf("requested 0-indexed column %d but row only had %d fields", e.Col, e.RowLen)
}

// FieldKind names the extractor that failed to parse a value.
type FieldKind string

const (
	KindDate   FieldKind = "date"
	KindTime   FieldKind = "time"
	KindAmount FieldKind = "amount"
)

// ParseError reports raw text an extractor could not turn into its typed
// value.
type ParseError struct {
	Kind  FieldKind
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q into a %s", e.Value, e.Kind)
}

// AmbiguousAmountError reports a credit/debit row with both columns
// populated. Real exports in this layout fill exactly one of the two per
// row, so rather than guessing which column wins the row is rejected.
type AmbiguousAmountError struct {
	First  int
	Second int
}

func (e *AmbiguousAmountError) Error() string {
	return fmt.Sprintf("both column %d and column %d are populated, cannot pick the amount", e.First, e.Second)
}

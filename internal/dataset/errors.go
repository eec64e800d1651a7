package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingInput is returned when the orders CSV does not exist.
var ErrMissingInput = errors.New("input file not found")

// SchemaError reports a header or cell that does not match the order schema.
type SchemaError struct {
	Path    string
	Missing []string // required columns absent from the header
	Row     int      // 1-based data row, 0 for header problems
	Column  string
	Value   string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema mismatch in %s: missing columns %s", e.Path, strings.Join(e.Missing, ", "))
	}
	if e.Row > 0 && e.Column == "" {
		return fmt.Sprintf("schema mismatch in %s: row %d: %s", e.Path, e.Row, e.Reason)
	}
	if e.Row > 0 {
		return fmt.Sprintf("schema mismatch in %s: row %d column %q value %q: %s", e.Path, e.Row, e.Column, e.Value, e.Reason)
	}
	return fmt.Sprintf("schema mismatch in %s: %s", e.Path, e.Reason)
}

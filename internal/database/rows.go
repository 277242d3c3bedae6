package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRowMode is returned when a scope is configured with a row
// materialization mode it does not understand.
var ErrUnknownRowMode = errors.New("unknown row mode")

// RowMode selects how result rows are materialized
type RowMode int

const (
	// RowRecord materializes each row as a Record keyed by column name.
	RowRecord RowMode = iota + 1
	// RowTuple materializes each row as a positional Tuple.
	RowTuple
)

// String returns the configuration name of the mode
func (m RowMode) String() string {
	switch m {
	case RowRecord:
		return "record"
	case RowTuple:
		return "tuple"
	default:
		return fmt.Sprintf("RowMode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode
func (m RowMode) Valid() bool {
	return m == RowRecord || m == RowTuple
}

// ParseRowMode parses a configuration value into a RowMode
func ParseRowMode(s string) (RowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "record", "row", "dict":
		return RowRecord, nil
	case "tuple":
		return RowTuple, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRowMode, s)
	}
}

// Record is a row keyed by column name
type Record map[string]any

// Tuple is a row in column order
type Tuple []any

// Row is a single materialized row: a Record or a Tuple depending on the
// scope's RowMode.
type Row any

// materialize converts one scanned row according to mode
func materialize(mode RowMode, columns []string, values []any) (Row, error) {
	switch mode {
	case RowRecord:
		rec := make(Record, len(columns))
		for i, col := range columns {
			rec[col] = normalizeValue(values[i])
		}
		return rec, nil
	case RowTuple:
		tup := make(Tuple, len(values))
		for i, v := range values {
			tup[i] = normalizeValue(v)
		}
		return tup, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRowMode, mode)
	}
}

// normalizeValue turns driver byte slices into strings so TEXT columns
// serialize the same way regardless of driver.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// toInt64 converts a count-like column value to int64
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}

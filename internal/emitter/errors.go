package emitter

import "fmt"

// ShapeMismatchError reports columns that disagree in row count.
type ShapeMismatchError struct {
	Column string
	Got    int
	Want   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("emitter: column %s has %d rows, want %d", e.Column, e.Got, e.Want)
}

// RankMismatchError reports a column whose per-row width does not match the
// expected rank (vector columns carry one value per row, coordinate columns
// two or three).
type RankMismatchError struct {
	Column string
	Got    int
	Want   int
}

func (e *RankMismatchError) Error() string {
	return fmt.Sprintf("emitter: column %s has %d values per row, want %d", e.Column, e.Got, e.Want)
}

// ConfigurationError reports mutually exclusive or malformed options.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "emitter: " + e.Reason
}

// UnsupportedOperationError reports an operation a restricted set variant
// does not implement.
type UnsupportedOperationError struct {
	Op string
}

func (e *UnsupportedOperationError) Error() string {
	return "emitter: operation not supported: " + e.Op
}

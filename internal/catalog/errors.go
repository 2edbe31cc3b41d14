package catalog

import "fmt"

// UnknownMetricError is returned when a metric name does not resolve to a
// registered definition or family.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.Name)
}

// ParseError is returned for metric names that do not match the grammar.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing metric name %q at %d: %s", e.Input, e.Pos, e.Msg)
}

// ComputationError marks an expected numeric or domain failure during a
// metric computation. The evaluator contains it as a failed outcome instead
// of aborting the activity; any other error propagates.
type ComputationError struct {
	Metric string
	Err    error
}

func (e *ComputationError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("computation failed: %v", e.Err)
	}
	return fmt.Sprintf("computing %s: %v", e.Metric, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Computationf builds a ComputationError from a format string.
func Computationf(format string, args ...any) error {
	return &ComputationError{Err: fmt.Errorf(format, args...)}
}

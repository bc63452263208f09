package domain

import "fmt"

// ConfigurationError reports an invalid run parameter. It is raised before any scan starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports a bar series shorter than the strategy needs.
type InsufficientDataError struct {
	Strategy StrategyName
	Required int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s needs at least %d bars, got %d", e.Strategy, e.Required, e.Got)
}

// InvalidInputError reports a malformed bar series. Index is -1 when the problem is not tied to one bar.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: bar %d: %s", e.Index, e.Reason)
}

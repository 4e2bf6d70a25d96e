package bandit

import (
	"fmt"
	"strings"
)

// ConfigError reports an unusable configuration. It is returned before
// any trial runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// MultipleActionVariablesError is returned when more than one variable
// is declared as an action.
type MultipleActionVariablesError struct {
	Nodes []string
}

func (e *MultipleActionVariablesError) Error() string {
	return fmt.Sprintf("expected one action variable, found %d: %s",
		len(e.Nodes), strings.Join(e.Nodes, ", "))
}

// MissingActionVariableError is returned when no variable is declared as
// an action.
type MissingActionVariableError struct{}

func (e *MissingActionVariableError) Error() string {
	return "no action variable declared"
}

// UnknownContextError is returned when a context was not enumerated when
// the environment was built.
type UnknownContextError struct {
	Context string
}

func (e *UnknownContextError) Error() string {
	return fmt.Sprintf("unknown context {%s}", e.Context)
}

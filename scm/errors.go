package scm

import "fmt"

// MissingInterventionError is returned by Sample when an action node has
// no value in the supplied set values.
type MissingInterventionError struct {
	Node string
}

func (e *MissingInterventionError) Error() string {
	return fmt.Sprintf("no value supplied for action node %q", e.Node)
}

// InvalidValueError is returned when a value lies outside its variable's
// domain.
type InvalidValueError struct {
	Node  string
	Value int
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("value %d is not in the domain of %q", e.Value, e.Node)
}

// MalformedModelError is returned when a node model is inconsistent:
// empty domain, bad distribution, missing rows, or wrong arity.
type MalformedModelError struct {
	Node   string
	Reason string
}

func (e *MalformedModelError) Error() string {
	return fmt.Sprintf("malformed model for %q: %s", e.Node, e.Reason)
}

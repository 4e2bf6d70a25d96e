// Package bandit implements agents for causal bandit problems. An
// Environment wraps a structural causal model with one action variable
// and one reward variable; an Agent repeatedly observes a context,
// chooses an action under its action selection rule, and learns
// conditional probability tables from the samples it observes.
package bandit

import (
	"math/rand/v2"
	"strings"

	"github.com/abemo/causalquestioning/scm"
)

// OTP is the on-policy type of an agent.
type OTP int

const (
	// Solo agents learn only from their own observations.
	Solo OTP = iota
)

func (o OTP) String() string {
	switch o {
	case Solo:
		return "Solo"
	}
	return "OTP(?)"
}

// ParseOTP returns the on-policy type named by s. The empty string is Solo.
func ParseOTP(s string) (OTP, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solo":
		return Solo, nil
	}

	return 0, configErrorf("unsupported on-policy type %q", s)
}

// Core is the capability set the trial loop needs from an agent.
type Core interface {
	// Choose returns the action value to play given an observed context.
	Choose(context scm.Assignment) int
	// Observe records a full joint sample.
	Observe(sample scm.Assignment)
	// Recent returns the last observed sample, or nil.
	Recent() scm.Assignment
	// Context extracts the context the agent conditions on from a sample.
	Context(sample scm.Assignment) scm.Assignment
}

var _ Core = &Agent{}

// NewCore returns an agent of the given on-policy type.
func NewCore(otp OTP, rng *rand.Rand, env *Environment, params Params) (Core, error) {
	switch otp {
	case Solo:
		a, err := NewAgent(rng, env, params)
		if err != nil {
			return nil, err
		}
		return a, nil
	}

	return nil, configErrorf("on-policy type %d is not supported", int(otp))
}

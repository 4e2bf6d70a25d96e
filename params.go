package bandit

import (
	"fmt"
	"strings"
)

// ASR is an action selection rule.
type ASR int

const (
	EpsilonGreedy ASR = iota
	EpsilonFirst
	EpsilonDecreasing
	ThompsonSampling
)

var asrStr = [...]string{
	"EG",
	"EF",
	"ED",
	"TS",
}

func (a ASR) String() string {
	if a < 0 || int(a) >= len(asrStr) {
		return fmt.Sprintf("ASR(%d)", int(a))
	}
	return asrStr[a]
}

// Valid reports whether a is a known rule.
func (a ASR) Valid() bool {
	return a >= 0 && int(a) < len(asrStr)
}

// ParseASR accepts the short names (EG, EF, ED, TS) and the long names
// (epsilon-greedy, epsilon-first, epsilon-decreasing, thompson).
func ParseASR(s string) (ASR, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eg", "epsilon-greedy", "epsilon_greedy":
		return EpsilonGreedy, nil
	case "ef", "epsilon-first", "epsilon_first":
		return EpsilonFirst, nil
	case "ed", "epsilon-decreasing", "epsilon_decreasing":
		return EpsilonDecreasing, nil
	case "ts", "thompson", "thompson-sampling", "thompson_sampling":
		return ThompsonSampling, nil
	}

	return 0, configErrorf("unsupported action selection rule %q", s)
}

// Params configures an Agent. An empty Params struct is valid and
// corresponds to a purely greedy agent.
type Params struct {
	ASR ASR
	// Epsilon is the exploration probability for EpsilonGreedy and the
	// initial exploration probability for EpsilonDecreasing, where zero
	// means start at 1.
	Epsilon float64
	// RandTrials is the number of random decisions per context for
	// EpsilonFirst.
	RandTrials int
	// CoolingRate multiplies epsilon after every EpsilonDecreasing decision.
	CoolingRate float64
}

// Validate checks p for consistency.
func (p Params) Validate() error {
	if !p.ASR.Valid() {
		return configErrorf("unsupported action selection rule %v", p.ASR)
	}

	if p.Epsilon < 0 || p.Epsilon > 1 {
		return configErrorf("epsilon %v is not a probability", p.Epsilon)
	}

	if p.RandTrials < 0 {
		return configErrorf("negative random trial budget %d", p.RandTrials)
	}

	if p.ASR == EpsilonDecreasing && (p.CoolingRate <= 0 || p.CoolingRate > 1) {
		return configErrorf("cooling rate %v must be in (0, 1]", p.CoolingRate)
	}

	return nil
}

// initialEpsilon is the exploration probability before the first decision.
func (p Params) initialEpsilon() float64 {
	if p.ASR == EpsilonDecreasing && p.Epsilon == 0 {
		return 1
	}
	return p.Epsilon
}

// String returns the rule and the parameters it uses, e.g. "EF(rand_trials=50)".
func (p Params) String() string {
	switch p.ASR {
	case EpsilonGreedy:
		return fmt.Sprintf("%v(epsilon=%g)", p.ASR, p.Epsilon)
	case EpsilonFirst:
		return fmt.Sprintf("%v(rand_trials=%d)", p.ASR, p.RandTrials)
	case EpsilonDecreasing:
		return fmt.Sprintf("%v(epsilon=%g, cooling_rate=%g)", p.ASR, p.initialEpsilon(), p.CoolingRate)
	default:
		return p.ASR.String()
	}
}

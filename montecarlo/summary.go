package montecarlo

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/abemo/causalquestioning"
)

// Summary holds per-trial statistics over repetitions.
type Summary struct {
	N       int
	MeanCPR []float64
	SemCPR  []float64
	MeanPOA []float64
	SemPOA  []float64
}

// Summarize computes the mean and standard error of the mean of each
// trial across runs. Every run must have the same number of trials.
func Summarize(runs []bandit.Series) (Summary, error) {
	if len(runs) == 0 {
		return Summary{}, errors.Errorf("no runs to summarize")
	}

	n := runs[0].Len()
	for i, s := range runs {
		if s.Len() != n || len(s.POA) != n {
			return Summary{}, errors.Errorf("run %d has %d trials, expected %d", i, s.Len(), n)
		}
	}

	summary := Summary{
		N:       len(runs),
		MeanCPR: make([]float64, n),
		SemCPR:  make([]float64, n),
		MeanPOA: make([]float64, n),
		SemPOA:  make([]float64, n),
	}

	cpr := make([]float64, len(runs))
	poa := make([]float64, len(runs))
	for t := 0; t < n; t++ {
		for i, s := range runs {
			cpr[i] = s.CPR[t]
			poa[i] = s.POA[t]
		}

		var err error
		if summary.MeanCPR[t], summary.SemCPR[t], err = meanSem(cpr); err != nil {
			return Summary{}, err
		}
		if summary.MeanPOA[t], summary.SemPOA[t], err = meanSem(poa); err != nil {
			return Summary{}, err
		}
	}

	return summary, nil
}

// meanSem returns the mean and the standard error of the mean, using the
// sample standard deviation. The error is zero for a single value.
func meanSem(data stats.Float64Data) (float64, float64, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return 0, 0, err
	}

	if len(data) < 2 {
		return mean, 0, nil
	}

	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return 0, 0, err
	}

	return mean, sd / math.Sqrt(float64(len(data))), nil
}

// Final returns the mean cumulative regret and optimal action rate at the
// last trial.
func (s Summary) Final() (cpr, poa float64) {
	if len(s.MeanCPR) == 0 {
		return 0, 0
	}
	last := len(s.MeanCPR) - 1
	return s.MeanCPR[last], s.MeanPOA[last]
}

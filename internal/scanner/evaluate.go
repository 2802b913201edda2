package scanner

import (
	"fmt"

	"spreadscan/internal/rules"
	"spreadscan/pkg/model"
)

// MinPairwiseBars is the history a pairwise scan needs: bar[-3], bar[-2], bar[-1]
const MinPairwiseBars = 3

// Evaluation is one windowed step: rules applied to (bars[Index-1], bars[Index])
type Evaluation struct {
	Index  int
	Bar    model.Bar
	Result model.Label
}

// EvaluatePair returns the previous-period result (bar[-3], bar[-2]) and the
// current-period result (bar[-2], bar[-1]).
func EvaluatePair(rs *rules.RuleSet, bars []model.Bar) (prev, curr model.Label, err error) {
	n := len(bars)
	if n < MinPairwiseBars {
		return "", "", fmt.Errorf("have %d bars, need %d: %w", n, MinPairwiseBars, model.ErrInsufficientHistory)
	}
	prev = rs.Evaluate(bars[n-3], bars[n-2])
	curr = rs.Evaluate(bars[n-2], bars[n-1])
	return prev, curr, nil
}

// EvaluateWindow evaluates the trailing window of bars, starting at len-window
// and skipping any index <= 0. For n bars it performs min(window, n-1) evaluations.
func EvaluateWindow(rs *rules.RuleSet, bars []model.Bar, window int) ([]Evaluation, error) {
	n := len(bars)
	if n < 2 {
		return nil, fmt.Errorf("have %d bars, need 2: %w", n, model.ErrInsufficientHistory)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}

	evals := make([]Evaluation, 0, min(window, n-1))
	for i := n - window; i < n; i++ {
		if i <= 0 {
			continue
		}
		evals = append(evals, Evaluation{
			Index:  i,
			Bar:    bars[i],
			Result: rs.Evaluate(bars[i-1], bars[i]),
		})
	}
	return evals, nil
}

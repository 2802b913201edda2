package rules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscan/pkg/model"
)

func bar(open, close float64) model.Bar {
	return model.Bar{Open: open, High: max(open, close) + 1, Low: min(open, close) - 1, Close: close}
}

func TestRuleSetEvaluate(t *testing.T) {
	tests := []struct {
		name string
		prev model.Bar
		curr model.Bar
		want model.Label
	}{
		{
			name: "prev down, gap below close",
			prev: bar(10, 8),
			curr: bar(7, 12),
			want: LabelCall,
		},
		{
			name: "prev up, gap above close",
			prev: bar(7, 12),
			curr: bar(14, 9),
			want: LabelPut,
		},
		{
			name: "prev down, opens at close",
			prev: bar(10, 8),
			curr: bar(8, 9),
			want: model.NoSetup,
		},
		{
			name: "prev down, opens above close",
			prev: bar(10, 8),
			curr: bar(9, 7),
			want: model.NoSetup,
		},
		{
			name: "prev up, opens below close",
			prev: bar(7, 12),
			curr: bar(11, 13),
			want: model.NoSetup,
		},
		{
			name: "prev doji",
			prev: bar(10, 10),
			curr: bar(5, 6),
			want: model.NoSetup,
		},
		{
			name: "prev doji, gap up",
			prev: bar(10, 10),
			curr: bar(15, 16),
			want: model.NoSetup,
		},
	}

	rs := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.Evaluate(tt.prev, tt.curr))
		})
	}
}

func TestRuleSetIgnoresHighLow(t *testing.T) {
	rs := Default()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		prev := model.Bar{Open: 10, Close: 8, High: rng.Float64() * 100, Low: rng.Float64() * 100}
		curr := model.Bar{Open: 7, Close: 9, High: rng.Float64() * 100, Low: rng.Float64() * 100}
		require.Equal(t, LabelCall, rs.Evaluate(prev, curr))

		prev = model.Bar{Open: 8, Close: 10, High: rng.Float64() * 100, Low: rng.Float64() * 100}
		curr = model.Bar{Open: 11, Close: 9, High: rng.Float64() * 100, Low: rng.Float64() * 100}
		require.Equal(t, LabelPut, rs.Evaluate(prev, curr))
	}
}

func TestRuleSetRandomPairsMatchConditions(t *testing.T) {
	rs := Default()
	rng := rand.New(rand.NewSource(7))
	price := func() float64 { return float64(1 + rng.Intn(20)) }

	for i := 0; i < 2000; i++ {
		prev := model.Bar{Open: price(), Close: price()}
		curr := model.Bar{Open: price(), Close: price()}

		want := model.NoSetup
		switch {
		case prev.Close < prev.Open && curr.Open < prev.Close:
			want = LabelCall
		case prev.Close > prev.Open && curr.Open > prev.Close:
			want = LabelPut
		}
		require.Equal(t, want, rs.Evaluate(prev, curr), "prev=%+v curr=%+v", prev, curr)
	}
}

func TestRuleSetFirstMatchWins(t *testing.T) {
	always := func(name string, label model.Label) Rule {
		return RuleFunc{RuleName: name, Fn: func(prev, curr model.Bar) (model.Label, bool) {
			return label, true
		}}
	}

	rs := NewRuleSet(BullishReversal, always("catch-all", "ANY"))
	assert.Equal(t, LabelCall, rs.Evaluate(bar(10, 8), bar(7, 12)))
	assert.Equal(t, model.Label("ANY"), rs.Evaluate(bar(10, 10), bar(10, 10)))

	overlapping := NewRuleSet(always("first", "FIRST"), always("second", "SECOND"))
	assert.Equal(t, model.Label("FIRST"), overlapping.Evaluate(bar(1, 2), bar(3, 4)))
}

func TestRuleSetAppend(t *testing.T) {
	rs := NewRuleSet()
	assert.Equal(t, model.NoSetup, rs.Evaluate(bar(10, 8), bar(7, 12)))

	rs.Append(BearishReversal)
	rs.Append(BullishReversal)
	assert.Equal(t, []string{"r2-put", "r1-call"}, rs.Names())
	assert.Equal(t, LabelCall, rs.Evaluate(bar(10, 8), bar(7, 12)))
}

func TestRuleSetDoesNotMutateInputs(t *testing.T) {
	prev := bar(10, 8)
	curr := bar(7, 12)
	prevCopy, currCopy := prev, curr

	rs := Default()
	first := rs.Evaluate(prev, curr)
	second := rs.Evaluate(prev, curr)

	assert.Equal(t, first, second)
	assert.Equal(t, prevCopy, prev)
	assert.Equal(t, currCopy, curr)
}

func TestBuild(t *testing.T) {
	rs, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1-call", "r2-put"}, rs.Names())

	rs, err = Build([]string{"R2-PUT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2-put"}, rs.Names())

	_, err = Build([]string{"r9-unknown"})
	assert.ErrorContains(t, err, "unknown rule")
}

func TestRegisterCustomRule(t *testing.T) {
	inside := RuleFunc{RuleName: "inside-bar", Fn: func(prev, curr model.Bar) (model.Label, bool) {
		if curr.High < prev.High && curr.Low > prev.Low {
			return "INSIDE", true
		}
		return "", false
	}}
	Register(inside)

	assert.Contains(t, List(), "inside-bar")

	rs, err := Build([]string{"r1-call", "r2-put", "inside-bar"})
	require.NoError(t, err)
	got := rs.Evaluate(
		model.Bar{Open: 10, Close: 10, High: 20, Low: 1},
		model.Bar{Open: 10, Close: 10, High: 15, Low: 5},
	)
	assert.Equal(t, model.Label("INSIDE"), got)
}

package rules

import "spreadscan/pkg/model"

const (
	// LabelCall marks a bullish credit-spread candidate
	LabelCall model.Label = "R1-CALL"
	// LabelPut marks a bearish credit-spread candidate
	LabelPut model.Label = "R2-PUT"
)

// Rule decides whether a setup exists between two adjacent bars.
// Implementations must be pure: no mutation, same answer for the same bars.
type Rule interface {
	Name() string
	Evaluate(prev, curr model.Bar) (model.Label, bool)
}

// RuleFunc adapts a plain function to the Rule interface
type RuleFunc struct {
	RuleName string
	Fn       func(prev, curr model.Bar) (model.Label, bool)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Evaluate(prev, curr model.Bar) (model.Label, bool) {
	return r.Fn(prev, curr)
}

// BullishReversal fires when the previous bar closed down and the current bar
// opens below that close.
var BullishReversal Rule = RuleFunc{
	RuleName: "r1-call",
	Fn: func(prev, curr model.Bar) (model.Label, bool) {
		if prev.Close < prev.Open && curr.Open < prev.Close {
			return LabelCall, true
		}
		return "", false
	},
}

// BearishReversal fires when the previous bar closed up and the current bar
// opens above that close.
var BearishReversal Rule = RuleFunc{
	RuleName: "r2-put",
	Fn: func(prev, curr model.Bar) (model.Label, bool) {
		if prev.Close > prev.Open && curr.Open > prev.Close {
			return LabelPut, true
		}
		return "", false
	},
}

// RuleSet is an ordered list of rules; the first rule that fires wins
type RuleSet struct {
	rules []Rule
}

// NewRuleSet creates a rule set evaluated in the given order
func NewRuleSet(rules ...Rule) *RuleSet {
	rs := &RuleSet{}
	rs.Append(rules...)
	return rs
}

// Default returns the built-in rules in declared order
func Default() *RuleSet {
	return NewRuleSet(BullishReversal, BearishReversal)
}

// Append adds rules after the existing ones
func (rs *RuleSet) Append(rules ...Rule) {
	rs.rules = append(rs.rules, rules...)
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Names returns rule names in evaluation order
func (rs *RuleSet) Names() []string {
	names := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate returns the label of the first rule that fires, or NoSetup
func (rs *RuleSet) Evaluate(prev, curr model.Bar) model.Label {
	for _, r := range rs.rules {
		if label, ok := r.Evaluate(prev, curr); ok && label != "" {
			return label
		}
	}
	return model.NoSetup
}

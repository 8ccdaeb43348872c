package services

import "fmt"

// ExitAction is what the orchestrator does after a CTK process exits
type ExitAction string

// Exit actions
const (
	ActionContinue ExitAction = "continue"
	ActionFatal    ExitAction = "fatal"
)

// ExitRule maps an inclusive exit code range to an action
type ExitRule struct {
	Min    int
	Max    int
	Action ExitAction
	Status string // Recorded outcome, e.g. "passed" or "failed"
}

// ExitPolicy is an ordered rule table; the first rule covering a code applies
type ExitPolicy struct {
	Rules    []ExitRule
	Fallback ExitRule
}

// DefaultExitPolicy records every exit code and never aborts the run.
// Negative codes mean the process could not be started or timed out.
func DefaultExitPolicy() ExitPolicy {
	return ExitPolicy{
		Rules: []ExitRule{
			{Min: 0, Max: 0, Action: ActionContinue, Status: "passed"},
			{Min: 1, Max: 255, Action: ActionContinue, Status: "failed"},
			{Min: -1 << 31, Max: -1, Action: ActionContinue, Status: "error"},
		},
		Fallback: ExitRule{Action: ActionContinue, Status: "failed"},
	}
}

// Evaluate returns the rule that applies to an exit code
func (p ExitPolicy) Evaluate(exitCode int) ExitRule {
	for _, r := range p.Rules {
		if exitCode >= r.Min && exitCode <= r.Max {
			return r
		}
	}
	return p.Fallback
}

// Validate checks that no two rules overlap
func (p ExitPolicy) Validate() error {
	for i, a := range p.Rules {
		if a.Min > a.Max {
			return fmt.Errorf("exit rule %d: min %d > max %d", i, a.Min, a.Max)
		}
		for j := i + 1; j < len(p.Rules); j++ {
			b := p.Rules[j]
			if a.Min <= b.Max && b.Min <= a.Max {
				return fmt.Errorf("exit rules %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

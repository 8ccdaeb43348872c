package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultExitPolicy(t *testing.T) {
	p := DefaultExitPolicy()
	assert.NoError(t, p.Validate())

	tests := []struct {
		code   int
		status string
	}{
		{0, "passed"},
		{1, "failed"},
		{255, "failed"},
		{-1, "error"},
		{300, "failed"},
	}
	for _, tt := range tests {
		rule := p.Evaluate(tt.code)
		assert.Equal(t, tt.status, rule.Status, "exit code %d", tt.code)
		assert.Equal(t, ActionContinue, rule.Action, "exit code %d", tt.code)
	}
}

func TestExitPolicy_FirstRuleWins(t *testing.T) {
	p := ExitPolicy{
		Rules: []ExitRule{
			{Min: 2, Max: 2, Action: ActionFatal, Status: "error"},
			{Min: 0, Max: 255, Action: ActionContinue, Status: "failed"},
		},
	}
	assert.Equal(t, ActionFatal, p.Evaluate(2).Action)
	assert.Equal(t, ActionContinue, p.Evaluate(3).Action)
	assert.Error(t, p.Validate())
}

func TestExitPolicy_Validate(t *testing.T) {
	assert.Error(t, ExitPolicy{Rules: []ExitRule{{Min: 5, Max: 1}}}.Validate())
	assert.NoError(t, ExitPolicy{Rules: []ExitRule{{Min: 0, Max: 0}, {Min: 1, Max: 1}}}.Validate())
}

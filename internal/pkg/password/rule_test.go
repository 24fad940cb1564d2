package password

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type fakeBreach struct {
	count int
	err   error
	calls int
}

func (f *fakeBreach) Occurrences(context.Context, string) (int, error) {
	f.calls++
	return f.count, f.err
}

func TestRuleSpec_Check(t *testing.T) {
	all := Default().Rule()

	tests := []struct {
		name      string
		rule      RuleSpec
		candidate string
		breach    *fakeBreach
		want      []Requirement
		wantCalls int
	}{
		{name: "strong", rule: all, candidate: "Corr3ct-Horse", breach: &fakeBreach{}, wantCalls: 1},
		{name: "short", rule: all, candidate: "Ab1!", breach: &fakeBreach{}, want: []Requirement{RequireLength}},
		{
			name:      "lowercase words only",
			rule:      all,
			candidate: "correcthorse",
			breach:    &fakeBreach{},
			want:      []Requirement{RequireMixedCase, RequireNumbers, RequireSymbols},
		},
		{name: "digits only", rule: all, candidate: "1234567890", breach: &fakeBreach{}, want: []Requirement{RequireMixedCase, RequireLetters, RequireSymbols}},
		{name: "breached", rule: all, candidate: "P@ssw0rd123", breach: &fakeBreach{count: 5}, want: []Requirement{RequireUncompromised}, wantCalls: 1},
		{
			name:      "breached within threshold",
			rule:      RuleSpec{MinimumLength: 8, Uncompromised: true, CompromisedThreshold: 5},
			candidate: "P@ssw0rd123",
			breach:    &fakeBreach{count: 5},
			wantCalls: 1,
		},
		{name: "multibyte length", rule: RuleSpec{MinimumLength: 4}, candidate: "ñáéí", breach: &fakeBreach{}},
		{name: "space counts as symbol", rule: RuleSpec{MinimumLength: 3, Symbols: true}, candidate: "a b", breach: &fakeBreach{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := tt.rule.Check(context.Background(), tt.candidate, tt.breach)

			// Assert
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Check() = %v, want %v", got, tt.want)
			}
			if tt.breach.calls != tt.wantCalls {
				t.Fatalf("breach calls = %d, want %d", tt.breach.calls, tt.wantCalls)
			}
		})
	}
}

func TestRuleSpec_Check_BreachError(t *testing.T) {
	errDown := errors.New("corpus unavailable")

	_, err := Default().Rule().Check(context.Background(), "Corr3ct-Horse", &fakeBreach{err: errDown})
	if !errors.Is(err, errDown) {
		t.Fatalf("Check() error = %v, want %v", err, errDown)
	}
}

func TestRuleSpec_Check_NilBreachSkipsLookup(t *testing.T) {
	got, err := Default().Rule().Check(context.Background(), "Corr3ct-Horse", nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("Check() = %v, %v", got, err)
	}
}

package password

import (
	"context"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Requirement names one password requirement.
type Requirement string

// Requirements in the order they are checked and explained.
const (
	RequireLength        Requirement = "length"
	RequireMixedCase     Requirement = "mixed_case"
	RequireLetters       Requirement = "letters"
	RequireNumbers       Requirement = "numbers"
	RequireSymbols       Requirement = "symbols"
	RequireUncompromised Requirement = "uncompromised"
)

// BreachChecker reports how many times a password appears in a breach corpus.
type BreachChecker interface {
	Occurrences(ctx context.Context, password string) (int, error)
}

// RuleSpec is the machine-checkable form of a Policy.
type RuleSpec struct {
	MinimumLength        int  `json:"minimum_length"`
	MixedCase            bool `json:"mixed_case"`
	Letters              bool `json:"letters"`
	Numbers              bool `json:"numbers"`
	Symbols              bool `json:"symbols"`
	Uncompromised        bool `json:"uncompromised"`
	CompromisedThreshold int  `json:"compromised_threshold"`
}

// Enabled returns the active requirements in their fixed order. Length is
// always active.
func (r RuleSpec) Enabled() []Requirement {
	out := []Requirement{RequireLength}

	toggles := []struct {
		on  bool
		req Requirement
	}{
		{r.MixedCase, RequireMixedCase},
		{r.Letters, RequireLetters},
		{r.Numbers, RequireNumbers},
		{r.Symbols, RequireSymbols},
		{r.Uncompromised, RequireUncompromised},
	}
	for _, t := range toggles {
		if t.on {
			out = append(out, t.req)
		}
	}

	return out
}

// Check evaluates candidate against the rule and returns the requirements it
// fails, in fixed order. Length counts runes. The breach corpus is queried
// only when Uncompromised is set, breach is non-nil and every local
// requirement already passed; a candidate is compromised when it appears more
// than CompromisedThreshold times. A breach lookup failure is returned as an
// error together with the local violations (none).
func (r RuleSpec) Check(ctx context.Context, candidate string, breach BreachChecker) ([]Requirement, error) {
	var upper, lower, letter, number, symbol bool
	for _, c := range candidate {
		switch {
		case unicode.IsLetter(c):
			letter = true
			upper = upper || unicode.IsUpper(c)
			lower = lower || unicode.IsLower(c)
		case unicode.IsNumber(c):
			number = true
		case unicode.IsSymbol(c), unicode.IsPunct(c), unicode.IsSpace(c):
			symbol = true
		}
	}

	var failed []Requirement
	if utf8.RuneCountInString(candidate) < r.MinimumLength {
		failed = append(failed, RequireLength)
	}
	if r.MixedCase && !(upper && lower) {
		failed = append(failed, RequireMixedCase)
	}
	if r.Letters && !letter {
		failed = append(failed, RequireLetters)
	}
	if r.Numbers && !number {
		failed = append(failed, RequireNumbers)
	}
	if r.Symbols && !symbol {
		failed = append(failed, RequireSymbols)
	}

	if len(failed) > 0 || !r.Uncompromised || breach == nil {
		return failed, nil
	}

	n, err := breach.Occurrences(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("password: breach lookup: %w", err)
	}
	if n > r.CompromisedThreshold {
		failed = append(failed, RequireUncompromised)
	}

	return failed, nil
}

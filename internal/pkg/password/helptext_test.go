package password

import (
	"strings"
	"testing"
)

func TestHelpClauses_OnePerEnabledToggleInOrder(t *testing.T) {
	toggles := []string{"mixed_case", "letters", "numbers", "symbols", "uncompromised"}

	// every combination of the five toggles
	for mask := 0; mask < 1<<len(toggles); mask++ {
		cfg := map[string]any{"min": 10}
		want := []Requirement{RequireLength}
		for i, key := range toggles {
			on := mask&(1<<i) != 0
			cfg[key] = on
			if on {
				want = append(want, []Requirement{RequireMixedCase, RequireLetters, RequireNumbers, RequireSymbols, RequireUncompromised}[i])
			}
		}

		p, err := Load(cfg)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		for _, locale := range []string{"en", "id"} {
			clauses := p.HelpClauses(locale)
			if len(clauses) != len(want) {
				t.Fatalf("mask %05b %s: %d clauses, want %d: %v", mask, locale, len(clauses), len(want), clauses)
			}

			trans, _ := translator(locale)
			for i, req := range want[1:] {
				expected, _ := trans.T(req)
				if clauses[i+1] != expected {
					t.Fatalf("mask %05b %s: clause %d = %q, want %q", mask, locale, i+1, clauses[i+1], expected)
				}
			}

			text := p.HelpText(locale)
			last := -1
			for _, c := range clauses {
				idx := strings.Index(text, c)
				if idx <= last {
					t.Fatalf("mask %05b %s: clause %q out of order in %q", mask, locale, c, text)
				}
				last = idx
			}
		}
	}
}

func TestHelpText(t *testing.T) {
	tests := []struct {
		name   string
		cfg    map[string]any
		locale string
		want   string
	}{
		{
			name:   "defaults english",
			cfg:    nil,
			locale: "en",
			want: "Password must be at least 8 characters long, include both uppercase and lowercase letters, " +
				"include at least one letter, include at least one number, include at least one symbol, " +
				"and not appear in a known data breach.",
		},
		{
			name:   "length only singular",
			cfg:    map[string]any{"min": 1, "mixed_case": false, "letters": false, "numbers": false, "symbols": false, "uncompromised": false},
			locale: "en",
			want:   "Password must be at least 1 character long.",
		},
		{
			name:   "two clauses indonesian",
			cfg:    map[string]any{"min": 12, "mixed_case": false, "letters": false, "symbols": false, "uncompromised": false},
			locale: "id-ID",
			want:   "Kata sandi harus terdiri dari minimal 12 karakter dan mengandung minimal satu angka.",
		},
		{
			name:   "unknown locale falls back",
			cfg:    map[string]any{"min": 8, "mixed_case": false, "letters": false, "symbols": false, "uncompromised": false},
			locale: "fr",
			want:   "Password must be at least 8 characters long and include at least one number.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load(tt.cfg)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if got := p.HelpText(tt.locale); got != tt.want {
				t.Fatalf("HelpText() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

package password

import (
	"strings"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/samber/lo"
)

// DefaultLocale is used for help text when a requested locale is unknown.
const DefaultLocale = "en"

type phrasebook struct {
	lead     string
	and      string
	length   map[locales.PluralRule]string
	clauses  map[Requirement]string
	listSep  string
	finalSep string
}

var phrasebooks = map[string]phrasebook{
	"en": {
		lead: "Password must",
		and:  " and ",
		length: map[locales.PluralRule]string{
			locales.PluralRuleOne:   "be at least {0} character long",
			locales.PluralRuleOther: "be at least {0} characters long",
		},
		clauses: map[Requirement]string{
			RequireMixedCase:     "include both uppercase and lowercase letters",
			RequireLetters:       "include at least one letter",
			RequireNumbers:       "include at least one number",
			RequireSymbols:       "include at least one symbol",
			RequireUncompromised: "not appear in a known data breach",
		},
		listSep:  ", ",
		finalSep: ", and ",
	},
	"id": {
		lead: "Kata sandi harus",
		and:  " dan ",
		length: map[locales.PluralRule]string{
			locales.PluralRuleOther: "terdiri dari minimal {0} karakter",
		},
		clauses: map[Requirement]string{
			RequireMixedCase:     "mengandung huruf besar dan huruf kecil",
			RequireLetters:       "mengandung minimal satu huruf",
			RequireNumbers:       "mengandung minimal satu angka",
			RequireSymbols:       "mengandung minimal satu simbol",
			RequireUncompromised: "tidak pernah muncul dalam kebocoran data",
		},
		listSep:  ", ",
		finalSep: ", dan ",
	},
}

var translators = sync.OnceValues(func() (*ut.UniversalTranslator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, id.New())

	for locale, book := range phrasebooks {
		trans, _ := uni.GetTranslator(locale)

		for rule, text := range book.length {
			if err := trans.AddCardinal(RequireLength, text, rule, false); err != nil {
				return nil, err
			}
		}
		for req, text := range book.clauses {
			if err := trans.Add(req, text, false); err != nil {
				return nil, err
			}
		}
	}

	return uni, nil
})

func translator(locale string) (ut.Translator, phrasebook) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}

	book, ok := phrasebooks[locale]
	if !ok {
		locale, book = DefaultLocale, phrasebooks[DefaultLocale]
	}

	uni, err := translators()
	if err != nil {
		panic("password: invalid phrasebook: " + err.Error())
	}

	trans, _ := uni.GetTranslator(locale)
	return trans, book
}

// HelpClauses returns one localized clause per enabled requirement, in the
// order of RuleSpec.Enabled.
func (p Policy) HelpClauses(locale string) []string {
	trans, _ := translator(locale)
	rule := p.Rule()

	return lo.Map(rule.Enabled(), func(req Requirement, _ int) string {
		if req == RequireLength {
			n := float64(rule.MinimumLength)
			text, _ := trans.C(RequireLength, n, 0, trans.FmtNumber(n, 0))
			return text
		}

		text, _ := trans.T(req)
		return text
	})
}

// HelpText joins HelpClauses into a single sentence, for example
// "Password must be at least 8 characters long, include at least one number,
// and not appear in a known data breach." Unknown locales fall back to
// DefaultLocale.
func (p Policy) HelpText(locale string) string {
	_, book := translator(locale)
	clauses := p.HelpClauses(locale)

	var body string
	switch len(clauses) {
	case 1:
		body = clauses[0]
	case 2:
		body = clauses[0] + book.and + clauses[1]
	default:
		last := len(clauses) - 1
		body = strings.Join(clauses[:last], book.listSep) + book.finalSep + clauses[last]
	}

	return book.lead + " " + body + "."
}

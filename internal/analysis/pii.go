package analysis

import (
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/prerak-labs/saakshi/internal/config"
	"github.com/prerak-labs/saakshi/internal/model"
)

// piiRule pairs a category with its compiled matcher.
type piiRule struct {
	category model.PIICategory
	re       *regexp.Regexp
}

// builtinRules cover the identifiers that show up in field notes. Order
// is significant: scans emit flags in rule order so output is stable.
var builtinRules = []piiRule{
	{model.PIIEmail, regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	{model.PIIPhone, regexp.MustCompile(`\+?\d[\d\s-]{8,}\d`)},
	{model.PIIIDNumber, regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b`)},
	{model.PIIName, regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Shri|Smt|Kumari)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
	{model.PIIName, regexp.MustCompile(`\bnamed\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)},
}

// PIIScanner flags personally identifying substrings in free text. Scans
// are pure regex matching, so results are deterministic for a given
// scanner and input.
type PIIScanner struct {
	rules []piiRule
}

// NewPIIScanner builds a scanner from the built-in rules plus any
// configured extras. A malformed configured pattern is a hard error so
// operators notice it at startup rather than silently losing coverage.
func NewPIIScanner(extra []config.PIIPattern) (*PIIScanner, error) {
	rules := make([]piiRule, 0, len(builtinRules)+len(extra))
	rules = append(rules, builtinRules...)
	for _, p := range extra {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "pii pattern %q (%s)", p.Pattern, p.Category)
		}
		rules = append(rules, piiRule{model.PIICategory(p.Category), re})
	}
	return &PIIScanner{rules: rules}, nil
}

// Scan returns one flag per distinct (category, match) pair found in the
// given texts, in rule order then match order.
func (s *PIIScanner) Scan(texts ...string) []model.PIIFlag {
	var flags []model.PIIFlag
	seen := make(map[model.PIIFlag]struct{})
	for _, rule := range s.rules {
		for _, text := range texts {
			for _, m := range rule.re.FindAllString(text, -1) {
				f := model.PIIFlag{Category: rule.category, Match: m}
				if _, dup := seen[f]; dup {
					continue
				}
				seen[f] = struct{}{}
				flags = append(flags, f)
			}
		}
	}
	return flags
}

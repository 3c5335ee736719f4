// Package codecheck runs fast, deterministic checks against generated code.
// It never calls a model and holds no state between calls.
package codecheck

import (
	"regexp"
	"strings"

	"sitegen/internal/types"
)

// Rule is one independent predicate over an artifact. Check returns the
// findings it raises, or nil when the artifact passes.
type Rule interface {
	Name() string
	Check(code string) []types.Finding
}

// Validator evaluates an ordered set of rules. Rule order only affects the
// enumeration order of findings.
type Validator struct {
	rules []Rule
}

// New returns a validator over rules; with no rules it uses DefaultRules.
func New(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{rules: append([]Rule(nil), rules...)}
}

// With returns a copy of v with extra rules appended.
func (v *Validator) With(rules ...Rule) *Validator {
	out := append(append([]Rule(nil), v.rules...), rules...)
	return &Validator{rules: out}
}

// Rules returns the names of the configured rules in evaluation order.
func (v *Validator) Rules() []string {
	out := make([]string, 0, len(v.rules))
	for _, r := range v.rules {
		out = append(out, r.Name())
	}
	return out
}

// Validate runs every rule and splits findings into errors and warnings.
func (v *Validator) Validate(code types.CodeArtifact) types.ValidationResult {
	res := types.ValidationResult{
		Errors:   []types.Finding{},
		Warnings: []types.Finding{},
	}
	for _, r := range v.rules {
		for _, f := range r.Check(string(code)) {
			if f.Rule == "" {
				f.Rule = r.Name()
			}
			switch f.Kind {
			case types.FindingError:
				res.Errors = append(res.Errors, f)
			default:
				f.Kind = types.FindingWarning
				res.Warnings = append(res.Warnings, f)
			}
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// DefaultRules is the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		Contains{
			RuleName: "default-export",
			Marker:   "export default",
			Negate:   true,
			Finding:  types.Finding{Kind: types.FindingError, Message: "Missing default export", Severity: types.SeverityError},
		},
		Contains{
			RuleName: "dangerous-html",
			Marker:   "dangerouslySetInnerHTML",
			Finding:  types.Finding{Kind: types.FindingWarning, Message: "Found dangerouslySetInnerHTML - review for XSS vulnerabilities", Category: types.CategorySecurity},
		},
		Pattern{
			RuleName: "inline-style",
			Re:       regexp.MustCompile(`style=\{\{`),
			Finding:  types.Finding{Kind: types.FindingWarning, Message: "Found inline styles - consider using Tailwind classes", Category: types.CategoryStyle},
		},
	}
}

// Contains raises Finding when Marker occurs in the code, or when it is
// absent if Negate is set. Line points at the first occurrence.
type Contains struct {
	RuleName string
	Marker   string
	Negate   bool
	Finding  types.Finding
}

func (c Contains) Name() string { return c.RuleName }

func (c Contains) Check(code string) []types.Finding {
	idx := strings.Index(code, c.Marker)
	if c.Negate {
		if idx >= 0 {
			return nil
		}
		return []types.Finding{c.Finding}
	}
	if idx < 0 {
		return nil
	}
	f := c.Finding
	f.Line = lineOf(code, idx)
	return []types.Finding{f}
}

// Pattern raises Finding once when Re matches anywhere in the code.
type Pattern struct {
	RuleName string
	Re       *regexp.Regexp
	Finding  types.Finding
}

func (p Pattern) Name() string { return p.RuleName }

func (p Pattern) Check(code string) []types.Finding {
	loc := p.Re.FindStringIndex(code)
	if loc == nil {
		return nil
	}
	f := p.Finding
	f.Line = lineOf(code, loc[0])
	return []types.Finding{f}
}

func lineOf(code string, offset int) int {
	return strings.Count(code[:offset], "\n") + 1
}

// Package ruleset models the detection/classification rule hierarchy used
// by pattern-matching analysers and classifiers, and the loader that
// resolves a ruleset URI ("{provider}/{name}/{version}") to a parsed
// Ruleset value.
package ruleset

import (
	"fmt"
	"regexp"
)

// Rule is the common shape shared by DetectionRule and ClassificationRule:
// a unique name, the compliance regulations it relates to, and the patterns
// it matches against.
type Rule struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	RiskLevel   string   `yaml:"risk_level"`
	Regulations []string `yaml:"regulations"`
	Patterns    []string `yaml:"patterns"`
	// ValuePatterns are regular expressions matched against field values
	// rather than field names/keys (e.g. an email-address shape check).
	ValuePatterns []string `yaml:"value_patterns,omitempty"`
}

// Validate checks Rule-level invariants shared by every rule kind.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule: name must not be empty")
	}
	if len(r.Patterns) == 0 && len(r.ValuePatterns) == 0 {
		return fmt.Errorf("rule %q: must declare at least one pattern or value_pattern", r.Name)
	}
	for _, p := range r.ValuePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("rule %q: invalid value_pattern %q: %w", r.Name, p, err)
		}
	}
	return nil
}

// RuleName returns the rule's unique name, used by Ruleset to enforce
// uniqueness within a ruleset.
func (r *Rule) RuleName() string { return r.Name }

// DetectionRule identifies the presence of a category of data (e.g.
// "contains email addresses") without assigning it to a single class.
type DetectionRule struct {
	Rule `yaml:",inline"`
}

// ClassificationRule assigns matched data to exactly one class (e.g. a GDPR
// data-subject category) and so additionally declares the class it
// produces.
type ClassificationRule struct {
	Rule  `yaml:",inline"`
	Class string `yaml:"class"`
}

// Validate extends Rule.Validate with the Class requirement.
func (c *ClassificationRule) Validate() error {
	if err := c.Rule.Validate(); err != nil {
		return err
	}
	if c.Class == "" {
		return fmt.Errorf("classification rule %q: class must not be empty", c.Name)
	}
	return nil
}

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// RuleLike is implemented by *DetectionRule and *ClassificationRule.
type RuleLike interface {
	Validate() error
	RuleName() string
}

// Ruleset is a named, versioned, homogeneous collection of rules. R is
// either *DetectionRule or *ClassificationRule.
type Ruleset[R RuleLike] struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Rules   []R    `yaml:"rules"`
}

// Validate checks the ruleset's version format and per-rule invariants, and
// enforces that rule names are unique within the ruleset.
func (rs *Ruleset[R]) Validate() error {
	if rs.Name == "" {
		return fmt.Errorf("ruleset: name must not be empty")
	}
	if !semverPattern.MatchString(rs.Version) {
		return fmt.Errorf("ruleset %q: version %q is not of the form MAJOR.MINOR.PATCH", rs.Name, rs.Version)
	}
	if len(rs.Rules) == 0 {
		return fmt.Errorf("ruleset %q: must declare at least one rule", rs.Name)
	}
	seen := make(map[string]struct{}, len(rs.Rules))
	for _, r := range rs.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
		n := r.RuleName()
		if _, dup := seen[n]; dup {
			return fmt.Errorf("ruleset %q: duplicate rule name %q", rs.Name, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// RuleByName returns the rule with the given name, or nil if absent.
func (rs *Ruleset[R]) RuleByName(name string) (r R, ok bool) {
	for _, r := range rs.Rules {
		if r.RuleName() == name {
			return r, true
		}
	}
	var zero R
	return zero, false
}

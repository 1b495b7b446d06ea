// Package rules implements the priority-ordered categorization rule engine.
//
// Rules are compiled once at engine construction: regex patterns are
// precompiled into a parallel structure keyed by rule position (never global
// state) and rules are stable-sorted by descending priority, so equal
// priorities keep declaration order. Evaluation assigns at most one rule per
// transaction: the first match in sorted order wins.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"statement-import-service/internal/models"
	"statement-import-service/internal/similarity"
	"statement-import-service/pkg/logger"
)

// MatchType selects the pattern test a rule applies to a description.
type MatchType int

const (
	// MatchContains is a case-insensitive substring test.
	MatchContains MatchType = iota

	// MatchExact is a case-insensitive full match.
	MatchExact

	// MatchRegex searches the pattern against the raw description.
	MatchRegex

	// MatchFuzzy accepts when the normalized similarity between the
	// lowercased description and pattern reaches the rule's threshold.
	MatchFuzzy
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchContains:
		return "contains"
	case MatchExact:
		return "exact"
	case MatchRegex:
		return "regex"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// ParseMatchType parses a match type from its string form. Fuzzy matching
// carries its threshold inline, e.g. "fuzzy:0.8".
func ParseMatchType(s string) (MatchType, float64, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(s)); {
	case normalized == "contains":
		return MatchContains, 0, nil
	case normalized == "exact":
		return MatchExact, 0, nil
	case normalized == "regex":
		return MatchRegex, 0, nil
	case strings.HasPrefix(normalized, "fuzzy:"):
		threshold, err := strconv.ParseFloat(normalized[len("fuzzy:"):], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid fuzzy threshold in %q", s)
		}
		return MatchFuzzy, threshold, nil
	default:
		return 0, 0, fmt.Errorf("unknown match type %q", s)
	}
}

// Rule assigns an account code to transactions whose description matches
// Pattern under Match, optionally constrained to an inclusive cent-amount
// range. Higher Priority wins; FuzzyThreshold applies only to MatchFuzzy.
type Rule struct {
	Name           string    `json:"name"`
	Priority       int       `json:"priority"`
	Pattern        string    `json:"pattern"`
	Match          MatchType `json:"match_type"`
	FuzzyThreshold float64   `json:"fuzzy_threshold,omitempty"`
	AccountCode    string    `json:"account_code"`
	AmountMinCents *int64    `json:"amount_min_cents,omitempty"`
	AmountMaxCents *int64    `json:"amount_max_cents,omitempty"`
}

// compiledRule pairs a rule with its precompiled regex. A nil regex on a
// MatchRegex rule means the pattern failed to compile and the rule never
// matches.
type compiledRule struct {
	rule  Rule
	regex *regexp.Regexp
}

// Engine evaluates a compiled, priority-sorted rule set. Construction owns
// all compilation; evaluation is read-only and safe for concurrent use.
type Engine struct {
	rules  []compiledRule
	logger logger.Logger
}

// NewEngine compiles a rule set. An invalid regex pattern disables that one
// rule rather than failing construction, so one bad rule cannot block the
// rest of the set.
func NewEngine(ruleSet []Rule) *Engine {
	log := logger.WithComponent("rule_engine")

	compiled := make([]compiledRule, 0, len(ruleSet))
	for _, rule := range ruleSet {
		cr := compiledRule{rule: rule}
		if rule.Match == MatchRegex {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				log.WithError(err).WithField("rule", rule.Name).
					Warn("Rule has an invalid regex pattern and will never match")
			} else {
				cr.regex = re
			}
		}
		compiled = append(compiled, cr)
	}

	// Highest priority first; stable, so declaration order breaks ties.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority > compiled[j].rule.Priority
	})

	return &Engine{rules: compiled, logger: log}
}

// Rules returns the compiled rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, cr := range e.rules {
		out = append(out, cr.rule)
	}
	return out
}

// FindMatchingRule returns the highest-priority rule matching the
// transaction, or nil when none match.
func (e *Engine) FindMatchingRule(tx *models.Transaction) *Rule {
	for i := range e.rules {
		if e.rules[i].matches(tx) {
			return &e.rules[i].rule
		}
	}
	return nil
}

// RuleMatch pairs a transaction's position in the input batch with the rule
// assigned to it.
type RuleMatch struct {
	Index int   `json:"index"`
	Rule  *Rule `json:"rule"`
}

// Apply categorizes a batch, returning matches only for transactions with
// at least one matching rule, in input order.
func (e *Engine) Apply(transactions []*models.Transaction) []RuleMatch {
	var matches []RuleMatch
	for i, tx := range transactions {
		if rule := e.FindMatchingRule(tx); rule != nil {
			matches = append(matches, RuleMatch{Index: i, Rule: rule})
		}
	}

	e.logger.WithFields(logger.Fields{
		"transactions": len(transactions),
		"categorized":  len(matches),
	}).Debug("Applied categorization rules")

	return matches
}

func (cr *compiledRule) matches(tx *models.Transaction) bool {
	rule := &cr.rule

	// Amount bounds are inclusive; an absent bound is unconstrained.
	if rule.AmountMinCents != nil && tx.AmountCents < *rule.AmountMinCents {
		return false
	}
	if rule.AmountMaxCents != nil && tx.AmountCents > *rule.AmountMaxCents {
		return false
	}

	text := strings.ToLower(tx.Description)
	pattern := strings.ToLower(rule.Pattern)

	switch rule.Match {
	case MatchContains:
		return strings.Contains(text, pattern)
	case MatchExact:
		return text == pattern
	case MatchRegex:
		return cr.regex != nil && cr.regex.MatchString(tx.Description)
	case MatchFuzzy:
		return similarity.Score(text, pattern) >= rule.FuzzyThreshold
	default:
		return false
	}
}

// Package matcher pairs imported transactions with existing ledger entries
// and detects duplicates within an imported batch.
//
// Matching evaluates every candidate independently per imported transaction:
//  1. Reject when the amount difference exceeds the tolerance.
//  2. Reject when the date distance exceeds the window.
//  3. An exact date and amount hit short-circuits with full confidence.
//  4. Otherwise confidence blends a date proximity score with normalized
//     description similarity, and the candidate must clear the fuzzy
//     threshold.
//
// The best accepted candidate wins; equal-confidence ties break to the
// lowest existing transaction id so results do not depend on candidate
// order. No global one-to-one assignment is enforced: the same existing
// transaction may be the best match for several imported transactions.
package matcher

import (
	"fmt"
)

// MatchType classifies the quality of a transaction match.
type MatchType int

const (
	// MatchExact is a same-date, same-amount hit requiring no review.
	MatchExact MatchType = iota

	// MatchDateAndAmount has the same date and an amount within tolerance
	// but not identical.
	MatchDateAndAmount

	// MatchFuzzy cleared the confidence threshold on blended date and
	// description scores.
	MatchFuzzy

	// MatchNone means no candidate was acceptable. This is a first-class
	// result, not an error.
	MatchNone
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchExact:
		return "Exact"
	case MatchDateAndAmount:
		return "DateAndAmount"
	case MatchFuzzy:
		return "Fuzzy"
	case MatchNone:
		return "None"
	default:
		return "Unknown"
	}
}

// Config holds the thresholds for auto-matching. Thresholds are static per
// call; the engine never adapts them.
type Config struct {
	// DateWindowDays is the maximum date distance, in days, for an
	// existing transaction to be comparable at all.
	DateWindowDays int `json:"date_window_days"`

	// FuzzyThreshold is the minimum confidence (0-1) required to accept a
	// non-exact match.
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	// AmountToleranceCents is the maximum absolute amount difference.
	AmountToleranceCents int64 `json:"amount_tolerance_cents"`
}

// DefaultConfig returns thresholds suited to typical statement imports.
func DefaultConfig() *Config {
	return &Config{
		DateWindowDays:       3,
		FuzzyThreshold:       0.7,
		AmountToleranceCents: 1,
	}
}

// StrictConfig returns thresholds that only accept near-certain matches.
func StrictConfig() *Config {
	return &Config{
		DateWindowDays:       1,
		FuzzyThreshold:       0.9,
		AmountToleranceCents: 0,
	}
}

// RelaxedConfig returns thresholds for exploratory matching of noisy data.
func RelaxedConfig() *Config {
	return &Config{
		DateWindowDays:       7,
		FuzzyThreshold:       0.55,
		AmountToleranceCents: 100,
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", c.DateWindowDays)
	}

	if c.FuzzyThreshold < 0.0 || c.FuzzyThreshold > 1.0 {
		return fmt.Errorf("fuzzy threshold must be between 0.0 and 1.0: %f", c.FuzzyThreshold)
	}

	if c.AmountToleranceCents < 0 {
		return fmt.Errorf("amount tolerance cents cannot be negative: %d", c.AmountToleranceCents)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{DateWindow: %d days, FuzzyThreshold: %.2f, AmountTolerance: %d cents}",
		c.DateWindowDays, c.FuzzyThreshold, c.AmountToleranceCents)
}

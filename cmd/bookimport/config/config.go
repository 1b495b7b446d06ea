// Package config translates CLI flag values into engine configurations.
package config

import (
	"fmt"

	"statement-import-service/internal/matcher"
	"statement-import-service/internal/parsers"
	"statement-import-service/internal/reporter"
)

// ProfileFlags carries the raw CSV profile flag values. Column flags use
// -1 for "not mapped".
type ProfileFlags struct {
	Name              string
	DateColumn        int
	DescriptionColumn int
	AmountColumn      int
	DebitColumn       int
	CreditColumn      int
	MemoColumn        int
	DateFormat        string
	Delimiter         string
	HasHeader         bool
}

// BuildProfile converts flag values into an import profile.
func BuildProfile(flags ProfileFlags) (*parsers.Profile, error) {
	profile := parsers.DefaultProfile()

	if flags.Name != "" {
		profile.Name = flags.Name
	}
	profile.HasHeader = flags.HasHeader

	if flags.Delimiter != "" {
		runes := []rune(flags.Delimiter)
		if len(runes) != 1 {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", flags.Delimiter)
		}
		profile.Delimiter = runes[0]
	}

	if flags.DateFormat != "" {
		profile.Mapping.DateFormat = flags.DateFormat
	}
	profile.Mapping.DateColumn = columnIndex(flags.DateColumn)
	profile.Mapping.DescriptionColumn = columnIndex(flags.DescriptionColumn)
	profile.Mapping.AmountColumn = columnIndex(flags.AmountColumn)
	profile.Mapping.DebitColumn = columnIndex(flags.DebitColumn)
	profile.Mapping.CreditColumn = columnIndex(flags.CreditColumn)
	profile.Mapping.MemoColumn = columnIndex(flags.MemoColumn)

	return profile, nil
}

// LedgerProfile returns the fixed profile for existing-ledger snapshot
// files: a headered CSV with date, description and amount columns.
func LedgerProfile() *parsers.Profile {
	profile := parsers.DefaultProfile()
	profile.Name = "Ledger Snapshot"
	profile.Mapping.DateColumn = columnIndex(0)
	profile.Mapping.DescriptionColumn = columnIndex(1)
	profile.Mapping.AmountColumn = columnIndex(2)
	return profile
}

// BuildMatchConfig creates a matching configuration with the specified
// thresholds applied over the defaults.
func BuildMatchConfig(dateWindowDays int, fuzzyThreshold float64, amountToleranceCents int64) (*matcher.Config, error) {
	cfg := matcher.DefaultConfig()
	cfg.DateWindowDays = dateWindowDays
	cfg.FuzzyThreshold = fuzzyThreshold
	cfg.AmountToleranceCents = amountToleranceCents

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildReportConfig creates a report configuration for the requested
// output format.
func BuildReportConfig(format string) (*reporter.ReportConfig, error) {
	cfg := reporter.DefaultReportConfig()

	switch reporter.OutputFormat(format) {
	case reporter.FormatConsole:
		cfg.Format = reporter.FormatConsole
	case reporter.FormatJSON:
		cfg.Format = reporter.FormatJSON
	case reporter.FormatCSV:
		cfg.Format = reporter.FormatCSV
		cfg.CSVHeaders = true
		cfg.CSVDelimiter = ','
	default:
		return nil, fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", format)
	}

	return cfg, nil
}

func columnIndex(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

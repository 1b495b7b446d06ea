// Package importer orchestrates the statement import pipeline.
//
// One import run moves a statement file through four stages:
//  1. Parse the file into a batch of canonical transactions with
//     batch-local ids.
//  2. Scan the batch for internal duplicates.
//  3. Auto-match the batch against a snapshot of existing ledger
//     transactions.
//  4. Categorize whatever the matcher left unmatched, since a matched
//     transaction inherits its category from its ledger counterpart.
//
// Stages two through four are pure functions of their inputs; the importer
// holds only configuration and a logger.
package importer

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"statement-import-service/internal/matcher"
	"statement-import-service/internal/models"
	"statement-import-service/internal/parsers"
	"statement-import-service/internal/rules"
	"statement-import-service/pkg/errors"
	"statement-import-service/pkg/logger"
)

// Options configures one import run.
type Options struct {
	// MatchConfig holds the auto-match thresholds. Nil selects
	// matcher.DefaultConfig.
	MatchConfig *matcher.Config

	// DetectDuplicates enables the in-batch duplicate scan.
	DetectDuplicates bool

	// DuplicateWindowDays and DuplicateThreshold gate the duplicate scan.
	// Zero values fall back to the matcher defaults for the same knobs.
	DuplicateWindowDays int
	DuplicateThreshold  float64

	// Rules is the categorization rule set applied to unmatched
	// transactions. An empty set skips the stage.
	Rules []rules.Rule
}

// DefaultOptions returns options with default matching thresholds,
// duplicate detection enabled and no rules.
func DefaultOptions() *Options {
	base := matcher.DefaultConfig()
	return &Options{
		MatchConfig:         base,
		DetectDuplicates:    true,
		DuplicateWindowDays: base.DateWindowDays,
		DuplicateThreshold:  base.FuzzyThreshold,
	}
}

// Validate checks the options for internal consistency.
func (o *Options) Validate() error {
	if o.MatchConfig != nil {
		if err := o.MatchConfig.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "match_config", o.MatchConfig.String(), err)
		}
	}
	if o.DuplicateWindowDays < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "duplicate_window_days", o.DuplicateWindowDays, nil)
	}
	if o.DuplicateThreshold < 0 || o.DuplicateThreshold > 1 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "duplicate_threshold", o.DuplicateThreshold, nil)
	}
	return nil
}

// Summary aggregates the per-stage counts of one import run.
type Summary struct {
	TotalTransactions int `json:"total_transactions"`
	ExactMatches      int `json:"exact_matches"`
	CloseMatches      int `json:"close_matches"`
	FuzzyMatches      int `json:"fuzzy_matches"`
	Unmatched         int `json:"unmatched"`
	DuplicatePairs    int `json:"duplicate_pairs"`
	Categorized       int `json:"categorized"`
}

// Result is the complete outcome of one import run. Transactions carry
// batch-local ids starting at 1, in file order; Matches is parallel to
// Transactions.
type Result struct {
	BatchID      string                  `json:"batch_id"`
	SourceFile   string                  `json:"source_file,omitempty"`
	Transactions []*models.Transaction   `json:"transactions"`
	Matches      []*matcher.MatchResult  `json:"matches"`
	Duplicates   []matcher.DuplicatePair `json:"duplicates,omitempty"`
	Categories   []rules.RuleMatch       `json:"categories,omitempty"`
	Summary      Summary                 `json:"summary"`
	Duration     time.Duration           `json:"duration"`
}

// Importer runs the import pipeline. Construct with NewImporter; the zero
// value is not usable.
type Importer struct {
	options *Options
	logger  logger.Logger
}

// NewImporter creates an importer. A nil options selects DefaultOptions.
func NewImporter(options *Options) (*Importer, error) {
	if options == nil {
		options = DefaultOptions()
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Importer{
		options: options,
		logger:  logger.WithComponent("importer"),
	}, nil
}

// Format selects the statement file format for an import run.
type Format string

const (
	// FormatAuto infers the format from the file extension: ".ofx"
	// selects OFX, anything else is read as delimited text.
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatOFX  Format = "ofx"
)

// ImportFile parses path in the given format and runs the full pipeline
// against the existing ledger snapshot.
func (imp *Importer) ImportFile(path string, format Format, profile *parsers.Profile, existing []*models.Transaction) (*Result, error) {
	if format == FormatAuto || format == "" {
		format = FormatCSV
		if strings.EqualFold(filepath.Ext(path), ".ofx") {
			format = FormatOFX
		}
	}

	var (
		batch []*models.Transaction
		err   error
	)

	switch format {
	case FormatOFX:
		batch, err = imp.parseOFXFile(path)
	case FormatCSV:
		batch, err = imp.parseCSVFile(path, profile)
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "format", string(format), nil)
	}
	if err != nil {
		return nil, err
	}

	result := imp.Process(batch, existing)
	result.SourceFile = path
	return result, nil
}

// Process runs duplicate detection, auto-matching and categorization over
// an already-parsed batch. The batch is not modified.
func (imp *Importer) Process(batch, existing []*models.Transaction) *Result {
	start := time.Now()

	result := &Result{
		BatchID:      uuid.New().String(),
		Transactions: batch,
	}

	log := imp.logger.WithFields(logger.Fields{
		"batch_id":   result.BatchID,
		"batch_size": len(batch),
		"existing":   len(existing),
	})
	log.Info("Starting import run")

	if imp.options.DetectDuplicates {
		result.Duplicates = matcher.FindDuplicates(batch,
			imp.duplicateWindowDays(), imp.duplicateThreshold())
	}

	engine := matcher.NewEngine(imp.options.MatchConfig)
	result.Matches = engine.FindMatches(batch, existing)

	result.Categories = imp.categorizeUnmatched(batch, result.Matches)

	result.Summary = summarize(result)
	result.Duration = time.Since(start)

	log.WithFields(logger.Fields{
		"matched":     result.Summary.TotalTransactions - result.Summary.Unmatched,
		"unmatched":   result.Summary.Unmatched,
		"duplicates":  result.Summary.DuplicatePairs,
		"categorized": result.Summary.Categorized,
		"duration":    result.Duration.String(),
	}).Info("Finished import run")

	return result
}

// Options returns the importer's options.
func (imp *Importer) Options() *Options {
	return imp.options
}

func (imp *Importer) parseCSVFile(path string, profile *parsers.Profile) ([]*models.Transaction, error) {
	f, err := openStatement(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := parsers.ImportCSV(f, profile)
	if err != nil {
		return nil, err
	}

	batch := make([]*models.Transaction, 0, len(parsed))
	for i, tx := range parsed {
		t := tx.Transaction
		t.ID = int64(i) + 1
		batch = append(batch, &t)
	}
	return batch, nil
}

func (imp *Importer) parseOFXFile(path string) ([]*models.Transaction, error) {
	f, err := openStatement(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stmt, err := parsers.ImportOFX(f)
	if err != nil {
		return nil, err
	}

	batch := make([]*models.Transaction, 0, len(stmt.Transactions))
	for i, tx := range stmt.Transactions {
		t := tx.Transaction()
		t.ID = int64(i) + 1
		batch = append(batch, t)
	}
	return batch, nil
}

// categorizeUnmatched runs the rule engine over the transactions the
// matcher could not pair, translating rule-match indices back to batch
// positions.
func (imp *Importer) categorizeUnmatched(batch []*models.Transaction, matches []*matcher.MatchResult) []rules.RuleMatch {
	if len(imp.options.Rules) == 0 {
		return nil
	}

	var (
		unmatched []*models.Transaction
		positions []int
	)
	for i, m := range matches {
		if m.Type == matcher.MatchNone {
			unmatched = append(unmatched, batch[i])
			positions = append(positions, i)
		}
	}
	if len(unmatched) == 0 {
		return nil
	}

	engine := rules.NewEngine(imp.options.Rules)

	categorized := engine.Apply(unmatched)
	for i := range categorized {
		categorized[i].Index = positions[categorized[i].Index]
	}
	return categorized
}

func (imp *Importer) duplicateWindowDays() int {
	if imp.options.DuplicateWindowDays > 0 {
		return imp.options.DuplicateWindowDays
	}
	return matcher.DefaultConfig().DateWindowDays
}

func (imp *Importer) duplicateThreshold() float64 {
	if imp.options.DuplicateThreshold > 0 {
		return imp.options.DuplicateThreshold
	}
	return matcher.DefaultConfig().FuzzyThreshold
}

func summarize(result *Result) Summary {
	summary := Summary{
		TotalTransactions: len(result.Transactions),
		DuplicatePairs:    len(result.Duplicates),
		Categorized:       len(result.Categories),
	}

	for _, m := range result.Matches {
		switch m.Type {
		case matcher.MatchExact:
			summary.ExactMatches++
		case matcher.MatchDateAndAmount:
			summary.CloseMatches++
		case matcher.MatchFuzzy:
			summary.FuzzyMatches++
		case matcher.MatchNone:
			summary.Unmatched++
		}
	}
	return summary
}

func openStatement(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeIOError, path, err)
	}
	return f, nil
}

// Package reporter renders import results for operators and downstream
// tools.
//
// Three output formats are supported:
//   - Console: human-readable summary tables for terminal display
//   - JSON: the full result structure for programmatic consumption
//   - CSV: one row per imported transaction with its match decision
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"statement-import-service/internal/importer"
	"statement-import-service/internal/matcher"
	"statement-import-service/internal/models"
	"statement-import-service/pkg/errors"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console detail options
	IncludeMatches    bool `json:"include_matches"`
	IncludeUnmatched  bool `json:"include_unmatched"`
	IncludeDuplicates bool `json:"include_duplicates"`
	IncludeCategories bool `json:"include_categories"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeMatches:    true,
		IncludeUnmatched:  true,
		IncludeDuplicates: true,
		IncludeCategories: true,
		CSVDelimiter:      ',',
		CSVHeaders:        true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output_format", string(c.Format), nil)
	}
	return nil
}

// Generator renders import results in the configured format.
type Generator struct {
	config *ReportConfig
}

// NewGenerator creates a report generator. A nil config selects
// DefaultReportConfig.
func NewGenerator(config *ReportConfig) (*Generator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// Generate writes the report for one import result to writer.
func (g *Generator) Generate(result *importer.Result, writer io.Writer) error {
	switch g.config.Format {
	case FormatJSON:
		return g.generateJSON(result, writer)
	case FormatCSV:
		return g.generateCSV(result, writer)
	default:
		return g.generateConsole(result, writer)
	}
}

func (g *Generator) generateJSON(result *importer.Result, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "failed to encode JSON report")
	}
	return nil
}

// generateCSV emits one row per imported transaction, joined with its
// match decision and assigned category.
func (g *Generator) generateCSV(result *importer.Result, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if g.config.CSVDelimiter != 0 {
		w.Comma = g.config.CSVDelimiter
	}

	if g.config.CSVHeaders {
		header := []string{"id", "date", "description", "amount", "match_type", "matched_id", "confidence", "account_code"}
		if err := w.Write(header); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "failed to write CSV report")
		}
	}

	categories := categoryByIndex(result)

	for i, tx := range result.Transactions {
		match := result.Matches[i]

		matchedID := ""
		if match.MatchedID != nil {
			matchedID = strconv.FormatInt(*match.MatchedID, 10)
		}
		accountCode := ""
		if rule, ok := categories[i]; ok {
			accountCode = rule
		}

		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.Format("2006-01-02"),
			tx.Description,
			models.FormatCents(tx.AmountCents),
			match.Type.String(),
			matchedID,
			strconv.FormatFloat(match.Confidence, 'f', 2, 64),
			accountCode,
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "failed to write CSV report")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.CodeUnexpectedError, "failed to write CSV report")
	}
	return nil
}

func (g *Generator) generateConsole(result *importer.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "Import Report\n")
	fmt.Fprintf(writer, "=============\n\n")
	fmt.Fprintf(writer, "Batch:    %s\n", result.BatchID)
	if result.SourceFile != "" {
		fmt.Fprintf(writer, "Source:   %s\n", result.SourceFile)
	}
	fmt.Fprintf(writer, "Duration: %s\n\n", result.Duration)

	g.printSummary(&result.Summary, writer)

	if g.config.IncludeMatches {
		g.printMatches(result, writer)
	}
	if g.config.IncludeUnmatched {
		g.printUnmatched(result, writer)
	}
	if g.config.IncludeDuplicates && len(result.Duplicates) > 0 {
		g.printDuplicates(result, writer)
	}
	if g.config.IncludeCategories && len(result.Categories) > 0 {
		g.printCategories(result, writer)
	}

	return nil
}

func (g *Generator) printSummary(summary *importer.Summary, writer io.Writer) {
	matched := summary.ExactMatches + summary.CloseMatches + summary.FuzzyMatches

	fmt.Fprintf(writer, "Summary\n")
	fmt.Fprintf(writer, "-------\n")
	fmt.Fprintf(writer, "  Transactions:    %d\n", summary.TotalTransactions)
	fmt.Fprintf(writer, "  Matched:         %d (%.1f%%)\n", matched, percentage(matched, summary.TotalTransactions))
	fmt.Fprintf(writer, "    Exact:         %d\n", summary.ExactMatches)
	fmt.Fprintf(writer, "    Date+Amount:   %d\n", summary.CloseMatches)
	fmt.Fprintf(writer, "    Fuzzy:         %d\n", summary.FuzzyMatches)
	fmt.Fprintf(writer, "  Unmatched:       %d\n", summary.Unmatched)
	fmt.Fprintf(writer, "  Duplicate pairs: %d\n", summary.DuplicatePairs)
	fmt.Fprintf(writer, "  Categorized:     %d\n\n", summary.Categorized)
}

func (g *Generator) printMatches(result *importer.Result, writer io.Writer) {
	var lines []string
	for i, match := range result.Matches {
		if match.Type == matcher.MatchNone {
			continue
		}
		tx := result.Transactions[i]
		lines = append(lines, fmt.Sprintf("  %-4d %s  %12s  %-13s conf=%.2f -> existing #%d",
			tx.ID, tx.Date.Format("2006-01-02"), models.FormatCents(tx.AmountCents),
			match.Type.String(), match.Confidence, *match.MatchedID))
	}
	if len(lines) == 0 {
		return
	}

	fmt.Fprintf(writer, "Matches\n")
	fmt.Fprintf(writer, "-------\n")
	fmt.Fprintln(writer, strings.Join(lines, "\n"))
	fmt.Fprintln(writer)
}

func (g *Generator) printUnmatched(result *importer.Result, writer io.Writer) {
	var lines []string
	for i, match := range result.Matches {
		if match.Type != matcher.MatchNone {
			continue
		}
		tx := result.Transactions[i]
		lines = append(lines, fmt.Sprintf("  %-4d %s  %12s  %s",
			tx.ID, tx.Date.Format("2006-01-02"), models.FormatCents(tx.AmountCents), tx.Description))
	}
	if len(lines) == 0 {
		return
	}

	fmt.Fprintf(writer, "Unmatched Transactions\n")
	fmt.Fprintf(writer, "----------------------\n")
	fmt.Fprintln(writer, strings.Join(lines, "\n"))
	fmt.Fprintln(writer)
}

func (g *Generator) printDuplicates(result *importer.Result, writer io.Writer) {
	fmt.Fprintf(writer, "Possible Duplicates\n")
	fmt.Fprintf(writer, "-------------------\n")
	for _, pair := range result.Duplicates {
		fmt.Fprintf(writer, "  #%d <-> #%d\n", pair.FirstID, pair.SecondID)
	}
	fmt.Fprintln(writer)
}

func (g *Generator) printCategories(result *importer.Result, writer io.Writer) {
	fmt.Fprintf(writer, "Categorized Transactions\n")
	fmt.Fprintf(writer, "------------------------\n")
	for _, cat := range result.Categories {
		tx := result.Transactions[cat.Index]
		fmt.Fprintf(writer, "  %-4d %-40s -> %s (%s)\n",
			tx.ID, tx.Description, cat.Rule.AccountCode, cat.Rule.Name)
	}
	fmt.Fprintln(writer)
}

// GetConfiguration returns the generator's configuration.
func (g *Generator) GetConfiguration() *ReportConfig {
	clone := *g.config
	return &clone
}

// categoryByIndex maps batch positions to assigned account codes.
func categoryByIndex(result *importer.Result) map[int]string {
	out := make(map[int]string, len(result.Categories))
	for _, cat := range result.Categories {
		out[cat.Index] = cat.Rule.AccountCode
	}
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

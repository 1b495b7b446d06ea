package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement-import-service/cmd/bookimport/config"
	"statement-import-service/internal/importer"
	"statement-import-service/internal/models"
	"statement-import-service/internal/parsers"
	"statement-import-service/internal/reporter"
	"statement-import-service/internal/rules"
)

// Flags for the import command
var (
	fileFormat   string
	existingFile string
	rulesFile    string
	outputFormat string
	outputFile   string

	// CSV profile flags
	profileName       string
	dateColumn        int
	descriptionColumn int
	amountColumn      int
	debitColumn       int
	creditColumn      int
	memoColumn        int
	dateFormat        string
	delimiter         string
	hasHeader         bool

	// Matching flags
	dateWindowDays       int
	fuzzyThreshold       float64
	amountToleranceCents int64

	// Duplicate detection flags
	detectDuplicates   bool
	duplicateWindow    int
	duplicateThreshold float64
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <statement-file>",
	Short: "Import a bank statement and match it against an existing ledger",
	Long: `Import parses a bank statement export, scans the batch for duplicate
transactions, auto-matches it against an existing ledger snapshot and
categorizes unmatched transactions with a rule set.

CSV imports are driven by a column mapping profile; OFX imports need no
mapping. The existing ledger snapshot is a headered CSV with date,
description and amount columns.

Examples:
  # CSV import with a single amount column
  bookimport import statement.csv --date-column 0 --description-column 1 --amount-column 2

  # CSV import with split debit/credit columns and a custom date format
  bookimport import statement.csv --date-column 0 --description-column 1 \
    --debit-column 2 --credit-column 3 --date-format 01/02/2006

  # OFX import matched against a ledger, with categorization rules
  bookimport import statement.ofx --existing-file ledger.csv --rules rules.yaml

  # Machine-readable output
  bookimport import statement.csv --date-column 0 --amount-column 2 \
    --output-format json --output-file result.json`,

	Args:    cobra.ExactArgs(1),
	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	// Format and input flags
	importCmd.Flags().StringVar(&fileFormat, "format", "auto", "statement format: auto, csv, ofx")
	importCmd.Flags().StringVarP(&existingFile, "existing-file", "e", "", "existing ledger snapshot CSV to match against")
	importCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "YAML categorization rule file")

	// Output flags
	importCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	importCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// CSV profile flags
	importCmd.Flags().StringVar(&profileName, "profile-name", "", "name of the import profile")
	importCmd.Flags().IntVar(&dateColumn, "date-column", -1, "zero-based date column index")
	importCmd.Flags().IntVar(&descriptionColumn, "description-column", -1, "zero-based description column index")
	importCmd.Flags().IntVar(&amountColumn, "amount-column", -1, "zero-based amount column index")
	importCmd.Flags().IntVar(&debitColumn, "debit-column", -1, "zero-based debit column index")
	importCmd.Flags().IntVar(&creditColumn, "credit-column", -1, "zero-based credit column index")
	importCmd.Flags().IntVar(&memoColumn, "memo-column", -1, "zero-based memo column index")
	importCmd.Flags().StringVar(&dateFormat, "date-format", "", "date layout in Go reference form (default 2006-01-02)")
	importCmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV field delimiter")
	importCmd.Flags().BoolVar(&hasHeader, "has-header", true, "statement file has a header row")

	// Matching flags
	importCmd.Flags().IntVarP(&dateWindowDays, "date-window", "d", 3, "date matching window in days")
	importCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-threshold", 0.7, "minimum confidence for non-exact matches (0.0-1.0)")
	importCmd.Flags().Int64VarP(&amountToleranceCents, "amount-tolerance-cents", "a", 1, "amount matching tolerance in cents")

	// Duplicate detection flags
	importCmd.Flags().BoolVar(&detectDuplicates, "detect-duplicates", true, "detect duplicate transactions within the batch")
	importCmd.Flags().IntVar(&duplicateWindow, "duplicate-window", 3, "duplicate detection date window in days")
	importCmd.Flags().Float64Var(&duplicateThreshold, "duplicate-threshold", 0.7, "duplicate detection similarity threshold (0.0-1.0)")

	// Bind flags to viper
	viper.BindPFlag("format", importCmd.Flags().Lookup("format"))
	viper.BindPFlag("existing-file", importCmd.Flags().Lookup("existing-file"))
	viper.BindPFlag("rules", importCmd.Flags().Lookup("rules"))
	viper.BindPFlag("output-format", importCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", importCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("date-window", importCmd.Flags().Lookup("date-window"))
	viper.BindPFlag("fuzzy-threshold", importCmd.Flags().Lookup("fuzzy-threshold"))
	viper.BindPFlag("amount-tolerance-cents", importCmd.Flags().Lookup("amount-tolerance-cents"))
	viper.BindPFlag("detect-duplicates", importCmd.Flags().Lookup("detect-duplicates"))
	viper.BindPFlag("duplicate-window", importCmd.Flags().Lookup("duplicate-window"))
	viper.BindPFlag("duplicate-threshold", importCmd.Flags().Lookup("duplicate-threshold"))
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	fileFormat = viper.GetString("format")
	existingFile = viper.GetString("existing-file")
	rulesFile = viper.GetString("rules")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	dateWindowDays = viper.GetInt("date-window")
	fuzzyThreshold = viper.GetFloat64("fuzzy-threshold")
	amountToleranceCents = viper.GetInt64("amount-tolerance-cents")
	detectDuplicates = viper.GetBool("detect-duplicates")
	duplicateWindow = viper.GetInt("duplicate-window")
	duplicateThreshold = viper.GetFloat64("duplicate-threshold")

	if err := validateFileExists(args[0], "statement file"); err != nil {
		return err
	}
	if existingFile != "" {
		if err := validateFileExists(existingFile, "existing ledger file"); err != nil {
			return err
		}
	}
	if rulesFile != "" {
		if err := validateFileExists(rulesFile, "rule file"); err != nil {
			return err
		}
	}

	switch fileFormat {
	case "auto", "csv", "ofx":
	default:
		return fmt.Errorf("invalid format '%s'. Valid formats: auto, csv, ofx", fileFormat)
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if dateWindowDays < 0 {
		return fmt.Errorf("date window cannot be negative")
	}
	if fuzzyThreshold < 0.0 || fuzzyThreshold > 1.0 {
		return fmt.Errorf("fuzzy threshold must be between 0.0 and 1.0")
	}
	if amountToleranceCents < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if duplicateWindow < 0 {
		return fmt.Errorf("duplicate window cannot be negative")
	}
	if duplicateThreshold < 0.0 || duplicateThreshold > 1.0 {
		return fmt.Errorf("duplicate threshold must be between 0.0 and 1.0")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	if err := executeImport(args[0]); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}

func executeImport(statementFile string) error {
	profile, err := config.BuildProfile(config.ProfileFlags{
		Name:              profileName,
		DateColumn:        dateColumn,
		DescriptionColumn: descriptionColumn,
		AmountColumn:      amountColumn,
		DebitColumn:       debitColumn,
		CreditColumn:      creditColumn,
		MemoColumn:        memoColumn,
		DateFormat:        dateFormat,
		Delimiter:         delimiter,
		HasHeader:         hasHeader,
	})
	if err != nil {
		return err
	}

	matchConfig, err := config.BuildMatchConfig(dateWindowDays, fuzzyThreshold, amountToleranceCents)
	if err != nil {
		return err
	}

	options := &importer.Options{
		MatchConfig:         matchConfig,
		DetectDuplicates:    detectDuplicates,
		DuplicateWindowDays: duplicateWindow,
		DuplicateThreshold:  duplicateThreshold,
	}

	if rulesFile != "" {
		ruleSet, err := rules.LoadFile(rulesFile)
		if err != nil {
			return err
		}
		options.Rules = ruleSet
	}

	imp, err := importer.NewImporter(options)
	if err != nil {
		return err
	}

	var existing []*models.Transaction
	if existingFile != "" {
		existing, err = loadLedgerSnapshot(existingFile)
		if err != nil {
			return err
		}
	}

	result, err := imp.ImportFile(statementFile, importer.Format(fileFormat), profile, existing)
	if err != nil {
		return err
	}

	return writeReport(result)
}

// loadLedgerSnapshot reads the existing-ledger CSV, assigning row-order
// ids so match results can refer back to ledger positions.
func loadLedgerSnapshot(path string) ([]*models.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := parsers.ImportCSV(f, config.LedgerProfile())
	if err != nil {
		return nil, err
	}

	existing := make([]*models.Transaction, 0, len(parsed))
	for i, tx := range parsed {
		t := tx.Transaction
		t.ID = int64(i) + 1
		existing = append(existing, &t)
	}
	return existing, nil
}

func writeReport(result *importer.Result) error {
	reportConfig, err := config.BuildReportConfig(outputFormat)
	if err != nil {
		return err
	}

	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	writer := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	if err := generator.Generate(result, writer); err != nil {
		return err
	}

	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}
	return nil
}

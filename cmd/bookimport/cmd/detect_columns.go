package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"statement-import-service/internal/parsers"
)

var detectDelimiter string

// detectColumnsCmd represents the detect-columns command
var detectColumnsCmd = &cobra.Command{
	Use:   "detect-columns <statement-file>",
	Short: "Show the first record of a CSV export as column mapping candidates",
	Long: `Detect-columns reads the first record of a delimited statement export
and prints each field with its zero-based index, so the right column
indices can be passed to the import command.

Examples:
  bookimport detect-columns statement.csv
  bookimport detect-columns statement.txt --delimiter ";"`,

	Args: cobra.ExactArgs(1),
	RunE: runDetectColumns,
}

func init() {
	rootCmd.AddCommand(detectColumnsCmd)

	detectColumnsCmd.Flags().StringVar(&detectDelimiter, "delimiter", ",", "CSV field delimiter")
}

func runDetectColumns(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	if err := executeDetectColumns(args[0]); err != nil {
		os.Exit(handler.HandleError(err))
	}
	return nil
}

func executeDetectColumns(path string) error {
	if err := validateFileExists(path, "statement file"); err != nil {
		return err
	}

	runes := []rune(detectDelimiter)
	if len(runes) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", detectDelimiter)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	columns, err := parsers.DetectColumns(f, runes[0])
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		fmt.Println("File is empty, no columns detected")
		return nil
	}

	fmt.Printf("Detected %d columns:\n", len(columns))
	for i, column := range columns {
		fmt.Printf("  %2d: %s\n", i, column)
	}
	return nil
}

package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statement-import-service/internal/matcher"
	"statement-import-service/internal/models"
	"statement-import-service/internal/parsers"
	"statement-import-service/internal/rules"
	"statement-import-service/pkg/errors"
)

func tx(id int64, date string, description string, amountCents int64) *models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.NewTransaction(id, d, description, amountCents)
}

func intp(v int) *int {
	return &v
}

func statementProfile() *parsers.Profile {
	profile := parsers.DefaultProfile()
	profile.Mapping.DateColumn = intp(0)
	profile.Mapping.DescriptionColumn = intp(1)
	profile.Mapping.AmountColumn = intp(2)
	return profile
}

func TestProcess(t *testing.T) {
	options := DefaultOptions()
	options.Rules = []rules.Rule{
		{Name: "coffee", Priority: 1, Pattern: "starbucks", Match: rules.MatchContains, AccountCode: "6200"},
	}

	imp, err := NewImporter(options)
	require.NoError(t, err)

	batch := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-16", "STARBUCKS #1234", -500),
	}
	existing := []*models.Transaction{
		tx(100, "2024-01-15", "Amazon order", -4999),
	}

	result := imp.Process(batch, existing)

	assert.NotEmpty(t, result.BatchID)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, matcher.MatchExact, result.Matches[0].Type)
	assert.Equal(t, matcher.MatchNone, result.Matches[1].Type)

	// Only the unmatched transaction is categorized, and its rule match
	// refers back to its batch position.
	require.Len(t, result.Categories, 1)
	assert.Equal(t, 1, result.Categories[0].Index)
	assert.Equal(t, "6200", result.Categories[0].Rule.AccountCode)

	assert.Equal(t, 2, result.Summary.TotalTransactions)
	assert.Equal(t, 1, result.Summary.ExactMatches)
	assert.Equal(t, 1, result.Summary.Unmatched)
	assert.Equal(t, 1, result.Summary.Categorized)
}

func TestProcessMatchedTransactionsAreNotCategorized(t *testing.T) {
	options := DefaultOptions()
	options.Rules = []rules.Rule{
		{Name: "everything", Priority: 1, Pattern: "", Match: rules.MatchContains, AccountCode: "9999"},
	}

	imp, err := NewImporter(options)
	require.NoError(t, err)

	batch := []*models.Transaction{tx(1, "2024-01-15", "AMAZON.COM", -4999)}
	existing := []*models.Transaction{tx(100, "2024-01-15", "AMAZON.COM", -4999)}

	result := imp.Process(batch, existing)
	assert.Empty(t, result.Categories)
	assert.Equal(t, 0, result.Summary.Unmatched)
}

func TestProcessDetectsDuplicates(t *testing.T) {
	imp, err := NewImporter(nil)
	require.NoError(t, err)

	batch := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-15", "AMAZON.COM", -4999),
	}

	result := imp.Process(batch, nil)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, int64(1), result.Duplicates[0].FirstID)
	assert.Equal(t, int64(2), result.Duplicates[0].SecondID)
	assert.Equal(t, 1, result.Summary.DuplicatePairs)
}

func TestProcessDuplicateDetectionDisabled(t *testing.T) {
	options := DefaultOptions()
	options.DetectDuplicates = false

	imp, err := NewImporter(options)
	require.NoError(t, err)

	batch := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-15", "AMAZON.COM", -4999),
	}

	result := imp.Process(batch, nil)
	assert.Empty(t, result.Duplicates)
}

func TestNewImporterInvalidOptions(t *testing.T) {
	_, err := NewImporter(&Options{DuplicateThreshold: 1.5})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))

	_, err = NewImporter(&Options{DuplicateWindowDays: -1})
	require.Error(t, err)
}

func TestImportFileCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.csv")
	content := "date,description,amount\n" +
		"2024-01-15,AMAZON,49.99\n" +
		"2024-01-16,STARBUCKS,-5.00\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	imp, err := NewImporter(nil)
	require.NoError(t, err)

	result, err := imp.ImportFile(path, FormatAuto, statementProfile(), nil)
	require.NoError(t, err)

	assert.Equal(t, path, result.SourceFile)
	require.Len(t, result.Transactions, 2)

	// Batch-local ids are assigned in file order, starting at 1.
	assert.Equal(t, int64(1), result.Transactions[0].ID)
	assert.Equal(t, int64(2), result.Transactions[1].ID)
	assert.Equal(t, int64(4999), result.Transactions[0].AmountCents)
}

func TestImportFileOFXByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.ofx")
	content := `<OFX>
<ACCTID>12345
<DTSTART>20240101
<DTEND>20240131
<STMTTRN>
<DTPOSTED>20240115
<TRNAMT>-49.99
<FITID>TXN001
<NAME>AMAZON.COM
</STMTTRN>
</OFX>
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	imp, err := NewImporter(nil)
	require.NoError(t, err)

	result, err := imp.ImportFile(path, FormatAuto, nil, nil)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	assert.Equal(t, int64(1), result.Transactions[0].ID)
	assert.Equal(t, "AMAZON.COM", result.Transactions[0].Description)
	assert.Equal(t, "TXN001", result.Transactions[0].ExternalID)
}

func TestImportFileNotFound(t *testing.T) {
	imp, err := NewImporter(nil)
	require.NoError(t, err)

	_, err = imp.ImportFile(filepath.Join(t.TempDir(), "missing.csv"), FormatAuto, statementProfile(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeFileNotFound))
}

func TestImportFileInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,description,amount\n"), 0o644))

	imp, err := NewImporter(nil)
	require.NoError(t, err)

	_, err = imp.ImportFile(path, Format("xml"), statementProfile(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

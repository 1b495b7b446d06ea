// Package parsers converts raw bank-statement exports into canonical
// transactions.
//
// Two formats are supported:
//   - Delimited (CSV) exports, driven by a per-bank import profile that maps
//     column positions to transaction fields.
//   - OFX exports, the legacy SGML-like statement dialect where most leaf
//     tags carry a value without a closing tag.
//
// Parsing is all-or-nothing: any unrecoverable row or tag aborts the whole
// call with a categorized error from pkg/errors. Rows that simply cannot be
// resolved (no mapped date column) are skipped silently; a file that yields
// zero transactions is a no_data_rows error.
package parsers

import (
	"encoding/csv"
	goerrors "errors"
	"io"
	"strconv"

	"statement-import-service/internal/models"
	"statement-import-service/pkg/errors"
	"statement-import-service/pkg/logger"
)

// ColumnMapping maps zero-based column indices to transaction fields.
//
// Either AmountColumn, or the DebitColumn/CreditColumn pair, must be
// configured for a row to yield an amount; the two sources are mutually
// exclusive and AmountColumn wins when both are set. A credit value is
// recorded as a negative amount (an inflow offsetting the debit sign); the
// profile states the file's convention and no account-type validation
// happens here.
type ColumnMapping struct {
	DateColumn        *int   `json:"date_column"`
	DescriptionColumn *int   `json:"description_column"`
	AmountColumn      *int   `json:"amount_column"`
	DebitColumn       *int   `json:"debit_column"`
	CreditColumn      *int   `json:"credit_column"`
	MemoColumn        *int   `json:"memo_column"`
	DateFormat        string `json:"date_format"`
}

// Profile describes one bank's CSV export format. Profiles are persisted by
// the storage layer; ID is nil until saved.
type Profile struct {
	ID        *int64        `json:"id"`
	Name      string        `json:"name"`
	Mapping   ColumnMapping `json:"mapping"`
	HasHeader bool          `json:"has_header"`
	Delimiter rune          `json:"delimiter"`
}

// DefaultProfile returns a profile for a plain comma-separated export with
// ISO dates and no column mapping.
func DefaultProfile() *Profile {
	return &Profile{
		Name:      "Unnamed Profile",
		Mapping:   ColumnMapping{DateFormat: "2006-01-02"},
		HasHeader: true,
		Delimiter: ',',
	}
}

// CsvTransaction is a canonical transaction plus the raw debit/credit cent
// values for profiles that split the amount across two columns.
type CsvTransaction struct {
	models.Transaction

	DebitCents  *int64 `json:"debit_cents,omitempty"`
	CreditCents *int64 `json:"credit_cents,omitempty"`
}

// ImportCSV reads a delimited byte stream using the profile's delimiter and
// header flag and converts each record through the profile's column mapping.
// Transactions are returned in file order.
func ImportCSV(r io.Reader, profile *Profile) ([]*CsvTransaction, error) {
	if profile == nil {
		profile = DefaultProfile()
	}

	log := logger.WithComponent("csv_parser").WithFields(logger.Fields{
		"profile":    profile.Name,
		"has_header": profile.HasHeader,
	})
	log.Debug("Starting CSV import")

	reader := newReader(r, profile.Delimiter)

	if profile.HasHeader {
		if _, err := reader.Read(); err != nil && err != io.EOF {
			return nil, wrapReadError(err)
		}
	}

	var transactions []*CsvTransaction
	mapping := &profile.Mapping
	line := 0
	if profile.HasHeader {
		line = 1
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapReadError(err)
		}
		line++

		if isEmptyRecord(record) {
			continue
		}

		tx, ok, err := parseRecord(record, mapping, line)
		if err != nil {
			log.WithError(err).WithField("line", line).Debug("Aborting CSV import")
			return nil, err
		}
		if !ok {
			continue
		}

		transactions = append(transactions, tx)
	}

	if len(transactions) == 0 {
		return nil, errors.ParseError(errors.CodeNoDataRows, 0, "", "", nil)
	}

	log.WithField("transactions", len(transactions)).Debug("Finished CSV import")
	return transactions, nil
}

// parseRecord converts one CSV record. The second return value is false when
// the record cannot be resolved to a transaction and should be skipped.
func parseRecord(record []string, mapping *ColumnMapping, line int) (*CsvTransaction, bool, error) {
	// Rows without an identifiable date are dropped, not errors.
	if mapping.DateColumn == nil {
		return nil, false, nil
	}

	dateField, ok := field(record, *mapping.DateColumn)
	if !ok {
		return nil, false, errors.ValidationError(errors.CodeMissingField,
			"date_column "+strconv.Itoa(*mapping.DateColumn), nil, nil).
			WithContext("line", line)
	}

	date, err := models.ParseDate(dateField, mapping.DateFormat)
	if err != nil {
		return nil, false, errors.ValidationError(errors.CodeInvalidDate, "date", dateField, err).
			WithContext("line", line)
	}

	description := ""
	if mapping.DescriptionColumn != nil {
		if v, ok := field(record, *mapping.DescriptionColumn); ok {
			description = v
		}
	}

	tx := &CsvTransaction{}
	switch {
	case mapping.AmountColumn != nil:
		v, _ := field(record, *mapping.AmountColumn)
		cents, err := models.ParseAmountCents(v)
		if err != nil {
			return nil, false, errors.ValidationError(errors.CodeInvalidAmount, "amount", v, err).
				WithContext("line", line)
		}
		tx.AmountCents = cents

	case mapping.DebitColumn != nil && mapping.CreditColumn != nil:
		debit, err := optionalCents(record, *mapping.DebitColumn)
		if err != nil {
			return nil, false, errors.ValidationError(errors.CodeInvalidAmount, "debit", "", err).
				WithContext("line", line)
		}
		credit, err := optionalCents(record, *mapping.CreditColumn)
		if err != nil {
			return nil, false, errors.ValidationError(errors.CodeInvalidAmount, "credit", "", err).
				WithContext("line", line)
		}

		switch {
		case debit != nil && credit == nil:
			tx.AmountCents = *debit
		case debit == nil && credit != nil:
			tx.AmountCents = -*credit
		default:
			tx.AmountCents = 0
		}
		tx.DebitCents = debit
		tx.CreditCents = credit

	default:
		// No amount source configured; the row cannot be resolved.
		return nil, false, nil
	}

	tx.Date = date
	tx.Description = description

	if mapping.MemoColumn != nil {
		if v, ok := field(record, *mapping.MemoColumn); ok && v != "" {
			tx.Memo = v
		}
	}

	return tx, true, nil
}

// DetectColumns returns the fields of the first record in the stream so
// callers can present header candidates for column mapping.
func DetectColumns(r io.Reader, delimiter rune) ([]string, error) {
	reader := newReader(r, delimiter)

	record, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, wrapReadError(err)
	}

	headers := make([]string, len(record))
	copy(headers, record)
	return headers, nil
}

func newReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func wrapReadError(err error) error {
	var parseErr *csv.ParseError
	if goerrors.As(err, &parseErr) {
		return errors.ParseError(errors.CodeMalformedRecord, parseErr.Line, "", "", err)
	}
	return errors.Wrap(err, errors.CategoryFile, errors.CodeIOError, "failed to read input stream")
}

func field(record []string, index int) (string, bool) {
	if index < 0 || index >= len(record) {
		return "", false
	}
	return record[index], true
}

// optionalCents parses a debit or credit cell, treating a missing column or
// blank cell as absent.
func optionalCents(record []string, index int) (*int64, error) {
	v, ok := field(record, index)
	if !ok || isBlank(v) {
		return nil, nil
	}
	cents, err := models.ParseAmountCents(v)
	if err != nil {
		return nil, err
	}
	return &cents, nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if !isBlank(f) {
			return false
		}
	}
	return true
}

package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"statement-import-service/internal/models"
	"statement-import-service/pkg/errors"
	"statement-import-service/pkg/logger"
)

// OfxTransaction is one STMTTRN block from an OFX statement. FitID is the
// bank-assigned unique identifier; Memo, Name and CheckNumber are optional
// and empty when the export omits them.
type OfxTransaction struct {
	FitID       string    `json:"fit_id"`
	Date        time.Time `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Memo        string    `json:"memo,omitempty"`
	Name        string    `json:"name,omitempty"`
	CheckNumber string    `json:"check_number,omitempty"`
}

// Transaction converts the OFX record to the canonical shape. The amount
// keeps the sign assigned by the bank.
func (t *OfxTransaction) Transaction() *models.Transaction {
	description := t.Name
	if description == "" {
		description = t.Memo
	}

	return &models.Transaction{
		Date:        t.Date,
		Description: description,
		AmountCents: t.AmountCents,
		Memo:        t.Memo,
		ExternalID:  t.FitID,
	}
}

// OfxAccount identifies the account a statement belongs to. AccountID is
// mandatory; BankID and AccountType are optional.
type OfxAccount struct {
	AccountID   string `json:"account_id"`
	BankID      string `json:"bank_id,omitempty"`
	AccountType string `json:"account_type,omitempty"`
}

// OfxStatement is the parsed result of one OFX export: account identity,
// the statement's inclusive date range, the currency code and the
// transactions in file order.
type OfxStatement struct {
	Account      OfxAccount        `json:"account"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	Currency     string            `json:"currency,omitempty"`
	Transactions []*OfxTransaction `json:"transactions"`
}

// ofxAccumulator collects leaf values while inside a STMTTRN block.
type ofxAccumulator struct {
	fitID       string
	date        time.Time
	dateSet     bool
	amountCents int64
	memo        string
	name        string
	checkNumber string
}

// ImportOFX parses an OFX byte stream.
//
// The input is not well-formed XML: leaf tags carry their value on the same
// line with no closing tag (`<TAG>value`) and only block tags such as
// STMTTRN are explicitly closed. The parser is a single forward scan; leaf
// tags inside a STMTTRN block populate the current transaction, leaf tags
// outside populate the statement, and unrecognized tags are ignored.
func ImportOFX(r io.Reader) (*OfxStatement, error) {
	log := logger.WithComponent("ofx_parser")
	log.Debug("Starting OFX import")

	stmt := &OfxStatement{}
	var current *ofxAccumulator

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "<") {
			continue
		}

		name, value := splitTag(line)

		switch name {
		case "ACCTID":
			if value != "" {
				stmt.Account.AccountID = value
			}
		case "BANKID":
			if value != "" {
				stmt.Account.BankID = value
			}
		case "ACCTTYPE":
			if value != "" {
				stmt.Account.AccountType = value
			}
		case "DTSTART":
			if d, ok := parseOfxDate(value); ok {
				stmt.StartDate = d
			}
		case "DTEND":
			if d, ok := parseOfxDate(value); ok {
				stmt.EndDate = d
			}
		case "CURDEF":
			if value != "" {
				stmt.Currency = value
			}
		case "STMTTRN":
			current = &ofxAccumulator{}
		case "/STMTTRN":
			if current != nil && current.dateSet {
				stmt.Transactions = append(stmt.Transactions, &OfxTransaction{
					FitID:       current.fitID,
					Date:        current.date,
					AmountCents: current.amountCents,
					Memo:        current.memo,
					Name:        current.name,
					CheckNumber: current.checkNumber,
				})
			}
			current = nil
		default:
			if current == nil {
				continue
			}
			switch name {
			case "FITID":
				current.fitID = value
			case "DTPOSTED":
				if d, ok := parseOfxDate(value); ok {
					current.date = d
					current.dateSet = true
				}
			case "TRNAMT":
				// An unparseable amount leaves the default of zero
				// rather than rejecting the transaction.
				if cents, ok := parseOfxAmount(value); ok {
					current.amountCents = cents
				}
			case "MEMO":
				current.memo = value
			case "NAME":
				current.name = value
			case "CHECKNUM":
				current.checkNumber = value
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeIOError, "failed to read OFX stream")
	}

	if stmt.StartDate.IsZero() {
		return nil, errors.ValidationError(errors.CodeMissingField, "DTSTART", nil, nil)
	}
	if stmt.EndDate.IsZero() {
		return nil, errors.ValidationError(errors.CodeMissingField, "DTEND", nil, nil)
	}
	if stmt.Account.AccountID == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "ACCTID", nil, nil)
	}

	log.WithFields(logger.Fields{
		"account_id":   stmt.Account.AccountID,
		"transactions": len(stmt.Transactions),
	}).Debug("Finished OFX import")

	return stmt, nil
}

// splitTag breaks a "<TAG>value" or "<TAG>" line into the uppercased tag
// name and its trimmed value.
func splitTag(line string) (string, string) {
	tag := strings.TrimPrefix(line, "<")

	if name, value, found := strings.Cut(tag, ">"); found {
		return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value)
	}

	return strings.ToUpper(strings.TrimRight(tag, ">\r\n")), ""
}

// parseOfxDate resolves an OFX datetime. An 8-digit prefix is read as
// YYYYMMDD and any trailing time or bracketed timezone suffix is ignored;
// otherwise a full RFC 3339 timestamp is attempted.
func parseOfxDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if len(s) >= 8 {
		if t, err := time.Parse("20060102", s[:8]); err == nil {
			return models.DateOnly(t), true
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return models.DateOnly(t), true
	}

	return time.Time{}, false
}

// parseOfxAmount converts a TRNAMT value to integer cents, stripping
// thousands separators and rounding to the nearest cent.
func parseOfxAmount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), true
}

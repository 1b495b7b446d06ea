// Package models defines the canonical transaction record that every
// statement parser converges on, together with the amount and date parsing
// helpers shared across the import pipeline.
//
// Amounts are integer minor currency units (cents) everywhere: decimal
// arithmetic is used only while converting an amount string, and no
// floating-point amount survives past parsing.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the canonical record produced by the statement parsers and
// consumed by the matching, duplicate-detection and categorization engines.
//
// ID is assigned by the storage layer; imported transactions carry a
// batch-local id until they are committed. Memo and ExternalID are optional
// and empty when absent.
type Transaction struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Memo        string    `json:"memo,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
}

// NewTransaction creates a new Transaction with the date truncated to a
// calendar day.
func NewTransaction(id int64, date time.Time, description string, amountCents int64) *Transaction {
	return &Transaction{
		ID:          id,
		Date:        DateOnly(date),
		Description: description,
		AmountCents: amountCents,
	}
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %d, Date: %s, Amount: %s, Description: %q}",
		t.ID, t.Date.Format("2006-01-02"), FormatCents(t.AmountCents), t.Description)
}

// DateOnly truncates a time to its calendar date in UTC. All date distance
// arithmetic in the engine operates on day boundaries.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateDiffDays returns the absolute distance between two dates in whole days.
func DateDiffDays(a, b time.Time) int {
	diff := DateOnly(a).Sub(DateOnly(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// fallbackDateFormats are tried in order when the configured format fails.
var fallbackDateFormats = []string{
	"01/02/2006", // MM/DD/YYYY
	"02/01/2006", // DD/MM/YYYY
	"2006/01/02",
	"01-02-2006", // MM-DD-YYYY
	"02-01-2006", // DD-MM-YYYY
	"2006-01-02",
}

// ParseDate parses a date string using the supplied layout first, then a
// fixed list of common bank-export layouts. The first successful parse wins.
func ParseDate(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}

	for _, format := range fallbackDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOnly(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s'", s)
}

// ParseAmountCents converts an amount string to integer cents.
//
// Accepted forms include plain decimals ("123.45"), currency-formatted
// values ("$1,234.56") and accounting-style parenthesized negatives
// ("(75.25)"). The value is rounded to the nearest cent.
func ParseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	replacer := strings.NewReplacer("$", "", ",", "", " ", "")
	s = replacer.Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount '%s': %w", s, err)
	}
	if negative {
		d = d.Neg()
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// FormatCents renders integer cents as a dollar amount string, the inverse
// of ParseAmountCents for the canonical $D.DD shape.
func FormatCents(cents int64) string {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	return "$" + d.StringFixed(2)
}

package matcher

import (
	"testing"
	"time"

	"statement-import-service/internal/models"
)

func tx(id int64, date string, description string, amountCents int64) *models.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.NewTransaction(id, d, description, amountCents)
}

func TestFindMatchesExact(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-15", "AMAZON.COM", -4999)}
	existing := []*models.Transaction{tx(10, "2024-01-15", "Amazon order", -4999)}

	results := engine.FindMatches(imported, existing)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	result := results[0]
	if result.Type != MatchExact {
		t.Errorf("expected MatchExact, got %s", result.Type)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", result.Confidence)
	}
	if result.MatchedID == nil || *result.MatchedID != 10 {
		t.Errorf("expected matched id 10, got %v", result.MatchedID)
	}
	if result.DifferenceCents != 0 {
		t.Errorf("expected zero difference, got %d", result.DifferenceCents)
	}
}

func TestFindMatchesGates(t *testing.T) {
	tests := []struct {
		name     string
		existing *models.Transaction
	}{
		{
			name:     "amount outside tolerance",
			existing: tx(10, "2024-01-15", "AMAZON.COM", -5002),
		},
		{
			name:     "date outside window",
			existing: tx(10, "2024-01-20", "AMAZON.COM", -4999),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(nil)
			imported := []*models.Transaction{tx(1, "2024-01-15", "AMAZON.COM", -4999)}

			results := engine.FindMatches(imported, []*models.Transaction{tt.existing})
			if results[0].Type != MatchNone {
				t.Errorf("expected MatchNone, got %s", results[0].Type)
			}
			if results[0].MatchedID != nil {
				t.Errorf("expected nil matched id, got %d", *results[0].MatchedID)
			}
		})
	}
}

func TestFindMatchesDateAndAmount(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-15", "AMAZON.COM", -4999)}
	existing := []*models.Transaction{tx(10, "2024-01-15", "AMAZON.COM", -5000)}

	result := engine.FindMatches(imported, existing)[0]
	if result.Type != MatchDateAndAmount {
		t.Errorf("expected MatchDateAndAmount, got %s", result.Type)
	}
	if result.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for identical descriptions, got %v", result.Confidence)
	}
	if result.DifferenceCents != 1 {
		t.Errorf("expected difference of 1 cent, got %d", result.DifferenceCents)
	}
}

func TestFindMatchesFuzzy(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-16", "AMAZON.COM", -4999)}
	existing := []*models.Transaction{tx(10, "2024-01-15", "amazon com", -4999)}

	result := engine.FindMatches(imported, existing)[0]
	if result.Type != MatchFuzzy {
		t.Fatalf("expected MatchFuzzy, got %s", result.Type)
	}

	// One day off in a 3-day window scores 0.75; identical normalized
	// descriptions score 1.0. Confidence is the mean.
	want := 0.875
	if result.Confidence != want {
		t.Errorf("expected confidence %v, got %v", want, result.Confidence)
	}
}

func TestFindMatchesBelowThreshold(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-18", "AAAA", -4999)}
	existing := []*models.Transaction{tx(10, "2024-01-15", "ZZZZ", -4999)}

	result := engine.FindMatches(imported, existing)[0]
	if result.Type != MatchNone {
		t.Errorf("expected MatchNone, got %s with confidence %v", result.Type, result.Confidence)
	}
}

func TestFindMatchesPicksBestCandidate(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-15", "STARBUCKS", -500)}
	existing := []*models.Transaction{
		tx(10, "2024-01-16", "STARBUCKS", -500),
		tx(11, "2024-01-15", "STARBUCKS", -500),
	}

	result := engine.FindMatches(imported, existing)[0]
	if result.MatchedID == nil || *result.MatchedID != 11 {
		t.Errorf("expected exact candidate 11 to win, got %v", result.MatchedID)
	}
	if result.Type != MatchExact {
		t.Errorf("expected MatchExact, got %s", result.Type)
	}
}

func TestFindMatchesTieBreaksOnLowestID(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-15", "STARBUCKS", -500)}
	existing := []*models.Transaction{
		tx(7, "2024-01-15", "STARBUCKS", -500),
		tx(3, "2024-01-15", "STARBUCKS", -500),
	}

	result := engine.FindMatches(imported, existing)[0]
	if result.MatchedID == nil || *result.MatchedID != 3 {
		t.Errorf("expected tie to break to id 3, got %v", result.MatchedID)
	}
}

func TestFindMatchesOnePerImported(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-16", "STARBUCKS", -500),
		tx(3, "2024-01-17", "UNKNOWN VENDOR", -123456),
	}
	existing := []*models.Transaction{tx(10, "2024-01-15", "AMAZON.COM", -4999)}

	results := engine.FindMatches(imported, existing)
	if len(results) != len(imported) {
		t.Fatalf("expected %d results, got %d", len(imported), len(results))
	}
	for i, result := range results {
		if result.ImportedID != imported[i].ID {
			t.Errorf("result %d out of order: imported id %d", i, result.ImportedID)
		}
	}
	if results[0].Type != MatchExact {
		t.Errorf("expected first result MatchExact, got %s", results[0].Type)
	}
	if results[2].Type != MatchNone {
		t.Errorf("expected third result MatchNone, got %s", results[2].Type)
	}
}

func TestFindMatchesEmptyExisting(t *testing.T) {
	engine := NewEngine(nil)

	imported := []*models.Transaction{tx(1, "2024-01-15", "AMAZON.COM", -4999)}

	results := engine.FindMatches(imported, nil)
	if results[0].Type != MatchNone {
		t.Errorf("expected MatchNone against an empty ledger, got %s", results[0].Type)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default is valid", config: DefaultConfig()},
		{name: "strict is valid", config: StrictConfig()},
		{name: "relaxed is valid", config: RelaxedConfig()},
		{name: "negative window", config: &Config{DateWindowDays: -1, FuzzyThreshold: 0.5}, wantErr: true},
		{name: "threshold above one", config: &Config{DateWindowDays: 3, FuzzyThreshold: 1.5}, wantErr: true},
		{name: "negative tolerance", config: &Config{DateWindowDays: 3, FuzzyThreshold: 0.5, AmountToleranceCents: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewEngineClonesConfig(t *testing.T) {
	config := DefaultConfig()
	engine := NewEngine(config)

	config.DateWindowDays = 99
	if engine.Config().DateWindowDays == 99 {
		t.Error("engine config should not alias the caller's config")
	}
}

package config

import (
	"testing"

	"statement-import-service/internal/reporter"
)

func TestBuildProfile(t *testing.T) {
	profile, err := BuildProfile(ProfileFlags{
		Name:              "Test Bank",
		DateColumn:        0,
		DescriptionColumn: 1,
		AmountColumn:      2,
		DebitColumn:       -1,
		CreditColumn:      -1,
		MemoColumn:        -1,
		DateFormat:        "02.01.2006",
		Delimiter:         ";",
		HasHeader:         true,
	})
	if err != nil {
		t.Fatalf("BuildProfile() unexpected error: %v", err)
	}

	if profile.Name != "Test Bank" {
		t.Errorf("profile name = %q, want %q", profile.Name, "Test Bank")
	}
	if profile.Delimiter != ';' {
		t.Errorf("delimiter = %q, want ';'", profile.Delimiter)
	}
	if profile.Mapping.DateFormat != "02.01.2006" {
		t.Errorf("date format = %q", profile.Mapping.DateFormat)
	}
	if profile.Mapping.DateColumn == nil || *profile.Mapping.DateColumn != 0 {
		t.Errorf("date column = %v, want 0", profile.Mapping.DateColumn)
	}
	if profile.Mapping.AmountColumn == nil || *profile.Mapping.AmountColumn != 2 {
		t.Errorf("amount column = %v, want 2", profile.Mapping.AmountColumn)
	}
	if profile.Mapping.DebitColumn != nil {
		t.Errorf("debit column should be unmapped, got %d", *profile.Mapping.DebitColumn)
	}
	if profile.Mapping.MemoColumn != nil {
		t.Errorf("memo column should be unmapped, got %d", *profile.Mapping.MemoColumn)
	}
}

func TestBuildProfileInvalidDelimiter(t *testing.T) {
	_, err := BuildProfile(ProfileFlags{Delimiter: ";;"})
	if err == nil {
		t.Error("expected error for multi-character delimiter")
	}
}

func TestBuildMatchConfig(t *testing.T) {
	cfg, err := BuildMatchConfig(5, 0.8, 10)
	if err != nil {
		t.Fatalf("BuildMatchConfig() unexpected error: %v", err)
	}
	if cfg.DateWindowDays != 5 || cfg.FuzzyThreshold != 0.8 || cfg.AmountToleranceCents != 10 {
		t.Errorf("unexpected config: %s", cfg)
	}

	if _, err := BuildMatchConfig(-1, 0.8, 10); err == nil {
		t.Error("expected error for negative date window")
	}
	if _, err := BuildMatchConfig(3, 1.5, 10); err == nil {
		t.Error("expected error for threshold above 1.0")
	}
}

func TestBuildReportConfig(t *testing.T) {
	tests := []struct {
		format  string
		want    reporter.OutputFormat
		wantErr bool
	}{
		{format: "console", want: reporter.FormatConsole},
		{format: "json", want: reporter.FormatJSON},
		{format: "csv", want: reporter.FormatCSV},
		{format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg, err := BuildReportConfig(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Format != tt.want {
				t.Errorf("format = %s, want %s", cfg.Format, tt.want)
			}
		})
	}
}

func TestLedgerProfile(t *testing.T) {
	profile := LedgerProfile()

	if profile.Mapping.DateColumn == nil || *profile.Mapping.DateColumn != 0 {
		t.Error("ledger profile should map the date column to 0")
	}
	if profile.Mapping.DescriptionColumn == nil || *profile.Mapping.DescriptionColumn != 1 {
		t.Error("ledger profile should map the description column to 1")
	}
	if profile.Mapping.AmountColumn == nil || *profile.Mapping.AmountColumn != 2 {
		t.Error("ledger profile should map the amount column to 2")
	}
	if !profile.HasHeader {
		t.Error("ledger profile should expect a header row")
	}
}

package matcher

import (
	"testing"

	"statement-import-service/internal/models"
)

func TestFindDuplicates(t *testing.T) {
	transactions := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM ORDER", -4999),
		tx(2, "2024-01-16", "AMAZON COM ORDER", -4999),
		tx(3, "2024-01-15", "STARBUCKS", -500),
	}

	pairs := FindDuplicates(transactions, 3, 0.7)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %d", len(pairs))
	}
	if pairs[0].FirstID != 1 || pairs[0].SecondID != 2 {
		t.Errorf("expected pair (1, 2), got (%d, %d)", pairs[0].FirstID, pairs[0].SecondID)
	}
}

func TestFindDuplicatesAmountMustBeEqual(t *testing.T) {
	transactions := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-15", "AMAZON.COM", -5000),
	}

	// Even a one-cent difference disqualifies a pair.
	if pairs := FindDuplicates(transactions, 3, 0.7); len(pairs) != 0 {
		t.Errorf("expected no pairs, got %d", len(pairs))
	}
}

func TestFindDuplicatesDateWindow(t *testing.T) {
	transactions := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-20", "AMAZON.COM", -4999),
	}

	if pairs := FindDuplicates(transactions, 3, 0.7); len(pairs) != 0 {
		t.Errorf("expected no pairs outside the window, got %d", len(pairs))
	}
	if pairs := FindDuplicates(transactions, 5, 0.7); len(pairs) != 1 {
		t.Errorf("expected 1 pair inside the window, got %d", len(pairs))
	}
}

func TestFindDuplicatesDissimilarDescriptions(t *testing.T) {
	transactions := []*models.Transaction{
		tx(1, "2024-01-15", "STARBUCKS COFFEE", -4999),
		tx(2, "2024-01-15", "SHELL GASOLINE", -4999),
	}

	if pairs := FindDuplicates(transactions, 3, 0.7); len(pairs) != 0 {
		t.Errorf("expected no pairs for dissimilar descriptions, got %d", len(pairs))
	}
}

func TestFindDuplicatesNoTransitiveClustering(t *testing.T) {
	transactions := []*models.Transaction{
		tx(1, "2024-01-15", "AMAZON.COM", -4999),
		tx(2, "2024-01-15", "AMAZON.COM", -4999),
		tx(3, "2024-01-15", "AMAZON.COM", -4999),
	}

	// Three mutually similar transactions yield all three pairs.
	pairs := FindDuplicates(transactions, 3, 0.7)
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	want := [][2]int64{{1, 2}, {1, 3}, {2, 3}}
	for i, w := range want {
		if pairs[i].FirstID != w[0] || pairs[i].SecondID != w[1] {
			t.Errorf("pair %d = (%d, %d), want (%d, %d)",
				i, pairs[i].FirstID, pairs[i].SecondID, w[0], w[1])
		}
	}
}

func TestFindDuplicatesEmptyBatch(t *testing.T) {
	if pairs := FindDuplicates(nil, 3, 0.7); len(pairs) != 0 {
		t.Errorf("expected no pairs for an empty batch, got %d", len(pairs))
	}
}

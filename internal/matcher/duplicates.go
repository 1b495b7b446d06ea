package matcher

import (
	"statement-import-service/internal/models"
	"statement-import-service/internal/similarity"
	"statement-import-service/pkg/logger"
)

// DuplicatePair identifies two transactions in one batch that are likely
// duplicates of each other. FirstID always precedes SecondID in batch order.
type DuplicatePair struct {
	FirstID  int64 `json:"first_id"`
	SecondID int64 `json:"second_id"`
}

// FindDuplicates scans one imported batch pairwise for likely duplicates: a
// pair qualifies iff the amounts are exactly equal, the dates are within
// windowDays of each other, and the normalized description similarity is at
// least threshold.
//
// Detection is strictly pairwise, with no transitive clustering: three
// mutually similar transactions yield three pairs.
func FindDuplicates(transactions []*models.Transaction, windowDays int, threshold float64) []DuplicatePair {
	log := logger.WithComponent("duplicate_detector")

	var duplicates []DuplicatePair
	for i := 0; i < len(transactions); i++ {
		for j := i + 1; j < len(transactions); j++ {
			t1, t2 := transactions[i], transactions[j]

			if t1.AmountCents != t2.AmountCents {
				continue
			}
			if models.DateDiffDays(t1.Date, t2.Date) > windowDays {
				continue
			}
			if similarity.DescriptionScore(t1.Description, t2.Description) >= threshold {
				duplicates = append(duplicates, DuplicatePair{FirstID: t1.ID, SecondID: t2.ID})
			}
		}
	}

	if len(duplicates) > 0 {
		log.WithFields(logger.Fields{
			"batch_size": len(transactions),
			"duplicates": len(duplicates),
		}).Debug("Duplicate candidates found in batch")
	}

	return duplicates
}

package matcher

import (
	"statement-import-service/internal/models"
	"statement-import-service/internal/similarity"
	"statement-import-service/pkg/logger"
)

// MatchResult is the decision for one imported transaction. Exactly one
// result exists per imported transaction; MatchedID is nil iff Type is
// MatchNone.
type MatchResult struct {
	ImportedID      int64     `json:"imported_id"`
	MatchedID       *int64    `json:"matched_id,omitempty"`
	Type            MatchType `json:"match_type"`
	Confidence      float64   `json:"confidence"`
	DifferenceCents int64     `json:"difference_cents"`
}

// Engine is the auto-match engine. It holds no state beyond its
// configuration; every call operates on immutable caller-supplied snapshots.
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a matching engine with the specified configuration. A
// nil config selects DefaultConfig.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config.Clone(),
		logger: logger.WithComponent("matcher"),
	}
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// FindMatches emits one MatchResult per imported transaction, in input
// order. Each imported transaction is scored against every existing
// transaction independently; the accepted candidate with the highest
// confidence wins, with equal-confidence ties going to the lowest existing
// id.
func (e *Engine) FindMatches(imported, existing []*models.Transaction) []*MatchResult {
	e.logger.WithFields(logger.Fields{
		"imported": len(imported),
		"existing": len(existing),
		"config":   e.config.String(),
	}).Debug("Starting auto-match")

	results := make([]*MatchResult, 0, len(imported))
	for _, imp := range imported {
		results = append(results, e.findBestMatch(imp, existing))
	}

	return results
}

func (e *Engine) findBestMatch(imp *models.Transaction, existing []*models.Transaction) *MatchResult {
	var best *MatchResult

	for _, ex := range existing {
		candidate := e.scorePair(imp, ex)
		if candidate == nil {
			continue
		}

		if best == nil || candidate.Confidence > best.Confidence ||
			(candidate.Confidence == best.Confidence && *candidate.MatchedID < *best.MatchedID) {
			best = candidate
		}
	}

	if best == nil {
		return &MatchResult{
			ImportedID: imp.ID,
			Type:       MatchNone,
		}
	}

	return best
}

// scorePair evaluates one imported/existing pair, returning nil when the
// pair fails the amount tolerance, the date window or the fuzzy threshold.
func (e *Engine) scorePair(imp, ex *models.Transaction) *MatchResult {
	diffCents := imp.AmountCents - ex.AmountCents
	if diffCents < 0 {
		diffCents = -diffCents
	}
	if diffCents > e.config.AmountToleranceCents {
		return nil
	}

	dateDiff := models.DateDiffDays(imp.Date, ex.Date)
	if dateDiff > e.config.DateWindowDays {
		return nil
	}

	matchedID := ex.ID

	// Perfect hit, no string comparison needed.
	if dateDiff == 0 && diffCents == 0 {
		return &MatchResult{
			ImportedID: imp.ID,
			MatchedID:  &matchedID,
			Type:       MatchExact,
			Confidence: 1.0,
		}
	}

	dateScore := 1.0 - float64(dateDiff)/float64(e.config.DateWindowDays+1)
	descScore := similarity.DescriptionScore(imp.Description, ex.Description)
	confidence := (dateScore + descScore) / 2.0

	if confidence < e.config.FuzzyThreshold {
		return nil
	}

	matchType := MatchFuzzy
	if dateDiff == 0 {
		matchType = MatchDateAndAmount
	}

	return &MatchResult{
		ImportedID:      imp.ID,
		MatchedID:       &matchedID,
		Type:            matchType,
		Confidence:      confidence,
		DifferenceCents: diffCents,
	}
}

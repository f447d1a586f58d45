package engine

import (
	"context"

	"github.com/Veraticus/inbox-triage/internal/classification"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// Classifier is the fallback semantic classifier consulted when no rule matches.
// Implementations return rankings sorted by score, highest first.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) (model.LabelRankings, error)
}

// RuleMatcher applies the keyword rule table to a record.
type RuleMatcher interface {
	ApplyRecord(r model.Record) (classification.Match, bool)
}

// Source supplies the records to triage.
type Source interface {
	Fetch(ctx context.Context) ([]model.Record, error)
}

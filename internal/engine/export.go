package engine

import (
	"context"
	"fmt"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// ExportRows projects the given identities into export rows, in the order
// given. Identities with no stored classification are skipped.
func (e *TriageEngine) ExportRows(ctx context.Context, identities []string) ([]model.ExportRow, error) {
	rows := make([]model.ExportRow, 0, len(identities))
	for _, id := range identities {
		c, found, err := e.lookup(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", id, err)
		}
		if !found {
			e.logger.Warn("skipping unclassified identity in export", "identity", id)
			continue
		}
		rows = append(rows, model.NewExportRow(c))
	}
	return rows, nil
}

// ClassificationsOf returns the stored classifications for identities in the
// order given. Unknown identities are skipped.
func (e *TriageEngine) ClassificationsOf(ctx context.Context, identities []string) ([]model.Classification, error) {
	list := make([]model.Classification, 0, len(identities))
	for _, id := range identities {
		c, found, err := e.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			list = append(list, c)
		}
	}
	return list, nil
}

// Identities returns the fingerprints of records in input order. A record
// that repeats an earlier one keeps only its first position.
func Identities(records []model.Record) []string {
	ids := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		id := r.Fingerprint()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

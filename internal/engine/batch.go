package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"golang.org/x/sync/errgroup"
)

// BatchOptions configures batch classification behavior.
type BatchOptions struct {
	// OnResult is called once per record as it completes. Calls are serialized.
	OnResult func(BatchResult)
	// Workers overrides the engine's parallelism when positive.
	Workers int
}

// BatchResult contains the classification outcome for one record.
type BatchResult struct {
	Err            error
	Classification model.Classification
	Record         model.Record
	Index          int
}

// BatchSummary contains statistics about a batch run.
type BatchSummary struct {
	Summary        model.Summary
	ProcessingTime time.Duration
}

// ClassifyBatch classifies records in parallel. Results come back in input
// order. A record that fails is reported in its BatchResult and never stops
// the rest of the batch; only cancellation of ctx ends the run early.
func (e *TriageEngine) ClassifyBatch(ctx context.Context, records []model.Record, opts BatchOptions) ([]BatchResult, *BatchSummary, error) {
	start := time.Now()

	if len(records) == 0 {
		return nil, &BatchSummary{Summary: model.Summarize(nil)}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = e.workers
	}

	e.logger.Info("starting batch classification",
		"records", len(records),
		"workers", workers)

	results := make([]BatchResult, len(records))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(workers)

	for i, r := range records {
		if ctx.Err() != nil {
			break
		}

		i, r := i, r

		g.Go(func() error {
			c, err := e.ClassifyRecord(ctx, r)
			res := BatchResult{Index: i, Record: r, Classification: c, Err: err}

			mu.Lock()
			results[i] = res
			if opts.OnResult != nil {
				opts.OnResult(res)
			}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, nil, fmt.Errorf("batch classification interrupted: %w", err)
	}

	classified := make([]model.Classification, 0, len(results))
	for _, res := range results {
		if res.Err != nil && !errors.Is(res.Err, common.ErrClassificationFailed) {
			e.logger.Warn("record not classified",
				"index", res.Index,
				"subject", res.Record.Subject,
				"error", res.Err)
			continue
		}
		classified = append(classified, res.Classification)
	}

	summary := &BatchSummary{
		Summary:        model.Summarize(classified),
		ProcessingTime: time.Since(start),
	}

	e.logger.Info("batch classification complete",
		"records", len(records),
		"failed", summary.Summary.Failed,
		"elapsed", summary.ProcessingTime.Round(time.Millisecond))

	return results, summary, nil
}

// ClassifySource fetches records from src and classifies them as a batch.
func (e *TriageEngine) ClassifySource(ctx context.Context, src Source, opts BatchOptions) ([]BatchResult, *BatchSummary, error) {
	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, common.ErrNoRecords
	}
	return e.ClassifyBatch(ctx, records, opts)
}

// GetDisplay returns a JSON representation of the summary.
func (s *BatchSummary) GetDisplay() string {
	if s.Summary.Total == 0 {
		return `{"message":"No records to classify"}`
	}

	type summaryJSON struct {
		ProcessingTime string `json:"processing_time"`
		Total          int    `json:"total"`
		Urgent         int    `json:"urgent"`
		ReadLater      int    `json:"read_later"`
		Ignore         int    `json:"ignore"`
		Failed         int    `json:"failed"`
		ByRule         int    `json:"by_rule"`
		ByFallback     int    `json:"by_fallback"`
		ByUser         int    `json:"by_user"`
	}

	data := summaryJSON{
		Total:          s.Summary.Total,
		Urgent:         s.Summary.ByCategory[model.CategoryUrgent],
		ReadLater:      s.Summary.ByCategory[model.CategoryReadLater],
		Ignore:         s.Summary.ByCategory[model.CategoryIgnore],
		Failed:         s.Summary.Failed,
		ByRule:         s.Summary.ByOrigin[model.OriginRule],
		ByFallback:     s.Summary.ByOrigin[model.OriginFallback],
		ByUser:         s.Summary.ByOrigin[model.OriginUserOverride],
		ProcessingTime: s.ProcessingTime.Round(time.Millisecond).String(),
	}

	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal summary: %v"}`, err)
	}

	return string(bytes)
}

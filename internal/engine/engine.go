// Package engine implements the triage decision engine: stored result first,
// then keyword rules, then the fallback classifier, with user overrides taking
// precedence over everything automatic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/inbox-triage/internal/classification"
	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/Veraticus/inbox-triage/internal/storage"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyIdentity is returned when a reclassification names no record.
var ErrEmptyIdentity = errors.New("identity is required")

// TriageEngine classifies records and records user corrections for one session.
type TriageEngine struct {
	store      storage.Store
	rules      RuleMatcher
	classifier Classifier
	logger     *slog.Logger
	now        func() time.Time
	flight     singleflight.Group
	locks      keyedMutex
	labels     []string
	workers    int
}

// Config holds configuration options for the triage engine.
type Config struct {
	// Labels are the candidate labels offered to the fallback classifier.
	Labels []string
	// Workers bounds ClassifyBatch parallelism.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	labels := make([]string, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		labels = append(labels, c.DisplayName())
	}
	return Config{
		Labels:  labels,
		Workers: 4,
	}
}

// New creates a triage engine with the default configuration. A nil
// classifier disables the fallback: records no rule matches end up failed.
func New(store storage.Store, rules RuleMatcher, classifier Classifier, logger *slog.Logger) *TriageEngine {
	return NewWithConfig(store, rules, classifier, logger, DefaultConfig())
}

// NewWithConfig creates a triage engine with custom configuration.
func NewWithConfig(store storage.Store, rules RuleMatcher, classifier Classifier, logger *slog.Logger, cfg Config) *TriageEngine {
	defaults := DefaultConfig()
	if len(cfg.Labels) == 0 {
		cfg.Labels = defaults.Labels
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if rules == nil {
		rules = classification.NewDefaultRuleTable()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TriageEngine{
		store:      store,
		rules:      rules,
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
		labels:     cfg.Labels,
		workers:    cfg.Workers,
	}
}

// ClassifyRecord returns the current classification for r, computing and
// storing one if the record has not been seen in this session. A stored
// result is returned as is, so repeated calls never reach the fallback twice.
//
// When the record is (or already was) in the failed state, the failed
// classification is returned together with an error wrapping
// common.ErrClassificationFailed.
func (e *TriageEngine) ClassifyRecord(ctx context.Context, r model.Record) (model.Classification, error) {
	identity := r.Fingerprint()

	existing, found, err := e.lookup(ctx, identity)
	if err != nil {
		return model.Classification{}, err
	}
	if found {
		if existing.Record == (model.Record{}) {
			if existing, err = e.attachRecord(ctx, identity, r); err != nil {
				return model.Classification{}, err
			}
		}
		return existing, failedError(existing)
	}

	v, err, shared := e.flight.Do(identity, func() (interface{}, error) {
		return e.classifyUnseen(ctx, identity, r)
	})
	if err != nil {
		return model.Classification{}, err
	}
	if shared {
		e.logger.Debug("shared in-flight classification", "identity", identity)
	}

	c, ok := v.(model.Classification)
	if !ok {
		return model.Classification{}, fmt.Errorf("unexpected classification type %T", v)
	}
	return c, failedError(c)
}

// classifyUnseen computes an automatic result and commits it unless a user
// override landed first.
func (e *TriageEngine) classifyUnseen(ctx context.Context, identity string, r model.Record) (model.Classification, error) {
	// A flight that finished between our lookup and joining may have stored it.
	if existing, found, err := e.lookup(ctx, identity); err != nil || found {
		return existing, err
	}

	result := model.Classification{
		Identity: identity,
		Record:   r,
	}

	if match, ok := e.rules.ApplyRecord(r); ok {
		result.Category = match.Category
		result.Origin = model.OriginRule
		result.Confidence = 1.0
		result.Reason = fmt.Sprintf("rule %s matched %q", match.Rule, match.Trigger)
	} else {
		category, score, err := e.fallback(ctx, r)
		if err != nil {
			switch ctxErr := ctx.Err(); {
			case errors.Is(ctxErr, context.Canceled):
				return model.Classification{}, fmt.Errorf("classification interrupted: %w", ctxErr)
			case errors.Is(ctxErr, context.DeadlineExceeded):
				// The caller's deadline counts as a classifier failure; the
				// result is still recorded once the deadline has passed.
				err = fmt.Errorf("fallback classifier timed out: %w", ctxErr)
				ctx = context.WithoutCancel(ctx)
			}
			e.logger.Warn("classification failed",
				"identity", identity,
				"subject", r.Subject,
				"error", err)
			result.Origin = model.OriginFailed
			result.Reason = err.Error()
		} else {
			result.Category = category
			result.Origin = model.OriginFallback
			result.Confidence = score
			result.Reason = "fallback classifier"
		}
	}

	return e.commit(ctx, result)
}

// fallback asks the classifier and normalizes its top label.
func (e *TriageEngine) fallback(ctx context.Context, r model.Record) (model.Category, float64, error) {
	if e.classifier == nil {
		return "", 0, common.ErrFallbackUnavailable
	}

	rankings, err := e.classifier.Classify(ctx, FallbackText(r), e.labels)
	if err != nil {
		return "", 0, err
	}

	top := rankings.Top()
	if top == nil {
		return "", 0, fmt.Errorf("fallback returned no labels")
	}

	return classification.Normalize(top.Label), top.Score, nil
}

// commit stores an automatic result under the identity lock. If anything was
// stored meanwhile, that entry wins and is returned instead.
func (e *TriageEngine) commit(ctx context.Context, result model.Classification) (model.Classification, error) {
	unlock := e.locks.lock(result.Identity)
	defer unlock()

	existing, found, err := e.lookup(ctx, result.Identity)
	if err != nil {
		return model.Classification{}, err
	}
	if found {
		e.logger.Debug("keeping stored classification",
			"identity", result.Identity,
			"origin", existing.Origin)
		return e.backfillRecord(ctx, existing, result.Record)
	}

	result.ClassifiedAt = e.now()
	if err := e.store.Save(ctx, result); err != nil {
		if errors.Is(err, storage.ErrOverrideProtected) {
			stored, _, lookupErr := e.lookup(ctx, result.Identity)
			if lookupErr != nil {
				return model.Classification{}, lookupErr
			}
			return stored, nil
		}
		return model.Classification{}, fmt.Errorf("failed to store classification: %w", err)
	}

	e.logger.Debug("classified record",
		"identity", result.Identity,
		"category", result.Label(),
		"origin", result.Origin)

	return result, nil
}

// attachRecord backfills r into the stored entry for identity under the
// identity lock.
func (e *TriageEngine) attachRecord(ctx context.Context, identity string, r model.Record) (model.Classification, error) {
	unlock := e.locks.lock(identity)
	defer unlock()

	existing, found, err := e.lookup(ctx, identity)
	if err != nil {
		return model.Classification{}, err
	}
	if !found {
		return model.Classification{}, fmt.Errorf("classification for %s: %w", identity, common.ErrNotFound)
	}
	return e.backfillRecord(ctx, existing, r)
}

// backfillRecord attaches the record content to an override that was made
// before the record itself was seen.
func (e *TriageEngine) backfillRecord(ctx context.Context, existing model.Classification, r model.Record) (model.Classification, error) {
	if existing.Record != (model.Record{}) || r == (model.Record{}) {
		return existing, nil
	}

	existing.Record = r
	if err := e.store.Save(ctx, existing); err != nil {
		return model.Classification{}, fmt.Errorf("failed to store record content: %w", err)
	}
	return existing, nil
}

// Reclassify applies a user correction given as free text. Values that are
// not a canonical category fail with common.ErrInvalidCategory and leave
// the store untouched.
func (e *TriageEngine) Reclassify(ctx context.Context, identity string, raw string) (Change, error) {
	category, err := classification.ParseCategory(raw)
	if err != nil {
		return Change{}, err
	}
	return e.ReclassifyCategory(ctx, identity, category)
}

// ReclassifyCategory stores a user override for identity. It clears a failed
// state, and an identity never seen before is accepted with an empty record.
func (e *TriageEngine) ReclassifyCategory(ctx context.Context, identity string, category model.Category) (Change, error) {
	if !category.Valid() {
		return Change{}, fmt.Errorf("%w: %q", common.ErrInvalidCategory, category)
	}
	if identity == "" {
		return Change{}, ErrEmptyIdentity
	}

	unlock := e.locks.lock(identity)
	defer unlock()

	existing, found, err := e.lookup(ctx, identity)
	if err != nil {
		return Change{}, err
	}

	change := Change{
		Identity: identity,
		Record:   existing.Record,
		To:       category,
	}
	if found {
		change.From = existing.Label()
	}

	if found && existing.Origin == model.OriginUserOverride && existing.Category == category {
		return change, nil
	}

	override := model.Classification{
		Identity:     identity,
		Record:       existing.Record,
		Category:     category,
		Origin:       model.OriginUserOverride,
		Confidence:   1.0,
		Reason:       "user override",
		ClassifiedAt: e.now(),
	}
	if err := e.store.Save(ctx, override); err != nil {
		return Change{}, fmt.Errorf("failed to store override: %w", err)
	}

	e.logger.Info("record reclassified",
		"identity", identity,
		"from", change.From,
		"to", category)

	return change, nil
}

// CurrentLabel returns the label held for identity without triggering a
// classification. Failed records report model.FailedLabel.
func (e *TriageEngine) CurrentLabel(ctx context.Context, identity string) (string, bool, error) {
	c, found, err := e.lookup(ctx, identity)
	if err != nil || !found {
		return "", false, err
	}
	return c.Label(), true, nil
}

// Lookup returns the stored classification for identity, if any.
func (e *TriageEngine) Lookup(ctx context.Context, identity string) (model.Classification, bool, error) {
	return e.lookup(ctx, identity)
}

// Classifications returns every stored classification in the order it was first stored.
func (e *TriageEngine) Classifications(ctx context.Context) ([]model.Classification, error) {
	list, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}
	return list, nil
}

// Summarize counts the session's classifications per bucket.
func (e *TriageEngine) Summarize(ctx context.Context) (model.Summary, error) {
	list, err := e.Classifications(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	return model.Summarize(list), nil
}

// Rules returns the rule matcher the engine consults.
func (e *TriageEngine) Rules() RuleMatcher {
	return e.rules
}

func (e *TriageEngine) lookup(ctx context.Context, identity string) (model.Classification, bool, error) {
	c, err := e.store.Get(ctx, identity)
	if errors.Is(err, common.ErrNotFound) {
		return model.Classification{}, false, nil
	}
	if err != nil {
		return model.Classification{}, false, fmt.Errorf("failed to read classification: %w", err)
	}
	return c, true, nil
}

// FallbackText is the text sent to the fallback classifier for r.
func FallbackText(r model.Record) string {
	return r.Subject + "\n\n" + r.Snippet + "\n\n" + r.Sender
}

func failedError(c model.Classification) error {
	if !c.Failed() {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrClassificationFailed, c.Reason)
}

// Change describes the outcome of a reclassification.
type Change struct {
	Identity string
	From     string
	To       model.Category
	Record   model.Record
}

// Changed reports whether the visible label moved.
func (c Change) Changed() bool {
	return c.From != string(c.To)
}

package llm

import (
	"context"
	"time"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Client defines the interface for fallback classification providers.
type Client interface {
	// Rank scores every candidate label for text. Results need not be sorted.
	Rank(ctx context.Context, text string, labels []string) (model.LabelRankings, error)
}

// Config holds configuration for the fallback classifier and its provider.
type Config struct {
	Provider           string
	APIKey             string
	Model              string
	BaseURL            string
	Timeout            time.Duration
	BreakerOpenTimeout time.Duration
	Temperature        float64
	MaxTokens          int
	RateLimit          int
	BreakerMaxFailures uint32
}

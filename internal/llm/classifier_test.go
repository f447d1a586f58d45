package llm

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test implementation of the Client interface.
type mockClient struct {
	err      error
	rankings model.LabelRankings
	delay    time.Duration
	calls    int
	mu       sync.Mutex
}

func (m *mockClient) Rank(ctx context.Context, _ string, _ []string) (model.LabelRankings, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	out := make(model.LabelRankings, len(m.rankings))
	copy(out, m.rankings)
	return out, nil
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var candidateLabels = []string{"Urgent", "Read Later", "Ignore"}

func TestFallbackClassifier_Classify(t *testing.T) {
	client := &mockClient{rankings: model.LabelRankings{
		{Label: "Ignore", Score: 0.1},
		{Label: "Read Later", Score: 0.6},
		{Label: "Urgent", Score: 0.3},
	}}
	fc := NewFallbackClassifier(client, Config{Provider: "mock"}, testLogger())

	rankings, err := fc.Classify(context.Background(), "Team Standup Notes", candidateLabels)
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	assert.Equal(t, "Read Later", rankings[0].Label)
	assert.Equal(t, "Urgent", rankings[1].Label)
	assert.Equal(t, 1, client.callCount())
}

func TestFallbackClassifier_Timeout(t *testing.T) {
	client := &mockClient{
		delay:    time.Second,
		rankings: model.LabelRankings{{Label: "Urgent", Score: 1}},
	}
	fc := NewFallbackClassifier(client, Config{Provider: "mock", Timeout: 20 * time.Millisecond}, testLogger())

	_, err := fc.Classify(context.Background(), "slow", candidateLabels)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallbackClassifier_InvalidRankings(t *testing.T) {
	client := &mockClient{rankings: model.LabelRankings{}}
	fc := NewFallbackClassifier(client, Config{Provider: "mock"}, testLogger())

	_, err := fc.Classify(context.Background(), "x", candidateLabels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rankings")
}

func TestFallbackClassifier_BreakerOpens(t *testing.T) {
	client := &mockClient{err: errors.New("provider down")}
	fc := NewFallbackClassifier(client, Config{
		Provider:           "mock",
		BreakerMaxFailures: 2,
		BreakerOpenTimeout: time.Minute,
	}, testLogger())

	for i := 0; i < 2; i++ {
		_, err := fc.Classify(context.Background(), "x", candidateLabels)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrFallbackUnavailable)
	}

	assert.Equal(t, "open", fc.State())

	_, err := fc.Classify(context.Background(), "x", candidateLabels)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrFallbackUnavailable)
	assert.Equal(t, 2, client.callCount(), "open breaker must not reach the provider")
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "k"}},
		{name: "openai without key", cfg: Config{Provider: "openai"}, wantErr: true},
		{name: "anthropic", cfg: Config{Provider: "Anthropic", APIKey: "k"}},
		{name: "anthropic without key", cfg: Config{Provider: "anthropic"}, wantErr: true},
		{name: "huggingface without key", cfg: Config{Provider: "huggingface"}},
		{name: "unknown", cfg: Config{Provider: "claudecode"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

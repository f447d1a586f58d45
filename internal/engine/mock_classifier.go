package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface.
// It answers with a fixed label unless a keyword response matches the text.
type MockClassifier struct {
	Err       error
	responses map[string]string
	calls     []MockCall
	Label     string
	Delay     time.Duration
	mu        sync.Mutex
}

// MockCall records details of a classification request.
type MockCall struct {
	Text   string
	Labels []string
}

// NewMockClassifier creates a mock that answers "Read Later" by default.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Label:     "Read Later",
		responses: make(map[string]string),
	}
}

// Respond makes texts containing keyword (case-insensitive) rank label first.
func (m *MockClassifier) Respond(keyword, label string) *MockClassifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[strings.ToLower(keyword)] = label
	return m
}

// Classify ranks the chosen label first and every other candidate after it.
func (m *MockClassifier) Classify(ctx context.Context, text string, labels []string) (model.LabelRankings, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Text: text, Labels: labels})
	label := m.Label
	lowered := strings.ToLower(text)
	for kw, l := range m.responses {
		if strings.Contains(lowered, kw) {
			label = l
			break
		}
	}
	err := m.Err
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	rankings := model.LabelRankings{{Label: label, Score: 0.9}}
	for _, l := range labels {
		if l != label {
			rankings = append(rankings, model.LabelRanking{Label: l, Score: 0.05})
		}
	}
	return rankings, nil
}

// CallCount returns how many times Classify was called.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockClassifier) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

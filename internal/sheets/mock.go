package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// MockWriter is a mock implementation of the sheets writer for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, rows []model.ExportRow, summary model.Summary) (string, error)
	WriteCalls     []WriteCall
	LastRows       []model.ExportRow
	LastSummary    model.Summary
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error   error
	Rows    []model.ExportRow
	Summary model.Summary
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write records the call and delegates to WriteFunc when set.
func (m *MockWriter) Write(ctx context.Context, rows []model.ExportRow, summary model.Summary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastRows = rows
	m.LastSummary = summary

	id := "mock-spreadsheet"
	var err error
	if m.WriteFunc != nil {
		id, err = m.WriteFunc(ctx, rows, summary)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Rows:    rows,
		Summary: summary,
		Error:   err,
	})

	return id, err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls = make([]WriteCall, 0)
	m.LastRows = nil
	m.LastSummary = model.Summary{}
	m.WriteCallCount = 0
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

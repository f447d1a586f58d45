package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheetsAPI is a minimal in-process stand-in for the Sheets REST API.
type fakeSheetsAPI struct {
	updates     []sheets.ValueRange
	requests    []string
	clearErrors int
	getStatus   int
	mu          sync.Mutex
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.requests = append(f.requests, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && path == "/v4/spreadsheets":
		_, _ = fmt.Fprint(w, `{"spreadsheetId":"new-id","spreadsheetUrl":"https://example/new-id","sheets":[{"properties":{"sheetId":7,"title":"Triage"}}]}`)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v4/spreadsheets/"):
		if f.getStatus != 0 {
			w.WriteHeader(f.getStatus)
			_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope"}}`, f.getStatus)
			return
		}
		_, _ = fmt.Fprint(w, `{"spreadsheetId":"existing","sheets":[{"properties":{"sheetId":0,"title":"Sheet1"}}]}`)
	case strings.HasSuffix(path, ":batchUpdate"):
		var req sheets.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Requests) > 0 && req.Requests[0].AddSheet != nil {
			_, _ = fmt.Fprint(w, `{"replies":[{"addSheet":{"properties":{"sheetId":42,"title":"Triage"}}}]}`)
			return
		}
		_, _ = fmt.Fprint(w, `{"replies":[]}`)
	case strings.HasSuffix(path, ":clear"):
		if f.clearErrors > 0 {
			f.clearErrors--
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprint(w, `{"error":{"code":503,"message":"busy"}}`)
			return
		}
		_, _ = fmt.Fprint(w, `{}`)
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, vr)
		_, _ = fmt.Fprint(w, `{}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"error":{"code":404,"message":"unexpected request"}}`)
	}
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, cfg Config) *Writer {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWriterWithService(svc, cfg, logger)
}

func testRows() ([]model.ExportRow, model.Summary) {
	classifications := []model.Classification{
		{
			Record:   model.Record{Subject: "Interview with Google", Snippet: "Friday", Sender: "recruiter@google.com"},
			Category: model.CategoryUrgent,
			Origin:   model.OriginRule,
		},
		{
			Record: model.Record{Subject: "Team Standup Notes", Snippet: "highlights", Sender: "teammate@company.com"},
			Origin: model.OriginFailed,
		},
	}

	rows := make([]model.ExportRow, 0, len(classifications))
	for _, c := range classifications {
		rows = append(rows, model.NewExportRow(c))
	}
	return rows, model.Summarize(classifications)
}

func TestWriter_WriteCreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	w := newTestWriter(t, api, cfg)

	rows, summary := testRows()
	id, err := w.Write(context.Background(), rows, summary)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)

	require.Len(t, api.updates, 1)
	values := api.updates[0].Values
	require.GreaterOrEqual(t, len(values), 3)
	assert.Equal(t, []any{"Subject", "Snippet", "From", "Category"}, values[0])
	assert.Equal(t, []any{"Interview with Google", "Friday", "recruiter@google.com", "Urgent"}, values[1])
	assert.Equal(t, "ClassificationFailed", values[2][3])

	var sawSummary bool
	for _, row := range values {
		if len(row) == 2 && row[0] == model.FailedLabel {
			sawSummary = true
			assert.InDelta(t, 1, row[1], 0)
		}
	}
	assert.True(t, sawSummary, "summary block written")
}

func TestWriter_WriteAddsTabToExistingSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "existing"
	cfg.EnableFormatting = false
	w := newTestWriter(t, api, cfg)

	rows, summary := testRows()
	id, err := w.Write(context.Background(), rows, summary)
	require.NoError(t, err)
	assert.Equal(t, "existing", id)

	var addSheet bool
	for _, req := range api.requests {
		if req == "POST /v4/spreadsheets/existing:batchUpdate" {
			addSheet = true
		}
	}
	assert.True(t, addSheet)
}

func TestWriter_RetriesTransientErrors(t *testing.T) {
	api := &fakeSheetsAPI{clearErrors: 1}
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.EnableFormatting = false
	w := newTestWriter(t, api, cfg)

	rows, summary := testRows()
	_, err := w.Write(context.Background(), rows, summary)
	require.NoError(t, err)
	assert.Len(t, api.updates, 1)
}

func TestWriter_DoesNotRetryClientErrors(t *testing.T) {
	api := &fakeSheetsAPI{getStatus: http.StatusForbidden}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "existing"
	cfg.RetryDelay = time.Millisecond
	w := newTestWriter(t, api, cfg)

	rows, summary := testRows()
	_, err := w.Write(context.Background(), rows, summary)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrMaxRetries)
	assert.Len(t, api.requests, 1)
}

func TestPrepareValues(t *testing.T) {
	rows, summary := testRows()
	values := prepareValues(rows, summary)

	// header + 2 rows + blank + heading + 3 categories + failed + total
	assert.Len(t, values, 10)
	assert.Equal(t, []any{"Summary"}, values[4])
	assert.Equal(t, []any{"Urgent", 1}, values[5])
	assert.Equal(t, []any{"Read Later", 0}, values[6])
	assert.Equal(t, []any{"Total", 2}, values[9])
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	rows, summary := testRows()

	id, err := m.Write(context.Background(), rows, summary)
	require.NoError(t, err)
	assert.Equal(t, "mock-spreadsheet", id)
	assert.Equal(t, 1, m.WriteCallCount)
	assert.Len(t, m.GetWriteCalls(), 1)

	m.Reset()
	assert.Zero(t, m.WriteCallCount)
}

package llm

import (
	"testing"

	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRankings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    model.LabelRankings
		wantErr bool
	}{
		{
			name: "rankings format",
			content: `RANKINGS:
Urgent|0.82
Read Later|0.15
Ignore|0.03`,
			want: model.LabelRankings{
				{Label: "Urgent", Score: 0.82},
				{Label: "Read Later", Score: 0.15},
				{Label: "Ignore", Score: 0.03},
			},
		},
		{
			name:    "markdown fenced with percentages and bullets",
			content: "```text\nRANKINGS:\n- Ignore|90%\n- Urgent | 5%\n```",
			want: model.LabelRankings{
				{Label: "Ignore", Score: 0.9},
				{Label: "Urgent", Score: 0.05},
			},
		},
		{
			name:    "single category answer",
			content: "CATEGORY: Read Later\nCONFIDENCE: 0.7",
			want:    model.LabelRankings{{Label: "Read Later", Score: 0.7}},
		},
		{
			name:    "scores are clamped",
			content: "RANKINGS:\nUrgent|7",
			want:    model.LabelRankings{{Label: "Urgent", Score: 1.0}},
		},
		{
			name:    "duplicate labels keep best score",
			content: "RANKINGS:\nUrgent|0.2\nUrgent|0.6",
			want:    model.LabelRankings{{Label: "Urgent", Score: 0.6}},
		},
		{
			name:    "malformed lines skipped",
			content: "RANKINGS:\nno pipe here\nIgnore|abc\nUrgent|0.4",
			want:    model.LabelRankings{{Label: "Urgent", Score: 0.4}},
		},
		{
			name:    "nothing usable",
			content: "I think this is probably important.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRankings(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseZeroShot(t *testing.T) {
	t.Run("pipeline shape", func(t *testing.T) {
		body := []byte(`{"sequence":"x","labels":["Ignore","Urgent","Read Later"],"scores":[0.7,0.2,0.1]}`)
		got, err := parseZeroShot(body)
		require.NoError(t, err)
		assert.Equal(t, "Ignore", got.Top().Label)
		assert.Len(t, got, 3)
	})

	t.Run("router shape", func(t *testing.T) {
		body := []byte(`[{"label":"Urgent","score":0.91},{"label":"Ignore","score":0.05}]`)
		got, err := parseZeroShot(body)
		require.NoError(t, err)
		assert.Equal(t, "Urgent", got.Top().Label)
	})

	t.Run("model loading error", func(t *testing.T) {
		_, err := parseZeroShot([]byte(`{"error":"Model facebook/bart-large-mnli is currently loading","estimated_time":20}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "currently loading")
	})

	t.Run("mismatched arrays", func(t *testing.T) {
		_, err := parseZeroShot([]byte(`{"labels":["Urgent"],"scores":[]}`))
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := parseZeroShot([]byte("  "))
		require.Error(t, err)
	})
}

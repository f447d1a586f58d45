package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/inbox-triage/internal/model"
)

const (
	defaultZeroShotModel   = "facebook/bart-large-mnli"
	defaultHuggingFaceBase = "https://router.huggingface.co/hf-inference/models"
)

// huggingFaceClient runs zero-shot classification on the Hugging Face inference API.
type huggingFaceClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

// zeroShotResponse is the classic pipeline shape: parallel labels and scores.
type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Error    string    `json:"error"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// zeroShotItem is the router shape: a list of label/score objects.
type zeroShotItem struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// newHuggingFaceClient creates a zero-shot client. The API key is optional for public models.
func newHuggingFaceClient(cfg Config) (Client, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultZeroShotModel
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultHuggingFaceBase
	}

	return &huggingFaceClient{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimSuffix(base, "/") + "/" + modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Rank posts the text and candidate labels and returns the model's scores.
func (c *huggingFaceClient) Rank(ctx context.Context, text string, labels []string) (model.LabelRankings, error) {
	payload, err := json.Marshal(zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hugging face API error (status %d): %s", resp.StatusCode, string(body))
	}

	return parseZeroShot(body)
}

func parseZeroShot(body []byte) (model.LabelRankings, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	if trimmed[0] == '[' {
		var items []zeroShotItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		rankings := make(model.LabelRankings, 0, len(items))
		for _, item := range items {
			rankings = append(rankings, model.LabelRanking{Label: item.Label, Score: clampScore(item.Score)})
		}
		return rankings, nil
	}

	var resp zeroShotResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("hugging face error: %s", resp.Error)
	}
	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("mismatched labels (%d) and scores (%d)", len(resp.Labels), len(resp.Scores))
	}

	rankings := make(model.LabelRankings, len(resp.Labels))
	for i := range resp.Labels {
		rankings[i] = model.LabelRanking{Label: resp.Labels[i], Score: clampScore(resp.Scores[i])}
	}
	return rankings, nil
}

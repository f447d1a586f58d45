package llm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// parseRankings parses an LLM response in the RANKINGS format:
//
//	RANKINGS:
//	label|score
//
// A single "CATEGORY: x / CONFIDENCE: y" answer is accepted as a one-entry ranking.
func parseRankings(content string) (model.LabelRankings, error) {
	content = cleanMarkdownWrapper(content)
	lines := strings.Split(strings.TrimSpace(content), "\n")

	var rankings model.LabelRankings
	var inRankings bool
	var category string
	var confidence float64

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.EqualFold(line, "RANKINGS:"):
			inRankings = true
			continue
		case strings.HasPrefix(line, "CATEGORY:"):
			category = strings.TrimSpace(strings.TrimPrefix(line, "CATEGORY:"))
			continue
		case strings.HasPrefix(line, "CONFIDENCE:"):
			confidence, _ = parseScore(strings.TrimPrefix(line, "CONFIDENCE:"))
			continue
		}

		if !inRankings {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 2 {
			continue
		}

		label := strings.Trim(strings.TrimSpace(parts[0]), "-* ")
		score, ok := parseScore(parts[1])
		if label == "" || !ok {
			continue
		}

		rankings = append(rankings, model.LabelRanking{Label: label, Score: score})
	}

	if len(rankings) == 0 && category != "" {
		rankings = model.LabelRankings{{Label: category, Score: clampScore(confidence)}}
	}

	if len(rankings) == 0 {
		return nil, fmt.Errorf("no valid rankings found in response")
	}

	return dedupe(rankings), nil
}

// parseScore accepts "0.85", "85%" and stray punctuation around a number.
func parseScore(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)

	percent := strings.HasSuffix(s, "%")
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)

	score, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		score /= 100.0
	}

	return clampScore(score), true
}

func clampScore(score float64) float64 {
	switch {
	case score < 0.0:
		return 0.0
	case score > 1.0:
		return 1.0
	}
	return score
}

// dedupe keeps the highest score for repeated labels.
func dedupe(rankings model.LabelRankings) model.LabelRankings {
	best := make(map[string]int, len(rankings))
	out := make(model.LabelRankings, 0, len(rankings))

	for _, r := range rankings {
		if idx, ok := best[r.Label]; ok {
			if r.Score > out[idx].Score {
				out[idx].Score = r.Score
			}
			continue
		}
		best[r.Label] = len(out)
		out = append(out, r)
	}

	return out
}

// cleanMarkdownWrapper strips ``` fences that models like to wrap answers in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if nl := strings.Index(content, "\n"); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")

	return strings.TrimSpace(content)
}

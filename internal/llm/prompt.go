package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an email triage assistant. You rank priority labels for an email. Respond only in the exact format requested."

// buildRankingPrompt asks a chat model to score every candidate label.
func buildRankingPrompt(text string, labels []string) string {
	var labelList strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&labelList, "- %s\n", label)
	}

	return fmt.Sprintf(`Decide how an inbox owner should prioritize this email.

Email:
%s

Labels to rank:
%s
Guidelines:
- Urgent: needs attention soon (interviews, offers, deadlines, security or account alerts)
- Read Later: worth reading but not time-sensitive (receipts, statements, newsletters, updates)
- Ignore: promotional or low-value mail

Score EVERY label from 0.0 to 1.0 and answer in exactly this format:

RANKINGS:
label|score
label|score`,
		strings.TrimSpace(text),
		labelList.String())
}

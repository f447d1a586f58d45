package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/engine"
	"github.com/Veraticus/inbox-triage/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Filter selects which records are listed.
type Filter string

// Supported filters.
const (
	FilterAll       Filter = "all"
	FilterUrgent    Filter = "urgent"
	FilterReadLater Filter = "readlater"
	FilterIgnore    Filter = "ignore"
	FilterFailed    Filter = "failed"
)

// ParseFilter accepts the filter names case-insensitively, ignoring spaces
// and dashes, plus "promo" for ignore. Empty means all.
func ParseFilter(raw string) (Filter, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)

	switch s {
	case "", "all":
		return FilterAll, nil
	case "urgent":
		return FilterUrgent, nil
	case "readlater":
		return FilterReadLater, nil
	case "ignore", "promo":
		return FilterIgnore, nil
	case "failed", "classificationfailed":
		return FilterFailed, nil
	default:
		return "", fmt.Errorf("unknown filter %q: use all, urgent, readlater, ignore or failed", raw)
	}
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c model.Classification) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterFailed:
		return c.Failed()
	case FilterUrgent:
		return !c.Failed() && c.Category == model.CategoryUrgent
	case FilterReadLater:
		return !c.Failed() && c.Category == model.CategoryReadLater
	case FilterIgnore:
		return !c.Failed() && c.Category == model.CategoryIgnore
	default:
		return false
	}
}

// Entry is a classification with its 1-based position in the full list.
// Numbers stay stable under filtering so "<n> <category>" always refers to
// the same record.
type Entry struct {
	Classification model.Classification
	Number         int
}

// Select numbers list and keeps the entries matching f.
func Select(list []model.Classification, f Filter) []Entry {
	entries := make([]Entry, 0, len(list))
	for i, c := range list {
		if f.Matches(c) {
			entries = append(entries, Entry{Number: i + 1, Classification: c})
		}
	}
	return entries
}

// RenderEntry renders one record card.
func RenderEntry(e Entry) string {
	c := e.Classification
	label := SubtleStyle.Render
	lines := []string{
		BoldStyle.Render(fmt.Sprintf("#%d", e.Number)),
		label("Subject: ") + c.Record.Subject,
		label("Snippet: ") + c.Record.Snippet,
		label("From:    ") + c.Record.Sender,
		label("Category: ") + DisplayFor(c.Label()).Badge() + " " + SubtleStyle.Render("("+originText(c)+")"),
	}
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func originText(c model.Classification) string {
	switch c.Origin {
	case model.OriginRule:
		return "rule"
	case model.OriginFallback:
		return fmt.Sprintf("classifier %.0f%%", c.Confidence*100)
	case model.OriginUserOverride:
		return "you"
	case model.OriginFailed:
		return c.Reason
	default:
		return string(c.Origin)
	}
}

// RenderList writes a card per entry, or a note when nothing matches.
func RenderList(w io.Writer, entries []Entry, f Filter) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo(fmt.Sprintf("No records match filter %q", f)))
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, RenderEntry(e)); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

// RenderSummary renders the per-bucket counts. Failed records are counted on
// their own line and never inside a bucket.
func RenderSummary(s model.Summary) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Summary") + "\n")
	for _, cat := range model.Categories() {
		fmt.Fprintf(&b, "  %-22s %d\n", DisplayFor(string(cat)).Badge(), s.ByCategory[cat])
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, "  %-22s %d\n", DisplayFor(model.FailedLabel).Badge(), s.Failed)
	}
	fmt.Fprintf(&b, "  %-22s %d\n", BoldStyle.Render("Total"), s.Total)
	return b.String()
}

// RenderChanges lists the user's reclassifications made this session.
func RenderChanges(changes []engine.Change) string {
	if len(changes) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(EditIcon+" User Reclassifications") + "\n")
	for _, ch := range changes {
		subject := ch.Record.Subject
		if subject == "" {
			subject = ch.Identity[:min(12, len(ch.Identity))]
		}
		from := ch.From
		if from == "" {
			from = "unclassified"
		}
		fmt.Fprintf(&b, "  ➡️ %s changed from %s to %s\n",
			BoldStyle.Render(subject),
			DisplayFor(from).Name,
			DisplayFor(string(ch.To)).Name)
	}
	return b.String()
}

package classification

import (
	"fmt"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// Normalize maps any label string onto a canonical category. Decorated and
// legacy forms ("Urgent 🔴", "Promo", "Read Later (AI)") are accepted.
// Unknown labels become ReadLater so nothing is hidden by mistake.
func Normalize(raw string) model.Category {
	lowered := strings.ToLower(raw)

	switch {
	case strings.Contains(lowered, "urgent"):
		return model.CategoryUrgent
	case strings.Contains(lowered, "ignore"), strings.Contains(lowered, "promo"):
		return model.CategoryIgnore
	default:
		return model.CategoryReadLater
	}
}

// ParseCategory strictly parses a user-supplied category. It accepts the
// canonical names and their display forms, case-insensitively, and rejects
// everything else with common.ErrInvalidCategory.
func ParseCategory(s string) (model.Category, error) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))

	for _, c := range model.Categories() {
		if key == strings.ToLower(string(c)) {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q (want one of Urgent, ReadLater, Ignore)", common.ErrInvalidCategory, s)
}

package model

// Category is one of the three canonical priority buckets.
type Category string

// Canonical categories.
const (
	CategoryUrgent    Category = "Urgent"
	CategoryReadLater Category = "ReadLater"
	CategoryIgnore    Category = "Ignore"
)

// FailedLabel is the category value surfaced for records whose classification failed.
// It is deliberately not one of the canonical categories.
const FailedLabel = "ClassificationFailed"

// Categories returns the canonical categories in candidate-label order.
func Categories() []Category {
	return []Category{CategoryUrgent, CategoryReadLater, CategoryIgnore}
}

// Valid reports whether c is a canonical category.
func (c Category) Valid() bool {
	switch c {
	case CategoryUrgent, CategoryReadLater, CategoryIgnore:
		return true
	}
	return false
}

// DisplayName returns the human-facing name of the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryReadLater:
		return "Read Later"
	case CategoryUrgent, CategoryIgnore:
		return string(c)
	}
	return FailedLabel
}

func (c Category) String() string {
	return string(c)
}

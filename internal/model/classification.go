// Package model defines the core domain models used throughout the application.
package model

import "time"

// Origin indicates how a classification was produced.
type Origin string

// Origin constants.
const (
	OriginRule         Origin = "RULE"
	OriginFallback     Origin = "FALLBACK"
	OriginUserOverride Origin = "USER_OVERRIDE"
	OriginFailed       Origin = "FAILED"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginRule, OriginFallback, OriginUserOverride, OriginFailed:
		return true
	}
	return false
}

// Automatic reports whether the origin was produced without user action.
func (o Origin) Automatic() bool {
	return o == OriginRule || o == OriginFallback || o == OriginFailed
}

// Classification is the current label held for a record identity.
type Classification struct {
	ClassifiedAt time.Time `json:"classified_at"`
	Identity     string    `json:"identity"`
	Category     Category  `json:"category,omitempty"`
	Origin       Origin    `json:"origin"`
	Reason       string    `json:"reason,omitempty"`
	Record       Record    `json:"record"`
	Confidence   float64   `json:"confidence,omitempty"`
}

// Failed reports whether the classification is in the failed state.
func (c Classification) Failed() bool {
	return c.Origin == OriginFailed
}

// Label returns the category as presented to callers, or FailedLabel for failed records.
func (c Classification) Label() string {
	if c.Failed() {
		return FailedLabel
	}
	return string(c.Category)
}

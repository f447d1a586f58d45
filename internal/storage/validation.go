package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/inbox-triage/internal/model"
)

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrEmptyString           = errors.New("string parameter cannot be empty")
	ErrInvalidClassification = errors.New("invalid classification")
	ErrOverrideProtected     = errors.New("user override cannot be replaced by an automatic result")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateClassification checks the fields every backend relies on.
func validateClassification(c model.Classification) error {
	if err := validateString(c.Identity, "identity"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidClassification, err)
	}
	if !c.Origin.Valid() {
		return fmt.Errorf("%w: unknown origin %q", ErrInvalidClassification, c.Origin)
	}
	if c.Failed() {
		if c.Category != "" {
			return fmt.Errorf("%w: failed classification carries category %q", ErrInvalidClassification, c.Category)
		}
		return nil
	}
	if !c.Category.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidClassification, c.Category)
	}
	return nil
}

// checkReplace enforces that user overrides only ever give way to newer overrides.
func checkReplace(existing model.Origin, next model.Origin) error {
	if existing == model.OriginUserOverride && next.Automatic() {
		return ErrOverrideProtected
	}
	return nil
}

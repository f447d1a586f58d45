package googleauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/inbox-triage/internal/common"
	"google.golang.org/api/googleapi"
)

// ClassifyAPIError tags a Google API error for common.WithRetry. Rate limits
// wrap common.ErrRateLimit, other client errors are permanent and everything
// else is retried.
func ClassifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return &common.RetryableError{Err: err, Retryable: true}
	}
}

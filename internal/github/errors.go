package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
)

// ErrAssetURLMissing is returned when an asset has no usable fetch URL.
var ErrAssetURLMissing = errors.New("release asset has no download url")

// NetworkError reports a transport failure or a non-success status.
type NetworkError struct {
	// URL is the requested URL.
	URL string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request %s failed with status code %d: %v", e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.StatusCode
	}

	return 0
}

// newNetworkError wraps a go-github failure, keeping the status when one was received.
func newNetworkError(url string, resp *github.Response, err error) *NetworkError {
	netErr := &NetworkError{
		URL: url,
		Err: err,
	}

	var (
		errResp    *github.ErrorResponse
		rateErr    *github.RateLimitError
		abuseErr   *github.AbuseRateLimitError
		acceptErr  *github.AcceptedError
		httpStatus *http.Response
	)

	switch {
	case errors.As(err, &errResp):
		httpStatus = errResp.Response
	case errors.As(err, &rateErr):
		httpStatus = rateErr.Response
	case errors.As(err, &abuseErr):
		httpStatus = abuseErr.Response
	case errors.As(err, &acceptErr):
		netErr.StatusCode = http.StatusAccepted
	}

	if httpStatus == nil && resp != nil {
		httpStatus = resp.Response
	}

	if httpStatus != nil {
		netErr.StatusCode = httpStatus.StatusCode
	}

	return netErr
}

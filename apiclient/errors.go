package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
)

var (
	// ErrSessionExpired is returned by admin calls when the session token's
	// exp claim has passed. The request is not sent.
	ErrSessionExpired = errors.New("apiclient: session expired")

	// ErrNoSession is returned by admin calls when no token is set.
	ErrNoSession = errors.New("apiclient: no admin session")

	// ErrUnknownResource is returned for a Resource outside Resources.
	ErrUnknownResource = errors.New("apiclient: unknown resource")

	// ErrInvalidID is returned for an item ID that cannot be cached under
	// its own key. No request is sent.
	ErrInvalidID = errors.New("apiclient: invalid item id")

	// ErrBaseURLRequired is returned by New when Config.BaseURL is empty.
	ErrBaseURLRequired = errors.New("apiclient: base URL is required")
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// codeForStatus maps an HTTP status to a platform error code.
func codeForStatus(status int) platformerrors.ErrorCode {
	switch {
	case status == http.StatusNotFound:
		return platformerrors.CodeNotFound
	case status == http.StatusUnauthorized:
		return platformerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return platformerrors.CodeForbidden
	case status == http.StatusConflict:
		return platformerrors.CodeConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return platformerrors.CodeInvalidInput
	case status == http.StatusTooManyRequests:
		return platformerrors.CodeRateLimit
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return platformerrors.CodeTimeout
	case status >= 500:
		return platformerrors.CodeUnavailable
	default:
		return platformerrors.CodeUnknown
	}
}

// statusError builds the error for a non-2xx response. The body is read for
// an {"error": "..."} or {"message": "..."} payload.
func statusError(resp *http.Response, method, path string) error {
	msg := errorMessage(resp)
	err := platformerrors.New(codeForStatus(resp.StatusCode), msg)
	return platformerrors.WithContextMap(err, map[string]interface{}{
		"status": resp.StatusCode,
		"method": method,
		"path":   path,
	})
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// transportError classifies a failure to get any response at all.
func transportError(err error, method, path string) error {
	code := platformerrors.CodeNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		code = platformerrors.CodeTimeout
	}
	return platformerrors.WrapWithContext(err, code, "request failed", map[string]interface{}{
		"method": method,
		"path":   path,
	})
}

// IsNotFound reports whether err is a NOT_FOUND platform error.
func IsNotFound(err error) bool {
	return platformerrors.GetCode(err) == platformerrors.CodeNotFound
}

// IsUnauthorized reports whether err means the admin session must be renewed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrNoSession) ||
		platformerrors.GetCode(err) == platformerrors.CodeUnauthorized
}

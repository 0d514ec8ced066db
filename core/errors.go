package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-flaghooks/transport"
)

const (
	ErrorNotificationRejected = "FLAG_NOTIFICATION_REJECTED"
	ErrorTransportFailure     = transport.TextCodeTransportFailure
	ErrorBadInput             = transport.TextCodeBadInput
	ErrorInternal             = transport.TextCodeInternal
)

const (
	metadataKeyStatusCode = "status_code"
	metadataKeyBody       = "body"
	metadataKeyTruncated  = transport.MetadataBodyTruncated
)

// newRejectionError builds the single error kind returned when the remote
// answers with a 4xx or 5xx status. A body cut at the response limit is
// flagged in the message and in metadata.
func newRejectionError(category Category, req TransportRequest, res TransportResponse) *goerrors.Error {
	cause := transport.NewStatusError(req, res)
	body := string(res.Body)
	truncated := res.BodyTruncated()
	label := "Returned body"
	if truncated {
		label = "Returned body (truncated)"
	}
	message := fmt.Sprintf("%s %s: %s", category.errorPrefix(), label, body)
	return goerrors.Wrap(cause, goerrors.CategoryExternal, message).
		WithCode(res.StatusCode).
		WithTextCode(ErrorNotificationRejected).
		WithMetadata(map[string]any{
			metadataKeyStatusCode: res.StatusCode,
			metadataKeyBody:       body,
			metadataKeyTruncated:  truncated,
			"category":            category.String(),
			"method":              cause.Method,
			"url":                 req.URL,
		})
}

func isRejectedStatus(statusCode int) bool {
	return statusCode >= http.StatusBadRequest
}

// IsNotificationRejected reports whether err is a remote rejection produced by the listener.
func IsNotificationRejected(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return strings.TrimSpace(rich.TextCode) == ErrorNotificationRejected
}

// RejectionDetails extracts the remote status code and response body of a rejection.
func RejectionDetails(err error) (int, string, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != ErrorNotificationRejected {
		return 0, "", false
	}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) && statusErr != nil {
		return statusErr.StatusCode, string(statusErr.Body), true
	}
	return rich.Code, fmt.Sprint(rich.Metadata[metadataKeyBody]), true
}

func badInputError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
}

func validationError(field string, message string) *goerrors.Error {
	return goerrors.NewValidation("core: validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput)
}

func internalError(source error, message string) *goerrors.Error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorInternal)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

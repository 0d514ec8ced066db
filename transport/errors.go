package transport

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBadInput         = "FLAG_BAD_INPUT"
	TextCodeTransportFailure = "FLAG_TRANSPORT_FAILURE"
	TextCodeInternal         = "FLAG_INTERNAL_ERROR"
)

// StatusError describes a response the remote answered with a failure status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func NewStatusError(req Request, res Response) *StatusError {
	return &StatusError{
		Method:     strings.ToUpper(strings.TrimSpace(req.Method)),
		URL:        req.URL,
		StatusCode: res.StatusCode,
		Body:       append([]byte(nil), res.Body...),
	}
}

func (e *StatusError) Error() string {
	if e == nil {
		return "transport: <nil status error>"
	}
	return fmt.Sprintf("transport: %s %s responded with status %d", e.Method, e.URL, e.StatusCode)
}

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return TextCodeBadInput
	case goerrors.CategoryExternal:
		return TextCodeTransportFailure
	default:
		return TextCodeInternal
	}
}

package myerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type httpErrorCoder interface {
	error
	GetHTTPErrorCode() int
}

type httpError struct {
	httpCode int
	err      error
}

func (e httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

// Unwrap exposes the cause so callers can use errors.Is and errors.As on domain errors.
func (e httpError) Unwrap() error {
	return e.err
}

func newError(httpCode int, err error) *httpError {
	return &httpError{
		httpCode: httpCode,
		err:      err,
	}
}

func NewInvalidInputError(err error) *httpError {
	return newError(http.StatusBadRequest, err)
}

func NewInvalidInputErrorf(format string, args ...interface{}) *httpError {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

func NewAuthenticationError(err error) *httpError {
	return newError(http.StatusForbidden, err)
}

func NewNotFoundError(err error) *httpError {
	return newError(http.StatusNotFound, err)
}

func NewPayloadTooLargeError(err error) *httpError {
	return newError(http.StatusRequestEntityTooLarge, err)
}

func NewUnsupportedMediaTypeError(err error) *httpError {
	return newError(http.StatusUnsupportedMediaType, err)
}

func NewInternalError(err error) *httpError {
	return newError(http.StatusInternalServerError, err)
}

func NewNotImplementedError(err error) *httpError {
	return newError(http.StatusNotImplemented, err)
}

// NewUpstreamError marks a failure of the payment processor or the mail transport.
func NewUpstreamError(err error) *httpError {
	return newError(http.StatusBadGateway, err)
}

func NewUnavailableError(err error) *httpError {
	return newError(http.StatusServiceUnavailable, err)
}

// GetHTTPStatus returns the status of the outermost http error in the chain.
func GetHTTPStatus(err error) int {
	if err != nil {
		var coder httpErrorCoder
		if errors.As(err, &coder) {
			return coder.GetHTTPErrorCode()
		}
	}
	return http.StatusInternalServerError
}

// GetMessage strips the status prefixes so the message can be shown to a client.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var he *httpError
	for errors.As(err, &he) {
		err = he.err
	}
	return err.Error()
}

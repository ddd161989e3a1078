package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/session"
)

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errs.Code) int {
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPath, errs.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errs.ErrCodeDecode, errs.ErrCodeEncode:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeNotLoaded:
		return http.StatusConflict
	case errs.ErrCodeNotFound, errs.ErrCodeSessionNotFound, errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.ErrCodeLimit:
		return http.StatusServiceUnavailable
	case errs.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// classify gives uncoded errors from lower layers a code.
func classify(err error) error {
	if errs.GetCode(err) != "" {
		return err
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return errs.Wrap(errs.ErrCodeTooLarge, err, "request body exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, session.ErrNotFound):
		return errs.Wrap(errs.ErrCodeSessionNotFound, err, "engine session")
	case errors.Is(err, session.ErrLimit):
		return errs.Wrap(errs.ErrCodeLimit, err, "engine session")
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, "request")
	}
	return errs.Wrap(errs.ErrCodeInternal, err, "internal error")
}

func writeError(w http.ResponseWriter, err error) {
	err = classify(err)
	code := errs.GetCode(err)
	msg := errs.UserMessage(err)
	if code == errs.ErrCodeInternal {
		msg = "internal error"
	}
	writeJSON(w, statusFor(code), errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errNotFound(path string) error {
	return errs.New(errs.ErrCodeNotFound, "no route for %s", path)
}

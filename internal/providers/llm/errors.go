package llm

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/sandevgo/vitalbot/internal/core"
)

// statusOverloaded is Anthropic's "overloaded" status.
const statusOverloaded = 529

// transientStatus reports whether an HTTP status is worth retrying.
func transientStatus(code int) bool {
	switch {
	case code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code == http.StatusTooManyRequests,
		code == statusOverloaded:
		return true
	case code >= 500:
		return true
	}
	return false
}

func byStatus(code int, err error) error {
	if transientStatus(code) {
		return &core.ModelTransientError{StatusCode: code, Err: err}
	}
	return &core.ModelFatalError{StatusCode: code, Err: err}
}

// classify maps an SDK error onto the model error taxonomy. Context errors
// pass through untouched so the caller can tell its own deadline apart.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return byStatus(aerr.StatusCode, err)
	}
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return byStatus(oerr.StatusCode, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &core.ModelTransientError{Err: err}
	}
	return &core.ModelFatalError{Err: err}
}

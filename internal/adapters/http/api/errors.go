package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/EvanTenenbaum/TERP-sub019/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// opError tags a kind or cause with the handler operation that produced it.
type opError struct {
	op  string
	err error
}

func (e *opError) Error() string { return e.op + ": " + e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, err: kind}
}

// Wrap attaches op to err. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// problem is the public face of an error. Message never carries the cause.
type problem struct {
	status  int
	code    string
	message string
}

// classify maps engine and API errors to a status, a code and a generic
// message.
func classify(err error) problem {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return problem{http.StatusBadRequest, "limit_exceeded", "limit is out of range"}
	case errors.Is(err, service.ErrInvalidMetricType):
		return problem{http.StatusBadRequest, "invalid_leaderboard_type", "unknown leaderboard type"}
	case errors.Is(err, service.ErrInvalidDisplayMode):
		return problem{http.StatusBadRequest, "invalid_display_mode", "unknown display mode"}
	case errors.Is(err, ErrBadRequest):
		return problem{http.StatusBadRequest, "bad_request", "invalid request"}
	case errors.Is(err, service.ErrClientNotFound):
		return problem{http.StatusNotFound, "client_not_found", "client not found"}
	case errors.Is(err, service.ErrClientNotRanked):
		return problem{http.StatusNotFound, "client_not_ranked", "client is not ranked on this leaderboard"}
	case errors.Is(err, service.ErrPopulationTooSmall):
		return problem{http.StatusUnprocessableEntity, "population_too_small", "not enough data to rank"}
	case errors.Is(err, service.ErrUpstreamTimeout):
		return problem{http.StatusServiceUnavailable, "upstream_unavailable", "unable to load ranking data"}
	}
	return problem{http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)}
}

func badRequest(op, format string, args ...any) error {
	return NewKind(op, fmt.Errorf("%w: "+format, append([]any{ErrBadRequest}, args...)...))
}

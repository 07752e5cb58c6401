package wmts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork       = errors.New("wmts: network failure")
	ErrHTTPStatus    = errors.New("wmts: unexpected http status")
	ErrParse         = errors.New("wmts: capabilities parse failure")
	ErrLayerNotFound = errors.New("wmts: layer not found")
	ErrGridMismatch  = errors.New("wmts: inconsistent tile grid")
	ErrOutOfRange    = errors.New("wmts: zoom level out of range")
)

// NetworkError is a request that could not complete: DNS, refused
// connections, timeouts, cancelled contexts and truncated bodies.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// HTTPStatusError is a completed request with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// ParseError is a document that is not well-formed XML or is not
// a WMTS capabilities document.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse capabilities: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

func parseErrorf(format string, args ...any) error {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}

type LayerNotFoundError struct {
	Layer     string
	Available []string
}

func (e *LayerNotFoundError) Error() string {
	return fmt.Sprintf("layer %q not in capabilities (have: %s)", e.Layer, strings.Join(e.Available, ", "))
}

func (e *LayerNotFoundError) Is(target error) bool {
	return target == ErrLayerNotFound
}

// FailureKind classifies why a capabilities-driven layer could not be built.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNetwork
	FailureHTTPStatus
	FailureParse
	FailureLayerNotFound
	FailureOther
)

var failureKindNames = map[FailureKind]string{
	FailureNone:          "none",
	FailureNetwork:       "network",
	FailureHTTPStatus:    "http_status",
	FailureParse:         "parse",
	FailureLayerNotFound: "layer_not_found",
	FailureOther:         "other",
}

func (k FailureKind) String() string {
	if s, ok := failureKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// KindOf classifies err. A nil error is FailureNone.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrHTTPStatus):
		return FailureHTTPStatus
	case errors.Is(err, ErrNetwork):
		return FailureNetwork
	case errors.Is(err, ErrParse):
		return FailureParse
	case errors.Is(err, ErrLayerNotFound):
		return FailureLayerNotFound
	}
	return FailureOther
}

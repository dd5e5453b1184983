package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInput           = errors.New("input error")
	ErrTransport       = errors.New("transport error")
	ErrPermission      = errors.New("permission error")
	ErrStale           = errors.New("stale response")
	ErrAlreadyInFlight = errors.New("already in flight")
	ErrConfiguration   = errors.New("configuration error")
)

// FailureKind classifies an error into the journey's failure taxonomy.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailureInput           FailureKind = "input"
	FailureTransport       FailureKind = "transport"
	FailurePermission      FailureKind = "permission"
	FailureStale           FailureKind = "stale"
	FailureAlreadyInFlight FailureKind = "already_in_flight"
	FailureConfiguration   FailureKind = "configuration"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransport
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to its FailureKind. Unmarked errors are treated as
// transport failures since every external call is reached over the network.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrAlreadyInFlight):
		return FailureAlreadyInFlight
	case errors.Is(err, ErrInput):
		return FailureInput
	case errors.Is(err, ErrPermission):
		return FailurePermission
	case errors.Is(err, ErrStale):
		return FailureStale
	case errors.Is(err, ErrConfiguration):
		return FailureConfiguration
	default:
		return FailureTransport
	}
}

// Surfaced reports whether a failure of this kind should reach the user.
// Stale responses and permission fallbacks are handled silently.
func (k FailureKind) Surfaced() bool {
	switch k {
	case FailureInput, FailureTransport, FailureConfiguration:
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

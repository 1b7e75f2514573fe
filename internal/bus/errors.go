// internal/bus/errors.go
package bus

import (
	"fmt"
	"strings"
)

// ConnectErrorKind distinguishes the two fatal connector outcomes. Callers
// treat both as fatal at startup but must log them differently: exhausted
// candidates means the bus was unreachable, while unavailable provisioning
// means the transport connected fine but JetStream is missing or disabled.
type ConnectErrorKind int

const (
	KindAllCandidatesExhausted ConnectErrorKind = iota
	KindProvisioningUnavailable
)

func (k ConnectErrorKind) String() string {
	switch k {
	case KindAllCandidatesExhausted:
		return "all candidates exhausted"
	case KindProvisioningUnavailable:
		return "provisioning unavailable"
	default:
		return "unknown"
	}
}

// ConnectError is the error type returned by Connect.
type ConnectError struct {
	Kind ConnectErrorKind
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bus connect: %s", e.Kind)
	}
	return fmt.Sprintf("bus connect: %s: %v", e.Kind, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// looksLikeTLSError reports whether an error message matches the usual
// certificate-verification vocabulary. Used only to log a configuration
// hint; it never changes the error kind.
func looksLikeTLSError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "tls") ||
		strings.Contains(msg, "handshake") ||
		strings.Contains(msg, "x509")
}

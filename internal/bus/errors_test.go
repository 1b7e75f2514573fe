// internal/bus/errors_test.go
package bus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeTLSError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("connection refused"), false},
		{errors.New("x509: certificate signed by unknown authority"), true},
		{errors.New("tls: failed to verify"), true},
		{errors.New("TLS handshake timeout"), true},
		{errors.New("remote error: bad certificate"), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, looksLikeTLSError(tc.err), "err=%v", tc.err)
	}
}

func TestConnectErrorWrapping(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := &ConnectError{Kind: KindAllCandidatesExhausted, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "all candidates exhausted")
	assert.Contains(t, err.Error(), "connection refused")

	var cerr *ConnectError
	assert.True(t, errors.As(fmt.Errorf("startup: %w", err), &cerr))
	assert.Equal(t, KindAllCandidatesExhausted, cerr.Kind)
}

func TestConnectErrorKindsAreDistinct(t *testing.T) {
	exhausted := &ConnectError{Kind: KindAllCandidatesExhausted}
	unavailable := &ConnectError{Kind: KindProvisioningUnavailable}

	assert.NotEqual(t, exhausted.Kind, unavailable.Kind)
	assert.Contains(t, unavailable.Error(), "provisioning unavailable")
}

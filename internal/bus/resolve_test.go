// internal/bus/resolve_test.go
package bus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCandidatesLiteralIPv4(t *testing.T) {
	got := ResolveCandidates("192.168.1.50:4222")
	require.Len(t, got, 1, "literal IPs must not gain resolved variants")
	assert.Equal(t, Candidate{Label: "original", Addr: "192.168.1.50:4222"}, got[0])
}

func TestResolveCandidatesLiteralIPv4NoPort(t *testing.T) {
	got := ResolveCandidates("10.0.0.7")
	require.Len(t, got, 1)
	assert.Equal(t, "original", got[0].Label)
	assert.Equal(t, "10.0.0.7", got[0].Addr)
}

func TestResolveCandidatesLiteralIPv6(t *testing.T) {
	got := ResolveCandidates("[::1]:4222")
	require.Len(t, got, 1)
	assert.Equal(t, Candidate{Label: "original", Addr: "[::1]:4222"}, got[0])
}

func TestResolveCandidatesUnresolvableHost(t *testing.T) {
	got := ResolveCandidates("definitely-not-a-real-host.invalid:4222")
	require.Len(t, got, 1, "resolution failure must yield zero extra candidates, not an error")
	assert.Equal(t, "original", got[0].Label)
	assert.Equal(t, "definitely-not-a-real-host.invalid:4222", got[0].Addr)
}

func TestResolveCandidatesLocalhost(t *testing.T) {
	got := ResolveCandidates("localhost:4222")
	require.NotEmpty(t, got)
	assert.Equal(t, Candidate{Label: "original", Addr: "localhost:4222"}, got[0])

	seen := make(map[string]bool)
	lastV6 := -1
	firstV4 := len(got)
	for i, c := range got {
		assert.False(t, seen[c.Addr], "duplicate candidate %q", c.Addr)
		seen[c.Addr] = true

		switch c.Label {
		case "original":
			assert.Equal(t, 0, i, "original must come first")
		case "IPv6":
			lastV6 = i
			assert.True(t, strings.HasPrefix(c.Addr, "["), "IPv6 candidate %q must be bracketed", c.Addr)
			assert.True(t, strings.HasSuffix(c.Addr, ":4222"), "IPv6 candidate %q must keep the port", c.Addr)
		case "IPv4":
			if i < firstV4 {
				firstV4 = i
			}
			assert.True(t, strings.HasSuffix(c.Addr, ":4222"), "IPv4 candidate %q must keep the port", c.Addr)
		default:
			t.Fatalf("unexpected label %q", c.Label)
		}
	}
	if lastV6 >= 0 && firstV4 < len(got) {
		assert.Less(t, lastV6, firstV4, "IPv6 candidates must precede IPv4")
	}
}

func TestResolveCandidatesHostnameWithoutPort(t *testing.T) {
	got := ResolveCandidates("localhost")
	require.NotEmpty(t, got)
	assert.Equal(t, "localhost", got[0].Addr)
	for _, c := range got[1:] {
		assert.False(t, strings.HasSuffix(c.Addr, ":4222"),
			"portless input must yield portless candidates, got %q", c.Addr)
	}
}

func TestSplitHostPort(t *testing.T) {
	cases := []struct {
		in       string
		hostname string
		port     string
		hasPort  bool
	}{
		{"example.com:4222", "example.com", "4222", true},
		{"example.com", "example.com", defaultPort, false},
		{"example.com:notaport", "example.com:notaport", defaultPort, false},
		{"example.com:99999", "example.com:99999", defaultPort, false},
		{"[::1]:4222", "[::1]", "4222", true},
	}
	for _, tc := range cases {
		hostname, port, hasPort := splitHostPort(tc.in)
		assert.Equal(t, tc.hostname, hostname, "hostname for %q", tc.in)
		assert.Equal(t, tc.port, port, "port for %q", tc.in)
		assert.Equal(t, tc.hasPort, hasPort, "hasPort for %q", tc.in)
	}
}

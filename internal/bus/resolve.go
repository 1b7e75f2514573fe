// internal/bus/resolve.go
package bus

import (
	"net"
	"strconv"
	"strings"
)

// defaultPort is the conventional NATS client port, used only to keep
// resolution consistent when the configured host omits a port.
const defaultPort = "4222"

// Candidate is one address variant to try when connecting to the bus.
// Label is "original", "IPv6" or "IPv4".
type Candidate struct {
	Label string
	Addr  string
}

// ResolveCandidates expands a host string (optionally "host:port") into an
// ordered list of connection candidates. The original input is always first.
// If the hostname part is a DNS name, its resolved IPv6 addresses are
// appended before its IPv4 addresses, each re-assembled with the original
// port convention. Duplicates are removed preserving first-seen order.
// Resolution failure is not an error; it just yields no extra candidates.
func ResolveCandidates(host string) []Candidate {
	candidates := []Candidate{{Label: "original", Addr: host}}

	hostname, port, hasPort := splitHostPort(host)
	if ip := net.ParseIP(strings.Trim(hostname, "[]")); ip != nil {
		// Literal IP: nothing to resolve.
		return dedupeCandidates(candidates)
	}

	ips, err := net.LookupIP(strings.Trim(hostname, "[]"))
	if err != nil {
		return dedupeCandidates(candidates)
	}

	var v6, v4 []net.IP
	for _, ip := range ips {
		if ip.To4() != nil {
			v4 = append(v4, ip)
		} else {
			v6 = append(v6, ip)
		}
	}

	for _, ip := range v6 {
		addr := "[" + ip.String() + "]"
		if hasPort {
			addr += ":" + port
		}
		candidates = append(candidates, Candidate{Label: "IPv6", Addr: addr})
	}
	for _, ip := range v4 {
		addr := ip.String()
		if hasPort {
			addr += ":" + port
		}
		candidates = append(candidates, Candidate{Label: "IPv4", Addr: addr})
	}

	return dedupeCandidates(candidates)
}

// splitHostPort separates a trailing port from a host string. Only a suffix
// after the last colon that parses as a u16 counts as a port; anything else
// (including bare IPv6 literals) is treated as hostname-only.
func splitHostPort(host string) (hostname, port string, ok bool) {
	idx := strings.LastIndex(host, ":")
	if idx < 0 {
		return host, defaultPort, false
	}
	suffix := host[idx+1:]
	if n, err := strconv.ParseUint(suffix, 10, 16); err == nil && n > 0 {
		return host[:idx], suffix, true
	}
	return host, defaultPort, false
}

func dedupeCandidates(in []Candidate) []Candidate {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if seen[c.Addr] {
			continue
		}
		seen[c.Addr] = true
		out = append(out, c)
	}
	return out
}

// internal/bus/bus.go
package bus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/joshgordon/lobbyd/internal/config"
)

// Bucket names for the durable KV namespaces provisioned at startup.
const (
	BucketSessionsEg2Ly      = "sessions_eg2ly"
	BucketSessionsLy2Eg      = "sessions_ly2eg"
	BucketActiveConnections  = "active_connections"
	BucketUnclaimedSessions  = "unclaimed_sessions"
	BucketCertDigests        = "cert_digests"
	DeleteSessionStreamName  = "DELETE_SESSION_STREAM"
	DeleteSessionQueuePrefix = "edgegap_delete_session_q"
)

const (
	sessionMappingTTL  = 30 * time.Second
	certDigestTTL      = 14 * 24 * time.Hour
	maxKVValueSize     = 1024
	connectDialTimeout = 5 * time.Second
	connectRetryWait   = 2 * time.Second
)

// Bus is the shared handle to the message bus and the durable resources
// provisioned on it. It is safe for concurrent use and lives for the
// process lifetime once established.
type Bus struct {
	nc *nats.Conn
	js nats.JetStreamContext

	kvSessionsEg2Ly     nats.KeyValue
	kvSessionsLy2Eg     nats.KeyValue
	kvActiveConnections nats.KeyValue
	kvUnclaimedSessions nats.KeyValue
	kvCertDigests       nats.KeyValue
}

// Connect establishes the single bus connection for this process and
// provisions all durable resources on it.
//
// Candidate addresses are generated from cfg.NatsHost and tried strictly in
// order, one at a time; each candidate gets a bounded number of transport
// attempts before the next is tried. The first candidate to connect wins.
//
// After connecting, JetStream support is probed by round-tripping a
// throwaway KV bucket. A connected transport without JetStream yields a
// ConnectError of kind KindProvisioningUnavailable, which callers must not
// confuse with an unreachable bus (KindAllCandidatesExhausted).
func Connect(cfg *config.Config, clientName string) (*Bus, error) {
	log.Infof("bus: setting up, client name: %s", clientName)

	caFile := resolveCAFile(cfg, clientName)
	if cfg.NatsInsecure {
		log.Warn("bus: insecure mode - TLS verification is disabled. Not recommended for production!")
	} else if caFile != "" {
		log.Infof("bus: using custom CA certificate for TLS verification: %s", caFile)
	} else {
		log.Info("bus: using system trusted CA store for TLS verification")
	}

	nc, err := connectTransport(cfg, clientName, caFile)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, &ConnectError{Kind: KindProvisioningUnavailable, Err: err}
	}

	if err := probeJetStream(js); err != nil {
		log.Errorf("bus: JetStream is not available or not enabled: %v", err)
		nc.Close()
		return nil, &ConnectError{Kind: KindProvisioningUnavailable, Err: err}
	}
	log.Info("bus: JetStream is available and working")

	b := &Bus{nc: nc, js: js}
	if err := b.provision(); err != nil {
		// No rollback of partially provisioned resources; the process is
		// expected to restart fresh.
		nc.Close()
		return nil, fmt.Errorf("bus: provisioning durable resources: %w", err)
	}
	log.Info("bus: successfully created all JetStream resources")

	return b, nil
}

// connectTransport walks the candidate list sequentially and returns the
// first connection that succeeds.
func connectTransport(cfg *config.Config, clientName, caFile string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.UserInfo(cfg.NatsUser, cfg.NatsPassword),
		nats.Timeout(connectDialTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(connectRetryWait),
	}
	if !cfg.NatsInsecure {
		opts = append(opts, nats.Secure())
	}
	if caFile != "" {
		opts = append(opts, nats.RootCAs(caFile))
	}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	candidates := ResolveCandidates(cfg.NatsHost)
	var lastErr error
	for _, cand := range candidates {
		log.Infof("bus: trying connection to %s (%s)", cand.Addr, cand.Label)
		nc, err := connectCandidate(cand.Addr, retries, opts)
		if err == nil {
			log.Infof("bus: connected OK to %s (%s)", cand.Addr, cand.Label)
			return nc, nil
		}
		log.Warnf("bus: connection failed to %s (%s): %v", cand.Addr, cand.Label, err)
		if looksLikeTLSError(err) {
			log.Warn("bus: TLS certificate error detected. Ensure NATS_CA or NATS_CA_CONTENTS is set for self-signed certificates.")
		}
		lastErr = err
	}

	log.Error("bus: all host variants failed to connect")
	if lastErr == nil {
		lastErr = fmt.Errorf("no connection candidates for %q", cfg.NatsHost)
	}
	return nil, &ConnectError{Kind: KindAllCandidatesExhausted, Err: lastErr}
}

// connectCandidate gives one address a bounded number of transport attempts.
func connectCandidate(addr string, retries int, opts []nats.Option) (*nats.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		nc, err := nats.Connect(addr, opts...)
		if err == nil {
			return nc, nil
		}
		lastErr = err
		if attempt < retries {
			log.Debugf("bus: attempt %d/%d to %s failed: %v", attempt, retries, addr, err)
			time.Sleep(connectRetryWait)
		}
	}
	return nil, lastErr
}

// probeJetStream verifies durable KV support by creating and deleting a
// throwaway bucket.
func probeJetStream(js nats.JetStreamContext) error {
	name := "test_connectivity_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: name}); err != nil {
		return err
	}
	if err := js.DeleteKeyValue(name); err != nil {
		// Some servers restrict bucket deletion; the probe itself passed.
		log.Warnf("bus: failed to clean up test bucket %s: %v", name, err)
	}
	return nil
}

// provision creates the five KV namespaces and the session-delete work
// queue. Failures abort startup.
func (b *Bus) provision() error {
	log.Info("bus: creating JetStream key-value stores...")

	var err error
	b.kvSessionsEg2Ly, err = b.js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:       BucketSessionsEg2Ly,
		Description:  "Maps gameserver session IDs to client IDs",
		MaxValueSize: maxKVValueSize,
		TTL:          sessionMappingTTL,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", BucketSessionsEg2Ly, err)
	}

	b.kvSessionsLy2Eg, err = b.js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:       BucketSessionsLy2Eg,
		Description:  "Maps client IDs to gameserver session IDs",
		MaxValueSize: maxKVValueSize,
		TTL:          sessionMappingTTL,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", BucketSessionsLy2Eg, err)
	}

	b.kvActiveConnections, err = b.js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket: BucketActiveConnections,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", BucketActiveConnections, err)
	}

	b.kvUnclaimedSessions, err = b.js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:       BucketUnclaimedSessions,
		Description:  "Session ids handed out by the API; stale keys are reaped externally",
		MaxValueSize: maxKVValueSize,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", BucketUnclaimedSessions, err)
	}

	b.kvCertDigests, err = b.js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:       BucketCertDigests,
		Description:  "Maps server public ip to their self-signed cert digests",
		MaxValueSize: maxKVValueSize,
		TTL:          certDigestTTL,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", BucketCertDigests, err)
	}

	_, err = b.js.AddStream(&nats.StreamConfig{
		Name:      DeleteSessionStreamName,
		Retention: nats.WorkQueuePolicy,
		Subjects:  []string{DeleteSessionQueuePrefix + ".*"},
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", DeleteSessionStreamName, err)
	}

	return nil
}

// resolveCAFile determines the custom CA source, materializing inline
// certificate contents to a temp file when needed. Failure to materialize
// degrades to "no custom CA" rather than aborting.
func resolveCAFile(cfg *config.Config, clientName string) string {
	if cfg.NatsCA != "" {
		return cfg.NatsCA
	}
	if cfg.NatsCAContents == "" {
		return ""
	}

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, clientName)

	path := filepath.Join(os.TempDir(), fmt.Sprintf("rootCA-%s.pem", sanitized))
	if err := os.WriteFile(path, []byte(cfg.NatsCAContents), 0o600); err != nil {
		log.Warnf("bus: failed to write CA certificate to temp file: %v", err)
		return ""
	}
	log.Infof("bus: CA certificate written to temporary file: %s", path)
	return path
}

// Conn returns the underlying connection, shared by all bus consumers.
func (b *Bus) Conn() *nats.Conn { return b.nc }

// JetStream returns the JetStream context bound to the connection.
func (b *Bus) JetStream() nats.JetStreamContext { return b.js }

// KVSessionsEg2Ly returns the gameserver-session-to-client namespace.
func (b *Bus) KVSessionsEg2Ly() nats.KeyValue { return b.kvSessionsEg2Ly }

// KVSessionsLy2Eg returns the client-to-gameserver-session namespace.
func (b *Bus) KVSessionsLy2Eg() nats.KeyValue { return b.kvSessionsLy2Eg }

// KVActiveConnections returns the active-connections namespace.
func (b *Bus) KVActiveConnections() nats.KeyValue { return b.kvActiveConnections }

// KVUnclaimedSessions returns the unclaimed-sessions namespace.
func (b *Bus) KVUnclaimedSessions() nats.KeyValue { return b.kvUnclaimedSessions }

// KVCertDigests returns the cert-digest namespace.
func (b *Bus) KVCertDigests() nats.KeyValue { return b.kvCertDigests }

// Close drains and closes the underlying connection.
func (b *Bus) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

// internal/session/store.go
package session

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/joshgordon/lobbyd/internal/bus"
)

// ackPublisher is the slice of JetStream we need for durable enqueues:
// a publish that only returns once the server acknowledged persistence.
type ackPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Store provides typed access to the durable KV namespaces and the
// session-delete work queue. All operations are independent; there are no
// cross-namespace transactions.
type Store struct {
	buckets map[string]nats.KeyValue
	js      ackPublisher
}

// NewStore builds a Store from an established bus handle.
func NewStore(b *bus.Bus) *Store {
	return &Store{
		buckets: map[string]nats.KeyValue{
			bus.BucketSessionsEg2Ly:     b.KVSessionsEg2Ly(),
			bus.BucketSessionsLy2Eg:     b.KVSessionsLy2Eg(),
			bus.BucketActiveConnections: b.KVActiveConnections(),
			bus.BucketUnclaimedSessions: b.KVUnclaimedSessions(),
			bus.BucketCertDigests:       b.KVCertDigests(),
		},
		js: b.JetStream(),
	}
}

func (s *Store) bucket(namespace string) (nats.KeyValue, error) {
	kv, ok := s.buckets[namespace]
	if !ok {
		return nil, fmt.Errorf("unknown namespace %q", namespace)
	}
	return kv, nil
}

// Put writes a value into the named namespace.
func (s *Store) Put(namespace, key string, value []byte) error {
	kv, err := s.bucket(namespace)
	if err != nil {
		return err
	}
	if _, err := kv.Put(key, value); err != nil {
		return fmt.Errorf("put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get reads a value from the named namespace. Missing keys surface as
// nats.ErrKeyNotFound.
func (s *Store) Get(namespace, key string) ([]byte, error) {
	kv, err := s.bucket(namespace)
	if err != nil {
		return nil, err
	}
	entry, err := kv.Get(key)
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

// Delete removes a key from the named namespace.
func (s *Store) Delete(namespace, key string) error {
	kv, err := s.bucket(namespace)
	if err != nil {
		return err
	}
	return kv.Delete(key)
}

// MapSession records the bidirectional session/client id mapping. The two
// writes are independent durable operations; a failure in the second leaves
// the first in place until its TTL reaps it.
func (s *Store) MapSession(sessionID, clientID string) error {
	if err := s.Put(bus.BucketSessionsEg2Ly, sessionID, []byte(clientID)); err != nil {
		return err
	}
	return s.Put(bus.BucketSessionsLy2Eg, clientID, []byte(sessionID))
}

// ClientForSession looks up the client id mapped to a gameserver session.
func (s *Store) ClientForSession(sessionID string) (string, error) {
	v, err := s.Get(bus.BucketSessionsEg2Ly, sessionID)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SessionForClient looks up the gameserver session mapped to a client id.
func (s *Store) SessionForClient(clientID string) (string, error) {
	v, err := s.Get(bus.BucketSessionsLy2Eg, clientID)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// MarkUnclaimed records a session id that no client has claimed yet. The
// bucket is reaped externally; entries are limited to 1KB by the namespace
// config.
func (s *Store) MarkUnclaimed(sessionID string, value []byte) error {
	return s.Put(bus.BucketUnclaimedSessions, sessionID, value)
}

// EnqueueSessionDelete publishes a session id onto the delete work queue.
// The publish waits for the bus-level persistence acknowledgment; it is not
// fire-and-forget.
func (s *Store) EnqueueSessionDelete(sessionID string) error {
	subject := fmt.Sprintf("%s.%s", bus.DeleteSessionQueuePrefix, sessionID)
	if _, err := s.js.Publish(subject, []byte(sessionID)); err != nil {
		return fmt.Errorf("enqueue session delete %s: %w", sessionID, err)
	}
	return nil
}

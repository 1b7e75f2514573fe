// internal/lobby/service.go
package lobby

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// SessionRecorder persists a freshly deployed session id so an external
// reaper can delete sessions nobody claimed. session.Store satisfies it.
type SessionRecorder interface {
	MarkUnclaimed(sessionID string, value []byte) error
}

// Service combines the room store with the bus-side deployment call.
type Service struct {
	Store *RoomStore

	// Recorder, when set, receives the session id of every successful
	// deployment. Recording failures are logged, never fatal.
	Recorder SessionRecorder

	req      Requester
	clientIP string
}

// NewService wires the store to a bus requester. clientIP is the
// placeholder client address placed into deployment requests for
// room-based deployments.
func NewService(store *RoomStore, req Requester, clientIP string) *Service {
	return &Service{Store: store, req: req, clientIP: clientIP}
}

// StartRoom deploys a game server for the room and marks it started.
//
// The existence/already-started check and the remote call are deliberately
// not one critical section: holding the room lock across a request that can
// take up to a minute would block every other lobby operation. The price is
// that two near-simultaneous starts of the same room can both pass the
// check and both issue deployment requests. Known race, documented in
// DESIGN.md.
func (s *Service) StartRoom(id string) (Room, error) {
	if err := s.Store.beginStart(id); err != nil {
		return Room{}, err
	}

	log.Infof("lobby: starting room %s - deploying game server", id)

	payload, err := json.Marshal(deployRequest{
		ClientIP: s.clientIP,
		RoomID:   id,
		Game:     "lobby-room",
	})
	if err != nil {
		return Room{}, fmt.Errorf("marshal deploy request: %w", err)
	}

	resp, err := s.req.Request(DeploySubject, payload, deployTimeout)
	if err != nil {
		derr := classifyRequestError(err)
		log.Errorf("lobby: bus error deploying game server for room %s: %v", id, err)
		if !s.Store.recordStartFailure(id, derr.Reason()) {
			return Room{}, ErrNotFound
		}
		return Room{}, derr
	}

	if derr, ok := serviceError(resp); ok {
		log.Errorf("lobby: game server deployment failed for room %s: %d - %s", id, derr.Code, derr.Message)
		if !s.Store.recordStartFailure(id, derr.Reason()) {
			return Room{}, ErrNotFound
		}
		return Room{}, derr
	}

	info := parseDeployReply(resp.Data)
	room, err := s.Store.recordStartSuccess(id, info)
	if err != nil {
		return Room{}, err
	}

	if s.Recorder != nil && info.SessionID != nil {
		if err := s.Recorder.MarkUnclaimed(*info.SessionID, []byte(id)); err != nil {
			log.Warnf("lobby: failed to record unclaimed session %s: %v", *info.SessionID, err)
		}
	}

	log.Infof("lobby: room %s marked as started with deployed game server", id)
	return room, nil
}

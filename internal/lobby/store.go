// internal/lobby/store.go
package lobby

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RoomStore owns the in-memory room collection. All access goes through its
// methods; the map is never exposed. A single coarse mutex linearizes room
// operations, which is sufficient at lobby scale.
type RoomStore struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	maxRooms int
	nextSeq  uint64

	// now is swappable for tests.
	now func() time.Time
}

// NewRoomStore returns an empty store with the given ceiling on active
// (non-started) rooms.
func NewRoomStore(maxRooms int) *RoomStore {
	return &RoomStore{
		rooms:    make(map[string]*Room),
		maxRooms: maxRooms,
		now:      time.Now,
	}
}

// List returns copies of all non-started rooms in ascending creation order.
func (s *RoomStore) List() []Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if !r.Started {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Create adds a room with the caller as its first player. It fails with a
// CapacityError when the active-room count has reached the ceiling.
//
// Room ids are derived from the current store size, so an id can repeat
// after empty rooms are garbage-collected. Known quirk, kept as-is; see
// DESIGN.md.
func (s *RoomStore) Create(params CreateRoomParams) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, r := range s.rooms {
		if !r.Started {
			active++
		}
	}
	if active >= s.maxRooms {
		return Room{}, &CapacityError{Max: s.maxRooms}
	}

	s.nextSeq++
	room := &Room{
		ID:             fmt.Sprintf("ROOM%03d", len(s.rooms)+1),
		HostName:       params.HostName,
		GameMode:       params.GameMode,
		CreatedAt:      s.now().Unix(),
		Started:        false,
		CurrentPlayers: 1,
		MaxPlayers:     clampMaxPlayers(params.MaxPlayers),
		seq:            s.nextSeq,
	}
	s.rooms[room.ID] = room
	log.Infof("lobby: created room %s", room.ID)
	return *room, nil
}

// Get returns a copy of the room with the given id.
func (s *RoomStore) Get(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Join adds a player to a room. Started and full rooms reject joins.
func (s *RoomStore) Join(id string) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	if r.Started {
		return Room{}, ErrAlreadyStarted
	}
	if r.CurrentPlayers >= r.MaxPlayers {
		return Room{}, ErrRoomFull
	}
	r.CurrentPlayers++
	log.Infof("lobby: player joined room %s, current players %d", id, r.CurrentPlayers)
	return *r, nil
}

// Leave removes a player from a room (floor zero). A non-started room that
// becomes empty is garbage-collected as part of the same operation.
func (s *RoomStore) Leave(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return ErrNotFound
	}
	if r.CurrentPlayers > 0 {
		r.CurrentPlayers--
	}
	log.Infof("lobby: player left room %s, current players %d", id, r.CurrentPlayers)
	if r.CurrentPlayers == 0 && !r.Started {
		delete(s.rooms, id)
		log.Infof("lobby: removed empty not-started room %s", id)
	}
	return nil
}

// Status reports the room counts.
func (s *RoomStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, r := range s.rooms {
		if !r.Started {
			active++
		}
	}
	return Status{MaxRooms: s.maxRooms, ActiveRooms: active, TotalRooms: len(s.rooms)}
}

// beginStart validates that a room may start. It takes the lock only for
// the check; the caller performs the deployment request unlocked so that a
// slow request does not block other room operations.
func (s *RoomStore) beginStart(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return ErrNotFound
	}
	if r.Started {
		return ErrAlreadyStarted
	}
	return nil
}

// recordStartFailure stores a failed deployment status on the room without
// marking it started. Reports whether the room still exists.
func (s *RoomStore) recordStartFailure(id, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return false
	}
	r.SessionInfo = &SessionInfo{DeploymentStatus: "Failed: " + reason}
	return true
}

// recordStartSuccess marks the room started and attaches the session info.
func (s *RoomStore) recordStartSuccess(id string, info SessionInfo) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	r.Started = true
	r.SessionInfo = &info
	return *r, nil
}

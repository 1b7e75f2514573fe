// internal/lobby/store_test.go
package lobby

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uint32Ptr(n uint32) *uint32 { return &n }

func TestCreateRoomDefaults(t *testing.T) {
	s := NewRoomStore(10)

	room, err := s.Create(CreateRoomParams{HostName: "Alice", GameMode: "FreeForAll"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(room.ID, "ROOM"))
	assert.Equal(t, "Alice", room.HostName)
	assert.Equal(t, "FreeForAll", room.GameMode)
	assert.Equal(t, uint32(1), room.CurrentPlayers)
	assert.Equal(t, uint32(4), room.MaxPlayers)
	assert.False(t, room.Started)
	assert.Nil(t, room.SessionInfo)
}

func TestCreateRoomClampsMaxPlayers(t *testing.T) {
	s := NewRoomStore(100)

	cases := []struct {
		in   *uint32
		want uint32
	}{
		{nil, 4},
		{uint32Ptr(0), 1},
		{uint32Ptr(1), 1},
		{uint32Ptr(8), 8},
		{uint32Ptr(16), 16},
		{uint32Ptr(17), 16},
		{uint32Ptr(500), 16},
	}
	for _, tc := range cases {
		room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m", MaxPlayers: tc.in})
		require.NoError(t, err)
		assert.Equal(t, tc.want, room.MaxPlayers, "requested %v", tc.in)
		assert.GreaterOrEqual(t, room.MaxPlayers, uint32(1))
		assert.LessOrEqual(t, room.MaxPlayers, uint32(16))
	}
}

func TestCreateRoomCapacity(t *testing.T) {
	s := NewRoomStore(10)

	for i := 0; i < 10; i++ {
		_, err := s.Create(CreateRoomParams{HostName: fmt.Sprintf("Host%d", i), GameMode: "Test"})
		require.NoError(t, err)
	}

	_, err := s.Create(CreateRoomParams{HostName: "TooMany", GameMode: "Test"})
	require.Error(t, err)
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 10, capErr.Max)

	// The failed create must not have mutated the store.
	assert.Equal(t, 10, s.Status().TotalRooms)
	assert.Equal(t, 10, s.Status().ActiveRooms)
}

func TestListRoomsOrderAndFiltering(t *testing.T) {
	s := NewRoomStore(10)
	now := time.Now()
	s.now = func() time.Time { return now }

	first, err := s.Create(CreateRoomParams{HostName: "first", GameMode: "m"})
	require.NoError(t, err)
	second, err := s.Create(CreateRoomParams{HostName: "second", GameMode: "m"})
	require.NoError(t, err)

	rooms := s.List()
	require.Len(t, rooms, 2)
	assert.Equal(t, first.ID, rooms[0].ID)
	assert.Equal(t, second.ID, rooms[1].ID)

	// Started rooms never appear in listings.
	_, err = s.recordStartSuccess(first.ID, SessionInfo{DeploymentStatus: "Ready"})
	require.NoError(t, err)
	rooms = s.List()
	require.Len(t, rooms, 1)
	assert.Equal(t, second.ID, rooms[0].ID)
}

func TestJoinRoom(t *testing.T) {
	s := NewRoomStore(10)
	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m", MaxPlayers: uint32Ptr(2)})
	require.NoError(t, err)

	joined, err := s.Join(room.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), joined.CurrentPlayers)

	// Full room rejects the next join and stays unchanged.
	_, err = s.Join(room.ID)
	assert.ErrorIs(t, err, ErrRoomFull)
	got, ok := s.Get(room.ID)
	require.True(t, ok)
	assert.Equal(t, uint32(2), got.CurrentPlayers)
}

func TestJoinRoomErrors(t *testing.T) {
	s := NewRoomStore(10)

	_, err := s.Join("ROOM999")
	assert.ErrorIs(t, err, ErrNotFound)

	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m"})
	require.NoError(t, err)
	_, err = s.recordStartSuccess(room.ID, SessionInfo{DeploymentStatus: "Ready"})
	require.NoError(t, err)

	_, err = s.Join(room.ID)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestLeaveRoomGarbageCollectsEmptyRooms(t *testing.T) {
	s := NewRoomStore(10)
	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m"})
	require.NoError(t, err)

	require.NoError(t, s.Leave(room.ID))

	_, ok := s.Get(room.ID)
	assert.False(t, ok, "empty non-started room must be removed")
	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.Status().TotalRooms)
}

func TestLeaveStartedRoomIsKept(t *testing.T) {
	s := NewRoomStore(10)
	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m"})
	require.NoError(t, err)
	_, err = s.recordStartSuccess(room.ID, SessionInfo{DeploymentStatus: "Ready"})
	require.NoError(t, err)

	require.NoError(t, s.Leave(room.ID))

	got, ok := s.Get(room.ID)
	require.True(t, ok, "started rooms survive emptying")
	assert.Equal(t, uint32(0), got.CurrentPlayers)

	// The floor is zero; leaving again must not underflow.
	require.NoError(t, s.Leave(room.ID))
	got, _ = s.Get(room.ID)
	assert.Equal(t, uint32(0), got.CurrentPlayers)
}

func TestLeaveRoomNotFound(t *testing.T) {
	s := NewRoomStore(10)
	assert.ErrorIs(t, s.Leave("ROOM042"), ErrNotFound)
}

func TestStatusCounts(t *testing.T) {
	s := NewRoomStore(5)

	a, _ := s.Create(CreateRoomParams{HostName: "a", GameMode: "m"})
	_, _ = s.Create(CreateRoomParams{HostName: "b", GameMode: "m"})
	_, err := s.recordStartSuccess(a.ID, SessionInfo{DeploymentStatus: "Ready"})
	require.NoError(t, err)

	st := s.Status()
	assert.Equal(t, 5, st.MaxRooms)
	assert.Equal(t, 1, st.ActiveRooms)
	assert.Equal(t, 2, st.TotalRooms)
}

func TestBeginStartGuards(t *testing.T) {
	s := NewRoomStore(10)

	assert.ErrorIs(t, s.beginStart("ROOM001"), ErrNotFound)

	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m"})
	require.NoError(t, err)
	require.NoError(t, s.beginStart(room.ID))

	_, err = s.recordStartSuccess(room.ID, SessionInfo{DeploymentStatus: "Ready"})
	require.NoError(t, err)
	assert.ErrorIs(t, s.beginStart(room.ID), ErrAlreadyStarted)
}

func TestRecordStartFailureKeepsRoomStoppable(t *testing.T) {
	s := NewRoomStore(10)
	room, err := s.Create(CreateRoomParams{HostName: "h", GameMode: "m"})
	require.NoError(t, err)

	require.True(t, s.recordStartFailure(room.ID, "Deployment request timeout"))

	got, ok := s.Get(room.ID)
	require.True(t, ok)
	assert.False(t, got.Started, "a failed deployment must not start the room")
	require.NotNil(t, got.SessionInfo)
	assert.Equal(t, "Failed: Deployment request timeout", got.SessionInfo.DeploymentStatus)

	// The room may be started again after a failure.
	require.NoError(t, s.beginStart(room.ID))

	assert.False(t, s.recordStartFailure("ROOM999", "whatever"))
}

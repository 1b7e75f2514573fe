// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/joshgordon/lobbyd/internal/lobby"
)

// Server holds the dependencies for the lobby HTTP API.
type Server struct {
	Logger *logrus.Logger
	Svc    *lobby.Service
}

// CreateRoomRequest is the JSON body for POST /rooms.
type CreateRoomRequest struct {
	HostName   string  `json:"host_name"`
	GameMode   string  `json:"game_mode"`
	MaxPlayers *uint32 `json:"max_players"`
}

// JoinRoomRequest is the JSON body for POST /rooms/{id}/join.
type JoinRoomRequest struct {
	PlayerName *string `json:"player_name"`
}

// LeaveRoomRequest is the JSON body for POST /rooms/{id}/leave.
type LeaveRoomRequest struct {
	PlayerName *string `json:"player_name"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// ListRoomsHandler returns all non-started rooms sorted by creation time.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Svc.Store.List())
}

// CreateRoomHandler creates a room; 429 when the active-room ceiling is hit.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}

	room, err := s.Svc.Store.Create(lobby.CreateRoomParams{
		HostName:   req.HostName,
		GameMode:   req.GameMode,
		MaxPlayers: req.MaxPlayers,
	})
	if err != nil {
		var capErr *lobby.CapacityError
		if errors.As(err, &capErr) {
			http.Error(w, capErr.Error(), http.StatusTooManyRequests)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, room)
}

// StatusHandler reports the lobby room counts.
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Svc.Store.Status())
}

// StartRoomHandler deploys a game server for the room and marks it started.
func (s *Server) StartRoomHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	room, err := s.Svc.StartRoom(id)
	if err != nil {
		s.writeStartError(w, err)
		return
	}
	writeJSON(w, room)
}

// writeStartError maps the deployment error taxonomy onto HTTP statuses.
func (s *Server) writeStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case errors.Is(err, lobby.ErrAlreadyStarted):
		http.Error(w, "room already started", http.StatusConflict)
		return
	}

	var derr *lobby.DeployError
	if errors.As(err, &derr) {
		switch derr.Kind {
		case lobby.DeployTimeout:
			http.Error(w, derr.Reason(), http.StatusRequestTimeout)
		case lobby.DeployNoResponders:
			http.Error(w, derr.Reason(), http.StatusServiceUnavailable)
		case lobby.DeployServiceError:
			status := derr.Code
			if status < 100 || status > 599 {
				status = http.StatusInternalServerError
			}
			http.Error(w, "Failed to deploy game server: "+derr.Message, status)
		default:
			http.Error(w, derr.Reason(), http.StatusInternalServerError)
		}
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// JoinRoomHandler adds a player to a room.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad join request payload", http.StatusBadRequest)
		return
	}

	room, err := s.Svc.Store.Join(id)
	switch {
	case errors.Is(err, lobby.ErrNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
	case errors.Is(err, lobby.ErrAlreadyStarted):
		http.Error(w, "room already started", http.StatusConflict)
	case errors.Is(err, lobby.ErrRoomFull):
		http.Error(w, "room full", http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, room)
	}
}

// LeaveRoomHandler removes a player; empty non-started rooms are deleted.
func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req LeaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad leave request payload", http.StatusBadRequest)
		return
	}

	if err := s.Svc.Store.Leave(id); err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

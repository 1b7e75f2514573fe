// internal/httpapi/routes.go
package httpapi

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/joshgordon/lobbyd/internal/lobby"
	"github.com/joshgordon/lobbyd/internal/middleware"
)

// NewMux builds the lobby API router with request logging applied to every
// route.
func NewMux(logger *logrus.Logger, svc *lobby.Service) http.Handler {
	s := &Server{Logger: logger, Svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms", s.ListRoomsHandler)
	mux.HandleFunc("POST /rooms", s.CreateRoomHandler)
	mux.HandleFunc("GET /status", s.StatusHandler)
	mux.HandleFunc("POST /rooms/{id}/start", s.StartRoomHandler)
	mux.HandleFunc("POST /rooms/{id}/join", s.JoinRoomHandler)
	mux.HandleFunc("POST /rooms/{id}/leave", s.LeaveRoomHandler)

	return middleware.LogMiddleware(logger)(mux)
}

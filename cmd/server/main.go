// cmd/server/main.go
package main

import (
	"errors"
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/joshgordon/lobbyd/internal/bus"
	"github.com/joshgordon/lobbyd/internal/config"
	"github.com/joshgordon/lobbyd/internal/httpapi"
	"github.com/joshgordon/lobbyd/internal/lobby"
	"github.com/joshgordon/lobbyd/internal/session"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	b, err := bus.Connect(cfg, "lobbyd")
	if err != nil {
		var cerr *bus.ConnectError
		if errors.As(err, &cerr) && cerr.Kind == bus.KindProvisioningUnavailable {
			// The transport connected; the server is just missing JetStream.
			log.Fatalf("bus reachable but JetStream unavailable - enable JetStream on the server: %v", cerr.Err)
		}
		log.Fatalf("could not reach the bus on any candidate address: %v", err)
	}
	defer b.Close()

	sessions := session.NewStore(b)

	rooms := lobby.NewRoomStore(cfg.MaxRooms)
	svc := lobby.NewService(rooms, b.Conn(), cfg.FakeClientIP)
	svc.Recorder = sessions

	handler := httpapi.NewMux(logger, svc)

	logger.Infof("Running on %s (max rooms %d)", cfg.Addr, cfg.MaxRooms)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

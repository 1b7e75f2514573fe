// cmd/buscheck/main.go

// buscheck is a connectivity diagnostic: it prints the candidate addresses
// generated for NATS_HOST, attempts a full connect (including the JetStream
// probe and resource provisioning), and reports which stage failed.
package main

import (
	"errors"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/joshgordon/lobbyd/internal/bus"
	"github.com/joshgordon/lobbyd/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("connection candidates for %s:\n", cfg.NatsHost)
	for i, c := range bus.ResolveCandidates(cfg.NatsHost) {
		fmt.Printf("  %d. %-8s %s\n", i+1, c.Label, c.Addr)
	}

	b, err := bus.Connect(cfg, "buscheck")
	if err != nil {
		var cerr *bus.ConnectError
		if errors.As(err, &cerr) {
			switch cerr.Kind {
			case bus.KindAllCandidatesExhausted:
				fmt.Printf("FAIL: bus unreachable: %v\n", cerr.Err)
			case bus.KindProvisioningUnavailable:
				fmt.Printf("FAIL: connected, but JetStream unavailable: %v\n", cerr.Err)
			}
		} else {
			fmt.Printf("FAIL: %v\n", err)
		}
		os.Exit(1)
	}
	defer b.Close()

	rtt, err := b.Conn().RTT()
	if err != nil {
		fmt.Printf("PASS: connected and provisioned (rtt unavailable: %v)\n", err)
		return
	}
	fmt.Printf("PASS: connected and provisioned, rtt %s\n", rtt)
}

// internal/bridge/bridge.go

// Package bridge turns one outbound websocket connection into a pair of
// non-blocking command/event queues, so a synchronous control loop can
// drive the connection by polling. One bridge per peer; a bridge failure
// terminates only that instance.
package bridge

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrKind classifies bridge failures.
type ErrKind int

const (
	// ErrConnectFailed: the initial dial failed.
	ErrConnectFailed ErrKind = iota
	// ErrReceiving: an inbound read failed mid-session.
	ErrReceiving
	// ErrSending: an outbound write failed.
	ErrSending
)

func (k ErrKind) String() string {
	switch k {
	case ErrConnectFailed:
		return "connect failed"
	case ErrReceiving:
		return "receiving"
	case ErrSending:
		return "sending"
	default:
		return "unknown"
	}
}

// EventKind discriminates Event.
type EventKind int

const (
	EventConnecting EventKind = iota
	EventConnected
	EventText
	EventBinary
	EventError
	EventClosed
)

// Event is one bridge occurrence delivered to the polling consumer.
// Inbound frame events preserve wire order.
type Event struct {
	Kind EventKind

	Text string // EventText
	Data []byte // EventBinary

	ErrKind   ErrKind // EventError
	ErrDetail string

	// EventClosed: Clean is true for a normal close code; Code and Reason
	// carry the peer's close frame either way.
	CloseClean  bool
	CloseCode   websocket.StatusCode
	CloseReason string
}

// CmdKind discriminates Cmd.
type CmdKind int

const (
	CmdSendText CmdKind = iota
	CmdSendBinary
	CmdDisconnect
)

// Cmd is one outbound instruction to the bridge. Commands are delivered in
// enqueue order; interleaving with inbound delivery is unspecified.
type Cmd struct {
	Kind CmdKind
	Text string
	Data []byte
}

// SendText builds a text-frame command.
func SendText(s string) Cmd { return Cmd{Kind: CmdSendText, Text: s} }

// SendBinary builds a binary-frame command.
func SendBinary(b []byte) Cmd { return Cmd{Kind: CmdSendBinary, Data: b} }

// Disconnect builds the graceful-shutdown command. This is the only
// cooperative way to stop a bridge; dropping the handle leaves it running
// until the transport fails or the peer closes.
func Disconnect() Cmd { return Cmd{Kind: CmdDisconnect} }

// PollResult is the outcome of a Poll call.
type PollResult int

const (
	// PollEmpty: no event queued right now.
	PollEmpty PollResult = iota
	// PollEvent: an event was returned.
	PollEvent
	// PollClosed: the bridge terminated and all events were drained.
	PollClosed
)

// Handle is the consumer's side of a bridge.
type Handle struct {
	id     string
	cmds   *queue[Cmd]
	events *queue[Event]
}

const writeTimeout = 5 * time.Second

// Open starts a bridge for the given websocket URL and returns its handle
// immediately; connection progress arrives as Connecting/Connected events.
// ctx covers the dial and the read side of the connection.
func Open(ctx context.Context, url string) *Handle {
	h := &Handle{
		id:     uuid.NewString()[:8],
		cmds:   newQueue[Cmd](),
		events: newQueue[Event](),
	}
	go h.run(ctx, url)
	return h
}

// Send enqueues a command. Non-blocking and best-effort: returns false
// (dropping the command silently) once the bridge is terminal.
func (h *Handle) Send(c Cmd) bool {
	return h.cmds.push(c)
}

// Poll returns the next event without blocking. PollClosed is only
// reported after the bridge terminated and every queued event was
// consumed.
func (h *Handle) Poll() (Event, PollResult) {
	if ev, ok := h.events.tryPop(); ok {
		return ev, PollEvent
	}
	if h.events.drained() {
		return Event{}, PollClosed
	}
	return Event{}, PollEmpty
}

type readResult struct {
	typ  websocket.MessageType
	data []byte
	err  error
}

func (h *Handle) run(ctx context.Context, url string) {
	defer h.events.close()
	defer h.cmds.close()

	h.events.push(Event{Kind: EventConnecting})

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		log.Warnf("bridge %s: dial %s failed: %v", h.id, url, err)
		h.events.push(Event{Kind: EventError, ErrKind: ErrConnectFailed, ErrDetail: err.Error()})
		return
	}
	defer conn.Close(websocket.StatusInternalError, "bridge terminated")

	log.Infof("bridge %s: connected to %s", h.id, url)
	h.events.push(Event{Kind: EventConnected})

	done := make(chan struct{})
	defer close(done)

	readCh := make(chan readResult, 1)
	go func() {
		for {
			typ, data, err := conn.Read(ctx)
			select {
			case readCh <- readResult{typ: typ, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case r := <-readCh:
			if r.err != nil {
				h.handleReadError(r.err)
				return
			}
			switch r.typ {
			case websocket.MessageText:
				h.events.push(Event{Kind: EventText, Text: string(r.data)})
			case websocket.MessageBinary:
				h.events.push(Event{Kind: EventBinary, Data: r.data})
			}

		case <-h.cmds.wait():
			for {
				cmd, ok := h.cmds.tryPop()
				if !ok {
					break
				}
				if terminal := h.handleCmd(conn, cmd); terminal {
					return
				}
			}
		}
	}
}

// handleCmd executes one outbound command. Returns true when the bridge
// must terminate.
func (h *Handle) handleCmd(conn *websocket.Conn, cmd Cmd) bool {
	switch cmd.Kind {
	case CmdDisconnect:
		log.Infof("bridge %s: disconnect requested", h.id)
		conn.Close(websocket.StatusNormalClosure, "")
		return true

	case CmdSendText:
		return h.write(conn, websocket.MessageText, []byte(cmd.Text))

	case CmdSendBinary:
		return h.write(conn, websocket.MessageBinary, cmd.Data)
	}
	return false
}

func (h *Handle) write(conn *websocket.Conn, typ websocket.MessageType, data []byte) bool {
	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := conn.Write(writeCtx, typ, data); err != nil {
		log.Warnf("bridge %s: write failed: %v", h.id, err)
		h.events.push(Event{Kind: EventError, ErrKind: ErrSending, ErrDetail: err.Error()})
		return true
	}
	return false
}

// handleReadError classifies the end of the inbound stream. A close frame
// yields a Closed event (clean for a normal close code); a bare EOF or a
// canceled context terminates silently; anything else is a receive error.
func (h *Handle) handleReadError(err error) {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == websocket.StatusNormalClosure {
			h.events.push(Event{Kind: EventClosed, CloseClean: true, CloseCode: ce.Code, CloseReason: ce.Reason})
		} else {
			h.events.push(Event{Kind: EventClosed, CloseClean: false, CloseCode: ce.Code, CloseReason: ce.Reason})
		}
		log.Infof("bridge %s: peer closed (%d %s)", h.id, ce.Code, ce.Reason)
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		log.Infof("bridge %s: stream ended", h.id)
		return
	}
	log.Warnf("bridge %s: read failed: %v", h.id, err)
	h.events.push(Event{Kind: EventError, ErrKind: ErrReceiving, ErrDetail: err.Error()})
}

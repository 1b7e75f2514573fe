// internal/lobby/deploy.go
package lobby

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
)

// DeploySubject is the request/reply subject served by the session
// generator.
const DeploySubject = "session.gensession"

// deployTimeout bounds the deployment request. There is no earlier
// cancellation path.
const deployTimeout = 60 * time.Second

// Requester issues one request/reply call over the bus. *nats.Conn
// satisfies it directly; tests substitute fakes.
type Requester interface {
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
}

// DeployErrorKind classifies deployment failures.
type DeployErrorKind int

const (
	// DeployTimeout: the request exceeded its timeout.
	DeployTimeout DeployErrorKind = iota
	// DeployNoResponders: no session generator is listening on the subject.
	DeployNoResponders
	// DeployServiceError: the service replied with a structured error.
	DeployServiceError
	// DeployOther: any other transport-level failure.
	DeployOther
)

// DeployError is the classified outcome of a failed deployment attempt.
// For DeployServiceError, Code and Message carry the service's own error;
// raw header values never leak past this package.
type DeployError struct {
	Kind    DeployErrorKind
	Code    int
	Message string
	Err     error
}

func (e *DeployError) Error() string {
	if e.Kind == DeployServiceError {
		return fmt.Sprintf("deployment failed: %d - %s", e.Code, e.Message)
	}
	return "deployment failed: " + e.Reason()
}

func (e *DeployError) Unwrap() error { return e.Err }

// Reason is the human-readable summary recorded on the room as
// "Failed: <reason>".
func (e *DeployError) Reason() string {
	switch e.Kind {
	case DeployTimeout:
		return "Deployment request timeout"
	case DeployNoResponders:
		return "No deployment service available"
	case DeployServiceError:
		return e.Message
	default:
		return "Deployment service error"
	}
}

// classifyRequestError maps a transport-level request failure onto the
// deployment taxonomy.
func classifyRequestError(err error) *DeployError {
	switch {
	case errors.Is(err, nats.ErrTimeout):
		return &DeployError{Kind: DeployTimeout, Err: err}
	case errors.Is(err, nats.ErrNoResponders):
		return &DeployError{Kind: DeployNoResponders, Err: err}
	default:
		return &DeployError{Kind: DeployOther, Err: err}
	}
}

// serviceError extracts an out-of-band structured service error from a
// reply, if present.
func serviceError(msg *nats.Msg) (*DeployError, bool) {
	if msg.Header == nil {
		return nil, false
	}
	codeStr := msg.Header.Get(micro.ErrorCodeHeader)
	if codeStr == "" {
		return nil, false
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		code = 0
	}
	return &DeployError{
		Kind:    DeployServiceError,
		Code:    code,
		Message: msg.Header.Get(micro.ErrorHeader),
	}, true
}

// deployRequest is the wire payload sent to the session generator.
type deployRequest struct {
	ClientIP string `json:"client_ip"`
	RoomID   string `json:"room_id"`
	Game     string `json:"game"`
}

// deployReply is the wire shape of a successful reply. Every field is
// individually optional.
type deployReply struct {
	SessionID      *string `json:"session_id"`
	GameServerIP   *string `json:"gameserver_ip"`
	GameServerPort *uint16 `json:"gameserver_port"`
	ConnectToken   *string `json:"connect_token"`
}

// parseDeployReply builds SessionInfo from a successful reply body. An
// unparseable body or a missing field degrades the status rather than
// failing the call; whatever fields did arrive are kept.
func parseDeployReply(body []byte) SessionInfo {
	var reply deployReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return SessionInfo{DeploymentStatus: "Ready (details pending)"}
	}
	status := "Ready"
	if reply.SessionID == nil || reply.GameServerIP == nil ||
		reply.GameServerPort == nil || reply.ConnectToken == nil {
		status = "Ready (details pending)"
	}
	return SessionInfo{
		SessionID:        reply.SessionID,
		GameServerIP:     reply.GameServerIP,
		GameServerPort:   reply.GameServerPort,
		ConnectToken:     reply.ConnectToken,
		DeploymentStatus: status,
	}
}

// internal/lobby/room.go
package lobby

// Room is a lobby entity representing a not-yet-deployed or deployed game
// session. Invariants: CurrentPlayers <= MaxPlayers, and Started only ever
// transitions false -> true.
type Room struct {
	ID             string       `json:"id"`
	HostName       string       `json:"host_name"`
	GameMode       string       `json:"game_mode"`
	CreatedAt      int64        `json:"created_at"`
	Started        bool         `json:"started"`
	CurrentPlayers uint32       `json:"current_players"`
	MaxPlayers     uint32       `json:"max_players"`
	SessionInfo    *SessionInfo `json:"session_info,omitempty"`

	// seq disambiguates rooms created within the same second so listings
	// stay in creation order.
	seq uint64
}

// SessionInfo records the outcome of a deployment attempt. All connection
// fields are optional; DeploymentStatus summarizes the attempt ("Ready",
// "Ready (details pending)", or "Failed: <reason>").
type SessionInfo struct {
	SessionID        *string `json:"session_id"`
	GameServerIP     *string `json:"game_server_ip"`
	GameServerPort   *uint16 `json:"game_server_port"`
	ConnectToken     *string `json:"connect_token"`
	DeploymentStatus string  `json:"deployment_status"`
}

// Status is the aggregate lobby view returned by the status endpoint.
type Status struct {
	MaxRooms    int `json:"max_rooms"`
	ActiveRooms int `json:"active_rooms"`
	TotalRooms  int `json:"total_rooms"`
}

// CreateRoomParams are the caller-supplied fields for a new room.
// MaxPlayers nil means "use the default".
type CreateRoomParams struct {
	HostName   string
	GameMode   string
	MaxPlayers *uint32
}

const (
	defaultMaxPlayers = 4
	minMaxPlayers     = 1
	maxMaxPlayers     = 16
)

func clampMaxPlayers(requested *uint32) uint32 {
	if requested == nil {
		return defaultMaxPlayers
	}
	n := *requested
	if n < minMaxPlayers {
		return minMaxPlayers
	}
	if n > maxMaxPlayers {
		return maxMaxPlayers
	}
	return n
}

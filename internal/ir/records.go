package ir

import "github.com/google/uuid"

// Table names.
const (
	TableServers  = "plan_servers"
	TableUsers    = "plan_users"
	TableUserInfo = "plan_user_info"
	TableSessions = "plan_sessions"
)

// Server is a game server in the network.
type Server struct {
	ID   int64     `db:"id" json:"id"`
	UUID uuid.UUID `db:"uuid" json:"uuid"`
	Name string    `db:"name" json:"name"`
}

// User is a player, identified across databases by UUID.
type User struct {
	ID         int64     `db:"id" json:"id"`
	UUID       uuid.UUID `db:"uuid" json:"uuid"`
	Name       string    `db:"name" json:"name"`
	Registered int64     `db:"registered" json:"registered"`
}

// UserInfo is the per-server profile of a player.
type UserInfo struct {
	ID         int64 `db:"id" json:"id"`
	UserID     int64 `db:"user_id" json:"user_id"`
	ServerID   int64 `db:"server_id" json:"server_id"`
	Registered int64 `db:"registered" json:"registered"`
	Banned     bool  `db:"banned" json:"banned"`
	Operator   bool  `db:"operator" json:"operator"`
}

// Session is one play session of a player on a server.
type Session struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	ServerID int64 `db:"server_id" json:"server_id"`
	Start    int64 `db:"session_start" json:"session_start"`
	End      int64 `db:"session_end" json:"session_end"`
	AFKTime  int64 `db:"afk_time" json:"afk_time"`
}

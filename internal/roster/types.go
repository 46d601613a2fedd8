package roster

import (
	"database/sql"
	"time"
)

// Role is a member's role within a team.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleSubAdmin Role = "SUB_ADMIN"
	RolePlayer   Role = "PLAYER"
)

// CanManage reports whether the role may act on behalf of the team.
func (r Role) CanManage() bool {
	return r == RoleAdmin || r == RoleSubAdmin
}

// MemberStatus is the membership state of a user within a team.
type MemberStatus string

const (
	StatusActive   MemberStatus = "ACTIVE"
	StatusPending  MemberStatus = "PENDING"
	StatusInactive MemberStatus = "INACTIVE"
)

const DefaultRating = 1000

// Team is a registered team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	HomeZone  string    `json:"home_zone"`
	Category  string    `json:"category"`
	Rating    int       `json:"rating"`
	CaptainID string    `json:"captain_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is one user's membership in a team.
type Member struct {
	TeamID   string       `json:"team_id"`
	UserID   string       `json:"user_id"`
	Role     Role         `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
}

type store struct {
	db *sql.DB
	tx *sql.Tx
}

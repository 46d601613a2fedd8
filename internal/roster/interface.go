package roster

import (
	"context"
	"database/sql"
)

// Store manages teams and their members.
type Store interface {
	CreateTeam(ctx context.Context, name, homeZone, category, captainID string) (*Team, error)
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	AddMember(ctx context.Context, teamID, userID string, role Role, status MemberStatus) (*Member, error)
	SetMemberStatus(ctx context.Context, teamID, userID string, status MemberStatus) error
	GetTeamMembers(ctx context.Context, teamID string) ([]Member, error)
	// TransferCaptaincy demotes the current ADMIN to SUB_ADMIN and promotes
	// newCaptainID to ADMIN in one transaction.
	TransferCaptaincy(ctx context.Context, teamID, newCaptainID string) error
	SetRating(ctx context.Context, teamID string, rating int) error
	// WithTx returns a Store bound to an open transaction.
	WithTx(tx *sql.Tx) Store
}

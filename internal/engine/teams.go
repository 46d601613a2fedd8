package engine

import (
	"context"

	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/mauv0809/rivalry/internal/validation"
)

var (
	ErrNotCaptain          = failure.Permission("only the team captain can transfer captaincy")
	ErrNotTeamMember       = failure.Permission("only members of the team can see this")
	ErrInvalidMemberStatus = failure.Precondition("member status must be ACTIVE, PENDING or INACTIVE")
)

// NewTeam is the payload for creating a team.
type NewTeam struct {
	Name     string `json:"name" validate:"required,max=80"`
	HomeZone string `json:"home_zone" validate:"max=80"`
	Category string `json:"category" validate:"max=32"`
}

// NewMember is the payload for adding a member to a team.
type NewMember struct {
	UserID string              `json:"user_id" validate:"required"`
	Role   roster.Role         `json:"role" validate:"required,oneof=SUB_ADMIN PLAYER"`
	Status roster.MemberStatus `json:"status" validate:"omitempty,oneof=ACTIVE PENDING INACTIVE"`
}

// CreateTeam creates a team captained by the user.
func (e *Engine) CreateTeam(ctx context.Context, userID string, t NewTeam) (*roster.Team, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	if err := validation.Struct(t); err != nil {
		return nil, err
	}
	return e.teams.CreateTeam(ctx, t.Name, t.HomeZone, t.Category, userID)
}

func (e *Engine) Team(ctx context.Context, userID, teamID string) (*TeamView, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	view, err := e.teamView(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// AddMember adds a member on behalf of a team manager.
func (e *Engine) AddMember(ctx context.Context, userID, teamID string, m NewMember) (*roster.Member, error) {
	if err := validation.Struct(m); err != nil {
		return nil, err
	}
	if err := e.requireManager(ctx, userID, teamID); err != nil {
		return nil, err
	}
	if m.Status == "" {
		m.Status = roster.StatusActive
	}
	return e.teams.AddMember(ctx, teamID, m.UserID, m.Role, m.Status)
}

// SetMemberStatus activates, parks or deactivates a member on behalf of a
// team manager. The captain stays ACTIVE until captaincy is transferred.
func (e *Engine) SetMemberStatus(ctx context.Context, userID, teamID, memberID string, status roster.MemberStatus) (*TeamView, error) {
	switch status {
	case roster.StatusActive, roster.StatusPending, roster.StatusInactive:
	default:
		return nil, ErrInvalidMemberStatus
	}
	if err := e.requireManager(ctx, userID, teamID); err != nil {
		return nil, err
	}
	if err := e.teams.SetMemberStatus(ctx, teamID, memberID, status); err != nil {
		return nil, err
	}
	return e.Team(ctx, userID, teamID)
}

// requireMember checks that the user belongs to the team in any status.
func (e *Engine) requireMember(ctx context.Context, userID, teamID string) error {
	if userID == "" {
		return session.ErrNoSession
	}
	members, err := e.teams.GetTeamMembers(ctx, teamID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil
		}
	}
	return ErrNotTeamMember
}

// TransferCaptaincy hands the ADMIN role to another active member.
func (e *Engine) TransferCaptaincy(ctx context.Context, userID, teamID, newCaptainID string) (*TeamView, error) {
	if userID == "" {
		return nil, session.ErrNoSession
	}
	team, err := e.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != userID {
		return nil, ErrNotCaptain
	}
	if err := e.teams.TransferCaptaincy(ctx, teamID, newCaptainID); err != nil {
		return nil, err
	}
	return e.Team(ctx, userID, teamID)
}

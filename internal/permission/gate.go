// Package permission decides who may act on behalf of a team in a match.
package permission

import (
	"context"
	"fmt"

	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/roster"
)

// MemberLister is the part of the roster the gate needs.
type MemberLister interface {
	GetTeamMembers(ctx context.Context, teamID string) ([]roster.Member, error)
}

// Gate evaluates management rights from team membership.
type Gate struct {
	members MemberLister
}

func New(members MemberLister) *Gate {
	return &Gate{members: members}
}

// ManagesTeam is true iff the user is an ACTIVE ADMIN or SUB_ADMIN of the team.
func (g *Gate) ManagesTeam(ctx context.Context, userID, teamID string) (bool, error) {
	if userID == "" || teamID == "" {
		return false, nil
	}
	members, err := g.members.GetTeamMembers(ctx, teamID)
	if err != nil {
		return false, fmt.Errorf("failed to load members of %s: %w", teamID, err)
	}
	for _, m := range members {
		if m.UserID == userID && m.Status == roster.StatusActive && m.Role.CanManage() {
			return true, nil
		}
	}
	return false, nil
}

// CanManage is true iff the user manages either side of the match.
func (g *Gate) CanManage(ctx context.Context, userID string, m *match.Match) (bool, error) {
	_, ok, err := g.ManagedSide(ctx, userID, m)
	return ok, err
}

// ManagedSide returns the team the user manages in the match, checking team A first.
func (g *Gate) ManagedSide(ctx context.Context, userID string, m *match.Match) (string, bool, error) {
	for _, teamID := range []string{m.TeamA, m.TeamB} {
		ok, err := g.ManagesTeam(ctx, userID, teamID)
		if err != nil {
			return "", false, err
		}
		if ok {
			return teamID, true, nil
		}
	}
	return "", false, nil
}

// IsParticipant is true for any ACTIVE member of either team. Read access
// to the negotiation thread is the same for both sides.
func (g *Gate) IsParticipant(ctx context.Context, userID string, m *match.Match) (bool, error) {
	for _, teamID := range []string{m.TeamA, m.TeamB} {
		members, err := g.members.GetTeamMembers(ctx, teamID)
		if err != nil {
			return false, fmt.Errorf("failed to load members of %s: %w", teamID, err)
		}
		for _, member := range members {
			if member.UserID == userID && member.Status == roster.StatusActive {
				return true, nil
			}
		}
	}
	return false, nil
}

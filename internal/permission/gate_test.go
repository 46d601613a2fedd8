package permission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/permission"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRoster() *roster.MockStore {
	r := roster.NewMock()
	r.Seed(roster.Team{ID: "a"},
		roster.Member{UserID: "admin-a", Role: roster.RoleAdmin, Status: roster.StatusActive},
		roster.Member{UserID: "sub-a", Role: roster.RoleSubAdmin, Status: roster.StatusActive},
		roster.Member{UserID: "player-a", Role: roster.RolePlayer, Status: roster.StatusActive},
		roster.Member{UserID: "pending-sub-a", Role: roster.RoleSubAdmin, Status: roster.StatusPending},
		roster.Member{UserID: "former-sub-a", Role: roster.RoleSubAdmin, Status: roster.StatusInactive},
	)
	r.Seed(roster.Team{ID: "b"},
		roster.Member{UserID: "admin-b", Role: roster.RoleAdmin, Status: roster.StatusActive},
	)
	r.Seed(roster.Team{ID: "c"},
		roster.Member{UserID: "admin-c", Role: roster.RoleAdmin, Status: roster.StatusActive},
	)
	return r
}

func TestCanManage(t *testing.T) {
	gate := permission.New(seededRoster())
	m := &match.Match{ID: "m1", TeamA: "a", TeamB: "b"}
	ctx := context.Background()

	tests := []struct {
		user     string
		want     bool
		wantSide string
	}{
		{"admin-a", true, "a"},
		{"sub-a", true, "a"},
		{"admin-b", true, "b"},
		{"player-a", false, ""},
		{"pending-sub-a", false, ""},
		{"former-sub-a", false, ""},
		{"admin-c", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			ok, err := gate.CanManage(ctx, tt.user, m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			side, ok, err := gate.ManagedSide(ctx, tt.user, m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantSide, side)
		})
	}
}

func TestIsParticipant(t *testing.T) {
	gate := permission.New(seededRoster())
	m := &match.Match{ID: "m1", TeamA: "a", TeamB: "b"}
	ctx := context.Background()

	for user, want := range map[string]bool{"player-a": true, "admin-b": true, "pending-sub-a": false, "admin-c": false} {
		ok, err := gate.IsParticipant(ctx, user, m)
		require.NoError(t, err)
		assert.Equal(t, want, ok, user)
	}
}

func TestCanManage_PropagatesRosterErrors(t *testing.T) {
	r := seededRoster()
	boom := errors.New("roster unavailable")
	r.GetTeamMembersFunc = func(ctx context.Context, teamID string) ([]roster.Member, error) {
		return nil, boom
	}
	gate := permission.New(r)

	_, err := gate.CanManage(context.Background(), "admin-a", &match.Match{TeamA: "a", TeamB: "b"})
	assert.ErrorIs(t, err, boom)
}

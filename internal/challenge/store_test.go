package challenge_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db      *sql.DB
	gate    challenge.Store
	matches match.Store
	a, b    string
}

// setupTestDB creates an in-memory database with two teams.
func setupTestDB(t *testing.T) fixture {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	teams := roster.New(db)
	ctx := context.Background()
	a, err := teams.CreateTeam(ctx, "Team A", "", "", "admin-a")
	require.NoError(t, err)
	b, err := teams.CreateTeam(ctx, "Team B", "", "", "admin-b")
	require.NoError(t, err)

	matches := match.New(db)
	return fixture{db: db, gate: challenge.New(db, matches), matches: matches, a: a.ID, b: b.ID}
}

func countMatches(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&n))
	return n
}

func TestCanSend(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	ok, err := f.gate.CanSend(ctx, f.a, f.b)
	require.NoError(t, err)
	assert.True(t, ok, "fresh pair may challenge")

	c, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)

	for _, order := range [][2]string{{f.a, f.b}, {f.b, f.a}} {
		ok, err := f.gate.CanSend(ctx, order[0], order[1])
		require.NoError(t, err)
		assert.False(t, ok, "pending challenge blocks both directions")
	}

	_, m, err := f.gate.Respond(ctx, c.ID, challenge.StatusAccepted)
	require.NoError(t, err)

	ok, err = f.gate.CanSend(ctx, f.b, f.a)
	require.NoError(t, err)
	assert.False(t, ok, "active match blocks new challenges")

	for _, st := range []match.Status{match.StatusConfirmed, match.StatusLive} {
		_, err = f.matches.UpdateStatus(ctx, m.ID, match.ActiveStatuses, st, match.Fields{})
		require.NoError(t, err)
		ok, err = f.gate.CanSend(ctx, f.a, f.b)
		require.NoError(t, err)
		assert.False(t, ok, "status %s is active", st)
	}

	_, err = f.matches.SaveResult(ctx, m.ID, 1, 0, "admin-a")
	require.NoError(t, err)
	ok, err = f.gate.CanSend(ctx, f.a, f.b)
	require.NoError(t, err)
	assert.True(t, ok, "finished match no longer blocks")

	ok, err = f.gate.CanSend(ctx, f.a, f.a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSend_Duplicate(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	_, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)

	_, err = f.gate.Send(ctx, f.b, f.a)
	assert.ErrorIs(t, err, challenge.ErrAlreadyExists)

	_, err = f.gate.Send(ctx, f.a, f.a)
	assert.ErrorIs(t, err, challenge.ErrSelfChallenge)

	_, err = f.gate.Send(ctx, f.a, "ghost")
	assert.ErrorIs(t, err, challenge.ErrUnknownTeam)
}

func TestSend_ConcurrentSendersCreateOnePending(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = f.gate.Send(ctx, f.a, f.b)
			} else {
				_, errs[i] = f.gate.Send(ctx, f.b, f.a)
			}
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, challenge.ErrAlreadyExists)
	}
	assert.Equal(t, 1, succeeded)

	var pending int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM challenges WHERE status = 'PENDING'").Scan(&pending))
	assert.Equal(t, 1, pending)
}

func TestSend_ReactivatesAfterRejection(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	first, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)
	rejected, created, err := f.gate.Respond(ctx, first.ID, challenge.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusRejected, rejected.Status)
	assert.Nil(t, created)
	assert.Equal(t, 0, countMatches(t, f.db), "rejecting never creates a match")

	again, err := f.gate.Send(ctx, f.b, f.a)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "the previous row is reused")
	assert.Equal(t, f.b, again.ChallengerID)
	assert.Equal(t, f.a, again.TargetID)

	var rows int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM challenges").Scan(&rows))
	assert.Equal(t, 1, rows)

	got, err := f.gate.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusPending, got.Status)
}

func TestRespond_AcceptCreatesOneMatch(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	c, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)

	accepted, m, err := f.gate.Respond(ctx, c.ID, challenge.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusAccepted, accepted.Status)
	require.NotNil(t, m)
	assert.Equal(t, match.StatusPending, m.Status)
	assert.Equal(t, f.a, m.TeamA)
	assert.Equal(t, f.b, m.TeamB)
	assert.Equal(t, c.ID, m.ChallengeID)

	_, _, err = f.gate.Respond(ctx, c.ID, challenge.StatusAccepted)
	assert.ErrorIs(t, err, challenge.ErrNotPending)
	assert.Equal(t, 1, countMatches(t, f.db))

	_, _, err = f.gate.Respond(ctx, c.ID, challenge.StatusCancelled)
	assert.ErrorIs(t, err, challenge.ErrInvalidAnswer)
	_, _, err = f.gate.Respond(ctx, "ghost", challenge.StatusAccepted)
	assert.ErrorIs(t, err, challenge.ErrNotFound)
}

func TestRespond_ConcurrentAcceptsCreateOneMatch(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	c, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.gate.Respond(ctx, c.ID, challenge.StatusAccepted)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countMatches(t, f.db))
}

func TestCancel(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	c, err := f.gate.Send(ctx, f.a, f.b)
	require.NoError(t, err)

	cancelled, err := f.gate.Cancel(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusCancelled, cancelled.Status)
	assert.Equal(t, 0, countMatches(t, f.db))

	_, err = f.gate.Cancel(ctx, c.ID)
	assert.ErrorIs(t, err, challenge.ErrNotPending)

	list, err := f.gate.ListForTeam(ctx, f.b)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

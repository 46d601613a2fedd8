package rating_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/rating"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, matchID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, matchID)
	return d.err
}

type fixture struct {
	db      *sql.DB
	teams   roster.Store
	matches match.Store
	metrics *metrics.Mock
	updater *rating.Updater
	a, b    string
}

func setupTestDB(t *testing.T) fixture {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)
	ctx := context.Background()

	teams := roster.New(db)
	a, err := teams.CreateTeam(ctx, "Leones", "Madrid", "F7", "admin-a")
	require.NoError(t, err)
	b, err := teams.CreateTeam(ctx, "Tigres", "Madrid", "F7", "admin-b")
	require.NoError(t, err)

	matches := match.New(db)
	m := metrics.NewMock()
	return fixture{db: db, teams: teams, matches: matches, metrics: m, updater: rating.NewUpdater(db, teams, matches, m), a: a.ID, b: b.ID}
}

// finishedMatch plays a match between the fixture teams to the given score.
func (f fixture) finishedMatch(t *testing.T, friendly bool, goalsA, goalsB int) string {
	t.Helper()
	ctx := context.Background()
	m, err := f.matches.Create(ctx, f.a, f.b, "")
	require.NoError(t, err)
	kickoff := time.Now().Add(time.Hour)
	_, err = f.matches.UpdateStatus(ctx, m.ID, []match.Status{match.StatusPending}, match.StatusConfirmed,
		match.Fields{ScheduledAt: &kickoff, IsFriendly: &friendly})
	require.NoError(t, err)
	_, err = f.matches.SaveResult(ctx, m.ID, goalsA, goalsB, "admin-a")
	require.NoError(t, err)
	return m.ID
}

func (f fixture) ratings(t *testing.T) (int, int) {
	t.Helper()
	a, err := f.teams.GetTeam(context.Background(), f.a)
	require.NoError(t, err)
	b, err := f.teams.GetTeam(context.Background(), f.b)
	require.NoError(t, err)
	return a.Rating, b.Rating
}

func TestElo(t *testing.T) {
	a, b := rating.Elo(1000, 1000, 1, rating.DefaultK)
	assert.Equal(t, 1016, a)
	assert.Equal(t, 984, b)

	a, b = rating.Elo(1000, 1000, 0.5, rating.DefaultK)
	assert.Equal(t, 1000, a)
	assert.Equal(t, 1000, b)

	// An upset moves more points than an expected win.
	upsetA, _ := rating.Elo(900, 1100, 1, rating.DefaultK)
	favA, _ := rating.Elo(1100, 900, 1, rating.DefaultK)
	assert.Greater(t, upsetA-900, favA-1100)
}

func TestTrigger_ExactlyOnce(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	id := f.finishedMatch(t, false, 3, 1)

	dispatcher := &recordingDispatcher{}
	trigger := rating.NewTrigger(f.db, dispatcher, f.metrics)

	var wg sync.WaitGroup
	results := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fired, err := trigger.MatchFinished(ctx, id)
			assert.NoError(t, err)
			results <- fired
		}()
	}
	wg.Wait()
	close(results)

	fired := 0
	for r := range results {
		if r {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, []string{id}, dispatcher.calls)
	assert.Equal(t, 1, f.metrics.RatingTriggers())
}

func TestUpdater_Apply(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	id := f.finishedMatch(t, false, 3, 1)

	trigger := rating.NewTrigger(f.db, rating.LocalDispatcher{Applier: f.updater}, f.metrics)
	fired, err := trigger.MatchFinished(ctx, id)
	require.NoError(t, err)
	require.True(t, fired)

	a, b := f.ratings(t)
	assert.Equal(t, roster.DefaultRating+16, a)
	assert.Equal(t, roster.DefaultRating-16, b)

	// A second application is a no-op.
	applied, err := f.updater.Apply(ctx, id)
	require.NoError(t, err)
	assert.False(t, applied)
	a2, b2 := f.ratings(t)
	assert.Equal(t, a, a2)
	assert.Equal(t, b, b2)
}

func TestUpdater_FriendlyLeavesRatings(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	id := f.finishedMatch(t, true, 5, 0)

	trigger := rating.NewTrigger(f.db, rating.LocalDispatcher{Applier: f.updater}, f.metrics)
	_, err := trigger.MatchFinished(ctx, id)
	require.NoError(t, err)

	a, b := f.ratings(t)
	assert.Equal(t, roster.DefaultRating, a)
	assert.Equal(t, roster.DefaultRating, b)

	var appliedAt sql.NullInt64
	require.NoError(t, f.db.QueryRow("SELECT applied_at FROM rating_triggers WHERE match_id = ?", id).Scan(&appliedAt))
	assert.True(t, appliedAt.Valid)
}

func TestUpdater_Walkover(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m, err := f.matches.Create(ctx, f.a, f.b, "")
	require.NoError(t, err)
	claimer := f.b
	_, err = f.matches.UpdateStatus(ctx, m.ID, match.NonTerminalStatuses, match.StatusWalkoverB, match.Fields{WalkoverClaimedBy: &claimer})
	require.NoError(t, err)

	trigger := rating.NewTrigger(f.db, rating.LocalDispatcher{Applier: f.updater}, f.metrics)
	_, err = trigger.MatchFinished(ctx, m.ID)
	require.NoError(t, err)

	a, b := f.ratings(t)
	assert.Less(t, a, roster.DefaultRating)
	assert.Greater(t, b, roster.DefaultRating)
}

func TestProcessor_RetriesFailedDispatch(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	id := f.finishedMatch(t, false, 0, 2)

	broken := &recordingDispatcher{err: errors.New("queue unavailable")}
	trigger := rating.NewTrigger(f.db, broken, f.metrics)
	fired, err := trigger.MatchFinished(ctx, id)
	assert.Error(t, err)
	assert.True(t, fired)

	a, _ := f.ratings(t)
	assert.Equal(t, roster.DefaultRating, a)

	processor := rating.NewProcessor(f.db, f.updater)
	applied, err := processor.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	a, b := f.ratings(t)
	assert.Equal(t, roster.DefaultRating-16, a)
	assert.Equal(t, roster.DefaultRating+16, b)

	applied, err = processor.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestProcessor_AppliesDecisionsThatWereNeverDispatched(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	finished := f.finishedMatch(t, false, 2, 0)

	m, err := f.matches.Create(ctx, f.a, f.b, "")
	require.NoError(t, err)
	claimer := f.b
	_, err = f.matches.UpdateStatus(ctx, m.ID, match.NonTerminalStatuses, match.StatusWalkoverB, match.Fields{WalkoverClaimedBy: &claimer})
	require.NoError(t, err)

	processor := rating.NewProcessor(f.db, f.updater)
	applied, err := processor.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	var pending int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM rating_triggers WHERE applied_at IS NULL").Scan(&pending))
	assert.Zero(t, pending)

	// A won one and lost the other, so it ends one point either side of the start.
	a, b := f.ratings(t)
	assert.InDelta(t, roster.DefaultRating, a, 1)
	assert.NotEqual(t, roster.DefaultRating, a)
	assert.Equal(t, 2*roster.DefaultRating, a+b)

	// A late dispatch of an already applied decision changes nothing.
	trigger := rating.NewTrigger(f.db, rating.LocalDispatcher{Applier: f.updater}, f.metrics)
	fired, err := trigger.MatchFinished(ctx, finished)
	require.NoError(t, err)
	assert.True(t, fired)
	a2, b2 := f.ratings(t)
	assert.Equal(t, a, a2)
	assert.Equal(t, b, b2)
}

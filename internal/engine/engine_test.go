package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/mauv0809/rivalry/internal/challenge"
	"github.com/mauv0809/rivalry/internal/chat"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/engine"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/match"
	"github.com/mauv0809/rivalry/internal/metrics"
	"github.com/mauv0809/rivalry/internal/negotiation"
	"github.com/mauv0809/rivalry/internal/notifier"
	"github.com/mauv0809/rivalry/internal/permission"
	"github.com/mauv0809/rivalry/internal/rating"
	"github.com/mauv0809/rivalry/internal/realtime"
	"github.com/mauv0809/rivalry/internal/roster"
	"github.com/mauv0809/rivalry/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine   *engine.Engine
	teams    roster.Store
	matches  match.Store
	hub      *realtime.Hub
	notifier *notifier.Mock
	metrics  *metrics.Mock
	clock    *time.Time
	madrid   *time.Location
	a, b     string
}

// setupTestDB wires an engine over an in-memory database with two teams.
// Team A: admin-a (ADMIN), player-a (PLAYER). Team B: admin-b (ADMIN).
func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)
	ctx := context.Background()

	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	teams := roster.New(db)
	a, err := teams.CreateTeam(ctx, "Leones", "Madrid", "F7", "admin-a")
	require.NoError(t, err)
	b, err := teams.CreateTeam(ctx, "Tigres", "Madrid", "F7", "admin-b")
	require.NoError(t, err)
	_, err = teams.AddMember(ctx, a.ID, "player-a", roster.RolePlayer, roster.StatusActive)
	require.NoError(t, err)

	m := metrics.NewMock()
	n := notifier.NewMock()
	hub := realtime.NewHub(m, 16)
	matches := match.New(db)
	messages := chat.New(db)
	gate := permission.New(teams)
	updater := rating.NewUpdater(db, teams, matches, m)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, madrid)
	f := &fixture{teams: teams, matches: matches, hub: hub, notifier: n, metrics: m, clock: &clock, madrid: madrid, a: a.ID, b: b.ID}
	f.engine = engine.New(engine.Deps{
		Teams:       teams,
		Challenges:  challenge.New(db, matches),
		Matches:     matches,
		Chat:        messages,
		Negotiator:  negotiation.New(db, matches, messages, gate, madrid),
		Gate:        gate,
		Publisher:   hub,
		Notifier:    n,
		Metrics:     m,
		Ratings:     rating.NewTrigger(db, rating.LocalDispatcher{Applier: updater}, m),
		DefaultZone: madrid,
		Now:         func() time.Time { return *f.clock },
	})
	return f
}

// confirmedMatch runs a challenge and an accepted proposal for 2024-06-01 18:00.
func (f *fixture) confirmedMatch(t *testing.T) *match.Match {
	t.Helper()
	ctx := context.Background()
	c, err := f.engine.SendChallenge(ctx, "admin-a", f.a, f.b)
	require.NoError(t, err)
	_, m, err := f.engine.RespondChallenge(ctx, "admin-b", c.ID, challenge.StatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, match.StatusPending, m.Status)

	msg, err := f.engine.SendProposal(ctx, "admin-a", m.ID, "", chat.Offer{Date: "2024-06-01", Time: "18:00", Venue: "Field 3"})
	require.NoError(t, err)
	out, err := f.engine.RespondProposal(ctx, "admin-b", msg.ID, chat.ProposalAccepted, "")
	require.NoError(t, err)
	require.NotNil(t, out.Match)
	return out.Match
}

func (f *fixture) setClock(t time.Time) {
	*f.clock = t
}

func TestEndToEnd_ChallengeToConfirmedMatch(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	m := f.confirmedMatch(t)
	f.engine.Wait()

	assert.Equal(t, match.StatusConfirmed, m.Status)
	require.NotNil(t, m.ScheduledAt)
	assert.True(t, m.ScheduledAt.Equal(time.Date(2024, 6, 1, 18, 0, 0, 0, f.madrid)))
	assert.Equal(t, "Field 3", m.Venue)

	view, err := f.engine.LoadMatch(ctx, "admin-b", m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, view.Match.Status)
	assert.Equal(t, "Leones", view.TeamA.Team.Name)
	assert.Len(t, view.Messages, 1)
	assert.Equal(t, chat.ProposalAccepted, view.Messages[0].Proposal.Status)
	assert.Equal(t, match.PhasePrevia, view.Phase)
	assert.True(t, view.CanManage)
	assert.Equal(t, f.b, view.ManagedTeamID)

	counts := f.notifier.Counts()
	assert.Equal(t, 1, counts["ChallengeSent"])
	assert.Equal(t, 1, counts["ProposalSent"])
	assert.Equal(t, 1, counts["ProposalAccepted"])
	assert.Equal(t, "Tigres", f.notifier.ProposalAcceptedCalls[0].TeamBName)

	assert.Equal(t, 1, f.metrics.ChallengesSent())
	assert.Equal(t, 1, f.metrics.ProposalsSent())
	assert.Equal(t, 1, f.metrics.ProposalResponses(string(chat.ProposalAccepted)))
}

func TestEndToEnd_CancelInsideWindowFails(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	f.setClock(m.ScheduledAt.Add(-6 * time.Hour))
	_, err := f.engine.CancelMatch(ctx, "admin-a", m.ID)
	require.ErrorIs(t, err, match.ErrCancellationWindow)
	assert.Equal(t, failure.KindStale, failure.KindOf(err))
	assert.Equal(t, 1, f.metrics.StaleRejections("cancel_match"))

	reloaded, err := f.matches.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, reloaded.Status)

	f.setClock(m.ScheduledAt.Add(-48 * time.Hour))
	cancelled, err := f.engine.CancelMatch(ctx, "admin-a", m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCancelled, cancelled.Status)
	f.engine.Wait()
	assert.Equal(t, 1, f.notifier.Counts()["MatchCancelled"])
}

func TestLoadMatch_PhaseAndAccess(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	f.setClock(m.ScheduledAt.Add(30 * time.Minute))
	view, err := f.engine.LoadMatch(ctx, "player-a", m.ID)
	require.NoError(t, err)
	assert.Equal(t, match.PhaseCheckin, view.Phase)
	assert.False(t, view.CanManage)

	_, err = f.engine.LoadMatch(ctx, "stranger", m.ID)
	assert.ErrorIs(t, err, engine.ErrNotMember)

	_, err = f.engine.LoadMatch(ctx, "", m.ID)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestWritesRequireManager(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	_, err := f.engine.SendText(ctx, "player-a", m.ID, "", "see you there")
	assert.ErrorIs(t, err, negotiation.ErrNotManager)

	_, err = f.engine.CancelMatch(ctx, "player-a", m.ID)
	assert.ErrorIs(t, err, negotiation.ErrNotManager)

	_, err = f.engine.SendChallenge(ctx, "admin-b", f.a, f.b)
	assert.ErrorIs(t, err, negotiation.ErrNotManager)
}

func TestSubmitResult(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	t.Run("too early", func(t *testing.T) {
		f.setClock(m.ScheduledAt.Add(-5 * time.Hour))
		_, err := f.engine.SubmitResult(ctx, "admin-a", m.ID, 2, 1)
		assert.ErrorIs(t, err, engine.ErrResultNotOpen)
	})

	t.Run("during check-in", func(t *testing.T) {
		f.setClock(m.ScheduledAt.Add(90 * time.Minute))
		result, err := f.engine.SubmitResult(ctx, "admin-a", m.ID, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, result.GoalsA)
		assert.False(t, result.IsDraw)

		view, err := f.engine.LoadMatch(ctx, "admin-a", m.ID)
		require.NoError(t, err)
		assert.Equal(t, match.StatusFinished, view.Match.Status)
		assert.Equal(t, match.PhasePostmatch, view.Phase)
		require.NotNil(t, view.Result)
		assert.Greater(t, view.TeamA.Team.Rating, roster.DefaultRating)
		assert.Less(t, view.TeamB.Team.Rating, roster.DefaultRating)
	})

	t.Run("resubmission is stale", func(t *testing.T) {
		_, err := f.engine.SubmitResult(ctx, "admin-b", m.ID, 0, 0)
		assert.ErrorIs(t, err, match.ErrResultExists)
	})

	t.Run("opponent confirms", func(t *testing.T) {
		result, err := f.engine.ConfirmResult(ctx, "admin-b", m.ID)
		require.NoError(t, err)
		assert.True(t, result.ConfirmedB)
		assert.False(t, result.ConfirmedA)
	})

	f.engine.Wait()
	assert.Equal(t, 1, f.notifier.Counts()["MatchFinished"])
	assert.Equal(t, 1, f.metrics.RatingTriggers())
}

func TestSubmitPlayerStats_Replaces(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	_, err := f.engine.SubmitPlayerStats(ctx, "admin-a", m.ID, f.a, []match.PlayerStat{{UserID: "player-a", Goals: 1}})
	assert.ErrorIs(t, err, engine.ErrStatsNotOpen)

	f.setClock(m.ScheduledAt.Add(time.Hour))
	_, err = f.engine.SubmitResult(ctx, "admin-a", m.ID, 3, 3)
	require.NoError(t, err)

	_, err = f.engine.SubmitPlayerStats(ctx, "admin-a", m.ID, f.a, []match.PlayerStat{
		{UserID: "player-a", Goals: 2},
		{UserID: "admin-a", Goals: 1, IsMVP: true},
	})
	require.NoError(t, err)
	stats, err := f.engine.SubmitPlayerStats(ctx, "admin-a", m.ID, f.a, []match.PlayerStat{
		{UserID: "player-a", Goals: 3},
		{UserID: "admin-a", Goals: 0},
	})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "player-a", stats[0].UserID)
	assert.Equal(t, 3, stats[0].Goals)

	_, err = f.engine.SubmitPlayerStats(ctx, "admin-a", m.ID, f.b, []match.PlayerStat{{UserID: "x"}})
	assert.ErrorIs(t, err, negotiation.ErrNotManager)

	_, err = f.engine.SubmitPlayerStats(ctx, "admin-a", m.ID, f.a, []match.PlayerStat{{UserID: "x", Goals: -1}})
	assert.Equal(t, failure.KindPrecondition, failure.KindOf(err))
}

func TestClaimWalkover(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	m := f.confirmedMatch(t)

	updated, err := f.engine.ClaimWalkover(ctx, "admin-b", m.ID, engine.Walkover{EvidenceURL: "https://example.com/empty-pitch.jpg"})
	require.NoError(t, err)
	assert.Equal(t, match.StatusWalkoverB, updated.Status)
	assert.Equal(t, f.b, updated.WalkoverClaimedBy)
	assert.Equal(t, "https://example.com/empty-pitch.jpg", updated.EvidenceURL)

	_, err = f.engine.ClaimWalkover(ctx, "admin-a", m.ID, engine.Walkover{})
	assert.ErrorIs(t, err, engine.ErrAlreadyDecided)

	_, err = f.engine.SendProposal(ctx, "admin-a", m.ID, "", chat.Offer{Date: "2024-06-08", Time: "18:00"})
	assert.ErrorIs(t, err, negotiation.ErrNotNegotiable)

	b, err := f.teams.GetTeam(ctx, f.b)
	require.NoError(t, err)
	assert.Greater(t, b.Rating, roster.DefaultRating)
}

func TestEditReservation(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	c, err := f.engine.SendChallenge(ctx, "admin-a", f.a, f.b)
	require.NoError(t, err)
	_, pending, err := f.engine.RespondChallenge(ctx, "admin-b", c.ID, challenge.StatusAccepted)
	require.NoError(t, err)

	_, err = f.engine.EditReservation(ctx, "admin-a", pending.ID, engine.Reservation{Venue: "Field 9"})
	assert.ErrorIs(t, err, engine.ErrNotConfirmed)

	m := f.confirmedMatch2(t, pending)

	_, err = f.engine.EditReservation(ctx, "admin-a", m.ID, engine.Reservation{Date: "2024-06-02"})
	assert.ErrorIs(t, err, engine.ErrIncompleteSchedule)

	updated, err := f.engine.EditReservation(ctx, "admin-b", m.ID, engine.Reservation{Date: "2024-06-02", Time: "19:30", Venue: "Field 9"})
	require.NoError(t, err)
	assert.Equal(t, match.StatusConfirmed, updated.Status)
	assert.Equal(t, "Field 9", updated.Venue)
	assert.True(t, updated.ScheduledAt.Equal(time.Date(2024, 6, 2, 19, 30, 0, 0, f.madrid)))
}

// confirmedMatch2 confirms an existing pending match.
func (f *fixture) confirmedMatch2(t *testing.T, pending *match.Match) *match.Match {
	t.Helper()
	ctx := context.Background()
	msg, err := f.engine.SendProposal(ctx, "admin-b", pending.ID, "", chat.Offer{Date: "2024-06-01", Time: "18:00"})
	require.NoError(t, err)
	out, err := f.engine.RespondProposal(ctx, "admin-a", msg.ID, chat.ProposalAccepted, "")
	require.NoError(t, err)
	return out.Match
}

func TestNotificationFailureDoesNotFailTheWrite(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.notifier.ChallengeSentFunc = func(n notifier.ChallengeNotice) error {
		return errors.New("slack is down")
	}

	c, err := f.engine.SendChallenge(ctx, "admin-a", f.a, f.b)
	require.NoError(t, err)
	f.engine.Wait()
	assert.Equal(t, challenge.StatusPending, c.Status)
	assert.Equal(t, 1, f.notifier.Counts()["ChallengeSent"])
}

func TestRealtimeEventsReachSubscribers(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	c, err := f.engine.SendChallenge(ctx, "admin-a", f.a, f.b)
	require.NoError(t, err)
	_, m, err := f.engine.RespondChallenge(ctx, "admin-b", c.ID, challenge.StatusAccepted)
	require.NoError(t, err)

	sub := f.hub.Subscribe(realtime.MatchTopic(m.ID))
	defer sub.Close()

	msg, err := f.engine.SendText(ctx, "admin-a", m.ID, "", "Saturday works for us")
	require.NoError(t, err)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, realtime.EventMessageCreated, ev.Type)
		assert.Equal(t, msg.ID, ev.Message.ID)
	case <-time.After(time.Second):
		t.Fatal("no realtime event received")
	}
}

func TestTeamChallenges_MembersOnly(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()
	f.confirmedMatch(t)

	list, err := f.engine.TeamChallenges(ctx, "player-a", f.a)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.engine.TeamChallenges(ctx, "admin-b", f.a)
	assert.ErrorIs(t, err, engine.ErrNotTeamMember)
	assert.Equal(t, failure.KindPermission, failure.KindOf(err))

	_, err = f.engine.TeamChallenges(ctx, "", f.a)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestSetMemberStatus(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	view, err := f.engine.SetMemberStatus(ctx, "admin-a", f.a, "player-a", roster.StatusInactive)
	require.NoError(t, err)
	var status roster.MemberStatus
	for _, m := range view.Members {
		if m.UserID == "player-a" {
			status = m.Status
		}
	}
	assert.Equal(t, roster.StatusInactive, status)

	_, err = f.engine.SetMemberStatus(ctx, "player-a", f.a, "player-a", roster.StatusActive)
	assert.ErrorIs(t, err, negotiation.ErrNotManager)

	_, err = f.engine.SetMemberStatus(ctx, "admin-a", f.a, "admin-a", roster.StatusInactive)
	assert.ErrorIs(t, err, roster.ErrAdminStatus)

	_, err = f.engine.SetMemberStatus(ctx, "admin-a", f.a, "player-a", roster.MemberStatus("BANNED"))
	assert.ErrorIs(t, err, engine.ErrInvalidMemberStatus)
}

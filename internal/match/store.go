package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/sethvargo/go-retry"
)

var (
	ErrNotFound        = failure.NotFound("match not found")
	ErrUnknownTeam     = failure.NotFound("team not found")
	ErrSameTeam        = failure.Precondition("a team cannot play itself")
	ErrStaleMatch      = failure.Stale("match state changed, reload and retry")
	ErrResultExists    = failure.Stale("a result was already submitted for this match")
	ErrNoResult        = failure.NotFound("no result submitted for this match")
	ErrInvalidScore    = failure.Precondition("goals cannot be negative")
	ErrNotParticipant  = failure.Precondition("team does not play in this match")
	ErrDuplicatePlayer = failure.Precondition("a player appears more than once in the stats")
)

// RetryPolicy bounds the retries of the result write sequence.
type RetryPolicy struct {
	Base       time.Duration
	MaxRetries uint64
}

var DefaultRetryPolicy = RetryPolicy{Base: 50 * time.Millisecond, MaxRetries: 4}

func (p RetryPolicy) backoff() retry.Backoff {
	return retry.WithMaxRetries(p.MaxRetries, retry.NewExponential(p.Base))
}

// New creates a new match Store.
func New(db *sql.DB) Store {
	return NewWithRetry(db, DefaultRetryPolicy)
}

// NewWithRetry creates a match Store with a custom result retry policy.
func NewWithRetry(db *sql.DB, policy RetryPolicy) Store {
	return &store{db: db, retry: policy, runInTx: database.RunInTx}
}

func (s *store) WithTx(tx *sql.Tx) Store {
	return &store{db: s.db, tx: tx, retry: s.retry, runInTx: s.runInTx}
}

func (s *store) q() database.Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const matchColumns = `id, team_a, team_b, challenge_id, status, scheduled_at, is_friendly, venue, modality,
	duration_minutes, evidence_url, walkover_claimed_by, created_at, updated_at`

func (s *store) Create(ctx context.Context, teamA, teamB, challengeID string) (*Match, error) {
	if teamA == teamB {
		return nil, ErrSameTeam
	}
	now := time.Now().Truncate(time.Second)
	m := &Match{
		ID:          uuid.New().String(),
		TeamA:       teamA,
		TeamB:       teamB,
		ChallengeID: challengeID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.q().ExecContext(ctx, `
		INSERT INTO matches (id, team_a, team_b, challenge_id, status, is_friendly, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		m.ID, m.TeamA, m.TeamB, database.NullString(challengeID), m.Status, now.Unix(), now.Unix())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrUnknownTeam
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	log.Info("Created match", "id", m.ID, "team_a", teamA, "team_b", teamB)
	return m, nil
}

func (s *store) Get(ctx context.Context, matchID string) (*Match, error) {
	return getMatch(ctx, s.q(), matchID)
}

func getMatch(ctx context.Context, q database.Querier, matchID string) (*Match, error) {
	row := q.QueryRowContext(ctx, "SELECT "+matchColumns+" FROM matches WHERE id = ?", matchID)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// scanMatch is a helper function to scan a single match row.
func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	var challengeID, venue, modality, evidence, claimedBy sql.NullString
	var scheduledAt, duration sql.NullInt64
	var createdAt, updatedAt int64

	err := scanner.Scan(&m.ID, &m.TeamA, &m.TeamB, &challengeID, &m.Status, &scheduledAt, &m.IsFriendly,
		&venue, &modality, &duration, &evidence, &claimedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.ChallengeID = challengeID.String
	m.Venue = venue.String
	m.Modality = modality.String
	m.DurationMinutes = int(duration.Int64)
	m.EvidenceURL = evidence.String
	m.WalkoverClaimedBy = claimedBy.String
	if scheduledAt.Valid {
		at := time.Unix(scheduledAt.Int64, 0)
		m.ScheduledAt = &at
	}
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)
	return &m, nil
}

func (s *store) ListForTeam(ctx context.Context, teamID string) ([]Match, error) {
	rows, err := s.q().QueryContext(ctx, "SELECT "+matchColumns+`
		FROM matches WHERE team_a = ? OR team_b = ?
		ORDER BY created_at DESC`, teamID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func (s *store) ActiveBetween(ctx context.Context, teamA, teamB string) (bool, error) {
	var exists bool
	err := s.q().QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM matches
			WHERE ((team_a = ? AND team_b = ?) OR (team_a = ? AND team_b = ?))
			  AND status IN (?, ?, ?)
		)`, teamA, teamB, teamB, teamA, StatusPending, StatusConfirmed, StatusLive).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active matches: %w", err)
	}
	return exists, nil
}

func (s *store) UpdateStatus(ctx context.Context, matchID string, from []Status, to Status, f Fields) (*Match, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("update status: no source statuses given")
	}
	if !to.Decided() || s.tx != nil {
		return updateStatus(ctx, s.q(), matchID, from, to, f)
	}

	var m *Match
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		m, err = updateStatus(ctx, tx, matchID, from, to, f)
		return err
	})
	return m, err
}

func updateStatus(ctx context.Context, q database.Querier, matchID string, from []Status, to Status, f Fields) (*Match, error) {
	now := time.Now().Unix()
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{to, now}
	if f.ScheduledAt != nil {
		sets = append(sets, "scheduled_at = ?")
		args = append(args, f.ScheduledAt.Unix())
	}
	if f.IsFriendly != nil {
		sets = append(sets, "is_friendly = ?")
		args = append(args, *f.IsFriendly)
	}
	if f.Venue != nil {
		sets = append(sets, "venue = ?")
		args = append(args, database.NullString(*f.Venue))
	}
	if f.Modality != nil {
		sets = append(sets, "modality = ?")
		args = append(args, database.NullString(*f.Modality))
	}
	if f.DurationMinutes != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, sql.NullInt64{Int64: int64(*f.DurationMinutes), Valid: *f.DurationMinutes > 0})
	}
	if f.EvidenceURL != nil {
		sets = append(sets, "evidence_url = ?")
		args = append(args, database.NullString(*f.EvidenceURL))
	}
	if f.WalkoverClaimedBy != nil {
		sets = append(sets, "walkover_claimed_by = ?")
		args = append(args, database.NullString(*f.WalkoverClaimedBy))
	}

	args = append(args, matchID)
	placeholders := make([]string, len(from))
	for i, st := range from {
		placeholders[i] = "?"
		args = append(args, st)
	}
	query := fmt.Sprintf("UPDATE matches SET %s WHERE id = ? AND status IN (%s)",
		strings.Join(sets, ", "), strings.Join(placeholders, ", "))

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	m, err := getMatch(ctx, q, matchID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		log.Debug("Match status precondition failed", "matchID", matchID, "current", m.Status, "to", to)
		return nil, ErrStaleMatch
	}
	if to.Decided() {
		if err := recordDecided(ctx, q, matchID, now); err != nil {
			return nil, err
		}
	}
	log.Info("Updated match status", "matchID", matchID, "status", to)
	return m, nil
}

func (s *store) SaveResult(ctx context.Context, matchID string, goalsA, goalsB int, submittedBy string) (*Result, error) {
	if goalsA < 0 || goalsB < 0 {
		return nil, ErrInvalidScore
	}
	if s.tx != nil {
		return saveResult(ctx, s.tx, matchID, goalsA, goalsB, submittedBy)
	}

	var result *Result
	err := retry.Do(ctx, s.retry.backoff(), func(ctx context.Context) error {
		err := s.runInTx(ctx, s.db, func(tx *sql.Tx) error {
			r, err := saveResult(ctx, tx, matchID, goalsA, goalsB, submittedBy)
			result = r
			return err
		})
		if err != nil && failure.KindOf(err) == failure.KindStorage {
			log.Warn("Result write failed, retrying", "matchID", matchID, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Saved match result", "matchID", matchID, "goals_a", goalsA, "goals_b", goalsB)
	return result, nil
}

// saveResult inserts the result before flipping the status so that no
// reader can observe FINISHED without a result row.
func saveResult(ctx context.Context, q database.Querier, matchID string, goalsA, goalsB int, submittedBy string) (*Result, error) {
	now := time.Now().Unix()
	_, err := q.ExecContext(ctx, `
		INSERT INTO match_results (match_id, goals_a, goals_b, submitted_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO NOTHING`, matchID, goalsA, goalsB, submittedBy, now)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE matches SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		StatusFinished, now, matchID, StatusConfirmed, StatusLive)
	if err != nil {
		return nil, fmt.Errorf("failed to finish match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		m, err := getMatch(ctx, q, matchID)
		if err != nil {
			return nil, err
		}
		if m.Status == StatusFinished {
			return nil, ErrResultExists
		}
		return nil, ErrStaleMatch
	}
	if err := recordDecided(ctx, q, matchID, now); err != nil {
		return nil, err
	}
	return getResult(ctx, q, matchID)
}

// recordDecided queues the rating trigger of a decided match, in the same
// transaction as its status change.
func recordDecided(ctx context.Context, q database.Querier, matchID string, now int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO rating_triggers (match_id, triggered_at) VALUES (?, ?)
		ON CONFLICT(match_id) DO NOTHING`, matchID, now)
	if err != nil {
		return fmt.Errorf("failed to queue rating trigger: %w", err)
	}
	return nil
}

func (s *store) GetResult(ctx context.Context, matchID string) (*Result, error) {
	return getResult(ctx, s.q(), matchID)
}

func getResult(ctx context.Context, q database.Querier, matchID string) (*Result, error) {
	var r Result
	var createdAt int64
	err := q.QueryRowContext(ctx, `
		SELECT match_id, goals_a, goals_b, confirmed_a, confirmed_b, submitted_by, created_at
		FROM match_results WHERE match_id = ?`, matchID).
		Scan(&r.MatchID, &r.GoalsA, &r.GoalsB, &r.ConfirmedA, &r.ConfirmedB, &r.SubmittedBy, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoResult
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	r.IsDraw = r.GoalsA == r.GoalsB
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

func (s *store) ConfirmResult(ctx context.Context, matchID, teamID string) (*Result, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	column := ""
	switch teamID {
	case m.TeamA:
		column = "confirmed_a"
	case m.TeamB:
		column = "confirmed_b"
	default:
		return nil, ErrNotParticipant
	}

	res, err := s.q().ExecContext(ctx, "UPDATE match_results SET "+column+" = 1 WHERE match_id = ?", matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNoResult
	}
	log.Info("Result confirmed", "matchID", matchID, "team", teamID)
	return s.GetResult(ctx, matchID)
}

func (s *store) ReplacePlayerStats(ctx context.Context, matchID, teamID string, stats []PlayerStat) error {
	replace := func(q database.Querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM player_stats WHERE match_id = ? AND team_id = ?", matchID, teamID); err != nil {
			return fmt.Errorf("failed to clear player stats: %w", err)
		}
		for _, st := range stats {
			_, err := q.ExecContext(ctx, `
				INSERT INTO player_stats (match_id, user_id, team_id, goals, is_mvp)
				VALUES (?, ?, ?, ?, ?)`, matchID, st.UserID, teamID, st.Goals, st.IsMVP)
			if err != nil {
				switch {
				case database.IsUniqueViolation(err):
					return ErrDuplicatePlayer
				case database.IsForeignKeyViolation(err):
					return ErrNotFound
				}
				return fmt.Errorf("failed to insert player stat: %w", err)
			}
		}
		return nil
	}

	var err error
	if s.tx != nil {
		err = replace(s.tx)
	} else {
		err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error { return replace(tx) })
	}
	if err != nil {
		return err
	}
	log.Info("Replaced player stats", "matchID", matchID, "team", teamID, "rows", len(stats))
	return nil
}

func (s *store) PlayerStats(ctx context.Context, matchID string) ([]PlayerStat, error) {
	rows, err := s.q().QueryContext(ctx, `
		SELECT match_id, user_id, team_id, goals, is_mvp
		FROM player_stats WHERE match_id = ?
		ORDER BY team_id, goals DESC, user_id`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player stats: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStat
	for rows.Next() {
		var st PlayerStat
		if err := rows.Scan(&st.MatchID, &st.UserID, &st.TeamID, &st.Goals, &st.IsMVP); err != nil {
			return nil, fmt.Errorf("failed to scan player stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

package challenge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/failure"
	"github.com/mauv0809/rivalry/internal/match"
)

var (
	ErrNotFound      = failure.NotFound("challenge not found")
	ErrUnknownTeam   = failure.NotFound("team not found")
	ErrSelfChallenge = failure.Precondition("a team cannot challenge itself")
	ErrInvalidAnswer = failure.Precondition("a challenge can only be accepted or rejected")
	ErrAlreadyExists = failure.Stale("challenge already exists")
	ErrActiveMatch   = failure.Stale("these teams already have an active match")
	ErrNotPending    = failure.Stale("challenge is no longer pending")
)

// New creates a new challenge Store. Matches created on acceptance go
// through the given match store.
func New(db *sql.DB, matches match.Store) Store {
	return &store{db: db, matches: matches}
}

func (s *store) CanSend(ctx context.Context, teamA, teamB string) (bool, error) {
	if teamA == teamB {
		return false, nil
	}
	low, high := pair(teamA, teamB)
	var pending bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM challenges WHERE team_low = ? AND team_high = ? AND status = 'PENDING')`,
		low, high).Scan(&pending)
	if err != nil {
		return false, fmt.Errorf("failed to check pending challenges: %w", err)
	}
	if pending {
		return false, nil
	}
	active, err := s.matches.ActiveBetween(ctx, teamA, teamB)
	if err != nil {
		return false, err
	}
	return !active, nil
}

func (s *store) Send(ctx context.Context, challengerID, targetID string) (*Challenge, error) {
	if challengerID == targetID {
		return nil, ErrSelfChallenge
	}
	low, high := pair(challengerID, targetID)
	now := time.Now().Truncate(time.Second)
	c := &Challenge{
		ChallengerID: challengerID,
		TargetID:     targetID,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		var existingID string
		var existingStatus Status
		err := tx.QueryRowContext(ctx, `
			SELECT id, status FROM challenges
			WHERE team_low = ? AND team_high = ?
			ORDER BY updated_at DESC LIMIT 1`, low, high).Scan(&existingID, &existingStatus)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up challenge pair: %w", err)
		}
		if existingStatus == StatusPending {
			return ErrAlreadyExists
		}

		active, err := s.matches.WithTx(tx).ActiveBetween(ctx, challengerID, targetID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveMatch
		}

		if existingID != "" {
			c.ID = existingID
			res, err := tx.ExecContext(ctx, `
				UPDATE challenges
				SET challenger_id = ?, target_id = ?, status = 'PENDING', created_at = ?, updated_at = ?
				WHERE id = ? AND status != 'PENDING'`,
				challengerID, targetID, now.Unix(), now.Unix(), existingID)
			if err != nil {
				return fmt.Errorf("failed to reactivate challenge: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrAlreadyExists
			}
			log.Info("Reactivated challenge", "id", existingID, "previous_status", existingStatus)
			return nil
		}

		c.ID = uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO challenges (id, challenger_id, target_id, team_low, team_high, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'PENDING', ?, ?)`,
			c.ID, challengerID, targetID, low, high, now.Unix(), now.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return nil, ErrAlreadyExists
		case database.IsForeignKeyViolation(err):
			return nil, ErrUnknownTeam
		}
		return nil, err
	}

	log.Info("Challenge sent", "id", c.ID, "challenger", challengerID, "target", targetID)
	return c, nil
}

func (s *store) Respond(ctx context.Context, challengeID string, status Status) (*Challenge, *match.Match, error) {
	if status != StatusAccepted && status != StatusRejected {
		return nil, nil, ErrInvalidAnswer
	}

	var created *match.Match
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := transition(ctx, tx, challengeID, status); err != nil {
			return err
		}
		if status != StatusAccepted {
			return nil
		}
		c, err := get(ctx, tx, challengeID)
		if err != nil {
			return err
		}
		created, err = s.matches.WithTx(tx).Create(ctx, c.ChallengerID, c.TargetID, c.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	c, err := s.Get(ctx, challengeID)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Challenge answered", "id", challengeID, "status", status)
	return c, created, nil
}

func (s *store) Cancel(ctx context.Context, challengeID string) (*Challenge, error) {
	if err := transition(ctx, s.db, challengeID, StatusCancelled); err != nil {
		return nil, err
	}
	log.Info("Challenge cancelled", "id", challengeID)
	return s.Get(ctx, challengeID)
}

// transition moves a PENDING challenge to status. Only the first caller wins.
func transition(ctx context.Context, q database.Querier, challengeID string, status Status) error {
	res, err := q.ExecContext(ctx, `
		UPDATE challenges SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'PENDING'`, status, time.Now().Unix(), challengeID)
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := get(ctx, q, challengeID); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

func (s *store) Get(ctx context.Context, challengeID string) (*Challenge, error) {
	return get(ctx, s.db, challengeID)
}

func get(ctx context.Context, q database.Querier, challengeID string) (*Challenge, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, challenger_id, target_id, status, created_at, updated_at
		FROM challenges WHERE id = ?`, challengeID)
	c, err := scanChallenge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*Challenge, error) {
	var c Challenge
	var createdAt, updatedAt int64
	if err := scanner.Scan(&c.ID, &c.ChallengerID, &c.TargetID, &c.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

func (s *store) ListForTeam(ctx context.Context, teamID string) ([]Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, challenger_id, target_id, status, created_at, updated_at
		FROM challenges WHERE challenger_id = ? OR target_id = ?
		ORDER BY updated_at DESC`, teamID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			log.Error("Failed to scan challenge row", "error", err)
			continue
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

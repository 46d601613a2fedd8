package roster

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
)

var (
	ErrTeamNotFound   = failure.NotFound("team not found")
	ErrMemberNotFound = failure.NotFound("team member not found")
	ErrSecondAdmin    = failure.Precondition("a team has exactly one admin, transfer captaincy instead")
	ErrAdminStatus    = failure.Precondition("the team admin must stay active, transfer captaincy first")
	ErrSameCaptain    = failure.Precondition("user is already the captain")
	ErrNotEligible    = failure.Precondition("new captain must be an active member of the team")
)

// New creates a new roster Store.
func New(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) WithTx(tx *sql.Tx) Store {
	return &store{db: s.db, tx: tx}
}

func (s *store) q() database.Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// atomic runs fn inside the bound transaction, or a fresh one.
func (s *store) atomic(ctx context.Context, fn func(q database.Querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

// CreateTeam inserts a team with its captain as the ACTIVE ADMIN.
func (s *store) CreateTeam(ctx context.Context, name, homeZone, category, captainID string) (*Team, error) {
	team := &Team{
		ID:        uuid.New().String(),
		Name:      name,
		HomeZone:  homeZone,
		Category:  category,
		Rating:    DefaultRating,
		CaptainID: captainID,
		CreatedAt: time.Now().Truncate(time.Second),
	}

	err := s.atomic(ctx, func(q database.Querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO teams (id, name, home_zone, category, rating, captain_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			team.ID, team.Name, team.HomeZone, team.Category, team.Rating, team.CaptainID, team.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert team: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id, role, status, joined_at)
			VALUES (?, ?, ?, ?, ?)`,
			team.ID, captainID, RoleAdmin, StatusActive, team.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert captain: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Created team", "id", team.ID, "name", team.Name, "captain", captainID)
	return team, nil
}

func (s *store) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	var team Team
	var createdAt int64
	err := s.q().QueryRowContext(ctx, `
		SELECT id, name, home_zone, category, rating, captain_id, created_at
		FROM teams WHERE id = ?`, teamID).
		Scan(&team.ID, &team.Name, &team.HomeZone, &team.Category, &team.Rating, &team.CaptainID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	team.CreatedAt = time.Unix(createdAt, 0)
	return &team, nil
}

// AddMember adds or re-adds a user to a team. ADMIN is only reachable
// through TransferCaptaincy.
func (s *store) AddMember(ctx context.Context, teamID, userID string, role Role, status MemberStatus) (*Member, error) {
	if role == RoleAdmin {
		return nil, ErrSecondAdmin
	}
	member := &Member{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		Status:   status,
		JoinedAt: time.Now().Truncate(time.Second),
	}
	res, err := s.q().ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role, status, joined_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(team_id, user_id) DO UPDATE SET
			role = excluded.role,
			status = excluded.status
		WHERE team_members.role != 'ADMIN'`,
		member.TeamID, member.UserID, member.Role, member.Status, member.JoinedAt.Unix())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrSecondAdmin
	}

	log.Info("Added team member", "team", teamID, "user", userID, "role", role, "status", status)
	return member, nil
}

func (s *store) SetMemberStatus(ctx context.Context, teamID, userID string, status MemberStatus) error {
	res, err := s.q().ExecContext(ctx, `
		UPDATE team_members SET status = ?
		WHERE team_id = ? AND user_id = ? AND (role != 'ADMIN' OR ? = 'ACTIVE')`,
		status, teamID, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var role Role
		err := s.q().QueryRowContext(ctx, "SELECT role FROM team_members WHERE team_id = ? AND user_id = ?", teamID, userID).Scan(&role)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMemberNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check member: %w", err)
		}
		return ErrAdminStatus
	}
	log.Info("Updated member status", "team", teamID, "user", userID, "status", status)
	return nil
}

func (s *store) GetTeamMembers(ctx context.Context, teamID string) ([]Member, error) {
	rows, err := s.q().QueryContext(ctx, `
		SELECT team_id, user_id, role, status, joined_at
		FROM team_members WHERE team_id = ?
		ORDER BY CASE role WHEN 'ADMIN' THEN 0 WHEN 'SUB_ADMIN' THEN 1 ELSE 2 END, joined_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var joinedAt int64
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.Status, &joinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		m.JoinedAt = time.Unix(joinedAt, 0)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *store) TransferCaptaincy(ctx context.Context, teamID, newCaptainID string) error {
	return s.atomic(ctx, func(q database.Querier) error {
		var current string
		err := q.QueryRowContext(ctx, "SELECT captain_id FROM teams WHERE id = ?", teamID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load captain: %w", err)
		}
		if current == newCaptainID {
			return ErrSameCaptain
		}

		res, err := q.ExecContext(ctx, `
			UPDATE team_members SET role = 'ADMIN'
			WHERE team_id = ? AND user_id = ? AND status = 'ACTIVE'`, teamID, newCaptainID)
		if err != nil {
			return fmt.Errorf("failed to promote new captain: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotEligible
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE team_members SET role = 'SUB_ADMIN'
			WHERE team_id = ? AND user_id = ?`, teamID, current); err != nil {
			return fmt.Errorf("failed to demote previous captain: %w", err)
		}
		if _, err := q.ExecContext(ctx, "UPDATE teams SET captain_id = ? WHERE id = ?", newCaptainID, teamID); err != nil {
			return fmt.Errorf("failed to update team captain: %w", err)
		}
		log.Info("Transferred captaincy", "team", teamID, "from", current, "to", newCaptainID)
		return nil
	})
}

func (s *store) SetRating(ctx context.Context, teamID string, rating int) error {
	res, err := s.q().ExecContext(ctx, "UPDATE teams SET rating = ? WHERE id = ?", rating, teamID)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTeamNotFound
	}
	return nil
}

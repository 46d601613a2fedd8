package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/rivalry/internal/database"
	"github.com/mauv0809/rivalry/internal/failure"
)

var (
	ErrNotFound         = failure.NotFound("message not found")
	ErrUnknownMatch     = failure.NotFound("match not found")
	ErrNotAProposal     = failure.Precondition("message is not a proposal")
	ErrInvalidResponse  = failure.Precondition("proposals can only be accepted, rejected or cancelled")
	ErrStaleProposal    = failure.Stale("stale proposal: it was already answered")
	ErrEmptyTextMessage = failure.Precondition("message content is empty")
)

// New creates a new chat Store.
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

const messageColumns = `id, match_id, sender_team_id, sender_user_id, content, type, status, proposal_data,
	responded_by, responded_at, created_at`

func (s *store) Append(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.Kind == KindText && msg.Content == "" {
		return ErrEmptyTextMessage
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().Truncate(time.Millisecond)
	}

	var status, proposalData sql.NullString
	if msg.Proposal != nil {
		data, err := json.Marshal(msg.Proposal.Offer)
		if err != nil {
			return fmt.Errorf("failed to encode proposal: %w", err)
		}
		status = sql.NullString{String: string(msg.Proposal.Status), Valid: true}
		proposalData = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.q().ExecContext(ctx, `
		INSERT INTO match_messages (id, match_id, sender_team_id, sender_user_id, content, type, status, proposal_data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.MatchID, msg.SenderTeamID, msg.SenderUserID, msg.Content, msg.Kind, status, proposalData, msg.CreatedAt.UnixMilli())
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrUnknownMatch
		}
		return fmt.Errorf("failed to append message: %w", err)
	}
	log.Info("Appended match message", "id", msg.ID, "matchID", msg.MatchID, "type", msg.Kind)
	return nil
}

func (s *store) Get(ctx context.Context, messageID string) (*Message, error) {
	row := s.q().QueryRowContext(ctx, "SELECT "+messageColumns+" FROM match_messages WHERE id = ?", messageID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

func (s *store) List(ctx context.Context, matchID string) ([]Message, error) {
	rows, err := s.q().QueryContext(ctx, "SELECT "+messageColumns+`
		FROM match_messages WHERE match_id = ?
		ORDER BY created_at DESC, rowid DESC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			log.Error("Failed to scan message row", "error", err, "matchID", matchID)
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (s *store) TransitionProposal(ctx context.Context, messageID string, to ProposalStatus, by string) (*Message, error) {
	switch to {
	case ProposalAccepted, ProposalRejected, ProposalCancelled:
	default:
		return nil, ErrInvalidResponse
	}

	res, err := s.q().ExecContext(ctx, `
		UPDATE match_messages SET status = ?, responded_by = ?, responded_at = ?
		WHERE id = ? AND type = 'PROPOSAL' AND status = 'SENT'`,
		to, by, time.Now().UnixMilli(), messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	msg, err := s.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if msg.Kind != KindProposal {
			return nil, ErrNotAProposal
		}
		log.Debug("Proposal already answered", "id", messageID, "status", msg.Proposal.Status)
		return nil, ErrStaleProposal
	}
	log.Info("Proposal answered", "id", messageID, "status", to, "by", by)
	return msg, nil
}

func scanMessage(scanner interface{ Scan(...any) error }) (*Message, error) {
	var msg Message
	var status, proposalData, respondedBy sql.NullString
	var respondedAt sql.NullInt64
	var createdAt int64

	err := scanner.Scan(&msg.ID, &msg.MatchID, &msg.SenderTeamID, &msg.SenderUserID, &msg.Content, &msg.Kind,
		&status, &proposalData, &respondedBy, &respondedAt, &createdAt)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = time.UnixMilli(createdAt)

	if msg.Kind == KindProposal {
		p := &Proposal{Status: ProposalStatus(status.String), RespondedBy: respondedBy.String}
		if err := json.Unmarshal([]byte(proposalData.String), &p.Offer); err != nil {
			return nil, fmt.Errorf("failed to decode proposal %s: %w", msg.ID, err)
		}
		if respondedAt.Valid {
			at := time.UnixMilli(respondedAt.Int64)
			p.RespondedAt = &at
		}
		msg.Proposal = p
	}
	return &msg, msg.Validate()
}

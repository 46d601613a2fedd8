package rating

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
)

func NewProcessor(db *sql.DB, applier Applier) *Processor {
	return &Processor{db: db, applier: applier}
}

// ProcessPending applies every recorded trigger that has not been applied
// yet and returns how many were applied.
func (p *Processor) ProcessPending(ctx context.Context) (int, error) {
	log.Info("Starting rating processing...")
	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id FROM rating_triggers
		WHERE applied_at IS NULL ORDER BY triggered_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to query pending rating triggers: %w", err)
	}
	var pending []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan rating trigger: %w", err)
		}
		pending = append(pending, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		log.Info("No rating triggers to process.")
		return 0, nil
	}

	applied := 0
	for _, matchID := range pending {
		ok, err := p.applier.Apply(ctx, matchID)
		if err != nil {
			log.Error("Failed to apply rating trigger", "error", err, "matchID", matchID)
			continue
		}
		if ok {
			applied++
		}
	}
	log.Info("Rating processing finished.", "pending", len(pending), "applied", applied)
	return applied, nil
}

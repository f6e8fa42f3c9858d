package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routedesk/internal/model"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `
            id, project_id, sender_name, content, is_from_client, created_at,
            category, urgency, assigned_team, routing_summary`

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.SenderName,
		&m.Content,
		&m.IsFromClient,
		&m.CreatedAt,
		&m.Category,
		&m.Urgency,
		&m.AssignedTeam,
		&m.RoutingSummary,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByID returns one message; unknown ids yield ErrMessageNotFound.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	query := `SELECT` + messageColumns + `
        FROM messages
        WHERE id = $1
    `
	m, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message %s: %w", id, err)
	}
	return m, nil
}

// ListUnrouted returns client messages without an assigned team created at or
// after since, newest first, at most limit rows.
func (r *MessageRepository) ListUnrouted(ctx context.Context, since time.Time, limit int) ([]*model.Message, error) {
	query := `SELECT` + messageColumns + `
        FROM messages
        WHERE is_from_client = TRUE
          AND assigned_team IS NULL
          AND created_at >= $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unrouted messages: %w", err)
	}
	defer rows.Close()

	var out []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateRouting overwrites the routing fields. Last writer wins.
func (r *MessageRepository) UpdateRouting(ctx context.Context, id string, v model.Verdict) error {
	query := `
        UPDATE messages
        SET category = $2,
            urgency = $3,
            assigned_team = $4,
            routing_summary = $5
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, v.Category, v.Urgency, v.AssignedTeam, v.Summary)
	if err != nil {
		return fmt.Errorf("failed to update routing for message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

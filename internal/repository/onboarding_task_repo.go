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

type OnboardingTaskRepository struct {
	db *pgxpool.Pool
}

func NewOnboardingTaskRepository(db *pgxpool.Pool) *OnboardingTaskRepository {
	return &OnboardingTaskRepository{db: db}
}

// InsertMany 批量写入任务（单次 batch 往返）
func (r *OnboardingTaskRepository) InsertMany(ctx context.Context, tasks []model.OnboardingTask) error {
	query := `
        INSERT INTO onboarding_tasks
            (id, client_id, title, description, task_order, is_required, is_completed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	batch := &pgx.Batch{}
	for _, t := range tasks {
		batch.Queue(query, t.ID, t.ClientID, t.Title, t.Description, t.TaskOrder, t.IsRequired, t.IsCompleted, t.CreatedAt)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range tasks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert onboarding task: %w", err)
		}
	}
	return nil
}

// ListByClient returns the client's tasks in task_order.
func (r *OnboardingTaskRepository) ListByClient(ctx context.Context, clientID string) ([]model.OnboardingTask, error) {
	query := `
        SELECT id, client_id, title, description, task_order, is_required, is_completed, completed_at, created_at
        FROM onboarding_tasks
        WHERE client_id = $1
        ORDER BY task_order ASC, created_at ASC
    `
	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query onboarding tasks: %w", err)
	}
	defer rows.Close()

	var out []model.OnboardingTask
	for rows.Next() {
		var t model.OnboardingTask
		if err := rows.Scan(
			&t.ID,
			&t.ClientID,
			&t.Title,
			&t.Description,
			&t.TaskOrder,
			&t.IsRequired,
			&t.IsCompleted,
			&t.CompletedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkCompleted completes a task owned by clientID; any other task yields ErrTaskNotFound.
func (r *OnboardingTaskRepository) MarkCompleted(ctx context.Context, clientID, taskID string, at time.Time) (*model.OnboardingTask, error) {
	query := `
        UPDATE onboarding_tasks
        SET is_completed = TRUE,
            completed_at = COALESCE(completed_at, $3)
        WHERE id = $1 AND client_id = $2
        RETURNING id, client_id, title, description, task_order, is_required, is_completed, completed_at, created_at
    `
	var t model.OnboardingTask
	err := r.db.QueryRow(ctx, query, taskID, clientID, at).Scan(
		&t.ID,
		&t.ClientID,
		&t.Title,
		&t.Description,
		&t.TaskOrder,
		&t.IsRequired,
		&t.IsCompleted,
		&t.CompletedAt,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete onboarding task %s: %w", taskID, err)
	}
	return &t, nil
}

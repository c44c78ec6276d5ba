package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cogniflow/internal/domain"
)

// ScheduleRepo — репозиторий для работы с schedules.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новый schedule.
func (r *ScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) error {
	inputJSON, err := json.Marshal(schedule.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	query := `
		INSERT INTO schedules (id, workflow_id, user_id, cron_expr, input,
		                       enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.WorkflowID,
		schedule.UserID,
		schedule.CronExpr,
		inputJSON,
		schedule.Enabled,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает schedule по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, user_id, cron_expr, input, enabled,
		       last_run_at, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`
	return r.scanSchedule(r.pool.QueryRow(ctx, query, id))
}

// List возвращает schedules пользователя.
func (r *ScheduleRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, user_id, cron_expr, input, enabled,
		       last_run_at, created_at, updated_at
		FROM schedules
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.queryList(ctx, query, userID)
}

// ListEnabled возвращает все активные schedules.
// Scheduler загружает их при старте и после каждого изменения.
func (r *ScheduleRepo) ListEnabled(ctx context.Context) ([]domain.Schedule, error) {
	query := `
		SELECT id, workflow_id, user_id, cron_expr, input, enabled,
		       last_run_at, created_at, updated_at
		FROM schedules
		WHERE enabled = true
		ORDER BY created_at ASC
	`
	return r.queryList(ctx, query)
}

// Update обновляет schedule.
func (r *ScheduleRepo) Update(ctx context.Context, schedule *domain.Schedule) error {
	inputJSON, err := json.Marshal(schedule.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	query := `
		UPDATE schedules
		SET cron_expr = $2, input = $3, enabled = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.CronExpr,
		inputJSON,
		schedule.Enabled,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет schedule.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled включает/выключает schedule.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE schedules SET enabled = $2, updated_at = NOW() WHERE id = $1
	`, id, enabled)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRun фиксирует время срабатывания расписания.
func (r *ScheduleRepo) MarkRun(ctx context.Context, id uuid.UUID, ranAt time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE schedules SET last_run_at = $2, updated_at = $2 WHERE id = $1
	`, id, ranAt)
	if err != nil {
		return fmt.Errorf("mark run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// queryList выполняет запрос списка schedules.
func (r *ScheduleRepo) queryList(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		schedule, err := r.scanScheduleFromRows(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepo) scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var s domain.Schedule
	var inputJSON []byte

	err := row.Scan(
		&s.ID,
		&s.WorkflowID,
		&s.UserID,
		&s.CronExpr,
		&inputJSON,
		&s.Enabled,
		&s.LastRunAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &s.Input); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	return &s, nil
}

func (r *ScheduleRepo) scanScheduleFromRows(rows pgx.Rows) (*domain.Schedule, error) {
	var s domain.Schedule
	var inputJSON []byte

	err := rows.Scan(
		&s.ID,
		&s.WorkflowID,
		&s.UserID,
		&s.CronExpr,
		&inputJSON,
		&s.Enabled,
		&s.LastRunAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &s.Input); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	return &s, nil
}

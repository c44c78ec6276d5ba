package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cogniflow/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
//
// Run хранит факт запуска, его вход и финальный выход: история
// выполнения живёт в журнале (LedgerRepo), статус запуска
// выводится из неё.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	inputJSON, err := json.Marshal(run.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}

	query := `
		INSERT INTO runs (id, workflow_id, user_id, input, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.WorkflowID,
		run.UserID,
		inputJSON,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, workflow_id, user_id, input, output, created_at, updated_at
		FROM runs
		WHERE id = $1
	`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// ListByWorkflow возвращает запуски workflow, новые первыми.
func (r *RunRepo) ListByWorkflow(ctx context.Context, workflowID uuid.UUID, limit, offset int) ([]domain.Run, error) {
	query := `
		SELECT id, workflow_id, user_id, input, output, created_at, updated_at
		FROM runs
		WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, workflowID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SetOutput записывает финальный выход запуска. Вызывается executor'ом
// на терминальном end-узле; повторный вызов перезаписывает значение.
func (r *RunRepo) SetOutput(ctx context.Context, id uuid.UUID, output map[string]any) error {
	outputJSON, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE runs SET output = $2, updated_at = NOW() WHERE id = $1`,
		id, outputJSON,
	)
	if err != nil {
		return fmt.Errorf("set run output: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch обновляет updated_at запуска. Вызывается executor'ом после
// каждого записанного шага, чтобы по запуску было видно, что он живой.
func (r *RunRepo) Touch(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE runs SET updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanRun сканирует одну строку в Run.
func (r *RunRepo) scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var inputJSON, outputJSON []byte

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.UserID,
		&inputJSON,
		&outputJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := unmarshalRunPayloads(&run, inputJSON, outputJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

// scanRunFromRows сканирует строку из rows в Run.
func (r *RunRepo) scanRunFromRows(rows pgx.Rows) (*domain.Run, error) {
	var run domain.Run
	var inputJSON, outputJSON []byte

	err := rows.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.UserID,
		&inputJSON,
		&outputJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := unmarshalRunPayloads(&run, inputJSON, outputJSON); err != nil {
		return nil, err
	}
	return &run, nil
}

func unmarshalRunPayloads(run *domain.Run, inputJSON, outputJSON []byte) error {
	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &run.Input); err != nil {
			return fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if outputJSON != nil {
		if err := json.Unmarshal(outputJSON, &run.Output); err != nil {
			return fmt.Errorf("unmarshal output: %w", err)
		}
	}
	return nil
}

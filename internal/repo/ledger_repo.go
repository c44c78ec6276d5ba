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

// LedgerRepo — репозиторий журнала выполнения.
//
// Журнал append-only: записи только добавляются, UPDATE и DELETE
// не предусмотрены. Узел, выполненный повторно (сходящиеся ветки
// после fork), получает новую запись.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

// NewLedgerRepo создаёт новый LedgerRepo.
func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Append добавляет запись в журнал.
func (r *LedgerRepo) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	inputJSON, err := json.Marshal(entry.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	outputJSON, err := json.Marshal(entry.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	var toolCallsJSON []byte
	if len(entry.ToolCalls) > 0 {
		toolCallsJSON, err = json.Marshal(entry.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
	}

	query := `
		INSERT INTO execution_ledger (id, run_id, workflow_id, node_id, node_type,
		                              status, input, output, tool_calls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.RunID,
		entry.WorkflowID,
		entry.NodeID,
		entry.NodeType,
		entry.Status,
		inputJSON,
		outputJSON,
		toolCallsJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// ListByRun возвращает записи запуска в порядке выполнения.
func (r *LedgerRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, run_id, workflow_id, node_id, node_type,
		       status, input, output, tool_calls, created_at
		FROM execution_ledger
		WHERE run_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// LatestWaitingApproval возвращает последнюю запись запуска со статусом
// waiting_for_approval. Используется эндпоинтом решения: по ней
// восстанавливаются узел и вход приостановленного шага.
func (r *LedgerRepo) LatestWaitingApproval(ctx context.Context, runID uuid.UUID) (*domain.LedgerEntry, error) {
	query := `
		SELECT id, run_id, workflow_id, node_id, node_type,
		       status, input, output, tool_calls, created_at
		FROM execution_ledger
		WHERE run_id = $1 AND status = 'waiting_for_approval'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get waiting approval entry: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get waiting approval entry: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanLedgerEntry(rows)
}

// --- Helpers ---

// scanLedgerEntry сканирует строку в LedgerEntry.
func scanLedgerEntry(rows pgx.Rows) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var inputJSON, outputJSON, toolCallsJSON []byte

	err := rows.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.WorkflowID,
		&entry.NodeID,
		&entry.NodeType,
		&entry.Status,
		&inputJSON,
		&outputJSON,
		&toolCallsJSON,
		&entry.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &entry.Input); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if outputJSON != nil {
		if err := json.Unmarshal(outputJSON, &entry.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
	}
	if toolCallsJSON != nil {
		if err := json.Unmarshal(toolCallsJSON, &entry.ToolCalls); err != nil {
			return nil, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}
	return &entry, nil
}

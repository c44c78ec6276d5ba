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

// ToolRepo — репозиторий для работы с tools.
type ToolRepo struct {
	pool *pgxpool.Pool
}

// NewToolRepo создаёт новый ToolRepo.
func NewToolRepo(pool *pgxpool.Pool) *ToolRepo {
	return &ToolRepo{pool: pool}
}

// Create создаёт новый tool.
func (r *ToolRepo) Create(ctx context.Context, tool *domain.Tool) error {
	headersJSON, paramsJSON, err := marshalToolExtras(tool)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tools (id, name, description, api_url, method, headers,
		                   parameters, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		tool.ID,
		tool.Name,
		nullString(tool.Description),
		tool.APIURL,
		tool.Method,
		headersJSON,
		paramsJSON,
		tool.UserID,
		tool.CreatedAt,
		tool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

// GetByID возвращает tool по ID.
func (r *ToolRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	query := `
		SELECT id, name, description, api_url, method, headers,
		       parameters, user_id, created_at, updated_at
		FROM tools
		WHERE id = $1
	`
	return r.scanTool(r.pool.QueryRow(ctx, query, id))
}

// GetTool возвращает tool по ID или (nil, nil), если он не найден.
// Сигнатура под загрузку инструментов agent-узла: сломанная ссылка
// на инструмент пропускается, а не валит шаг.
func (r *ToolRepo) GetTool(ctx context.Context, id uuid.UUID) (*domain.Tool, error) {
	tool, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return tool, err
}

// List возвращает tools пользователя.
func (r *ToolRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Tool, error) {
	query := `
		SELECT id, name, description, api_url, method, headers,
		       parameters, user_id, created_at, updated_at
		FROM tools
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	var tools []domain.Tool
	for rows.Next() {
		tool, err := r.scanToolFromRows(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, *tool)
	}
	return tools, rows.Err()
}

// Update обновляет tool.
func (r *ToolRepo) Update(ctx context.Context, tool *domain.Tool) error {
	headersJSON, paramsJSON, err := marshalToolExtras(tool)
	if err != nil {
		return err
	}

	query := `
		UPDATE tools
		SET name = $2, description = $3, api_url = $4, method = $5,
		    headers = $6, parameters = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		tool.ID,
		tool.Name,
		nullString(tool.Description),
		tool.APIURL,
		tool.Method,
		headersJSON,
		paramsJSON,
		tool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tool: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет tool.
func (r *ToolRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// marshalToolExtras сериализует заголовки и параметры в JSONB.
func marshalToolExtras(tool *domain.Tool) (headersJSON, paramsJSON []byte, err error) {
	if len(tool.Headers) > 0 {
		headersJSON, err = json.Marshal(tool.Headers)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal headers: %w", err)
		}
	}
	if len(tool.Parameters) > 0 {
		paramsJSON, err = json.Marshal(tool.Parameters)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal parameters: %w", err)
		}
	}
	return headersJSON, paramsJSON, nil
}

// scanTool сканирует одну строку в Tool.
func (r *ToolRepo) scanTool(row pgx.Row) (*domain.Tool, error) {
	var tool domain.Tool
	var description *string
	var headersJSON, paramsJSON []byte

	err := row.Scan(
		&tool.ID,
		&tool.Name,
		&description,
		&tool.APIURL,
		&tool.Method,
		&headersJSON,
		&paramsJSON,
		&tool.UserID,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tool: %w", err)
	}

	if description != nil {
		tool.Description = *description
	}
	if err := unmarshalToolExtras(&tool, headersJSON, paramsJSON); err != nil {
		return nil, err
	}
	return &tool, nil
}

// scanToolFromRows сканирует строку из rows в Tool.
func (r *ToolRepo) scanToolFromRows(rows pgx.Rows) (*domain.Tool, error) {
	var tool domain.Tool
	var description *string
	var headersJSON, paramsJSON []byte

	err := rows.Scan(
		&tool.ID,
		&tool.Name,
		&description,
		&tool.APIURL,
		&tool.Method,
		&headersJSON,
		&paramsJSON,
		&tool.UserID,
		&tool.CreatedAt,
		&tool.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan tool: %w", err)
	}

	if description != nil {
		tool.Description = *description
	}
	if err := unmarshalToolExtras(&tool, headersJSON, paramsJSON); err != nil {
		return nil, err
	}
	return &tool, nil
}

// unmarshalToolExtras восстанавливает заголовки и параметры из JSONB.
func unmarshalToolExtras(tool *domain.Tool, headersJSON, paramsJSON []byte) error {
	if headersJSON != nil {
		if err := json.Unmarshal(headersJSON, &tool.Headers); err != nil {
			return fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	if paramsJSON != nil {
		if err := json.Unmarshal(paramsJSON, &tool.Parameters); err != nil {
			return fmt.Errorf("unmarshal parameters: %w", err)
		}
	}
	return nil
}

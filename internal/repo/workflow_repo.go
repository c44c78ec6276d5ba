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

// WorkflowRepo — репозиторий для работы с workflows.
//
// Граф хранится целиком в строке workflow: nodes и edges — JSONB-колонки.
// Конфигурации узлов декодируются в типизированные структуры при загрузке:
// граф с неизвестным типом узла отклоняется на этой границе, а не
// в момент выполнения.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// storedNode — сериализованная форма узла в JSONB.
// Config хранится как сырой JSON: конкретный тип известен только
// после чтения Type.
type storedNode struct {
	ID     string          `json:"id"`
	Type   domain.NodeType `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	nodesJSON, edgesJSON, err := marshalGraph(wf)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (id, name, description, user_id, nodes, edges,
		                       is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		nullString(wf.Description),
		wf.UserID,
		nodesJSON,
		edgesJSON,
		wf.CreatedAt,
		wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", err)
	}
	return nil
}

// GetByID возвращает workflow по ID, включая мягко удалённые.
// Проверка IsDeleted остаётся за вызывающим: executor должен отличать
// "удалён" от "не найден".
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, name, description, user_id, nodes, edges,
		       is_deleted, deleted_at, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`
	return r.scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// List возвращает workflows пользователя без мягко удалённых.
func (r *WorkflowRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.Workflow, error) {
	query := `
		SELECT id, name, description, user_id, nodes, edges,
		       is_deleted, deleted_at, created_at, updated_at
		FROM workflows
		WHERE user_id = $1 AND is_deleted = false
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		wf, err := r.scanWorkflowFromRows(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}
	return workflows, rows.Err()
}

// Update обновляет имя, описание и граф workflow.
// Мягко удалённые workflows не обновляются.
func (r *WorkflowRepo) Update(ctx context.Context, wf *domain.Workflow) error {
	nodesJSON, edgesJSON, err := marshalGraph(wf)
	if err != nil {
		return err
	}

	query := `
		UPDATE workflows
		SET name = $2, description = $3, nodes = $4, edges = $5, updated_at = $6
		WHERE id = $1 AND is_deleted = false
	`
	result, err := r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		nullString(wf.Description),
		nodesJSON,
		edgesJSON,
		wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete помечает workflow удалённым.
// Строка остаётся: журнал выполненных запусков ссылается на неё,
// а executor по флагу прекращает шаги in-flight запусков.
func (r *WorkflowRepo) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	query := `
		UPDATE workflows
		SET is_deleted = true, deleted_at = $2, updated_at = $2
		WHERE id = $1 AND is_deleted = false
	`
	result, err := r.pool.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// marshalGraph сериализует узлы и рёбра в JSONB-представление.
func marshalGraph(wf *domain.Workflow) (nodesJSON, edgesJSON []byte, err error) {
	stored := make(map[string]storedNode, len(wf.Nodes))
	for id, node := range wf.Nodes {
		cfgJSON, err := json.Marshal(node.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal node config %s: %w", id, err)
		}
		stored[id] = storedNode{ID: node.ID, Type: node.Type, Config: cfgJSON}
	}

	nodesJSON, err = json.Marshal(stored)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err = json.Marshal(wf.Edges)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal edges: %w", err)
	}
	return nodesJSON, edgesJSON, nil
}

// unmarshalGraph восстанавливает граф из JSONB с декодированием
// конфигураций узлов в типизированные структуры.
func unmarshalGraph(wf *domain.Workflow, nodesJSON, edgesJSON []byte) error {
	var stored map[string]storedNode
	if err := json.Unmarshal(nodesJSON, &stored); err != nil {
		return fmt.Errorf("unmarshal nodes: %w", err)
	}

	wf.Nodes = make(map[string]*domain.Node, len(stored))
	for id, sn := range stored {
		cfg, err := domain.DecodeNodeConfig(sn.Type, sn.Config)
		if err != nil {
			return fmt.Errorf("node %s: %w", id, err)
		}
		wf.Nodes[id] = &domain.Node{ID: sn.ID, Type: sn.Type, Config: cfg}
	}

	if err := json.Unmarshal(edgesJSON, &wf.Edges); err != nil {
		return fmt.Errorf("unmarshal edges: %w", err)
	}
	return nil
}

// scanWorkflow сканирует одну строку в Workflow.
func (r *WorkflowRepo) scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	var description *string
	var nodesJSON, edgesJSON []byte

	err := row.Scan(
		&wf.ID,
		&wf.Name,
		&description,
		&wf.UserID,
		&nodesJSON,
		&edgesJSON,
		&wf.IsDeleted,
		&wf.DeletedAt,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if description != nil {
		wf.Description = *description
	}
	if err := unmarshalGraph(&wf, nodesJSON, edgesJSON); err != nil {
		return nil, err
	}
	return &wf, nil
}

// scanWorkflowFromRows сканирует строку из rows в Workflow.
func (r *WorkflowRepo) scanWorkflowFromRows(rows pgx.Rows) (*domain.Workflow, error) {
	var wf domain.Workflow
	var description *string
	var nodesJSON, edgesJSON []byte

	err := rows.Scan(
		&wf.ID,
		&wf.Name,
		&description,
		&wf.UserID,
		&nodesJSON,
		&edgesJSON,
		&wf.IsDeleted,
		&wf.DeletedAt,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if description != nil {
		wf.Description = *description
	}
	if err := unmarshalGraph(&wf, nodesJSON, edgesJSON); err != nil {
		return nil, err
	}
	return &wf, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Cogniflow/internal/domain"
)

// Workflow DTOs

// NodePayload — узел графа в запросе.
// Config — сырая конфигурация: конкретный тип определяется Type.
type NodePayload struct {
	ID     string          `json:"id"`
	Type   domain.NodeType `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	UserID      uuid.UUID     `json:"user_id"`
	Nodes       []NodePayload `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Nodes       *[]NodePayload `json:"nodes,omitempty"`
	Edges       *[]domain.Edge `json:"edges,omitempty"`
}

// NodeView — узел графа в ответе с типизированной конфигурацией.
type NodeView struct {
	ID     string            `json:"id"`
	Type   domain.NodeType   `json:"type"`
	Config domain.NodeConfig `json:"config"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	UserID      uuid.UUID           `json:"user_id"`
	Nodes       map[string]NodeView `json:"nodes"`
	Edges       []domain.Edge       `json:"edges"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf *domain.Workflow) WorkflowResponse {
	nodes := make(map[string]NodeView, len(wf.Nodes))
	for id, node := range wf.Nodes {
		nodes[id] = NodeView{ID: node.ID, Type: node.Type, Config: node.Config}
	}
	return WorkflowResponse{
		ID:          wf.ID,
		Name:        wf.Name,
		Description: wf.Description,
		UserID:      wf.UserID,
		Nodes:       nodes,
		Edges:       wf.Edges,
		CreatedAt:   wf.CreatedAt,
		UpdatedAt:   wf.UpdatedAt,
	}
}

// decodeGraph разбирает узлы запроса в типизированный граф.
// Узел с неизвестным типом или невалидной конфигурацией — ошибка.
func decodeGraph(payloads []NodePayload, edges []domain.Edge) (map[string]*domain.Node, error) {
	nodes := make(map[string]*domain.Node, len(payloads))
	for _, p := range payloads {
		if p.ID == "" {
			return nil, fmt.Errorf("node with empty id")
		}
		if _, ok := nodes[p.ID]; ok {
			return nil, fmt.Errorf("duplicate node id %q", p.ID)
		}
		cfg, err := domain.DecodeNodeConfig(p.Type, p.Config)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", p.ID, err)
		}
		nodes[p.ID] = &domain.Node{ID: p.ID, Type: p.Type, Config: cfg}
	}

	for _, edge := range edges {
		if _, ok := nodes[edge.Source]; !ok {
			return nil, fmt.Errorf("edge source %q is not a node", edge.Source)
		}
		if _, ok := nodes[edge.Target]; !ok {
			return nil, fmt.Errorf("edge target %q is not a node", edge.Target)
		}
	}

	return nodes, nil
}

// Run DTOs

// CreateRunRequest — запрос на запуск workflow.
type CreateRunRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID      `json:"id"`
	WorkflowID uuid.UUID      `json:"workflow_id"`
	UserID     uuid.UUID      `json:"user_id"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		WorkflowID: r.WorkflowID,
		UserID:     r.UserID,
		Input:      r.Input,
		Output:     r.Output,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// LedgerEntryResponse — запись журнала выполнения.
type LedgerEntryResponse struct {
	ID        uuid.UUID               `json:"id"`
	RunID     uuid.UUID               `json:"run_id"`
	NodeID    string                  `json:"node_id"`
	NodeType  domain.NodeType         `json:"node_type"`
	Status    domain.LedgerStatus     `json:"status"`
	Input     map[string]any          `json:"input,omitempty"`
	Output    map[string]any          `json:"output,omitempty"`
	ToolCalls []domain.ToolCallRecord `json:"tool_calls,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// LedgerEntryFromDomain конвертирует domain.LedgerEntry в LedgerEntryResponse.
func LedgerEntryFromDomain(e domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:        e.ID,
		RunID:     e.RunID,
		NodeID:    e.NodeID,
		NodeType:  e.NodeType,
		Status:    e.Status,
		Input:     e.Input,
		Output:    e.Output,
		ToolCalls: e.ToolCalls,
		CreatedAt: e.CreatedAt,
	}
}

// ApprovalRequest — решение человека по приостановленному шагу.
type ApprovalRequest struct {
	Decision string `json:"decision"`
}

// Tool DTOs

// CreateToolRequest — запрос на создание tool.
type CreateToolRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	APIURL      string                 `json:"api_url"`
	Method      string                 `json:"method"`
	Headers     map[string]string      `json:"headers,omitempty"`
	Parameters  []domain.ToolParameter `json:"parameters,omitempty"`
	UserID      uuid.UUID              `json:"user_id"`
}

// UpdateToolRequest — запрос на обновление tool.
type UpdateToolRequest struct {
	Name        *string                 `json:"name,omitempty"`
	Description *string                 `json:"description,omitempty"`
	APIURL      *string                 `json:"api_url,omitempty"`
	Method      *string                 `json:"method,omitempty"`
	Headers     *map[string]string      `json:"headers,omitempty"`
	Parameters  *[]domain.ToolParameter `json:"parameters,omitempty"`
}

// ToolResponse — ответ с tool.
type ToolResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	APIURL      string                 `json:"api_url"`
	Method      string                 `json:"method"`
	Headers     map[string]string      `json:"headers,omitempty"`
	Parameters  []domain.ToolParameter `json:"parameters,omitempty"`
	UserID      uuid.UUID              `json:"user_id"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToolFromDomain конвертирует domain.Tool в ToolResponse.
func ToolFromDomain(t domain.Tool) ToolResponse {
	return ToolResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		APIURL:      t.APIURL,
		Method:      t.Method,
		Headers:     t.Headers,
		Parameters:  t.Parameters,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// Schedule DTOs

// CreateScheduleRequest — запрос на создание schedule.
type CreateScheduleRequest struct {
	CronExpr string         `json:"cron_expr"`
	Input    map[string]any `json:"input,omitempty"`
	Enabled  bool           `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление schedule.
type UpdateScheduleRequest struct {
	CronExpr *string         `json:"cron_expr,omitempty"`
	Input    *map[string]any `json:"input,omitempty"`
	Enabled  *bool           `json:"enabled,omitempty"`
}

// SetEnabledRequest — запрос на включение/выключение.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — ответ с schedule.
type ScheduleResponse struct {
	ID         uuid.UUID      `json:"id"`
	WorkflowID uuid.UUID      `json:"workflow_id"`
	UserID     uuid.UUID      `json:"user_id"`
	CronExpr   string         `json:"cron_expr"`
	Input      map[string]any `json:"input,omitempty"`
	Enabled    bool           `json:"enabled"`
	LastRunAt  *time.Time     `json:"last_run_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:         s.ID,
		WorkflowID: s.WorkflowID,
		UserID:     s.UserID,
		CronExpr:   s.CronExpr,
		Input:      s.Input,
		Enabled:    s.Enabled,
		LastRunAt:  s.LastRunAt,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

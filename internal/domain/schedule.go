package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска workflow.
type Schedule struct {
	// ID — уникальный идентификатор расписания.
	ID uuid.UUID `json:"id"`

	// WorkflowID — workflow, запускаемый по расписанию.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// UserID — владелец расписания.
	UserID uuid.UUID `json:"user_id"`

	// CronExpr — cron-выражение (стандартный 5-полевой формат).
	CronExpr string `json:"cron_expr"`

	// Input — входные данные, передаваемые в каждый запуск.
	Input map[string]any `json:"input,omitempty"`

	// Enabled — активно ли расписание.
	Enabled bool `json:"enabled"`

	// LastRunAt — время последнего срабатывания.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// CreatedAt — время создания расписания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

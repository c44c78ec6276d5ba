package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск workflow.
//
// Все шаги одного запуска разделяют RunID и пишут в общий журнал
// (LedgerEntry). Повторный запуск того же workflow получает новый Run
// и чистый журнал.
type Run struct {
	// ID — уникальный идентификатор запуска.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ID выполняемого workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// UserID — инициатор запуска.
	UserID uuid.UUID `json:"user_id"`

	// Input — входные данные запуска.
	Input map[string]any `json:"input,omitempty"`

	// Output — финальный выход запуска. Заполняется только при
	// достижении end-узла; у параллельных веток побеждает
	// завершившаяся последней.
	Output map[string]any `json:"output,omitempty"`

	// CreatedAt — время старта запуска.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

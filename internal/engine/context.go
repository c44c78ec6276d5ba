package engine

import (
	"github.com/google/uuid"

	"github.com/shaiso/Cogniflow/internal/domain"
)

// ExecutionContext — контекст выполнения одного узла.
//
// Контекст несёт снимок workflow, входные данные шага и накапливает
// выход узла. RunID == nil означает виртуальное выполнение: шаг
// не принадлежит ни одному запуску и не попадает в журнал.
type ExecutionContext struct {
	// Workflow — снимок выполняемого workflow.
	Workflow *domain.Workflow

	// RunID — запуск, в рамках которого выполняется узел.
	// Nil для виртуальных под-workflow.
	RunID *uuid.UUID

	// UserID — инициатор запуска. Используется для доступа
	// к инструментам владельца.
	UserID uuid.UUID

	// Input — входные данные узла (выход предшественника).
	Input map[string]any

	// Output — результат выполнения узла. Заполняется обработчиком.
	Output map[string]any
}

// NewExecutionContext создаёт контекст выполнения узла.
func NewExecutionContext(wf *domain.Workflow, runID *uuid.UUID, userID uuid.UUID, input map[string]any) *ExecutionContext {
	if input == nil {
		input = make(map[string]any)
	}
	return &ExecutionContext{
		Workflow: wf,
		RunID:    runID,
		UserID:   userID,
		Input:    input,
	}
}

// Persistent сообщает, пишет ли это выполнение в журнал.
func (c *ExecutionContext) Persistent() bool {
	return c.RunID != nil
}

// Data возвращает корневой объект для шаблонных подстановок.
func (c *ExecutionContext) Data() map[string]any {
	return map[string]any{
		"input":  c.Input,
		"output": c.Output,
	}
}

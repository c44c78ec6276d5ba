package worker

import "errors"

// Ошибки воркера.
var (
	// ErrWorkflowNotFound — workflow не найден в БД.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNodeNotFound — узел не найден в графе workflow.
	ErrNodeNotFound = errors.New("node not found in workflow")
)

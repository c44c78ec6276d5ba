package domain

import "errors"

// Ошибки доменной модели.
var (
	// ErrUnknownNodeType — узел имеет неизвестный тип.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrNoStartNode — граф не содержит узла start.
	ErrNoStartNode = errors.New("workflow has no start node")

	// ErrWorkflowDeleted — workflow мягко удалён и не может выполняться.
	ErrWorkflowDeleted = errors.New("workflow is deleted")
)

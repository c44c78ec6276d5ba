package engine

import "errors"

// Ошибки маршрутизации и вычисления условий.
var (
	// ErrUnsupportedOperator — оператор сравнения не поддерживается.
	ErrUnsupportedOperator = errors.New("unsupported comparison operator")

	// ErrTemplateResolve — не удалось разрешить шаблонную подстановку.
	ErrTemplateResolve = errors.New("template variable resolution failed")

	// ErrUnknownContextRoot — путь подстановки начинается не с input/output.
	ErrUnknownContextRoot = errors.New("unknown context root")
)

// Ошибки валидации виртуального workflow.
var (
	// ErrMissingNodes — в сгенерированном workflow нет ключа nodes.
	ErrMissingNodes = errors.New("virtual workflow has no nodes")

	// ErrMissingEdges — в сгенерированном workflow нет ключа edges.
	ErrMissingEdges = errors.New("virtual workflow has no edges")

	// ErrTooManyNodes — превышен лимит узлов виртуального workflow.
	ErrTooManyNodes = errors.New("virtual workflow has too many nodes")

	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("virtual node has empty ID")

	// ErrMissingNodeData — узел не имеет данных конфигурации.
	ErrMissingNodeData = errors.New("virtual node has no data")

	// ErrDisallowedNodeType — тип узла не разрешён в виртуальном workflow.
	ErrDisallowedNodeType = errors.New("disallowed virtual node type")

	// ErrUnknownEdgeEndpoint — ребро ссылается на несуществующий узел.
	ErrUnknownEdgeEndpoint = errors.New("edge references unknown node")

	// ErrCyclicWorkflow — обнаружен цикл в виртуальном workflow.
	ErrCyclicWorkflow = errors.New("virtual workflow contains a cycle")

	// ErrNoEntryNode — в виртуальном workflow нет ни одного узла,
	// стартовать не с чего. Граф без узла без входящих рёбер не
	// фатален: исполнитель берёт первый объявленный узел.
	ErrNoEntryNode = errors.New("virtual workflow has no entry node")

	// ErrStepLimitExceeded — превышен лимит шагов виртуального выполнения.
	ErrStepLimitExceeded = errors.New("virtual workflow exceeded step limit")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

package domain

// NodeType — тип узла workflow.
type NodeType string

// Типы узлов.
const (
	// NodeTypeStart — входная точка workflow. Ровно один на граф.
	NodeTypeStart NodeType = "start"

	// NodeTypeEnd — завершающий узел. Запуск, достигший end,
	// считается завершённым.
	NodeTypeEnd NodeType = "end"

	// NodeTypeIfElse — бинарное ветвление по сравнению двух значений.
	NodeTypeIfElse NodeType = "if_else"

	// NodeTypeFork — параллельное ветвление: активирует все исходящие рёбра.
	NodeTypeFork NodeType = "fork"

	// NodeTypeAgent — вызов LLM с опциональными инструментами
	// и структурированным выводом.
	NodeTypeAgent NodeType = "agent"

	// NodeTypeGuardrails — LLM-проверка содержимого с бинарным вердиктом.
	NodeTypeGuardrails NodeType = "guardrails"

	// NodeTypeUserApproval — пауза до решения человека.
	NodeTypeUserApproval NodeType = "user_approval"

	// NodeTypeCognitive — генерация и выполнение виртуального
	// под-workflow из текстовой инструкции.
	NodeTypeCognitive NodeType = "cognitive"
)

// Valid сообщает, известен ли тип узла.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeStart, NodeTypeEnd, NodeTypeIfElse, NodeTypeFork,
		NodeTypeAgent, NodeTypeGuardrails, NodeTypeUserApproval, NodeTypeCognitive:
		return true
	}
	return false
}

package nodes

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/llm"
	"github.com/shaiso/Cogniflow/internal/tools"
)

// Registry — реестр обработчиков узлов.
//
// Позволяет регистрировать и получать Handler по типу узла.
// Потокобезопасен.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.NodeType]Handler
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[domain.NodeType]Handler),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными обработчиками.
// Узел cognitive получает VirtualRunner поверх того же реестра,
// поэтому виртуальные agent/if_else/guardrails выполняются теми же
// обработчиками, что и обычные.
func DefaultRegistry(completer llm.Completer, source ToolSource, invoker *tools.Invoker, logger *slog.Logger) *Registry {
	r := NewRegistry()

	r.Register(NewStartHandler())
	r.Register(NewIfElseHandler())
	r.Register(NewForkHandler())
	r.Register(NewApprovalHandler())
	r.Register(NewGuardrailsHandler(completer))
	r.Register(NewAgentHandler(completer, source, invoker))

	runner := NewVirtualRunner(r, logger)
	r.Register(NewCognitiveHandler(completer, runner))

	return r
}

// Register регистрирует обработчик.
// Обработчик с тем же типом перезаписывается.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Type()] = h
}

// Get возвращает обработчик по типу узла.
// Возвращает ErrHandlerNotFound, если обработчик не зарегистрирован.
func (r *Registry) Get(nodeType domain.NodeType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[nodeType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, nodeType)
	}
	return h, nil
}

// Has проверяет, зарегистрирован ли обработчик.
func (r *Registry) Has(nodeType domain.NodeType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[nodeType]
	return exists
}

// Types возвращает зарегистрированные типы узлов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return types
}

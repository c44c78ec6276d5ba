package api

import (
	"log/slog"

	"github.com/shaiso/Cogniflow/internal/events"
	"github.com/shaiso/Cogniflow/internal/mq"
	"github.com/shaiso/Cogniflow/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflowRepo *repo.WorkflowRepo
	runRepo      *repo.RunRepo
	ledgerRepo   *repo.LedgerRepo
	toolRepo     *repo.ToolRepo
	scheduleRepo *repo.ScheduleRepo
	publisher    *mq.Publisher
	hub          *events.Hub
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	RunRepo      *repo.RunRepo
	LedgerRepo   *repo.LedgerRepo
	ToolRepo     *repo.ToolRepo
	ScheduleRepo *repo.ScheduleRepo
	Publisher    *mq.Publisher
	Hub          *events.Hub
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		workflowRepo: cfg.WorkflowRepo,
		runRepo:      cfg.RunRepo,
		ledgerRepo:   cfg.LedgerRepo,
		toolRepo:     cfg.ToolRepo,
		scheduleRepo: cfg.ScheduleRepo,
		publisher:    cfg.Publisher,
		hub:          cfg.Hub,
		logger:       cfg.Logger,
	}
}

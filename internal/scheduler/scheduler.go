package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/mq"
	"github.com/shaiso/Cogniflow/internal/repo"
)

// Default configuration values.
const (
	defaultRefreshInterval = 30 * time.Second
	defaultTriggerTimeout  = 30 * time.Second
)

// Scheduler запускает workflows по cron-расписаниям.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	workflowRepo *repo.WorkflowRepo
	publisher    *mq.Publisher
	logger       *slog.Logger

	refreshInterval time.Duration

	cron    *cron.Cron
	entries map[uuid.UUID]cronEntry
	mu      sync.Mutex

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// cronEntry — запланированное расписание в cron-реестре.
type cronEntry struct {
	id       cron.EntryID
	cronExpr string
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	WorkflowRepo *repo.WorkflowRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger

	// RefreshInterval — период сверки cron-реестра с БД (default: 30s).
	RefreshInterval time.Duration
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo:    cfg.ScheduleRepo,
		runRepo:         cfg.RunRepo,
		workflowRepo:    cfg.WorkflowRepo,
		publisher:       cfg.Publisher,
		logger:          logger,
		refreshInterval: refreshInterval,
		cron:            cron.New(cron.WithParser(cronParser)),
		entries:         make(map[uuid.UUID]cronEntry),
	}
}

// Start загружает активные schedules и запускает cron-реестр.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("initial schedule load: %w", err)
	}

	s.cron.Start()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refreshLoop(ctx)
	}()

	s.logger.Info("scheduler started", "refresh_interval", s.refreshInterval)
	return nil
}

// Stop останавливает Scheduler и ждёт завершения сработавших задач.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler...")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	// Stop возвращает контекст, закрывающийся после завершения
	// выполняющихся cron-задач
	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.logger.Info("scheduler stopped")
}

// refreshLoop периодически сверяет cron-реестр с БД.
func (s *Scheduler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Error("failed to refresh schedules", "error", err)
			}
		}
	}
}

// refresh приводит cron-реестр в соответствие с активными schedules в БД.
func (s *Scheduler) refresh(ctx context.Context) error {
	schedules, err := s.scheduleRepo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled schedules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(schedules))
	for i := range schedules {
		sched := schedules[i]
		seen[sched.ID] = struct{}{}

		existing, ok := s.entries[sched.ID]
		if ok && existing.cronExpr == sched.CronExpr {
			continue
		}
		if ok {
			// Выражение изменилось — перепланируем
			s.cron.Remove(existing.id)
		}

		entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
			s.fire(sched)
		})
		if err != nil {
			s.logger.Error("failed to register schedule",
				"schedule_id", sched.ID,
				"cron_expr", sched.CronExpr,
				"error", err,
			)
			continue
		}

		s.entries[sched.ID] = cronEntry{id: entryID, cronExpr: sched.CronExpr}
		s.logger.Info("schedule registered",
			"schedule_id", sched.ID,
			"workflow_id", sched.WorkflowID,
			"cron_expr", sched.CronExpr,
		)
	}

	// Снимаем выключенные и удалённые
	for id, entry := range s.entries {
		if _, ok := seen[id]; ok {
			continue
		}
		s.cron.Remove(entry.id)
		delete(s.entries, id)
		s.logger.Info("schedule unregistered", "schedule_id", id)
	}

	return nil
}

// fire обрабатывает срабатывание расписания: создаёт Run и ставит
// start-шаг в очередь.
func (s *Scheduler) fire(sched domain.Schedule) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTriggerTimeout)
	defer cancel()

	logger := s.logger.With(
		"schedule_id", sched.ID,
		"workflow_id", sched.WorkflowID,
	)

	wf, err := s.workflowRepo.GetByID(ctx, sched.WorkflowID)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Warn("workflow not found for schedule, skipping")
		return
	}
	if err != nil {
		logger.Error("failed to load workflow for schedule", "error", err)
		return
	}
	if wf.IsDeleted {
		logger.Warn("workflow deleted, skipping schedule")
		return
	}

	now := time.Now().UTC()
	run := &domain.Run{
		ID:         uuid.New(),
		WorkflowID: sched.WorkflowID,
		UserID:     sched.UserID,
		Input:      sched.Input,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		logger.Error("failed to create run from schedule", "error", err)
		return
	}

	job := mq.StepJobPayload{
		WorkflowID: sched.WorkflowID,
		NodeID:     domain.StartNodeAlias,
		UserID:     sched.UserID,
		RunID:      &run.ID,
		Input:      sched.Input,
	}
	if err := s.publisher.PublishStepReady(ctx, job); err != nil {
		logger.Error("failed to enqueue start step", "run_id", run.ID, "error", err)
		return
	}

	if err := s.scheduleRepo.MarkRun(ctx, sched.ID, now); err != nil {
		logger.Warn("failed to mark schedule run", "error", err)
	}

	logger.Info("run created from schedule", "run_id", run.ID)
}

package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Cogniflow/internal/domain"
	"github.com/shaiso/Cogniflow/internal/mq"
	"github.com/shaiso/Cogniflow/internal/nodes"
)

const defaultPrefetch = 5

// Worker потребляет step-задания из очереди и выполняет их.
//
// Worker — stateless компонент: несколько экземпляров могут
// потреблять из одной очереди steps.ready.
type Worker struct {
	executor *Executor
	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Executor — исполнитель шагов.
	Executor *Executor

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Prefetch — количество заданий в обработке одновременно (default: 5).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		executor: cfg.Executor,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает Worker: consumer для steps.ready.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueStepsReady),
		Handler:  w.handleStepReady,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("step consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// handleStepReady обрабатывает одно step-задание из очереди steps.ready.
func (w *Worker) handleStepReady(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.StepJobPayload](&delivery.Message)
	if err != nil {
		w.logger.Error("failed to parse step.ready payload", "error", err)
		return err
	}

	w.logger.Debug("received step.ready event",
		"workflow_id", payload.WorkflowID,
		"node_id", payload.NodeID,
	)

	if err := w.executor.ExecuteStep(ctx, payload); err != nil {
		// Устаревшее задание — подтверждаем и отбрасываем
		if isStaleStep(err) {
			w.logger.Info("stale step dropped",
				"workflow_id", payload.WorkflowID,
				"node_id", payload.NodeID,
				"reason", err,
			)
			return nil
		}
		w.logger.Error("failed to execute step",
			"workflow_id", payload.WorkflowID,
			"node_id", payload.NodeID,
			"error", err,
		)
		return err
	}
	return nil
}

// isStaleStep — задание ссылается на то, чего больше нет.
// Повторять его бессмысленно.
func isStaleStep(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, domain.ErrWorkflowDeleted) ||
		errors.Is(err, nodes.ErrHandlerNotFound)
}

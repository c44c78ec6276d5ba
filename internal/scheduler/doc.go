// Package scheduler запускает workflows по расписанию.
//
// Scheduler держит в памяти cron-реестр активных schedules и
// периодически сверяет его с БД: новые расписания добавляются,
// изменённые перепланируются, выключенные и удалённые снимаются.
// Срабатывание расписания создаёт Run и ставит start-шаг в очередь
// steps.ready — дальше выполнение идёт обычным путём через worker.
//
// Структура:
//   - scheduler.go — жизненный цикл, сверка с БД, срабатывание
//   - cron.go      — парсер и валидация cron-выражений
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    ScheduleRepo: scheduleRepo,
//	    RunRepo:      runRepo,
//	    WorkflowRepo: workflowRepo,
//	    Publisher:    publisher,
//	    Logger:       logger,
//	})
//
//	if err := sched.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sched.Stop()
//
// Scheduler рассчитан на один активный экземпляр: leader election
// при необходимости делается снаружи (pg_try_advisory_lock в main).
package scheduler

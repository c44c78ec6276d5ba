// Package worker выполняет отдельные шаги workflow.
//
// # Обзор
//
// Worker — stateless компонент системы Cogniflow, который выполняет
// по одному узлу графа за шаг. Worker отвечает за:
//
//   - Получение step-заданий из очереди RabbitMQ (steps.ready)
//   - Загрузку снимка workflow и диспетчеризацию узла в обработчик
//   - Запись результата шага в журнал выполнения (append-only)
//   - Публикацию событий выполнения для live-подписчиков
//   - Постановку узлов-преемников обратно в очередь
//
// Workers масштабируются горизонтально — несколько экземпляров
// потребляют из одной очереди steps.ready. Ветки после fork
// выполняются параллельно ровно настолько, насколько их разбирают
// свободные экземпляры.
//
// # Ключевые компоненты
//
// ## Worker
//
// Основная структура, управляющая жизненным циклом.
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	w := worker.New(worker.Config{
//	    Executor: executor,
//	    Conn:     mqConn,
//	    Logger:   logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## Executor
//
// Выполняет один шаг: загружает workflow, находит узел, вызывает
// его обработчик из реестра nodes.Registry и раскладывает результат
// по журналу, событиям и очереди. Обработчики узлов сами ничего
// не пишут и не публикуют — вся инфраструктура сосредоточена здесь.
//
// # Обработка шага
//
//  1. Получение задания из steps.ready
//  2. Загрузка workflow, проверка мягкого удаления
//  3. Разрешение узла (псевдоним start_node — реальный start-узел)
//  4. start-узел без run_id — триггер верхнего уровня: создаётся Run
//  5. end-узел — терминальный: запись в журнал, run_completed, стоп
//  5. Иначе — выполнение через обработчик типа узла
//  6. Запись в журнал (только при наличии RunID)
//  7. Публикация node_completed / node_error / approval_needed
//  8. Постановка преемников в очередь со входом = выход узла
//
// # Ошибки
//
// Пакет различает два уровня ошибок:
//   - Инфраструктурные (error от ExecuteStep) — БД или очередь
//     недоступны; задание возвращается в очередь (nack, requeue)
//   - Ошибки уровня ветки (Result со статусом failed) — плохая
//     конфигурация узла, отказ LLM; ветка останавливается, запись
//     со статусом failed попадает в журнал, задание подтверждается
//
// Отдельный класс — устаревшие задания: workflow удалён или узел
// исчез из графа. Такие задания подтверждаются и отбрасываются.
package worker

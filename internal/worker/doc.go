// Package worker запускает внешние действия шагов pipeline.
//
// # Обзор
//
// Каждый шаг pipeline связан с внешней программой (монитором),
// которая сама читает и пишет свои данные и возвращает код завершения.
// Worker запускает эту программу синхронно и возвращает её код.
//
// # Ключевые компоненты
//
// ## Executor
//
// Интерфейс для выполнения действия шага:
//
//	type Executor interface {
//	    Execute(ctx context.Context, step domain.Step) (*ExecutionResult, error)
//	}
//
// Реализации:
//   - CommandExecutor — запуск Step.Action как дочернего процесса
//   - Registry — выбор executor'а по имени шага
//
// # Ошибки
//
// Пакет различает два случая:
//   - Команда запустилась и завершилась — код в ExecutionResult.ExitCode, error == nil
//   - Команду не удалось запустить — error (ErrLaunchFailed)
//
// Политика шага их не различает: вызывающий код превращает ошибку
// запуска в ненулевой код (domain.ExitLaunchFailure).
//
// Таймаута нет: зависшая команда блокирует run. Отмена ctx
// не убивает уже запущенный процесс.
package worker

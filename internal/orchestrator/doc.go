// Package orchestrator реализует Pipeline Runner.
//
// Runner отвечает за:
//   - Подготовку run: очистку status record и создание workspace
//   - Последовательный запуск шагов river → barge → rail → risk
//   - Запись результата каждого шага в ledger и status record до применения policy
//   - Применение policy шага (FATAL останавливает run, TOLERATED — нет)
//   - Вычисление итогового кода run
//
// Выполнение описано явной машиной состояний (RunState):
//
//	INIT → RUNNING(step_i) → RUNNING(step_i+1) | ABORTED(step_i) | COMPLETED
//
// Правило агрегации (Outcome) — чистая функция от результатов и политик,
// её можно проверять отдельно от запуска шагов.
package orchestrator

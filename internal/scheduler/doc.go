// Package scheduler запускает pipeline по cron-расписанию.
//
// Структура:
//   - scheduler.go — цикл Scheduler (ожидание тика, запуск run)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Runs никогда не пересекаются: следующее время вычисляется после
// завершения текущего run, пропущенные тики не догоняются.
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    CronExpr: "0 */6 * * *",
//	    Timezone: "America/Chicago",
//	    RunFunc:  func(ctx context.Context) int { return runner.Run(ctx).ExitCode() },
//	    Logger:   logger,
//	})
//	err = sched.Start(ctx) // блокируется до отмены ctx
package scheduler

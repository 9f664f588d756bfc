package domain

// Коды завершения процесса.
//
// Код FATAL шага передаётся наружу как есть, поэтому по коду
// можно понять, какой этап упал. Константы ниже — только коды,
// которые выставляет сам runner.
//
// Монитор может сам завершиться с 73, 74, 75 или 127: такое совпадение
// допускается. Отличить его от кода runner'а можно по failed_step
// (JSON вывод run, история runs): у ошибок подготовки он пуст,
// у FATAL шага — имя шага. При ошибке записи status record
// failed_step тоже заполнен, различие — в поле error.
const (
	// ExitSuccess — все шаги успешны.
	ExitSuccess = 0

	// ExitWatchdog — run дошёл до конца, но TOLERATED шаг упал.
	ExitWatchdog = 1

	// ExitSetupFailure — не удалось подготовить workspace или получить блокировку run.
	ExitSetupFailure = 73

	// ExitLedgerFailure — не удалось записать status record.
	ExitLedgerFailure = 74

	// ExitIncomplete — status record не содержит итога run: run ещё идёт
	// или был прерван извне до последнего шага. Только для status --exit-code.
	ExitIncomplete = 75

	// ExitLaunchFailure — команду шага не удалось запустить.
	ExitLaunchFailure = 127

	// ExitSignalBase — база для кода процесса, убитого сигналом (128+N).
	ExitSignalBase = 128
)

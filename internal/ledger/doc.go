// Package ledger хранит результаты шагов текущего run.
//
// Структура:
//   - ledger.go — упорядоченный StatusLedger в памяти
//   - record.go — формат status record ("<STEP>_RC=<code>")
//   - store.go  — файловое хранилище status record (атомарная перезапись)
//
// Runner — единственный писатель status record. Файл очищается
// в начале каждого run и перезаписывается целиком после каждого шага,
// поэтому в нём никогда не бывает записей предыдущего run или
// шагов, которые ещё не выполнялись.
package ledger

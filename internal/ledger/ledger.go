package ledger

import (
	"fmt"
	"sync"

	"github.com/shaiso/corridor/internal/domain"
)

// Ledger — упорядоченное отображение имя шага → StepResult.
//
// Порядок записей совпадает с порядком выполнения шагов.
// Результат каждого шага записывается не более одного раза.
type Ledger struct {
	results []domain.StepResult
	index   map[string]int
	mu      sync.RWMutex
}

// New создаёт пустой Ledger.
func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Record добавляет результат шага.
func (l *Ledger) Record(result domain.StepResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[result.StepName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, result.StepName)
	}

	l.index[result.StepName] = len(l.results)
	l.results = append(l.results, result)
	return nil
}

// Get возвращает результат шага по имени.
func (l *Ledger) Get(step string) (domain.StepResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[step]
	if !ok {
		return domain.StepResult{}, false
	}
	return l.results[i], true
}

// Has проверяет, записан ли результат шага.
func (l *Ledger) Has(step string) bool {
	_, ok := l.Get(step)
	return ok
}

// Results возвращает копию результатов в порядке записи.
func (l *Ledger) Results() []domain.StepResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.StepResult, len(l.results))
	copy(out, l.results)
	return out
}

// Len возвращает количество записанных результатов.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.results)
}

// Failed возвращает имена шагов с ненулевым кодом, в порядке выполнения.
func (l *Ledger) Failed() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var failed []string
	for _, r := range l.results {
		if !r.Succeeded() {
			failed = append(failed, r.StepName)
		}
	}
	return failed
}

package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaiso/corridor/internal/domain"
)

// recordSuffix — суффикс ключа в status record.
const recordSuffix = "_RC"

// Encode сериализует ledger в формат status record:
//
//	RIVER_RC=0
//	BARGE_RC=0
//	RAIL_RC=2
func Encode(l *Ledger) []byte {
	var buf bytes.Buffer
	for _, r := range l.Results() {
		fmt.Fprintf(&buf, "%s=%d\n", domain.RecordKey(r.StepName), r.ExitCode)
	}
	return buf.Bytes()
}

// Parse читает status record.
// Пустые строки и строки, начинающиеся с '#', пропускаются.
// Возвращает результаты в порядке строк файла (только имя шага и код).
func Parse(r io.Reader) ([]domain.StepResult, error) {
	var results []domain.StepResult
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || !strings.HasSuffix(key, recordSuffix) {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedRecord, lineNo, line)
		}

		name := strings.ToLower(strings.TrimSuffix(key, recordSuffix))
		if name == "" {
			return nil, fmt.Errorf("%w: line %d: empty step name", ErrMalformedRecord, lineNo)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: line %d: %s", ErrDuplicateStep, lineNo, name)
		}

		code, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: exit code %q", ErrMalformedRecord, lineNo, value)
		}

		seen[name] = true
		results = append(results, domain.StepResult{StepName: name, ExitCode: code})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read status record: %w", err)
	}
	return results, nil
}

package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/corridor/internal/domain"
)

// Store — файловое хранилище status record.
//
// Каждая запись перезаписывает файл целиком: временный файл,
// fsync, rename, fsync каталога.
type Store struct {
	path string
}

// NewStore создаёт Store для указанного пути.
func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("status record path is required")
	}
	return &Store{path: path}, nil
}

// Path возвращает путь к status record.
func (s *Store) Path() string {
	return s.path
}

// Clear удаляет status record предыдущего run.
// Отсутствие файла ошибкой не считается.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear status record: %w", err)
	}
	return nil
}

// Save записывает ledger в status record.
func (s *Store) Save(l *Ledger) error {
	if err := writeFileAtomic(s.path, Encode(l), 0o644); err != nil {
		return fmt.Errorf("write status record: %w", err)
	}
	return nil
}

// Load читает status record.
func (s *Store) Load() ([]domain.StepResult, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("open status record: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	// Не все файловые системы поддерживают fsync каталога.
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return err
	}
	return nil
}

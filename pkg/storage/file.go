package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"smm_go/models"
)

// FileStore хранит по одному JSON-документу на аккаунт в каталоге Dir.
// Ревизия — sha256 от содержимого файла, то есть от самого снимка:
// любое внешнее изменение файла (в том числе коммит из другого процесса)
// меняет ревизию и приводит к ErrConflict при несовпадении базы.
type FileStore struct {
	Dir string

	// mu сериализует проверку ревизии и замену файла внутри процесса.
	// Между процессами примитива блокировки нет — защищает только
	// протокол CAS с повторной сверкой ревизии.
	mu sync.Mutex
}

// NewFileStore создаёт файловое хранилище, при необходимости создавая каталог.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог состояния: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(accountID string) string {
	return filepath.Join(f.Dir, accountID+".json")
}

func revisionOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Load читает снимок аккаунта и возвращает его вместе с ревизией.
func (f *FileStore) Load(accountID string) (*models.Snapshot, string, error) {
	raw, err := os.ReadFile(f.path(accountID))
	if os.IsNotExist(err) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("чтение снимка %s: %w", accountID, err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrCorrupt, accountID, err)
	}
	return &snap, revisionOf(raw), nil
}

// Save атомарно заменяет снимок аккаунта при совпадении базовой ревизии.
// Замена идёт через временный файл и rename в том же каталоге, поэтому
// параллельный Load видит либо старый снимок, либо новый, но не обрывок.
func (f *FileStore) Save(accountID string, snap *models.Snapshot, baseRevision string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := ""
	raw, err := os.ReadFile(f.path(accountID))
	switch {
	case err == nil:
		current = revisionOf(raw)
	case os.IsNotExist(err):
		// Снимка ещё нет: ожидаем пустую базовую ревизию.
	default:
		return "", fmt.Errorf("проверка ревизии %s: %w", accountID, err)
	}
	if current != baseRevision {
		return "", fmt.Errorf("%w: аккаунт %s", ErrConflict, accountID)
	}

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("сериализация снимка %s: %w", accountID, err)
	}
	out = append(out, '\n')

	tmp, err := os.CreateTemp(f.Dir, accountID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("временный файл снимка %s: %w", accountID, err)
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("запись снимка %s: %w", accountID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("закрытие снимка %s: %w", accountID, err)
	}
	if err := os.Rename(tmp.Name(), f.path(accountID)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("замена снимка %s: %w", accountID, err)
	}
	return revisionOf(out), nil
}

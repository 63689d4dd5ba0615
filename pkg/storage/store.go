package storage

import (
	"errors"

	"smm_go/models"
)

// Ошибки хранилища. Сверяем их через errors.Is, как принято во всём проекте.
var (
	// ErrNotFound — у аккаунта ещё нет снимка; вызывающий начинает с пустого.
	ErrNotFound = errors.New("storage: снимок аккаунта не найден")
	// ErrConflict — ревизия в хранилище ушла вперёд: параллельная инвокация
	// записала снимок первой. Вызывающий обязан перечитать состояние,
	// повторно применить свою мутацию и попробовать снова.
	ErrConflict = errors.New("storage: конфликт ревизий при записи")
	// ErrCorrupt — снимок не читается; фатально для инвокации.
	ErrCorrupt = errors.New("storage: снимок повреждён")
)

// StateStore — версионированное хранилище снимков состояния аккаунтов.
// Load возвращает снимок и непрозрачный маркер ревизии. Save выполняет
// compare-and-swap: запись проходит только если текущая ревизия хранилища
// совпадает с baseRevision. Пустая baseRevision означает «снимка ещё нет».
// Каждая успешная запись атомарно заменяет снимок целиком: частично
// записанное состояние не должно быть наблюдаемо последующим Load.
type StateStore interface {
	Load(accountID string) (*models.Snapshot, string, error)
	Save(accountID string, snap *models.Snapshot, baseRevision string) (string, error)
}

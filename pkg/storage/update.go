package storage

import (
	"errors"
	"fmt"

	"smm_go/models"
)

// MaxSaveAttempts ограничивает повторы при конфликте ревизий.
// Слепая перезапись недопустима: она потеряла бы инкременты лимитов
// или переходы очереди, записанные параллельной инвокацией.
const MaxSaveAttempts = 3

// ErrRetryExhausted — конфликт не разрешился за отведённые попытки.
// Инвокация завершается фатально, не оставляя частичных записей.
var ErrRetryExhausted = errors.New("storage: превышен лимит повторов при конфликте ревизий")

// Update выполняет протокол «перечитать, применить мутацию заново,
// повторить запись»: мутация применяется к свежезагруженному снимку на
// каждой попытке, поэтому изменения проигравшей стороны не теряются.
// Мутация должна быть идемпотентной относительно свежего состояния:
// она может вернуть ошибку, чтобы отказаться от записи (например, пост
// уже опубликован параллельной инвокацией).
func Update(store StateStore, accountID string, mutate func(*models.Snapshot) error) (*models.Snapshot, string, error) {
	var lastErr error
	for attempt := 0; attempt < MaxSaveAttempts; attempt++ {
		snap, revision, err := store.Load(accountID)
		if errors.Is(err, ErrNotFound) {
			snap, revision = models.NewSnapshot(), ""
		} else if err != nil {
			return nil, "", err
		}

		if err := mutate(snap); err != nil {
			return nil, "", err
		}

		newRevision, err := store.Save(accountID, snap, revision)
		if err == nil {
			return snap, newRevision, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, "", err
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

package behavior

import (
	"context"
	"time"
)

// Wait выполняет ожидание и регулярно проверяет контекст на отмену,
// чтобы не блокировать долгие паузы. Используем шаг в пять секунд,
// чтобы можно было вовремя завершить работу по требованию.
func Wait(ctx context.Context, d time.Duration) error {
	const step = 5 * time.Second
	for remaining := d; remaining > 0; {
		chunk := step
		if remaining < chunk {
			chunk = remaining
		}
		select {
		case <-ctx.Done():
			// Возвращаем ошибку контекста, чтобы вызвать обработку прерывания выше по стеку.
			return ctx.Err()
		case <-time.After(chunk):
		}
		remaining -= chunk
	}
	return nil
}

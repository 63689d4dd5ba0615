package platform

import (
	"context"
	"errors"
	"testing"
)

// flakyPublisher отказывает заданное число раз, затем публикует.
type flakyPublisher struct {
	failures int
	kind     ErrorKind
	calls    int
}

func (p *flakyPublisher) Publish(ctx context.Context, platform string, req PublishRequest) (string, error) {
	p.calls++
	if p.calls <= p.failures {
		return "", NewError(p.kind, "publish", errors.New("отказ платформы"))
	}
	return "ext-1", nil
}

// TestRetryPublisherTransient: временная ошибка повторяется до успеха.
func TestRetryPublisherTransient(t *testing.T) {
	inner := &flakyPublisher{failures: 1, kind: KindTransient}
	r := &RetryPublisher{Inner: inner}

	id, err := r.Publish(context.Background(), "instagram", PublishRequest{})
	if err != nil {
		t.Fatalf("публикация после повтора: %v", err)
	}
	if id != "ext-1" || inner.calls != 2 {
		t.Errorf("ожидались 2 вызова и ext-1, получено %d и %q", inner.calls, id)
	}
}

// TestRetryPublisherPermanent: постоянная ошибка не повторяется.
func TestRetryPublisherPermanent(t *testing.T) {
	inner := &flakyPublisher{failures: 10, kind: KindPermanent}
	r := &RetryPublisher{Inner: inner}

	_, err := r.Publish(context.Background(), "instagram", PublishRequest{})
	if err == nil {
		t.Fatalf("ожидалась ошибка")
	}
	if inner.calls != 1 {
		t.Errorf("постоянная ошибка вызвана %d раз, ожидался 1", inner.calls)
	}
}

// TestRetryPublisherAlreadyPublished: «уже опубликовано» — успех без
// повторов: платформа приняла публикацию на прошлой попытке процесса.
func TestRetryPublisherAlreadyPublished(t *testing.T) {
	inner := &flakyPublisher{failures: 10, kind: KindAlreadyPublished}
	r := &RetryPublisher{Inner: inner}

	_, err := r.Publish(context.Background(), "instagram", PublishRequest{})
	if err != nil {
		t.Fatalf("уже опубликованный пост должен считаться успехом: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("ожидался один вызов, получено %d", inner.calls)
	}
}

// TestRetryPublisherContextCancel: отмена контекста прекращает повторы.
func TestRetryPublisherContextCancel(t *testing.T) {
	inner := &flakyPublisher{failures: 100, kind: KindTransient}
	r := &RetryPublisher{Inner: inner}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Publish(ctx, "instagram", PublishRequest{})
	if err == nil {
		t.Fatalf("ожидалась ошибка после отмены контекста")
	}
	if inner.calls > 2 {
		t.Errorf("после отмены контекста не должно быть серии повторов: %d вызовов", inner.calls)
	}
}

// countingEngager считает вызовы Perform.
type countingEngager struct {
	NoopEngager
	calls int
	err   error
}

func (e *countingEngager) Perform(ctx context.Context, actionType, target, payload string) error {
	e.calls++
	if e.calls == 1 && e.err != nil {
		return e.err
	}
	return nil
}

// TestRetryEngagerPerform: повторяется только Perform, временная ошибка
// уходит со второй попытки.
func TestRetryEngagerPerform(t *testing.T) {
	inner := &countingEngager{err: NewError(KindTransient, "like", errors.New("сеть"))}
	r := &RetryEngager{Inner: inner}

	if err := r.Perform(context.Background(), "likes", "media-1", ""); err != nil {
		t.Fatalf("действие после повтора: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("ожидались 2 вызова, получено %d", inner.calls)
	}
}

// TestKindOfUnclassified: неклассифицированная ошибка считается временной.
func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("что-то пошло не так")) != KindTransient {
		t.Errorf("неклассифицированная ошибка должна быть временной")
	}
	wrapped := NewError(KindRateLimited, "op", errors.New("429"))
	if KindOf(wrapped) != KindRateLimited {
		t.Errorf("класс обёрнутой ошибки потерян")
	}
}

package platform

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Повторы внешних вызовов с экспоненциальным бэкоффом. Явная обёртка
// вместо вмешательства во внутренности клиента: ретраи параметризуются
// классом ошибки, а сам коллаборатор о них не знает.

// MaxRetries — верхняя граница повторов одного внешнего вызова.
const MaxRetries = 3

func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

// classify переводит класс ошибки в решение бэкоффа.
func classify(err error) error {
	switch KindOf(err) {
	case KindPermanent:
		return backoff.Permanent(err)
	case KindAlreadyPublished:
		return backoff.Permanent(err)
	default:
		// Временные ошибки и рейт-лимиты платформы повторяем.
		return err
	}
}

// RetryPublisher оборачивает Publisher повторами. Ошибка класса
// KindAlreadyPublished считается успехом: платформа уже приняла
// публикацию на предыдущей попытке.
type RetryPublisher struct {
	Inner Publisher
}

func (r *RetryPublisher) Publish(ctx context.Context, platform string, req PublishRequest) (string, error) {
	var externalID string
	op := func() error {
		id, err := r.Inner.Publish(ctx, platform, req)
		if err != nil {
			return classify(err)
		}
		externalID = id
		return nil
	}
	err := backoff.Retry(op, newBackoff(ctx))
	if err != nil && KindOf(err) == KindAlreadyPublished {
		return externalID, nil
	}
	return externalID, err
}

// RetryEngager оборачивает повторами только Perform: добыча целей
// дешёвая и при сбое просто даёт пустую сессию.
type RetryEngager struct {
	Inner Engager
}

func (r *RetryEngager) MineHashtag(ctx context.Context, tag string, amount int) ([]Target, error) {
	return r.Inner.MineHashtag(ctx, tag, amount)
}

func (r *RetryEngager) MineExplore(ctx context.Context, amount int) ([]Target, error) {
	return r.Inner.MineExplore(ctx, amount)
}

func (r *RetryEngager) OwnRecentMedia(ctx context.Context, amount int) ([]Target, error) {
	return r.Inner.OwnRecentMedia(ctx, amount)
}

func (r *RetryEngager) RecentMediaOf(ctx context.Context, userID string, amount int) ([]Target, error) {
	return r.Inner.RecentMediaOf(ctx, userID, amount)
}

func (r *RetryEngager) CommentsOf(ctx context.Context, mediaID string, amount int) ([]Comment, error) {
	return r.Inner.CommentsOf(ctx, mediaID, amount)
}

func (r *RetryEngager) Followers(ctx context.Context, amount int) ([]string, error) {
	return r.Inner.Followers(ctx, amount)
}

func (r *RetryEngager) Perform(ctx context.Context, actionType, target, payload string) error {
	op := func() error {
		if err := r.Inner.Perform(ctx, actionType, target, payload); err != nil {
			return classify(err)
		}
		return nil
	}
	return backoff.Retry(op, newBackoff(ctx))
}

package platform

import (
	"context"
	"fmt"
)

// Заглушки коллабораторов. Реальные клиенты платформ подключаются в
// main.go вместо них; заглушки позволяют гонять конвейер и сухие
// прогоны без сетевых вызовов.

// NoopPublisher отклоняет публикацию как постоянную ошибку, чтобы
// конвейер с незаполненным издателем не помечал посты опубликованными.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, platform string, req PublishRequest) (string, error) {
	return "", NewError(KindPermanent, "publish", fmt.Errorf("издатель для %s не сконфигурирован", platform))
}

// NoopEngager возвращает пустые цели и отклоняет действия.
type NoopEngager struct{}

func (NoopEngager) MineHashtag(ctx context.Context, tag string, amount int) ([]Target, error) {
	return nil, nil
}

func (NoopEngager) MineExplore(ctx context.Context, amount int) ([]Target, error) {
	return nil, nil
}

func (NoopEngager) OwnRecentMedia(ctx context.Context, amount int) ([]Target, error) {
	return nil, nil
}

func (NoopEngager) RecentMediaOf(ctx context.Context, userID string, amount int) ([]Target, error) {
	return nil, nil
}

func (NoopEngager) CommentsOf(ctx context.Context, mediaID string, amount int) ([]Comment, error) {
	return nil, nil
}

func (NoopEngager) Followers(ctx context.Context, amount int) ([]string, error) {
	return nil, nil
}

func (NoopEngager) Perform(ctx context.Context, actionType, target, payload string) error {
	return NewError(KindPermanent, "perform", fmt.Errorf("клиент вовлечения не сконфигурирован"))
}

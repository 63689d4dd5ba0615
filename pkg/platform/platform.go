package platform

import (
	"context"
	"errors"
	"fmt"

	"smm_go/models"
)

// Классы ошибок внешних коллабораторов. Класс определяет реакцию:
// временные ошибки повторяются с бэкоффом, постоянные — нет,
// «уже опубликовано» считается успехом повторной попытки.
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindRateLimited
	KindAlreadyPublished
	KindPermanent
)

// Error — ошибка внешнего вызова с классом.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError оборачивает ошибку внешнего вызова с классом.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf возвращает класс ошибки; неклассифицированные ошибки считаем
// временными — лишний повтор безопаснее пропущенного действия.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// GeneratedContent — результат работы генератора контента.
type GeneratedContent struct {
	Caption     string
	AltText     string
	MediaPrompt string
	Topic       string
}

// ContentGenerator — внешний сервис генерации контента.
// Потребляется синхронно; его отказ никогда не фатален — вызывающий
// падает на локальные шаблоны.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt, persona string) (GeneratedContent, error)
}

// MediaFinder — поиск внешних медиафайлов по идентификатору поста.
// Очередь сама проверяет размер и формат, прежде чем доверять совпадению.
type MediaFinder interface {
	FindMedia(postID string) ([]models.MediaAsset, error)
}

// PublishRequest — всё необходимое для одной публикации.
type PublishRequest struct {
	Post         models.Post
	Caption      string
	FirstComment string
}

// Publisher выполняет публикацию на платформе и возвращает внешний
// идентификатор. Семантика — «задумано не более одного раза, по факту
// хотя бы одна попытка»: падение между внешним вызовом и записью
// состояния оставляет реальную публикацию без отметки posted.
type Publisher interface {
	Publish(ctx context.Context, platform string, req PublishRequest) (string, error)
}

// Target — кандидат для вовлечения: пост или пользователь.
type Target struct {
	MediaID string
	UserID  string
	Caption string
}

// Comment — чужой комментарий под нашим постом.
type Comment struct {
	ID     string
	UserID string
	Text   string
}

// Engager — внешний коллаборатор действий вовлечения. Каждое действие
// обязано быть предварено проверкой лимита в Budget Ledger.
type Engager interface {
	// MineHashtag возвращает свежие посты по хэштегу.
	MineHashtag(ctx context.Context, tag string, amount int) ([]Target, error)
	// MineExplore возвращает посты из рекомендаций.
	MineExplore(ctx context.Context, amount int) ([]Target, error)
	// OwnRecentMedia возвращает наши недавние посты.
	OwnRecentMedia(ctx context.Context, amount int) ([]Target, error)
	// RecentMediaOf возвращает недавние посты указанного пользователя.
	RecentMediaOf(ctx context.Context, userID string, amount int) ([]Target, error)
	// CommentsOf возвращает комментарии под постом.
	CommentsOf(ctx context.Context, mediaID string, amount int) ([]Comment, error)
	// Followers возвращает идентификаторы наших подписчиков. Список
	// обновляет Snapshot.Followers: обслуживание щадит тех, кто
	// подписался в ответ.
	Followers(ctx context.Context, amount int) ([]string, error)
	// Perform выполняет действие над целью. payload — текст для
	// комментариев и ответов, для остальных действий пустая строка.
	Perform(ctx context.Context, actionType, target, payload string) error
}

package models

import "time"

// Форматы публикаций.
const (
	PostFormatSingle   = "single"
	PostFormatCarousel = "carousel"
	PostFormatReel     = "reel"
)

// Состояния жизненного цикла поста. Состояние движется только вперёд:
// draft -> approved -> ready -> posted. failed — боковое состояние из ready,
// из которого разрешён возврат в ready при повторной попытке.
const (
	PostStateDraft    = "draft"
	PostStateApproved = "approved"
	PostStateReady    = "ready"
	PostStatePosted   = "posted"
	PostStateFailed   = "failed"
)

// Платформы публикации.
const (
	PlatformInstagram = "ig"
	PlatformYouTube   = "yt"
)

// Статусы публикации на отдельной платформе.
const (
	PlatformStatusPending = "pending"
	PlatformStatusPosted  = "posted"
	PlatformStatusFailed  = "failed"
)

// PlatformResult хранит результат публикации поста на одной платформе.
// Статусы по платформам независимы: пост может быть опубликован в ig
// и при этом ещё ожидать публикации в yt.
type PlatformResult struct {
	Status     string     `json:"status"`
	ExternalID string     `json:"external_id,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// Post — запись очереди контента. Изменяется только через переходы
// в pkg/queue, сессии вовлечения пост не трогают.
type Post struct {
	ID          string                    `json:"id"`
	Format      string                    `json:"format"`
	State       string                    `json:"state"`
	Topic       string                    `json:"topic,omitempty"`
	Caption     string                    `json:"caption"`
	AltText     string                    `json:"alt_text,omitempty"`
	MediaRefs   []string                  `json:"media_refs"`
	ScheduledAt *time.Time                `json:"scheduled_at,omitempty"`
	Platforms   map[string]PlatformResult `json:"platform_results"`
	Attempts    int                       `json:"attempts"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// PlatformStatus возвращает статус публикации на платформе.
// Для платформы без записи считаем статус pending.
func (p *Post) PlatformStatus(platform string) string {
	if p.Platforms == nil {
		return PlatformStatusPending
	}
	res, ok := p.Platforms[platform]
	if !ok || res.Status == "" {
		return PlatformStatusPending
	}
	return res.Status
}

// HasMedia сообщает, привязаны ли к посту медиафайлы.
func (p *Post) HasMedia() bool {
	return len(p.MediaRefs) > 0
}

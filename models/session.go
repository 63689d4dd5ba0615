package models

// Типы сессий. Расписание внешнего диспетчера соотносит каждый токен
// с одним из этих типов.
const (
	SessionMorning     = "morning"
	SessionReplies     = "replies"
	SessionHashtags    = "hashtags"
	SessionExplore     = "explore"
	SessionMaintenance = "maintenance"
	SessionStories     = "stories"
	SessionReport      = "report"
	SessionFull        = "full"
	SessionYTEngage    = "yt_engage"
	SessionYTReplies   = "yt_replies"
	SessionYTFull      = "yt_full"
)

// SessionTypes перечисляет допустимые типы сессий.
var SessionTypes = []string{
	SessionMorning,
	SessionReplies,
	SessionHashtags,
	SessionExplore,
	SessionMaintenance,
	SessionStories,
	SessionReport,
	SessionFull,
	SessionYTEngage,
	SessionYTReplies,
	SessionYTFull,
}

// SessionDescriptor — результат разрешения токена расписания.
// Вычисляется заново на каждой инвокации из статической таблицы
// маршрутизации и нигде не сохраняется. Наблюдаемое время процесса
// на выбор сессии не влияет: диспетчер может опаздывать на десятки минут.
type SessionDescriptor struct {
	ScheduleToken string `json:"schedule_token"`
	AccountID     string `json:"account_id"`
	SessionType   string `json:"session_type"`
	Publish       bool   `json:"publish"`
	JitterSeconds int    `json:"jitter_seconds"`
}

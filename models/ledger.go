package models

import "time"

// Типы действий. У каждого типа свой дневной лимит и свой счётчик:
// исчерпание одного лимита не блокирует остальные.
const (
	ActionLikes      = "likes"
	ActionComments   = "comments"
	ActionFollows    = "follows"
	ActionStoryViews = "story_views"
	ActionReplies    = "replies"
	ActionUnfollows  = "unfollows"
	ActionDMs        = "dms"
	// ActionPartnerComments — комментарии под постами партнёрских
	// аккаунтов. Отдельный тип с жёстким лимитом: взаимность двух
	// основных аккаунтов не должна бросаться в глаза.
	ActionPartnerComments = "partner_comments"
)

// ActionTypes перечисляет все известные типы действий.
var ActionTypes = []string{
	ActionLikes,
	ActionComments,
	ActionFollows,
	ActionStoryViews,
	ActionReplies,
	ActionUnfollows,
	ActionDMs,
	ActionPartnerComments,
}

// LedgerEntry — дневной счётчик действий одного типа.
// Записи за прошедшие даты заморожены и никогда не изменяются:
// новый день начинается с новой записи и полного лимита.
type LedgerEntry struct {
	AccountID        string  `json:"account_id"`
	ActionType       string  `json:"action_type"`
	Date             string  `json:"date"` // YYYY-MM-DD в таймзоне аккаунта
	Count            int     `json:"count"`
	Cap              int     `json:"cap"`
	WarmupMultiplier float64 `json:"warmup_multiplier"`
}

// ActionRecord — запись журнала о выполненном действии. Журнал нужен
// сессиям обслуживания (отписка через N дней) и отчётам.
type ActionRecord struct {
	ID         string    `json:"id"`
	ActionType string    `json:"action_type"`
	Target     string    `json:"target"`
	At         time.Time `json:"at"`
}

package models

import "time"

// SessionSummary — структурированный итог одной инвокации. Выдаётся
// всегда, независимо от успеха, чтобы оператор мог восстановить картину
// без чтения логов.
type SessionSummary struct {
	Token       string         `json:"token"`
	AccountID   string         `json:"account_id"`
	SessionType string         `json:"session_type"`
	Skipped     bool           `json:"skipped"`
	Aborted     bool           `json:"aborted"`
	Actions     map[string]int `json:"actions"`
	Remaining   map[string]int `json:"remaining"`
	Published   []string       `json:"published,omitempty"`
	Errors      []string       `json:"errors,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// NewSessionSummary создаёт заготовку итога для дескриптора сессии.
func NewSessionSummary(desc SessionDescriptor, now time.Time) *SessionSummary {
	return &SessionSummary{
		Token:       desc.ScheduleToken,
		AccountID:   desc.AccountID,
		SessionType: desc.SessionType,
		Actions:     map[string]int{},
		Remaining:   map[string]int{},
		StartedAt:   now,
	}
}

// AddAction увеличивает счётчик действий в итоге.
func (s *SessionSummary) AddAction(actionType string) {
	s.Actions[actionType]++
}

// AddError фиксирует нефатальную ошибку в итоге.
func (s *SessionSummary) AddError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err.Error())
	}
}

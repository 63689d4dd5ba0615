package orchestrator

import (
	"time"

	"smm_go/models"
	"smm_go/pkg/queue"

	"github.com/sirupsen/logrus"
)

// DailyReport — сводка дня для оператора: что сделано, что осталось,
// в каком состоянии очередь.
type DailyReport struct {
	AccountID   string         `json:"account_id"`
	Date        string         `json:"date"`
	GeneratedAt time.Time      `json:"generated_at"`
	Actions     map[string]int `json:"actions"`
	Remaining   map[string]int `json:"remaining"`
	Queue       map[string]int `json:"queue"`
	Publishable int            `json:"publishable"`
	// Upcoming — публикуемые посты в порядке слотов.
	Upcoming  []string `json:"upcoming"`
	Followers int      `json:"followers"`
	LogSize   int      `json:"log_size"`
}

// BuildReport собирает сводку по текущему снимку состояния.
func (o *Orchestrator) BuildReport() *DailyReport {
	snap := o.loadOrEmpty()
	now := o.Now().In(o.Cfg.Timezone)

	pending := make([]models.Post, 0, len(snap.Queue))
	for _, p := range snap.Queue {
		if p.State == models.PostStateReady || p.State == models.PostStateApproved {
			pending = append(pending, p)
		}
	}
	queue.SortBySchedule(pending)
	upcoming := make([]string, 0, len(pending))
	for _, p := range pending {
		upcoming = append(upcoming, p.ID)
	}

	return &DailyReport{
		AccountID:   o.Cfg.AccountID,
		Date:        now.Format("2006-01-02"),
		GeneratedAt: now,
		Actions:     o.Limiter.Summary(snap),
		Remaining:   o.Limiter.RemainingAll(snap),
		Queue:       queue.StatusCounts(snap.Queue),
		Publishable: queue.PublishableCount(snap.Queue),
		Upcoming:    upcoming,
		Followers:   len(snap.Followers),
		LogSize:     len(snap.Log),
	}
}

// runReportSession пишет дневную сводку в лог. Сессия отчёта не делает
// внешних вызовов и никогда не пропускается.
func (o *Orchestrator) runReportSession(summary *models.SessionSummary) error {
	r := o.BuildReport()
	o.Log.WithFields(logrus.Fields{
		"account":     r.AccountID,
		"date":        r.Date,
		"actions":     r.Actions,
		"remaining":   r.Remaining,
		"queue":       r.Queue,
		"publishable": r.Publishable,
		"followers":   r.Followers,
	}).Info("[REPORT] дневная сводка")
	return nil
}

package budget

import (
	"errors"
	"fmt"
	"math"
	"time"

	"smm_go/models"

	"github.com/google/uuid"
)

// ErrBudgetExceeded возвращается из Record при исчерпанном дневном лимите.
// Это не сбой, а обычный сигнал пропустить действие и перейти к следующему.
var ErrBudgetExceeded = errors.New("budget: дневной лимит действий исчерпан")

// WarmupStep — ступень графика прогрева: до Days дней возраста аккаунта
// действует множитель Multiplier. Последняя ступень задаётся Days = 0
// и означает «и далее».
type WarmupStep struct {
	Days       int     `yaml:"days"`
	Multiplier float64 `yaml:"multiplier"`
}

// DefaultWarmup повторяет консервативный график прогрева:
// свежий аккаунт начинает с половины лимитов и выходит на полные
// только к четвёртой неделе. Резкая активность нового аккаунта —
// главный сигнал для антибот-эвристик платформ.
var DefaultWarmup = []WarmupStep{
	{Days: 7, Multiplier: 0.5},
	{Days: 14, Multiplier: 0.7},
	{Days: 21, Multiplier: 0.85},
	{Days: 0, Multiplier: 1.0},
}

// DefaultCaps — консервативные дневные лимиты по типам действий.
var DefaultCaps = map[string]int{
	models.ActionLikes:      150,
	models.ActionComments:   40,
	models.ActionFollows:    60,
	models.ActionStoryViews: 80,
	models.ActionReplies:    25,
	models.ActionUnfollows:  30,
	models.ActionDMs:        10,
	// Не больше двух комментариев партнёру в день: взаимность основных
	// аккаунтов должна выглядеть случайной.
	models.ActionPartnerComments: 2,
}

// Limiter считает дневные лимиты действий аккаунта поверх снимка.
// Сам Limiter состояния не хранит: счётчики живут в Snapshot.Ledgers
// и переживают инвокации через StateStore.
type Limiter struct {
	AccountID string
	Caps      map[string]int
	Warmup    []WarmupStep
	CreatedAt *time.Time     // дата создания аккаунта; nil — прогрев выключен
	TZ        *time.Location // таймзона аккаунта для границы суток

	// Now подменяется в тестах.
	Now func() time.Time
}

// NewLimiter собирает Limiter с подстановкой значений по умолчанию.
func NewLimiter(accountID string, caps map[string]int, warmup []WarmupStep, createdAt *time.Time, tz *time.Location) *Limiter {
	if caps == nil {
		caps = DefaultCaps
	}
	if len(warmup) == 0 {
		warmup = DefaultWarmup
	}
	if tz == nil {
		tz = time.UTC
	}
	return &Limiter{
		AccountID: accountID,
		Caps:      caps,
		Warmup:    warmup,
		CreatedAt: createdAt,
		TZ:        tz,
		Now:       time.Now,
	}
}

func (l *Limiter) today() string {
	return l.Now().In(l.TZ).Format("2006-01-02")
}

// WarmupMultiplier возвращает множитель прогрева по возрасту аккаунта.
// Без даты создания прогрев пропускается (множитель 1.0).
func (l *Limiter) WarmupMultiplier() float64 {
	if l.CreatedAt == nil {
		return 1.0
	}
	ageDays := int(l.Now().Sub(*l.CreatedAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	for _, step := range l.Warmup {
		if step.Days == 0 {
			return step.Multiplier
		}
		if ageDays < step.Days {
			return step.Multiplier
		}
	}
	return 1.0
}

// EffectiveCap — действующий сегодня лимит: floor(базовый лимит * прогрев).
func (l *Limiter) EffectiveCap(actionType string) int {
	base, ok := l.Caps[actionType]
	if !ok || base <= 0 {
		return 0
	}
	return int(math.Floor(float64(base) * l.WarmupMultiplier()))
}

// entry находит сегодняшнюю запись счётчика или nil.
// Записи за другие даты не читаются вовсе: новый день всегда
// начинается с полного лимита.
func (l *Limiter) entry(snap *models.Snapshot, actionType string) *models.LedgerEntry {
	today := l.today()
	for i := range snap.Ledgers {
		e := &snap.Ledgers[i]
		if e.AccountID == l.AccountID && e.ActionType == actionType && e.Date == today {
			return e
		}
	}
	return nil
}

// CanPerform сообщает, остался ли сегодня лимит на действие данного типа.
func (l *Limiter) CanPerform(snap *models.Snapshot, actionType string) bool {
	return l.Remaining(snap, actionType) > 0
}

// Remaining возвращает остаток сегодняшнего лимита.
func (l *Limiter) Remaining(snap *models.Snapshot, actionType string) int {
	limit := l.EffectiveCap(actionType)
	if limit <= 0 {
		return 0
	}
	count := 0
	if e := l.entry(snap, actionType); e != nil {
		count = e.Count
	}
	if count >= limit {
		return 0
	}
	return limit - count
}

// Record фиксирует выполненное действие: инкрементирует сегодняшний
// счётчик (создавая запись лениво при первом действии дня) и добавляет
// запись в журнал. Возвращает ErrBudgetExceeded, если CanPerform ложно —
// вызывать Record без предварительной проверки лимита нельзя.
func (l *Limiter) Record(snap *models.Snapshot, actionType, target string) error {
	limit := l.EffectiveCap(actionType)
	e := l.entry(snap, actionType)
	count := 0
	if e != nil {
		count = e.Count
	}
	if count >= limit || limit <= 0 {
		return fmt.Errorf("%w: %s (%d/%d)", ErrBudgetExceeded, actionType, count, limit)
	}

	if e == nil {
		snap.Ledgers = append(snap.Ledgers, models.LedgerEntry{
			AccountID:        l.AccountID,
			ActionType:       actionType,
			Date:             l.today(),
			Count:            1,
			Cap:              l.Caps[actionType],
			WarmupMultiplier: l.WarmupMultiplier(),
		})
	} else {
		e.Count++
	}

	snap.Log = append(snap.Log, models.ActionRecord{
		ID:         uuid.NewString(),
		ActionType: actionType,
		Target:     target,
		At:         l.Now().UTC(),
	})
	return nil
}

// Summary возвращает сегодняшние счётчики по типам действий.
func (l *Limiter) Summary(snap *models.Snapshot) map[string]int {
	today := l.today()
	counts := map[string]int{}
	for _, e := range snap.Ledgers {
		if e.AccountID == l.AccountID && e.Date == today {
			counts[e.ActionType] = e.Count
		}
	}
	return counts
}

// RemainingAll возвращает остатки лимитов по всем известным типам действий.
func (l *Limiter) RemainingAll(snap *models.Snapshot) map[string]int {
	remaining := map[string]int{}
	for _, actionType := range models.ActionTypes {
		remaining[actionType] = l.Remaining(snap, actionType)
	}
	return remaining
}

package budget

import (
	"errors"
	"testing"
	"time"

	"smm_go/models"
)

// fixedLimiter собирает Limiter с фиксированным временем и возрастом
// аккаунта в днях относительно этого времени.
func fixedLimiter(caps map[string]int, warmup []WarmupStep, ageDays int) *Limiter {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -ageDays)
	l := NewLimiter("acc", caps, warmup, &created, time.UTC)
	l.Now = func() time.Time { return now }
	return l
}

// TestWarmupMultiplier проверяет выбор ступени по возрасту аккаунта,
// включая границы ступеней.
func TestWarmupMultiplier(t *testing.T) {
	cases := []struct {
		ageDays int
		want    float64
	}{
		{0, 0.5},
		{6, 0.5},
		{7, 0.7}, // ровно на границе действует следующая ступень
		{13, 0.7},
		{14, 0.85},
		{21, 1.0},
		{100, 1.0},
	}
	for _, c := range cases {
		l := fixedLimiter(nil, nil, c.ageDays)
		if got := l.WarmupMultiplier(); got != c.want {
			t.Errorf("возраст %d дней: ожидался множитель %v, получен %v", c.ageDays, c.want, got)
		}
	}
}

// TestWarmupDisabled: без даты создания прогрев выключен.
func TestWarmupDisabled(t *testing.T) {
	l := NewLimiter("acc", nil, nil, nil, time.UTC)
	if got := l.WarmupMultiplier(); got != 1.0 {
		t.Errorf("ожидался множитель 1.0 без даты создания, получен %v", got)
	}
}

// TestEffectiveCapFloor: дробный результат лимита округляется вниз.
func TestEffectiveCapFloor(t *testing.T) {
	caps := map[string]int{models.ActionLikes: 25}
	warmup := []WarmupStep{{Days: 0, Multiplier: 0.7}}
	l := fixedLimiter(caps, warmup, 100)
	if got := l.EffectiveCap(models.ActionLikes); got != 17 {
		t.Errorf("ожидался лимит 17 (floor 25*0.7), получен %d", got)
	}
}

// TestRecordBoundary: аккаунт возрастом 3 дня с базовым лимитом 100 и
// множителем 0.6 получает ровно 60 действий, 61-е отклоняется.
func TestRecordBoundary(t *testing.T) {
	caps := map[string]int{models.ActionLikes: 100}
	warmup := []WarmupStep{
		{Days: 7, Multiplier: 0.6},
		{Days: 14, Multiplier: 0.8},
		{Days: 0, Multiplier: 1.0},
	}
	l := fixedLimiter(caps, warmup, 3)
	snap := models.NewSnapshot()

	for i := 0; i < 60; i++ {
		if !l.CanPerform(snap, models.ActionLikes) {
			t.Fatalf("лимит исчерпался на действии %d, ожидалось 60", i+1)
		}
		if err := l.Record(snap, models.ActionLikes, "media"); err != nil {
			t.Fatalf("действие %d: неожиданная ошибка %v", i+1, err)
		}
	}

	if l.CanPerform(snap, models.ActionLikes) {
		t.Errorf("после 60 действий лимит должен быть исчерпан")
	}
	err := l.Record(snap, models.ActionLikes, "media")
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("ожидалась ErrBudgetExceeded на 61-м действии, получено %v", err)
	}
	if len(snap.Log) != 60 {
		t.Errorf("в журнале ожидалось 60 записей, найдено %d", len(snap.Log))
	}
}

// TestNewDayFreshBudget: записи за прошлые даты не влияют на сегодняшний
// остаток и не изменяются задним числом.
func TestNewDayFreshBudget(t *testing.T) {
	caps := map[string]int{models.ActionComments: 10}
	l := fixedLimiter(caps, []WarmupStep{{Days: 0, Multiplier: 1.0}}, 30)

	snap := models.NewSnapshot()
	snap.Ledgers = append(snap.Ledgers, models.LedgerEntry{
		AccountID:        "acc",
		ActionType:       models.ActionComments,
		Date:             "2026-08-19", // вчера, лимит выбран полностью
		Count:            10,
		Cap:              10,
		WarmupMultiplier: 1.0,
	})

	if got := l.Remaining(snap, models.ActionComments); got != 10 {
		t.Errorf("новый день должен начинаться с полного лимита, остаток %d", got)
	}
	if err := l.Record(snap, models.ActionComments, "c1"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	// Вчерашняя запись осталась нетронутой, появилась отдельная сегодняшняя.
	if snap.Ledgers[0].Count != 10 || snap.Ledgers[0].Date != "2026-08-19" {
		t.Errorf("историческая запись изменена: %+v", snap.Ledgers[0])
	}
	if len(snap.Ledgers) != 2 || snap.Ledgers[1].Date != "2026-08-20" || snap.Ledgers[1].Count != 1 {
		t.Errorf("ожидалась новая запись за сегодня, получено %+v", snap.Ledgers)
	}
}

// TestTimezoneDayBoundary: граница суток считается в таймзоне аккаунта,
// а не в UTC.
func TestTimezoneDayBoundary(t *testing.T) {
	tz := time.FixedZone("UTC+5", 5*3600)
	// 22:00 UTC 19 августа — это уже 03:00 20 августа по UTC+5.
	now := time.Date(2026, 8, 19, 22, 0, 0, 0, time.UTC)
	l := NewLimiter("acc", map[string]int{models.ActionLikes: 5}, []WarmupStep{{Days: 0, Multiplier: 1.0}}, nil, tz)
	l.Now = func() time.Time { return now }

	snap := models.NewSnapshot()
	if err := l.Record(snap, models.ActionLikes, "m"); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if snap.Ledgers[0].Date != "2026-08-20" {
		t.Errorf("дата записи должна быть по таймзоне аккаунта, получено %s", snap.Ledgers[0].Date)
	}
}

// TestUnknownActionType: неизвестный тип действия всегда запрещён.
func TestUnknownActionType(t *testing.T) {
	l := fixedLimiter(map[string]int{}, nil, 30)
	snap := models.NewSnapshot()
	if l.CanPerform(snap, "boosts") {
		t.Errorf("действие без лимита должно быть запрещено")
	}
	if err := l.Record(snap, "boosts", "x"); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("ожидалась ErrBudgetExceeded, получено %v", err)
	}
}

package behavior

import (
	"testing"
	"time"

	"smm_go/models"
)

// daySampler возвращает семплер с фиксированным дневным временем,
// чтобы ночное замедление не влияло на проверки границ.
func daySampler(seed int64) *Sampler {
	s := New(seed, DefaultParams(), time.UTC)
	s.Now = func() time.Time { return time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC) }
	return s
}

// TestDelayBounds: любая пауза лежит в допустимых границах — не короче
// 0.7 минимума и не длиннее удвоенного максимума с поправками, либо это
// микро-перерыв или быстрое действие из своих диапазонов.
func TestDelayBounds(t *testing.T) {
	s := daySampler(1)
	p := DefaultParams()
	r := p.ActionDelays[models.ActionLikes]

	lo := time.Duration(float64(r.Min)*0.7) * time.Second

	for i := 0; i < 2000; i++ {
		d := s.Delay(models.ActionLikes)
		quickLo := time.Duration(p.QuickAction.Min) * time.Second
		if d < quickLo {
			t.Fatalf("итерация %d: пауза %v короче минимума быстрого действия", i, d)
		}
		if d >= lo {
			continue // обычная пауза или микро-перерыв
		}
		// Короче нижней границы гауссианы может быть только быстрое действие.
		if d > time.Duration(p.QuickAction.Max)*time.Second {
			t.Fatalf("итерация %d: пауза %v вне всех диапазонов", i, d)
		}
	}
}

// TestDelayNotUniform: паузы не повторяются — равномерные интервалы
// и есть главная ботоподобная сигнатура.
func TestDelayNotUniform(t *testing.T) {
	s := daySampler(2)
	seen := map[time.Duration]int{}
	for i := 0; i < 50; i++ {
		seen[s.Delay(models.ActionLikes)]++
	}
	if len(seen) < 40 {
		t.Errorf("паузы слишком однообразны: %d уникальных из 50", len(seen))
	}
}

// TestFatigueMonotonic: множитель усталости не убывает по ходу сессии.
func TestFatigueMonotonic(t *testing.T) {
	s := daySampler(3)
	prev := s.FatigueMultiplier()
	if prev != 1.0 {
		t.Fatalf("свежая сессия должна начинаться с множителя 1.0, получено %v", prev)
	}
	for i := 0; i < 30; i++ {
		s.NoteAction()
		m := s.FatigueMultiplier()
		if m < prev {
			t.Fatalf("множитель усталости убыл: %v -> %v на действии %d", prev, m, i+1)
		}
		prev = m
	}
	if prev != 1.8 {
		t.Errorf("длинная сессия должна дойти до 1.8, получено %v", prev)
	}

	s.ResetFatigue()
	if s.FatigueMultiplier() != 1.0 {
		t.Errorf("сброс усталости не вернул множитель к 1.0")
	}
}

// TestNightSlowdown: средняя ночная пауза заметно длиннее дневной.
func TestNightSlowdown(t *testing.T) {
	p := DefaultParams()
	// Убираем случайные ветки, чтобы сравнивать только гауссианы.
	p.MicroBreakProb = 0
	p.QuickActionProb = 0

	day := New(10, p, time.UTC)
	day.Now = func() time.Time { return time.Date(2026, 8, 20, 14, 0, 0, 0, time.UTC) }
	night := New(10, p, time.UTC)
	night.Now = func() time.Time { return time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC) }

	var daySum, nightSum time.Duration
	for i := 0; i < 500; i++ {
		daySum += day.Delay(models.ActionLikes)
		nightSum += night.Delay(models.ActionLikes)
	}
	if nightSum <= daySum {
		t.Errorf("ночные паузы должны быть длиннее: день %v, ночь %v", daySum, nightSum)
	}
}

// TestSessionSizeSpread: размер сессии варьируется вокруг базы и не
// вырождается в константу.
func TestSessionSizeSpread(t *testing.T) {
	s := daySampler(4)
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		size := s.SessionSize(10)
		if size < 2 || size > 15 {
			t.Fatalf("размер сессии %d вне границ [2, 15]", size)
		}
		seen[size] = true
	}
	if len(seen) < 5 {
		t.Errorf("размер сессии почти не меняется: %d вариантов", len(seen))
	}
}

// TestDeterministicSeed: одно зерно — одна последовательность решений.
func TestDeterministicSeed(t *testing.T) {
	a := daySampler(42)
	b := daySampler(42)
	for i := 0; i < 100; i++ {
		if a.Delay(models.ActionComments) != b.Delay(models.ActionComments) {
			t.Fatalf("паузы разошлись на шаге %d", i)
		}
		if a.ShouldSkipPost() != b.ShouldSkipPost() {
			t.Fatalf("решения о пропуске разошлись на шаге %d", i)
		}
	}
}

// TestWarmupCount: разогрев сессии — от одного до трёх постов.
func TestWarmupCount(t *testing.T) {
	s := daySampler(5)
	for i := 0; i < 100; i++ {
		if n := s.WarmupCount(); n < 1 || n > 3 {
			t.Fatalf("разогрев %d вне границ [1, 3]", n)
		}
	}
}

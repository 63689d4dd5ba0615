package behavior

import (
	"math/rand"
	"time"

	"smm_go/models"
)

// DelayRange — границы паузы в секундах для одного вида действия.
type DelayRange struct {
	Min int
	Max int
}

// Params — настройки всех случайностей семплера. Каждая ось случайности
// имитирует отдельное измерение человеческой нерегулярности: темп,
// избирательность, усталость, отвлечение. Антибот-эвристики платформ
// ищут равномерность сразу по нескольким независимым сигналам,
// поэтому одной общей «ручки случайности» недостаточно.
type Params struct {
	// Вероятности.
	MicroBreakProb  float64 // отвлёкся на другое приложение
	QuickActionProb float64 // быстрый дабл-тап при пролистывании
	SkipPostProb    float64 // пролистнул пост без действий
	AbortProb       float64 // бросил сессию на середине
	SkipSessionProb float64 // вообще не открыл приложение

	// Паузы.
	MicroBreak     DelayRange            // сек, 1.5–7 минут
	QuickAction    DelayRange            // сек
	BrowsingPause  DelayRange            // сек, пассивный просмотр
	StartupJitter  DelayRange            // сек, разброс старта сессии
	ActionDelays   map[string]DelayRange // паузы по типам действий
	DefaultDelay   DelayRange            // для неизвестных видов
	JitterSubSecMs DelayRange            // субсекундный дребезг, мс

	// Замедление ночью (часы локального времени аккаунта).
	NightMultiplier float64
	NightStartHour  int
	NightEndHour    int

	// Разброс размера сессии, доли от базы.
	SessionSizeLow  float64
	SessionSizeHigh float64
}

// DefaultParams возвращает настройки, откалиброванные под неспешный
// ручной просмотр ленты.
func DefaultParams() Params {
	return Params{
		MicroBreakProb:  0.15,
		QuickActionProb: 0.03,
		SkipPostProb:    0.22,
		AbortProb:       0.12,
		SkipSessionProb: 0.20,

		MicroBreak:    DelayRange{Min: 90, Max: 420},
		QuickAction:   DelayRange{Min: 3, Max: 8},
		BrowsingPause: DelayRange{Min: 3, Max: 15},
		StartupJitter: DelayRange{Min: 30, Max: 360},
		ActionDelays: map[string]DelayRange{
			models.ActionLikes:      {Min: 8, Max: 25},
			models.ActionComments:   {Min: 40, Max: 120},
			models.ActionFollows:    {Min: 30, Max: 80},
			models.ActionStoryViews: {Min: 5, Max: 15},
			models.ActionUnfollows:  {Min: 25, Max: 70},
			models.ActionReplies:    {Min: 35, Max: 100},
		},
		DefaultDelay:   DelayRange{Min: 20, Max: 60},
		JitterSubSecMs: DelayRange{Min: 300, Max: 2500},

		NightMultiplier: 1.4,
		NightStartHour:  23,
		NightEndHour:    7,

		SessionSizeLow:  0.5,
		SessionSizeHigh: 1.5,
	}
}

// Ступени усталости: чем больше действий сделано в сессии, тем длиннее
// паузы — как у человека, теряющего интерес к ленте.
var fatigueSteps = []struct {
	actions    int
	multiplier float64
}{
	{5, 1.0},
	{12, 1.2},
	{20, 1.5},
}

const fatigueMax = 1.8

// Sampler — чистый вероятностно-временной движок сессии. Никакого
// сохраняемого состояния: только счётчик действий текущей сессии для
// модели усталости и внедрённый источник случайности (детерминируемый
// в тестах через seed).
type Sampler struct {
	rng    *rand.Rand
	params Params
	tz     *time.Location

	actions int // выполнено действий в текущей сессии

	// Now подменяется в тестах ночного замедления.
	Now func() time.Time
}

// New создаёт семплер с заданным зерном. В бою зерно берут от времени.
func New(seed int64, params Params, tz *time.Location) *Sampler {
	if tz == nil {
		tz = time.UTC
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(seed)),
		params: params,
		tz:     tz,
		Now:    time.Now,
	}
}

func (s *Sampler) uniform(r DelayRange) time.Duration {
	if r.Max <= r.Min {
		return time.Duration(r.Min) * time.Second
	}
	sec := float64(r.Min) + s.rng.Float64()*float64(r.Max-r.Min)
	return time.Duration(sec * float64(time.Second))
}

// NoteAction продвигает счётчик усталости. Вызывается после каждого
// выполненного действия.
func (s *Sampler) NoteAction() {
	s.actions++
}

// ResetFatigue сбрасывает усталость в начале новой сессии.
func (s *Sampler) ResetFatigue() {
	s.actions = 0
}

// FatigueMultiplier — монотонно неубывающий множитель пауз по позиции
// в сессии: поздние действия медленнее ранних.
func (s *Sampler) FatigueMultiplier() float64 {
	for _, step := range fatigueSteps {
		if s.actions < step.actions {
			return step.multiplier
		}
	}
	return fatigueMax
}

// isNightHours — поздняя ночь по локальному времени аккаунта.
func (s *Sampler) isNightHours() bool {
	h := s.Now().In(s.tz).Hour()
	return h >= s.params.NightStartHour || h < s.params.NightEndHour
}

// Delay возвращает паузу перед следующим действием данного вида.
// Распределение — обрезанная гауссиана вокруг середины диапазона
// (равномерные паузы — классическая сигнатура бота), с поправками на
// усталость и ночное время, плюс субсекундный дребезг. Изредка вместо
// обычной паузы выпадает микро-перерыв или быстрый дабл-тап.
func (s *Sampler) Delay(kind string) time.Duration {
	if s.rng.Float64() < s.params.MicroBreakProb {
		return s.uniform(s.params.MicroBreak)
	}
	if s.rng.Float64() < s.params.QuickActionProb {
		return s.uniform(s.params.QuickAction)
	}

	r, ok := s.params.ActionDelays[kind]
	if !ok {
		r = s.params.DefaultDelay
	}

	night := 1.0
	if s.isNightHours() {
		night = s.params.NightMultiplier
	}
	mid := float64(r.Min+r.Max) / 2 * s.FatigueMultiplier() * night
	std := float64(r.Max-r.Min) / 3.5

	sec := s.rng.NormFloat64()*std + mid
	lo := float64(r.Min) * 0.7
	hi := float64(r.Max) * 2.0
	if sec < lo {
		sec = lo
	}
	if sec > hi {
		sec = hi
	}

	jitterMs := float64(s.params.JitterSubSecMs.Min) +
		s.rng.Float64()*float64(s.params.JitterSubSecMs.Max-s.params.JitterSubSecMs.Min)
	return time.Duration(sec*float64(time.Second)) + time.Duration(jitterMs)*time.Millisecond
}

// Chance — общий бросок монеты с заданной вероятностью.
func (s *Sampler) Chance(probability float64) bool {
	return s.rng.Float64() < probability
}

// ShouldSkipPost — пролистнуть пост без какого-либо действия.
func (s *Sampler) ShouldSkipPost() bool {
	return s.Chance(s.params.SkipPostProb)
}

// ShouldAbortSession проверяется после каждой единицы работы, чтобы
// длинные сессии могли оборваться досрочно (телефон зазвонил, надоело).
func (s *Sampler) ShouldAbortSession() bool {
	return s.Chance(s.params.AbortProb)
}

// ShouldSkipSession — не запускать запланированную сессию вовсе:
// люди не проверяют ленту по идеальному расписанию.
func (s *Sampler) ShouldSkipSession() bool {
	return s.Chance(s.params.SkipSessionProb)
}

// SessionSize возвращает базовый размер сессии с разбросом ±50%,
// чтобы две сессии не выглядели одинаково.
func (s *Sampler) SessionSize(base int) int {
	lo := int(float64(base) * s.params.SessionSizeLow)
	if lo < 2 {
		lo = 2
	}
	hi := int(float64(base) * s.params.SessionSizeHigh)
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// StartupJitter — пауза на старте сессии: реальные люди не открывают
// приложение секунда в секунду по расписанию.
func (s *Sampler) StartupJitter() time.Duration {
	return s.uniform(s.params.StartupJitter)
}

// BrowsingPause — пассивный просмотр без действий, просто смотрим.
func (s *Sampler) BrowsingPause() time.Duration {
	return s.uniform(s.params.BrowsingPause)
}

// WarmupCount — сколько первых постов сессии только просматриваем.
func (s *Sampler) WarmupCount() int {
	return 1 + s.rng.Intn(3)
}

package router

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"smm_go/models"

	"gopkg.in/yaml.v3"
)

// ErrUnknownToken — токен расписания отсутствует в таблице маршрутизации.
var ErrUnknownToken = errors.New("router: неизвестный токен расписания")

// Route — одна строка таблицы маршрутизации: какому аккаунту и какому
// типу сессии соответствует токен внешнего диспетчера.
type Route struct {
	Account   string `yaml:"account"`
	Session   string `yaml:"session"`
	Publish   bool   `yaml:"publish"`
	MaxJitter int    `yaml:"max_jitter_seconds"`
}

// Table — статическая таблица маршрутизации. Ключ — токен расписания.
// Маршрутизация идёт строго по идентичности токена, а не по наблюдаемому
// времени: внешний диспетчер опаздывает на десятки минут, и опоздавшая
// утренняя сессия по часам выглядела бы как соседняя.
type Table struct {
	routes map[string]Route
}

// Встроенное расписание основного аккаунта: 14 сессий в день, две с
// публикацией (обед и прайм-тайм), с разнотипной активностью между ними.
var defaultSchedule = map[string]Route{
	"morning_0700":     {Session: models.SessionMorning, MaxJitter: 360},
	"replies_0900":     {Session: models.SessionReplies, MaxJitter: 360},
	"stories_1000":     {Session: models.SessionStories, MaxJitter: 300},
	"hashtags_1100":    {Session: models.SessionHashtags, MaxJitter: 360},
	"explore_1300":     {Session: models.SessionExplore, Publish: true, MaxJitter: 360},
	"stories_1400":     {Session: models.SessionStories, MaxJitter: 300},
	"hashtags_1500":    {Session: models.SessionHashtags, MaxJitter: 360},
	"maintenance_1700": {Session: models.SessionMaintenance, MaxJitter: 120},
	"stories_1800":     {Session: models.SessionStories, MaxJitter: 300},
	"full_1900":        {Session: models.SessionFull, Publish: true, MaxJitter: 360},
	"hashtags_2030":    {Session: models.SessionHashtags, MaxJitter: 360},
	"replies_2130":     {Session: models.SessionReplies, MaxJitter: 360},
	"maintenance_2300": {Session: models.SessionMaintenance, MaxJitter: 120},
	"report_2330":      {Session: models.SessionReport, MaxJitter: 0},
}

// DefaultTable возвращает встроенную таблицу для одного аккаунта.
func DefaultTable(accountID string) *Table {
	routes := make(map[string]Route, len(defaultSchedule))
	for token, r := range defaultSchedule {
		r.Account = accountID
		routes[token] = r
	}
	return &Table{routes: routes}
}

// LoadTable читает таблицу из YAML-файла вида token -> Route.
// Неизвестные поля и неизвестные типы сессий отклоняются при загрузке,
// а не глубоко внутри логики сессии.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие таблицы маршрутизации: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	raw := map[string]Route{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("разбор таблицы маршрутизации: %w", err)
	}

	for token, r := range raw {
		if strings.TrimSpace(r.Account) == "" {
			return nil, fmt.Errorf("токен %q: не указан аккаунт", token)
		}
		if !knownSession(r.Session) {
			return nil, fmt.Errorf("токен %q: неизвестный тип сессии %q", token, r.Session)
		}
		if r.MaxJitter < 0 {
			return nil, fmt.Errorf("токен %q: отрицательный джиттер", token)
		}
	}
	return &Table{routes: raw}, nil
}

func knownSession(session string) bool {
	for _, s := range models.SessionTypes {
		if s == session {
			return true
		}
	}
	return false
}

// Resolve превращает токен расписания в дескриптор сессии.
// Джиттер детерминирован в пределах суток: хэш от токена и даты,
// поэтому повторная инвокация того же слота получает тот же разброс.
func (t *Table) Resolve(token string, day time.Time) (models.SessionDescriptor, error) {
	r, ok := t.routes[token]
	if !ok {
		return models.SessionDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}

	jitter := 0
	if r.MaxJitter > 0 {
		h := fnv.New32a()
		h.Write([]byte(token))
		h.Write([]byte(day.UTC().Format("2006-01-02")))
		jitter = int(h.Sum32() % uint32(r.MaxJitter+1))
	}

	return models.SessionDescriptor{
		ScheduleToken: token,
		AccountID:     r.Account,
		SessionType:   r.Session,
		Publish:       r.Publish,
		JitterSeconds: jitter,
	}, nil
}

// Tokens возвращает все известные токены — для справки в CLI и логах.
func (t *Table) Tokens() []string {
	tokens := make([]string, 0, len(t.routes))
	for token := range t.routes {
		tokens = append(tokens, token)
	}
	return tokens
}

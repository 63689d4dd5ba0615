package router

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smm_go/models"
)

var day = time.Date(2026, 8, 20, 19, 47, 0, 0, time.UTC)

// TestResolveKnownToken: токен разрешается в дескриптор своей строки
// таблицы, джиттер в пределах лимита.
func TestResolveKnownToken(t *testing.T) {
	table := DefaultTable("maya")
	desc, err := table.Resolve("full_1900", day)
	if err != nil {
		t.Fatalf("разрешение токена: %v", err)
	}
	if desc.AccountID != "maya" || desc.SessionType != models.SessionFull || !desc.Publish {
		t.Errorf("неверный дескриптор: %+v", desc)
	}
	if desc.JitterSeconds < 0 || desc.JitterSeconds > 360 {
		t.Errorf("джиттер %d вне лимита", desc.JitterSeconds)
	}
}

// TestResolveUnknownToken: неизвестный токен — ErrUnknownToken.
func TestResolveUnknownToken(t *testing.T) {
	table := DefaultTable("maya")
	_, err := table.Resolve("lunch_1200", day)
	if !errors.Is(err, ErrUnknownToken) {
		t.Errorf("ожидалась ErrUnknownToken, получено %v", err)
	}
}

// TestResolveIgnoresClock: наблюдаемое время суток не влияет на выбор
// сессии — опоздавший диспетчер получает ту же сессию.
func TestResolveIgnoresClock(t *testing.T) {
	table := DefaultTable("maya")
	onTime, _ := table.Resolve("morning_0700", day)
	lateSameDay, _ := table.Resolve("morning_0700", day.Add(40*time.Minute))
	if onTime != lateSameDay {
		t.Errorf("опоздание внутри суток изменило дескриптор: %+v != %+v", onTime, lateSameDay)
	}
}

// TestResolveJitterDeterministic: джиттер стабилен в пределах суток и
// меняется от даты к дате.
func TestResolveJitterDeterministic(t *testing.T) {
	table := DefaultTable("maya")
	a, _ := table.Resolve("hashtags_1100", day)
	b, _ := table.Resolve("hashtags_1100", day)
	if a.JitterSeconds != b.JitterSeconds {
		t.Errorf("джиттер нестабилен в пределах суток: %d != %d", a.JitterSeconds, b.JitterSeconds)
	}

	changed := false
	for i := 1; i <= 7; i++ {
		next, _ := table.Resolve("hashtags_1100", day.AddDate(0, 0, i))
		if next.JitterSeconds != a.JitterSeconds {
			changed = true
			break
		}
	}
	if !changed {
		t.Errorf("джиттер не меняется по датам")
	}
}

// TestLoadTable: YAML-таблица читается, проверяется и разрешается.
func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	raw := `
custom_0800:
  account: maya
  session: hashtags
  publish: true
  max_jitter_seconds: 120
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("подготовка файла: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("чтение таблицы: %v", err)
	}
	desc, err := table.Resolve("custom_0800", day)
	if err != nil {
		t.Fatalf("разрешение токена: %v", err)
	}
	if desc.SessionType != models.SessionHashtags || !desc.Publish || desc.JitterSeconds > 120 {
		t.Errorf("неверный дескриптор: %+v", desc)
	}
}

// TestLoadTableRejectsBadSession: неизвестный тип сессии отклоняется при
// загрузке, а не глубоко внутри логики.
func TestLoadTableRejectsBadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	raw := `
bad_0800:
  account: maya
  session: doomscroll
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("подготовка файла: %v", err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Errorf("таблица с неизвестной сессией должна отклоняться")
	}
}

// TestLoadTableRejectsUnknownField: опечатка в ключе — ошибка загрузки.
func TestLoadTableRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	raw := `
typo_0800:
  account: maya
  session: hashtags
  publsh: true
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("подготовка файла: %v", err)
	}
	if _, err := LoadTable(path); err == nil {
		t.Errorf("таблица с неизвестным полем должна отклоняться")
	}
}

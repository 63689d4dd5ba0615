package config

import (
	"testing"
)

// TestLoadUsesPersonaWarmup: график прогрева из персоны попадает в
// конфигурацию вместо графика по умолчанию.
func TestLoadUsesPersonaWarmup(t *testing.T) {
	path := writePersona(t, `
id: maya
warmup:
  - {days: 5, multiplier: 0.4}
  - {days: 0, multiplier: 1.0}
`)
	t.Setenv("PERSONA_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("загрузка конфигурации: %v", err)
	}
	if len(cfg.Warmup) != 2 || cfg.Warmup[0].Days != 5 || cfg.Warmup[0].Multiplier != 0.4 {
		t.Errorf("ожидался график из персоны, получено %+v", cfg.Warmup)
	}
}

// TestLoadDefaultWarmup: без графика в персоне действует график по
// умолчанию.
func TestLoadDefaultWarmup(t *testing.T) {
	path := writePersona(t, `
id: maya
`)
	t.Setenv("PERSONA_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("загрузка конфигурации: %v", err)
	}
	if len(cfg.Warmup) != 4 || cfg.Warmup[0].Multiplier != 0.5 {
		t.Errorf("ожидался график по умолчанию, получено %+v", cfg.Warmup)
	}
}

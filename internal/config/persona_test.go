package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writePersona(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("подготовка файла: %v", err)
	}
	return path
}

// TestLoadPersona: минимальный файл читается, значения по умолчанию
// подставляются.
func TestLoadPersona(t *testing.T) {
	path := writePersona(t, `
id: maya
name: Maya
hashtags:
  brand: [mayastyle]
`)
	p, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("чтение персоны: %v", err)
	}
	if p.Mode != PersonaModePrimary {
		t.Errorf("режим по умолчанию должен быть primary, получено %s", p.Mode)
	}
	if p.PostIDPrefix != "maya" {
		t.Errorf("префикс по умолчанию — id персоны, получено %s", p.PostIDPrefix)
	}
	if p.DefaultFormat != "reel" {
		t.Errorf("формат по умолчанию — reel, получено %s", p.DefaultFormat)
	}
	if p.IsSatellite() {
		t.Errorf("primary-персона не спутник")
	}
}

// TestLoadPersonaUnknownField: опечатка в ключе — ошибка загрузки.
func TestLoadPersonaUnknownField(t *testing.T) {
	path := writePersona(t, `
id: maya
nmae: Maya
`)
	if _, err := LoadPersona(path); err == nil {
		t.Errorf("файл с неизвестным полем должен отклоняться")
	}
}

// TestLoadPersonaBadMode: неизвестный режим отклоняется.
func TestLoadPersonaBadMode(t *testing.T) {
	path := writePersona(t, `
id: maya
mode: ghost
`)
	if _, err := LoadPersona(path); err == nil {
		t.Errorf("неизвестный режим должен отклоняться")
	}
}

// TestLoadPersonaEmptyID: пустой id отклоняется.
func TestLoadPersonaEmptyID(t *testing.T) {
	path := writePersona(t, `
name: Maya
`)
	if _, err := LoadPersona(path); err == nil {
		t.Errorf("персона без id должна отклоняться")
	}
}

// TestLoadPersonaCrossPromo: блок cross_promo читается, вероятность
// упоминания по умолчанию подставляется при наличии партнёров.
func TestLoadPersonaCrossPromo(t *testing.T) {
	path := writePersona(t, `
id: maya
cross_promo:
  partner_accounts: [aryan.xyz]
  mention_templates:
    - "сняли вместе с @{partner}"
`)
	p, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("чтение персоны: %v", err)
	}
	if len(p.CrossPromo.PartnerAccounts) != 1 || p.CrossPromo.PartnerAccounts[0] != "aryan.xyz" {
		t.Errorf("партнёры не прочитаны: %+v", p.CrossPromo)
	}
	if p.CrossPromo.MentionProbability != defaultMentionProbability {
		t.Errorf("ожидалась вероятность по умолчанию, получено %v", p.CrossPromo.MentionProbability)
	}
}

// TestLoadPersonaCrossPromoBadProbability: вероятность вне [0, 1]
// отклоняется.
func TestLoadPersonaCrossPromoBadProbability(t *testing.T) {
	path := writePersona(t, `
id: maya
cross_promo:
  partner_accounts: [aryan.xyz]
  mention_probability: 1.5
`)
	if _, err := LoadPersona(path); err == nil {
		t.Errorf("вероятность больше единицы должна отклоняться")
	}
}

// TestLoadPersonaWarmup: собственный график прогрева читается и
// валидируется.
func TestLoadPersonaWarmup(t *testing.T) {
	path := writePersona(t, `
id: maya
warmup:
  - {days: 5, multiplier: 0.4}
  - {days: 10, multiplier: 0.7}
  - {days: 0, multiplier: 1.0}
`)
	p, err := LoadPersona(path)
	if err != nil {
		t.Fatalf("чтение персоны: %v", err)
	}
	if len(p.Warmup) != 3 || p.Warmup[0].Days != 5 || p.Warmup[0].Multiplier != 0.4 {
		t.Errorf("график прогрева не прочитан: %+v", p.Warmup)
	}
}

// TestLoadPersonaWarmupInvalid: невозрастающие ступени и график без
// замыкающей ступени отклоняются.
func TestLoadPersonaWarmupInvalid(t *testing.T) {
	cases := map[string]string{
		"невозрастающие дни": `
id: maya
warmup:
  - {days: 10, multiplier: 0.4}
  - {days: 5, multiplier: 0.7}
  - {days: 0, multiplier: 1.0}
`,
		"нет замыкающей ступени": `
id: maya
warmup:
  - {days: 5, multiplier: 0.4}
  - {days: 10, multiplier: 0.7}
`,
		"множитель вне диапазона": `
id: maya
warmup:
  - {days: 5, multiplier: 1.4}
  - {days: 0, multiplier: 1.0}
`,
	}
	for name, raw := range cases {
		if _, err := LoadPersona(writePersona(t, raw)); err == nil {
			t.Errorf("%s: график должен отклоняться", name)
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strings"

	"smm_go/pkg/budget"

	"gopkg.in/yaml.v3"
)

// Режимы персоны. Спутниковые аккаунты ведут только вовлечение:
// у них нет очереди контента и публикаций.
const (
	PersonaModePrimary   = "primary"
	PersonaModeSatellite = "satellite"
)

// PersonaHashtags — пулы хэштегов пирамидной стратегии: бренд + широкий
// + средние + нишевый в подписи, остальное — в первый комментарий.
type PersonaHashtags struct {
	Brand          []string `yaml:"brand"`
	Broad          []string `yaml:"broad"`
	Medium         []string `yaml:"medium"`
	Niche          []string `yaml:"niche"`
	Carousel       []string `yaml:"carousel"`
	KeywordPhrases []string `yaml:"keyword_phrases"`
}

// PersonaCrossPromo — взаимное продвижение основных аккаунтов: лайки и
// редкие комментарии под постами партнёра плюс случайные упоминания в
// собственных подписях. Шаблон упоминания содержит маркер {partner},
// который заменяется ником партнёра.
type PersonaCrossPromo struct {
	PartnerAccounts    []string `yaml:"partner_accounts"`
	MentionProbability float64  `yaml:"mention_probability"`
	MentionTemplates   []string `yaml:"mention_templates"`
}

// Persona — проверяемая конфигурация аккаунта из YAML-файла.
// Поля перечислены явно, неизвестные ключи отклоняются при загрузке,
// а не всплывают ошибкой глубоко внутри логики сессии.
type Persona struct {
	ID               string              `yaml:"id"`
	Name             string              `yaml:"name"`
	Mode             string              `yaml:"mode"`
	PostIDPrefix     string              `yaml:"post_id_prefix"`
	Timezone         string              `yaml:"timezone"`
	CreatedAt        string              `yaml:"created_at"` // YYYY-MM-DD; пусто — прогрев выключен
	Hashtags         PersonaHashtags     `yaml:"hashtags"`
	EngagementTags   []string            `yaml:"engagement_hashtags"`
	TargetAccounts   []string            `yaml:"target_accounts"`
	CaptionTemplates []string            `yaml:"caption_templates"`
	DefaultFormat    string              `yaml:"default_format"`
	CrossPromo       PersonaCrossPromo   `yaml:"cross_promo"`
	Warmup           []budget.WarmupStep `yaml:"warmup"` // пусто — график по умолчанию
}

// LoadPersona читает и валидирует файл персоны.
func LoadPersona(path string) (*Persona, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие файла персоны: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var p Persona
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("разбор файла персоны: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Persona) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("персона: пустой id")
	}
	if p.Mode == "" {
		p.Mode = PersonaModePrimary
	}
	if p.Mode != PersonaModePrimary && p.Mode != PersonaModeSatellite {
		return fmt.Errorf("персона %s: неизвестный режим %q", p.ID, p.Mode)
	}
	if p.PostIDPrefix == "" {
		p.PostIDPrefix = p.ID
	}
	if p.DefaultFormat == "" {
		p.DefaultFormat = "reel"
	}
	cp := &p.CrossPromo
	if cp.MentionProbability < 0 || cp.MentionProbability > 1 {
		return fmt.Errorf("персона %s: cross_promo.mention_probability вне [0, 1]", p.ID)
	}
	if cp.MentionProbability == 0 && len(cp.PartnerAccounts) > 0 {
		cp.MentionProbability = defaultMentionProbability
	}
	if err := validateWarmup(p.Warmup); err != nil {
		return fmt.Errorf("персона %s: %w", p.ID, err)
	}
	return nil
}

// defaultMentionProbability — доля публикаций с упоминанием партнёра.
const defaultMentionProbability = 0.12

// validateWarmup проверяет график прогрева: ступени идут по возрастанию
// дней, замыкающая ступень задаётся days = 0 («и далее»), множители в
// (0, 1]. Пустой график допустим — действует график по умолчанию.
func validateWarmup(steps []budget.WarmupStep) error {
	if len(steps) == 0 {
		return nil
	}
	prev := 0
	for i, s := range steps {
		if s.Multiplier <= 0 || s.Multiplier > 1 {
			return fmt.Errorf("warmup: ступень %d: множитель %v вне (0, 1]", i, s.Multiplier)
		}
		last := i == len(steps)-1
		if last {
			if s.Days != 0 {
				return fmt.Errorf("warmup: последняя ступень должна иметь days = 0")
			}
			continue
		}
		if s.Days <= prev {
			return fmt.Errorf("warmup: ступень %d: days %d не возрастает", i, s.Days)
		}
		prev = s.Days
	}
	return nil
}

// IsSatellite сообщает, является ли персона спутниковым аккаунтом.
func (p *Persona) IsSatellite() bool {
	return p.Mode == PersonaModeSatellite
}

package config

import (
	"fmt"
	"strings"
	"time"

	"smm_go/models"
	"smm_go/pkg/budget"
)

// Бэкенды хранилища снимков.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config — полная конфигурация одной инвокации. Собирается из
// окружения и файла персоны, валидируется при загрузке.
type Config struct {
	// Аккаунт.
	Persona          *Persona
	AccountID        string
	Timezone         *time.Location
	AccountCreatedAt *time.Time

	// Лимиты и прогрев.
	DailyCaps map[string]int
	Warmup    []budget.WarmupStep

	// Очередь контента.
	DraftCount         int
	MinReadyQueue      int
	AutoPromoteDrafts  bool
	AutoPromoteStatus  string // approved | ready
	ScheduleInterval   time.Duration
	ScheduleLead       time.Duration
	MaxPublishAttempts int
	MediaDir           string
	MediaMinBytes      int64

	// Вовлечение.
	EngagementEnabled bool
	CommentEnabled    bool
	FollowEnabled     bool
	Platforms         []string // включённые платформы публикации

	// Хранилище состояния.
	StateBackend string
	StateDir     string
	PostgresDSN  string

	// Таблица маршрутизации (пусто — встроенная).
	RoutingTablePath string
}

// Load собирает конфигурацию из окружения и файла персоны.
func Load() (*Config, error) {
	personaPath := GetEnv("PERSONA_FILE", "personas/maya.yaml")
	persona, err := LoadPersona(personaPath)
	if err != nil {
		return nil, err
	}

	tz := time.UTC
	if persona.Timezone != "" {
		tz, err = time.LoadLocation(persona.Timezone)
		if err != nil {
			return nil, fmt.Errorf("персона %s: таймзона: %w", persona.ID, err)
		}
	}

	var createdAt *time.Time
	if raw := strings.TrimSpace(GetEnv("ACCOUNT_CREATED_DATE", persona.CreatedAt)); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, tz)
		if err != nil {
			return nil, fmt.Errorf("дата создания аккаунта %q: %w", raw, err)
		}
		createdAt = &parsed
	}

	caps := map[string]int{}
	for actionType, def := range budget.DefaultCaps {
		caps[actionType] = def
	}
	caps[models.ActionLikes] = GetEnvInt("ENGAGEMENT_DAILY_LIKES", caps[models.ActionLikes])
	caps[models.ActionComments] = GetEnvInt("ENGAGEMENT_DAILY_COMMENTS", caps[models.ActionComments])
	caps[models.ActionFollows] = GetEnvInt("ENGAGEMENT_DAILY_FOLLOWS", caps[models.ActionFollows])

	promoteStatus := strings.ToLower(GetEnv("AUTO_PROMOTE_STATUS", models.PostStateApproved))
	if promoteStatus != models.PostStateApproved && promoteStatus != models.PostStateReady {
		return nil, fmt.Errorf("AUTO_PROMOTE_STATUS должен быть approved или ready, получено %q", promoteStatus)
	}

	backend := GetEnv("STATE_BACKEND", BackendFile)
	if backend != BackendFile && backend != BackendPostgres {
		return nil, fmt.Errorf("STATE_BACKEND должен быть file или postgres, получено %q", backend)
	}
	dsn := GetEnv("STATE_POSTGRES_DSN", "")
	if backend == BackendPostgres && dsn == "" {
		return nil, fmt.Errorf("STATE_BACKEND=postgres требует STATE_POSTGRES_DSN")
	}

	platforms := []string{models.PlatformInstagram}
	if GetEnvBool("YOUTUBE_ENABLED", false) {
		platforms = append(platforms, models.PlatformYouTube)
	}

	// График прогрева берётся из персоны; без него — по умолчанию.
	// Валидность ступеней проверена при загрузке персоны.
	warmup := budget.DefaultWarmup
	if len(persona.Warmup) > 0 {
		warmup = persona.Warmup
	}

	cfg := &Config{
		Persona:          persona,
		AccountID:        persona.ID,
		Timezone:         tz,
		AccountCreatedAt: createdAt,

		DailyCaps: caps,
		Warmup:    warmup,

		DraftCount:         GetEnvInt("DRAFT_COUNT", 3),
		MinReadyQueue:      GetEnvInt("MIN_READY_QUEUE", 5),
		AutoPromoteDrafts:  GetEnvBool("AUTO_PROMOTE_DRAFTS", false),
		AutoPromoteStatus:  promoteStatus,
		ScheduleInterval:   time.Duration(GetEnvInt("AUTO_SCHEDULE_INTERVAL_MINUTES", 240)) * time.Minute,
		ScheduleLead:       time.Duration(GetEnvInt("AUTO_SCHEDULE_LEAD_MINUTES", 30)) * time.Minute,
		MaxPublishAttempts: GetEnvInt("MAX_PUBLISH_ATTEMPTS", 3),
		MediaDir:           GetEnv("MEDIA_DIR", "data/"+persona.ID+"/media"),
		MediaMinBytes:      int64(GetEnvInt("MEDIA_MIN_BYTES", 10*1024)),

		EngagementEnabled: GetEnvBool("ENGAGEMENT_ENABLED", true),
		CommentEnabled:    GetEnvBool("ENGAGEMENT_COMMENT_ENABLED", false),
		FollowEnabled:     GetEnvBool("ENGAGEMENT_FOLLOW_ENABLED", false),
		Platforms:         platforms,

		StateBackend: backend,
		StateDir:     GetEnv("STATE_DIR", "data/state"),
		PostgresDSN:  dsn,

		RoutingTablePath: GetEnv("ROUTING_TABLE", ""),
	}

	if cfg.DraftCount < 1 || cfg.MinReadyQueue < 1 {
		return nil, fmt.Errorf("DRAFT_COUNT и MIN_READY_QUEUE должны быть не меньше 1")
	}
	if cfg.MaxPublishAttempts < 1 {
		return nil, fmt.Errorf("MAX_PUBLISH_ATTEMPTS должен быть не меньше 1")
	}
	return cfg, nil
}

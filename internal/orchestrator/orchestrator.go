package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"smm_go/internal/config"
	"smm_go/models"
	"smm_go/pkg/behavior"
	"smm_go/pkg/budget"
	"smm_go/pkg/platform"
	"smm_go/pkg/queue"
	"smm_go/pkg/storage"

	"github.com/sirupsen/logrus"
)

// Modes — режимы запуска инвокации из CLI.
type Modes struct {
	DryRun     bool
	NoGenerate bool
	NoPublish  bool
	NoEngage   bool
}

// Collaborators — внешние коллабораторы конвейера. Все сетевые вызовы
// уходят сюда; оркестратор знает только интерфейсы.
type Collaborators struct {
	Generator platform.ContentGenerator
	Media     platform.MediaFinder
	Publisher platform.Publisher
	Engagers  map[string]platform.Engager // по платформам
}

// Orchestrator склеивает компоненты одной инвокации: маршрутизация уже
// выполнена, остаётся загрузить состояние, прогнать сессию и записать
// результат через CAS-протокол хранилища.
type Orchestrator struct {
	Cfg     *config.Config
	Store   storage.StateStore
	Col     Collaborators
	Sampler *behavior.Sampler
	Limiter *budget.Limiter
	Log     *logrus.Logger

	rng *rand.Rand

	// Now подменяется в тестах.
	Now func() time.Time
}

// New собирает оркестратор. Seed управляет всеми случайностями
// инвокации — в тестах фиксируется.
func New(cfg *config.Config, store storage.StateStore, col Collaborators, log *logrus.Logger, seed int64) *Orchestrator {
	sampler := behavior.New(seed, behavior.DefaultParams(), cfg.Timezone)
	limiter := budget.NewLimiter(cfg.AccountID, cfg.DailyCaps, cfg.Warmup, cfg.AccountCreatedAt, cfg.Timezone)
	return &Orchestrator{
		Cfg:     cfg,
		Store:   store,
		Col:     col,
		Sampler: sampler,
		Limiter: limiter,
		Log:     log,
		rng:     rand.New(rand.NewSource(seed)),
		Now:     time.Now,
	}
}

func (o *Orchestrator) loadOrEmpty() *models.Snapshot {
	snap, _, err := o.Store.Load(o.Cfg.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.NewSnapshot()
	}
	if err != nil {
		o.Log.WithError(err).Warn("[ORCH] не удалось прочитать снимок, работаем с пустым")
		return models.NewSnapshot()
	}
	return snap
}

// ErrAccountMismatch — дескриптор адресован не тому аккаунту, который
// сконфигурирован в этом процессе. Ошибка программного контракта:
// молчаливый запуск записал бы чужую сессию в снимок нашей персоны.
var ErrAccountMismatch = errors.New("orchestrator: аккаунт дескриптора не совпадает с персоной")

// Run выполняет одну инвокацию по дескриптору сессии. Итог возвращается
// всегда, даже при фатальной ошибке, чтобы оператор видел картину.
func (o *Orchestrator) Run(ctx context.Context, desc models.SessionDescriptor, modes Modes) (*models.SessionSummary, error) {
	summary := models.NewSessionSummary(desc, o.Now())
	defer func() {
		summary.FinishedAt = o.Now()
		snap := o.loadOrEmpty()
		summary.Remaining = o.Limiter.RemainingAll(snap)
	}()

	// Снимок, лимиты и публикации привязаны к аккаунту персоны, поэтому
	// дескриптор другого аккаунта выполнять нельзя.
	if desc.AccountID != o.Cfg.AccountID {
		err := fmt.Errorf("%w: %q != %q", ErrAccountMismatch, desc.AccountID, o.Cfg.AccountID)
		summary.AddError(err)
		return summary, err
	}

	log := o.Log.WithFields(logrus.Fields{
		"token":   desc.ScheduleToken,
		"account": desc.AccountID,
		"session": desc.SessionType,
	})

	if modes.DryRun {
		o.dryRun(log)
		return summary, nil
	}

	// Часть запланированных сессий пропускается целиком: люди не
	// проверяют ленту по идеальному расписанию. Обслуживание и отчёты
	// не пропускаем — они не видны платформе.
	if desc.SessionType != models.SessionMaintenance &&
		desc.SessionType != models.SessionReport &&
		o.Sampler.ShouldSkipSession() {
		summary.Skipped = true
		log.Info("[ORCH] сессия пропущена (имитация занятости)")
		return summary, nil
	}

	o.Sampler.ResetFatigue()

	// Разброс старта: детерминированный джиттер слота плюс случайная
	// задержка открытия приложения.
	if desc.SessionType != models.SessionReport {
		jitter := time.Duration(desc.JitterSeconds)*time.Second + o.Sampler.StartupJitter()
		log.WithField("jitter", jitter.String()).Debug("[ORCH] пауза перед стартом сессии")
		if err := behavior.Wait(ctx, jitter); err != nil {
			return summary, err
		}
	}

	satellite := o.Cfg.Persona.IsSatellite()

	if !modes.NoGenerate && !satellite {
		if err := o.runContentPipeline(ctx, summary); err != nil {
			return summary, err
		}
	}

	if desc.Publish && !modes.NoPublish && !satellite {
		if err := o.runPublish(ctx, summary); err != nil {
			return summary, err
		}
	}

	// Отчёт — не вовлечение: он пишется и при выключенном вовлечении.
	if desc.SessionType == models.SessionReport {
		if err := o.runReportSession(summary); err != nil {
			return summary, err
		}
	} else if !modes.NoEngage && o.Cfg.EngagementEnabled {
		if err := o.runSession(ctx, desc.SessionType, summary); err != nil {
			return summary, err
		}
	}

	log.WithFields(logrus.Fields{
		"actions": summary.Actions,
		"errors":  len(summary.Errors),
		"aborted": summary.Aborted,
	}).Info("[ORCH] сессия завершена")
	return summary, nil
}

// dryRun печатает следующий пост к публикации и ничего не меняет.
func (o *Orchestrator) dryRun(log *logrus.Entry) {
	snap := o.loadOrEmpty()
	posts := make([]models.Post, len(snap.Queue))
	copy(posts, snap.Queue)
	queue.AdvanceReady(posts, o.Now())
	post := queue.NextEligible(posts, o.Now(), o.Cfg.Platforms)
	if post == nil {
		log.Info("[ORCH] dry-run: нет постов, готовых к публикации")
		return
	}
	log.WithFields(logrus.Fields{
		"post":         post.ID,
		"format":       post.Format,
		"state":        post.State,
		"scheduled_at": post.ScheduledAt,
	}).Info("[ORCH] dry-run: следующий пост к публикации")
}

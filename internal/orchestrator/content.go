package orchestrator

import (
	"context"

	"smm_go/models"
	"smm_go/pkg/queue"
	"smm_go/pkg/storage"
)

// runContentPipeline пополняет очередь контента: генерация черновиков
// при просевшей очереди, привязка медиа, автопродвижение и подготовка
// постов к публикации. Внешние вызовы (генератор, поиск медиа) делаются
// до мутации, чтобы CAS-повтор не дёргал коллабораторов заново.
func (o *Orchestrator) runContentPipeline(ctx context.Context, summary *models.SessionSummary) error {
	snap := o.loadOrEmpty()
	now := o.Now()

	// Генерация новых черновиков, пока публикуемых постов мало.
	var drafts []models.Post
	if queue.PublishableCount(snap.Queue) < o.Cfg.MinReadyQueue {
		topics := o.Cfg.Persona.Hashtags.KeywordPhrases
		for i := 0; i < o.Cfg.DraftCount; i++ {
			topic := "daily look"
			if len(topics) > 0 {
				topic = topics[o.rng.Intn(len(topics))]
			}
			content, err := o.Col.Generator.Generate(ctx, topic, o.Cfg.Persona.Name)
			if err != nil {
				// Отказ генератора не фатален: запасные шаблоны уже
				// испробованы внутри FallbackGenerator.
				summary.AddError(err)
				break
			}
			drafts = append(drafts, models.Post{
				// ID назначается внутри мутации по свежей очереди.
				Format:    o.Cfg.Persona.DefaultFormat,
				State:     models.PostStateDraft,
				Topic:     content.Topic,
				Caption:   content.Caption,
				AltText:   content.AltText,
				Platforms: map[string]models.PlatformResult{},
				CreatedAt: now,
			})
		}
	}

	// Поиск медиа для постов без привязки. Новые черновики получат
	// медиа на следующей инвокации, когда появятся их файлы.
	assets := map[string][]models.MediaAsset{}
	for i := range snap.Queue {
		p := &snap.Queue[i]
		if p.State != models.PostStateDraft && p.State != models.PostStateApproved {
			continue
		}
		if p.HasMedia() {
			continue
		}
		found, err := o.Col.Media.FindMedia(p.ID)
		if err != nil {
			summary.AddError(err)
			continue
		}
		if len(found) > 0 {
			assets[p.ID] = found
		}
	}

	_, _, err := storage.Update(o.Store, o.Cfg.AccountID, func(fresh *models.Snapshot) error {
		for _, d := range drafts {
			d.ID = queue.NextPostID(fresh.Queue, o.Cfg.Persona.PostIDPrefix)
			fresh.Queue = append(fresh.Queue, d)
		}
		if linked := queue.LinkMedia(fresh.Queue, assets, o.Cfg.MediaMinBytes); linked > 0 {
			o.Log.WithField("linked", linked).Info("[CONTENT] привязаны медиафайлы")
		}
		if o.Cfg.AutoPromoteDrafts {
			promoted := queue.PromoteDrafts(fresh.Queue, now, queue.PromoteConfig{
				TargetState: o.Cfg.AutoPromoteStatus,
				Interval:    o.Cfg.ScheduleInterval,
				Lead:        o.Cfg.ScheduleLead,
			})
			if promoted > 0 {
				o.Log.WithField("promoted", promoted).Info("[CONTENT] продвинуты черновики")
			}
		}
		queue.ReviveFailed(fresh.Queue, o.Cfg.MaxPublishAttempts)
		queue.AdvanceReady(fresh.Queue, now)
		return nil
	})
	if err != nil {
		return err
	}

	if len(drafts) > 0 {
		o.Log.WithField("drafts", len(drafts)).Info("[CONTENT] сгенерированы черновики")
	}
	return nil
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"smm_go/models"
	"smm_go/pkg/platform"
	"smm_go/pkg/queue"
	"smm_go/pkg/storage"
)

// runPublish публикует следующий подходящий пост на всех включённых
// платформах. Переход в posted защищён CAS: из двух перекрывающихся
// инвокаций публикацию засчитывает только победившая запись, проигравшая
// видит ErrAlreadyPosted при повторе мутации и пропускает пост.
//
// Внешний вызов публикации и CAS-запись — две отдельные операции:
// падение между ними оставляет реальную публикацию без отметки posted.
// Это принятая at-least-once семантика внешнего эффекта; смягчение —
// свежая проверка статуса перед вызовом и класс ошибки
// KindAlreadyPublished, считающийся успехом.
func (o *Orchestrator) runPublish(ctx context.Context, summary *models.SessionSummary) error {
	snap := o.loadOrEmpty()
	now := o.Now()

	post := queue.NextEligible(snap.Queue, now, o.Cfg.Platforms)
	if post == nil {
		o.Log.Info("[PUBLISH] нет постов, готовых к публикации")
		return nil
	}

	text := MaybePartnerMention(o.Cfg.Persona.CrossPromo, post.Caption, o.rng)
	caption, firstComment := BuildCaption(o.Cfg.Persona.Hashtags, text, post.Format, o.rng)
	req := platform.PublishRequest{
		Post:         *post,
		Caption:      caption,
		FirstComment: firstComment,
	}

	for _, pf := range o.Cfg.Platforms {
		if post.PlatformStatus(pf) == models.PlatformStatusPosted {
			continue
		}

		// Свежая проверка перед внешним вызовом: параллельная инвокация
		// могла опубликовать пост, пока мы ждали.
		if fresh, _, err := o.Store.Load(o.Cfg.AccountID); err == nil {
			if fp := fresh.FindPost(post.ID); fp != nil && fp.PlatformStatus(pf) == models.PlatformStatusPosted {
				o.Log.WithField("post", post.ID).Infof("[PUBLISH] %s уже опубликован параллельной инвокацией", pf)
				continue
			}
		}

		externalID, err := o.Col.Publisher.Publish(ctx, pf, req)
		if err != nil {
			summary.AddError(err)
			o.Log.WithError(err).WithField("post", post.ID).Warnf("[PUBLISH] публикация в %s не удалась", pf)
			if _, _, uerr := storage.Update(o.Store, o.Cfg.AccountID, func(fresh *models.Snapshot) error {
				p := fresh.FindPost(post.ID)
				if p == nil {
					return fmt.Errorf("пост %s исчез из очереди", post.ID)
				}
				return queue.MarkFailed(p, pf, err)
			}); uerr != nil {
				return uerr
			}
			continue
		}

		_, _, err = storage.Update(o.Store, o.Cfg.AccountID, func(fresh *models.Snapshot) error {
			p := fresh.FindPost(post.ID)
			if p == nil {
				return fmt.Errorf("пост %s исчез из очереди", post.ID)
			}
			return queue.MarkPosted(p, pf, externalID, now)
		})
		if errors.Is(err, queue.ErrAlreadyPosted) {
			// Мы проиграли CAS: публикацию засчитала другая инвокация.
			// Повторный внешний вызов уже ушёл — откатить его нельзя,
			// только не считать своим.
			o.Log.WithField("post", post.ID).Warnf("[PUBLISH] %s: отметка posted уже стоит, пропускаем", pf)
			continue
		}
		if err != nil {
			return err
		}

		summary.Published = append(summary.Published, post.ID+"@"+pf)
		o.Log.WithFields(map[string]interface{}{
			"post":        post.ID,
			"platform":    pf,
			"external_id": externalID,
		}).Info("[PUBLISH] пост опубликован")
	}
	return nil
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smm_go/models"
	"smm_go/pkg/behavior"
	"smm_go/pkg/budget"
	"smm_go/pkg/platform"
	"smm_go/pkg/storage"
)

// Вероятности действий внутри сессий. Каждое действие редкое само по
// себе: человек в основном просто смотрит ленту.
const (
	likeProb           = 0.70
	commentProb        = 0.10
	followProb         = 0.20
	storyViewProb      = 0.50
	exploreLikeProb    = 0.65
	exploreCommentProb = 0.08
)

const (
	postsPerHashtag = 10
	ownMediaAmount  = 5
	commentsPerPost = 15
	followersAmount = 200
	unfollowAfter   = 3 * 24 * time.Hour

	// Взаимное продвижение: посты и сторис партнёра на одну фазу.
	partnerMediaAmount = 3
	partnerStoryViews  = 3
)

// runSession выполняет сессию вовлечения выбранного типа.
func (o *Orchestrator) runSession(ctx context.Context, sessionType string, summary *models.SessionSummary) error {
	eng := o.engagerFor(sessionType)
	if eng == nil {
		o.Log.Warnf("[ENGAGE] нет клиента вовлечения для сессии %s", sessionType)
		return nil
	}

	switch sessionType {
	case models.SessionMorning:
		return o.runHashtagSession(ctx, eng, summary, 8)
	case models.SessionHashtags:
		return o.runHashtagSession(ctx, eng, summary, 12)
	case models.SessionExplore:
		return o.runExploreSession(ctx, eng, summary)
	case models.SessionReplies, models.SessionYTReplies:
		return o.runRepliesSession(ctx, eng, summary)
	case models.SessionMaintenance:
		return o.runMaintenanceSession(ctx, eng, summary)
	case models.SessionStories:
		return o.runStoriesSession(ctx, eng, summary)
	case models.SessionYTEngage:
		return o.runExploreSession(ctx, eng, summary)
	case models.SessionFull, models.SessionYTFull:
		return o.runFullSession(ctx, eng, summary)
	default:
		return fmt.Errorf("неизвестный тип сессии: %s", sessionType)
	}
}

// engagerFor выбирает клиента вовлечения по платформе сессии.
func (o *Orchestrator) engagerFor(sessionType string) platform.Engager {
	pf := models.PlatformInstagram
	if strings.HasPrefix(sessionType, "yt_") {
		pf = models.PlatformYouTube
	}
	return o.Col.Engagers[pf]
}

// act выполняет одно действие вовлечения: проверка лимита по свежему
// снимку, внешний вызов, CAS-фиксация инкремента. Возвращает true, если
// действие выполнено и засчитано.
func (o *Orchestrator) act(ctx context.Context, eng platform.Engager, summary *models.SessionSummary, actionType, target, payload string) (bool, error) {
	snap := o.loadOrEmpty()
	if !o.Limiter.CanPerform(snap, actionType) {
		return false, nil
	}

	if err := eng.Perform(ctx, actionType, target, payload); err != nil {
		summary.AddError(err)
		o.Log.WithError(err).Debugf("[ENGAGE] действие %s по цели %s не удалось", actionType, target)
		return false, nil
	}

	_, _, err := storage.Update(o.Store, o.Cfg.AccountID, func(fresh *models.Snapshot) error {
		return o.Limiter.Record(fresh, actionType, target)
	})
	if errors.Is(err, budget.ErrBudgetExceeded) {
		// Параллельная инвокация добила лимит между нашей проверкой и
		// записью. Внешнее действие уже ушло; фиксировать его нельзя,
		// недосчитанный лимит безопаснее пересчитанного.
		summary.AddError(err)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	summary.AddAction(actionType)
	o.Sampler.NoteAction()
	return true, nil
}

// pause ждёт паузу семплера, уважая отмену контекста.
func (o *Orchestrator) pause(ctx context.Context, d time.Duration) error {
	return behavior.Wait(ctx, d)
}

// dedupeTargets убирает дубли целей по идентификатору поста.
func dedupeTargets(targets []platform.Target) []platform.Target {
	seen := map[string]bool{}
	out := targets[:0]
	for _, t := range targets {
		if t.MediaID == "" || seen[t.MediaID] {
			continue
		}
		seen[t.MediaID] = true
		out = append(out, t)
	}
	return out
}

// runHashtagSession — основной цикл вовлечения: лайки, редкие
// комментарии, выборочные подписки и просмотры сторис по одному хэштегу
// за сессию (человек ищет одну тему за раз).
func (o *Orchestrator) runHashtagSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary, basePosts int) error {
	tags := o.Cfg.Persona.EngagementTags
	if len(tags) == 0 {
		return nil
	}
	tag := tags[o.rng.Intn(len(tags))]

	targets, err := eng.MineHashtag(ctx, tag, postsPerHashtag)
	if err != nil {
		summary.AddError(err)
		return nil
	}
	o.rng.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })
	targets = dedupeTargets(targets)

	size := o.Sampler.SessionSize(basePosts)
	if size > len(targets) {
		size = len(targets)
	}
	warmup := o.Sampler.WarmupCount()

	for i := 0; i < size; i++ {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			o.Log.Info("[ENGAGE] сессия прервана досрочно (имитация отвлечения)")
			return nil
		}
		t := targets[i]

		if o.Sampler.ShouldSkipPost() {
			if err := o.pause(ctx, o.Sampler.BrowsingPause()); err != nil {
				return err
			}
			continue
		}

		// Смотрим на пост, прежде чем что-то делать.
		if err := o.pause(ctx, o.Sampler.BrowsingPause()); err != nil {
			return err
		}

		// Разогрев сессии: первые посты только листаем.
		if i < warmup {
			continue
		}

		if o.Sampler.Chance(likeProb) {
			if _, err := o.act(ctx, eng, summary, models.ActionLikes, t.MediaID, ""); err != nil {
				return err
			}
		}

		if o.Cfg.CommentEnabled && o.Sampler.Chance(commentProb) {
			if text := o.generateComment(ctx, t.Caption); text != "" {
				if _, err := o.act(ctx, eng, summary, models.ActionComments, t.MediaID, text); err != nil {
					return err
				}
			}
		}

		if o.Cfg.FollowEnabled && t.UserID != "" && o.Sampler.Chance(followProb) {
			if _, err := o.act(ctx, eng, summary, models.ActionFollows, t.UserID, ""); err != nil {
				return err
			}
		}

		if t.UserID != "" && o.Sampler.Chance(storyViewProb) {
			if _, err := o.act(ctx, eng, summary, models.ActionStoryViews, t.UserID, ""); err != nil {
				return err
			}
		}

		if err := o.pause(ctx, o.Sampler.Delay(models.ActionLikes)); err != nil {
			return err
		}
	}
	return nil
}

// runExploreSession — пассивный скроллинг рекомендаций: в основном
// просто смотрим, изредка лайк, совсем редко комментарий.
func (o *Orchestrator) runExploreSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	size := o.Sampler.SessionSize(12)
	targets, err := eng.MineExplore(ctx, size+8)
	if err != nil {
		summary.AddError(err)
		return nil
	}
	targets = dedupeTargets(targets)
	if size > len(targets) {
		size = len(targets)
	}
	warmup := o.Sampler.WarmupCount()

	for i := 0; i < size; i++ {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			return nil
		}
		t := targets[i]

		if o.Sampler.ShouldSkipPost() {
			continue
		}
		if err := o.pause(ctx, o.Sampler.BrowsingPause()); err != nil {
			return err
		}
		if i < warmup {
			continue
		}

		if o.Sampler.Chance(exploreLikeProb) {
			if _, err := o.act(ctx, eng, summary, models.ActionLikes, t.MediaID, ""); err != nil {
				return err
			}
		}
		if o.Cfg.CommentEnabled && o.Sampler.Chance(exploreCommentProb) {
			if text := o.generateComment(ctx, t.Caption); text != "" {
				if _, err := o.act(ctx, eng, summary, models.ActionComments, t.MediaID, text); err != nil {
					return err
				}
			}
		}

		if err := o.pause(ctx, o.Sampler.Delay(models.ActionLikes)); err != nil {
			return err
		}
	}
	return nil
}

// runRepliesSession отвечает на чужие комментарии под нашими недавними
// постами. На один комментарий отвечаем не больше одного раза — журнал
// действий хранит уже отвеченные цели.
func (o *Orchestrator) runRepliesSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	own, err := eng.OwnRecentMedia(ctx, ownMediaAmount)
	if err != nil {
		summary.AddError(err)
		return nil
	}

	snap := o.loadOrEmpty()
	replied := map[string]bool{}
	for _, rec := range snap.Log {
		if rec.ActionType == models.ActionReplies {
			replied[rec.Target] = true
		}
	}

	for _, media := range own {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			return nil
		}
		comments, err := eng.CommentsOf(ctx, media.MediaID, commentsPerPost)
		if err != nil {
			summary.AddError(err)
			continue
		}
		for _, c := range comments {
			if replied[c.ID] || len(c.Text) < 3 {
				continue
			}
			text := o.generateReply(ctx, media.Caption, c.Text)
			if text == "" {
				continue
			}
			done, err := o.act(ctx, eng, summary, models.ActionReplies, c.ID, text)
			if err != nil {
				return err
			}
			if !done {
				// Лимит ответов исчерпан — дальше сегодня не отвечаем.
				return nil
			}
			replied[c.ID] = true
			if err := o.pause(ctx, o.Sampler.Delay(models.ActionReplies)); err != nil {
				return err
			}
		}
	}
	return nil
}

// runMaintenanceSession сначала обновляет список наших подписчиков с
// платформы, затем отписывается от пользователей, на которых мы
// подписались больше unfollowAfter назад и которые так и не подписались
// в ответ.
func (o *Orchestrator) runMaintenanceSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	if err := o.syncFollowers(ctx, eng, summary); err != nil {
		return err
	}

	snap := o.loadOrEmpty()
	cutoff := o.Now().Add(-unfollowAfter)

	unfollowed := map[string]bool{}
	for _, rec := range snap.Log {
		if rec.ActionType == models.ActionUnfollows {
			unfollowed[rec.Target] = true
		}
	}
	followers := map[string]bool{}
	for _, f := range snap.Followers {
		followers[f] = true
	}

	var candidates []string
	seen := map[string]bool{}
	for _, rec := range snap.Log {
		if rec.ActionType != models.ActionFollows {
			continue
		}
		if rec.Target == "" || seen[rec.Target] || unfollowed[rec.Target] || followers[rec.Target] {
			continue
		}
		if rec.At.After(cutoff) {
			continue
		}
		seen[rec.Target] = true
		candidates = append(candidates, rec.Target)
	}
	o.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	for _, userID := range candidates {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			return nil
		}
		done, err := o.act(ctx, eng, summary, models.ActionUnfollows, userID, "")
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		if err := o.pause(ctx, o.Sampler.Delay(models.ActionUnfollows)); err != nil {
			return err
		}
	}
	return nil
}

// syncFollowers перечитывает список подписчиков с платформы и кладёт его
// в снимок. Ошибка платформы не фатальна: работаем со старым списком —
// устаревший подписчик хуже лишней отписки не делает.
func (o *Orchestrator) syncFollowers(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	followers, err := eng.Followers(ctx, followersAmount)
	if err != nil {
		summary.AddError(err)
		o.Log.WithError(err).Warn("[ENGAGE] не удалось обновить список подписчиков")
		return nil
	}
	_, _, err = storage.Update(o.Store, o.Cfg.AccountID, func(fresh *models.Snapshot) error {
		fresh.Followers = followers
		return nil
	})
	return err
}

// runStoriesSession просматривает сторис целевых аккаунтов той же ниши —
// тёплый таргетинг без действий над постами.
func (o *Orchestrator) runStoriesSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	targets := append([]string(nil), o.Cfg.Persona.TargetAccounts...)
	if len(targets) == 0 {
		return nil
	}
	o.rng.Shuffle(len(targets), func(i, j int) { targets[i], targets[j] = targets[j], targets[i] })

	size := o.Sampler.SessionSize(6)
	if size > len(targets) {
		size = len(targets)
	}
	for _, userID := range targets[:size] {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			return nil
		}
		done, err := o.act(ctx, eng, summary, models.ActionStoryViews, userID, "")
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
		if err := o.pause(ctx, o.Sampler.Delay(models.ActionStoryViews)); err != nil {
			return err
		}
	}
	return nil
}

// runCrossPromoSession — взаимное продвижение с партнёрскими аккаунтами:
// лайки последних постов, не больше двух комментариев партнёру в день
// (лимит partner_comments в Budget Ledger) и просмотр сторис. Дневной
// лимит делает взаимность редкой — связанность аккаунтов не должна
// читаться со стороны.
func (o *Orchestrator) runCrossPromoSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	partners := append([]string(nil), o.Cfg.Persona.CrossPromo.PartnerAccounts...)
	if len(partners) == 0 {
		return nil
	}
	o.rng.Shuffle(len(partners), func(i, j int) { partners[i], partners[j] = partners[j], partners[i] })

	for _, partner := range partners {
		if o.Sampler.ShouldAbortSession() {
			summary.Aborted = true
			return nil
		}

		medias, err := eng.RecentMediaOf(ctx, partner, partnerMediaAmount)
		if err != nil {
			summary.AddError(err)
			o.Log.WithError(err).Warnf("[ENGAGE] посты партнёра %s недоступны", partner)
			continue
		}
		medias = dedupeTargets(medias)

		for _, m := range medias {
			if _, err := o.act(ctx, eng, summary, models.ActionLikes, m.MediaID, ""); err != nil {
				return err
			}
			if err := o.pause(ctx, o.Sampler.Delay(models.ActionLikes)); err != nil {
				return err
			}
		}

		// Комментарий только под самым свежим постом.
		if len(medias) > 0 {
			if text := o.generatePartnerComment(ctx, medias[0].Caption, partner); text != "" {
				if _, err := o.act(ctx, eng, summary, models.ActionPartnerComments, medias[0].MediaID, text); err != nil {
					return err
				}
				if err := o.pause(ctx, o.Sampler.Delay(models.ActionComments)); err != nil {
					return err
				}
			}
		}

		for i := 0; i < partnerStoryViews; i++ {
			done, err := o.act(ctx, eng, summary, models.ActionStoryViews, partner, "")
			if err != nil {
				return err
			}
			if !done {
				break
			}
			if err := o.pause(ctx, o.Sampler.Delay(models.ActionStoryViews)); err != nil {
				return err
			}
		}
	}
	return nil
}

// runFullSession прогоняет все фазы подряд с паузами между ними.
// Используется редко — в прайм-тайм слоте.
func (o *Orchestrator) runFullSession(ctx context.Context, eng platform.Engager, summary *models.SessionSummary) error {
	phases := []func() error{
		func() error { return o.runMaintenanceSession(ctx, eng, summary) },
		func() error { return o.runRepliesSession(ctx, eng, summary) },
		func() error { return o.runCrossPromoSession(ctx, eng, summary) },
		func() error { return o.runHashtagSession(ctx, eng, summary, 15) },
		func() error { return o.runExploreSession(ctx, eng, summary) },
	}
	for i, phase := range phases {
		if summary.Aborted {
			return nil
		}
		if err := phase(); err != nil {
			return err
		}
		if i < len(phases)-1 {
			if err := o.pause(ctx, o.Sampler.Delay("phase")); err != nil {
				return err
			}
		}
	}
	return nil
}

// generateComment просит внешний генератор написать короткий комментарий
// к чужому посту. Пустая строка — комментировать нечего или генератор
// отказал (не фатально).
func (o *Orchestrator) generateComment(ctx context.Context, caption string) string {
	prompt := fmt.Sprintf("короткий искренний комментарий к посту: %.300s", caption)
	content, err := o.Col.Generator.Generate(ctx, prompt, o.Cfg.Persona.Name)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(content.Caption)
	if len(text) < 4 || len(text) > 150 {
		return ""
	}
	return text
}

// generatePartnerComment просит генератор написать комментарий под
// постом партнёра голосом персоны — как знакомый, а не как фанат.
func (o *Orchestrator) generatePartnerComment(ctx context.Context, caption, partner string) string {
	prompt := fmt.Sprintf("короткий комментарий в одно предложение к посту @%s, как знакомый, без общих фраз: %.200s", partner, caption)
	content, err := o.Col.Generator.Generate(ctx, prompt, o.Cfg.Persona.Name)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(content.Caption)
	if len(text) < 4 || len(text) > 150 {
		return ""
	}
	return text
}

// generateReply просит генератор ответить на чужой комментарий под
// нашим постом.
func (o *Orchestrator) generateReply(ctx context.Context, ownCaption, theirComment string) string {
	prompt := fmt.Sprintf("тёплый короткий ответ на комментарий %.200q под нашим постом %.200q", theirComment, ownCaption)
	content, err := o.Col.Generator.Generate(ctx, prompt, o.Cfg.Persona.Name)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(content.Caption)
	if len(text) < 3 || len(text) > 100 {
		return ""
	}
	return text
}

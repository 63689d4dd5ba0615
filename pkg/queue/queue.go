package queue

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"smm_go/models"
)

// Ошибки переходов жизненного цикла.
var (
	// ErrLifecycle — попытка недопустимого перехода (например, публикация
	// черновика). Из достижимых состояний такое не возникает, поэтому
	// считается ошибкой программного контракта и фатально для инвокации.
	ErrLifecycle = errors.New("queue: недопустимый переход жизненного цикла")
	// ErrAlreadyPosted — пост уже опубликован на этой платформе.
	// Проигравшая CAS инвокация видит эту ошибку и пропускает повтор.
	ErrAlreadyPosted = errors.New("queue: пост уже опубликован на платформе")
)

// Ранги состояний для проверки монотонности: состояние никогда не
// уменьшается. failed имеет тот же ранг, что и ready, — это боковое
// состояние, возврат failed -> ready регрессом не считается.
var stateRank = map[string]int{
	models.PostStateDraft:    0,
	models.PostStateApproved: 1,
	models.PostStateReady:    2,
	models.PostStateFailed:   2,
	models.PostStatePosted:   3,
}

// Разрешённые рёбра графа переходов.
var allowed = map[string][]string{
	models.PostStateDraft:    {models.PostStateApproved},
	models.PostStateApproved: {models.PostStateReady},
	models.PostStateReady:    {models.PostStatePosted, models.PostStateFailed},
	models.PostStateFailed:   {models.PostStateReady},
	models.PostStatePosted:   {},
}

// transition переводит пост в новое состояние, проверяя допустимость
// ребра и монотонность ранга.
func transition(p *models.Post, to string) error {
	if p.State == to {
		return nil
	}
	for _, next := range allowed[p.State] {
		if next == to && stateRank[to] >= stateRank[p.State] {
			p.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %s -> %s", ErrLifecycle, p.ID, p.State, to)
}

// LinkMedia привязывает внешние медиафайлы к постам по идентификатору
// поста. Совпадение строгое, с учётом регистра. Файлы меньше minBytes
// отбрасываются как подозрительные (обрезанная загрузка). Операция
// идемпотентна: повторный запуск с теми же файлами ничего не меняет.
// Возвращает число постов, получивших медиа.
func LinkMedia(posts []models.Post, assets map[string][]models.MediaAsset, minBytes int64) int {
	linked := 0
	for i := range posts {
		p := &posts[i]
		if p.State != models.PostStateDraft && p.State != models.PostStateApproved {
			continue
		}
		found, ok := assets[p.ID]
		if !ok {
			continue
		}
		refs := make([]string, 0, len(found))
		for _, a := range found {
			if a.SizeBytes < minBytes {
				continue
			}
			refs = append(refs, a.Ref)
		}
		if len(refs) == 0 {
			continue
		}
		if equalRefs(p.MediaRefs, refs) {
			continue
		}
		p.MediaRefs = refs
		linked++
	}
	return linked
}

func equalRefs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PromoteConfig — параметры автопродвижения черновиков.
type PromoteConfig struct {
	// TargetState — во что продвигать черновики: approved или ready.
	TargetState string
	// Interval — шаг между назначаемыми слотами публикации.
	Interval time.Duration
	// Lead — отступ первого свободного слота от текущего момента.
	Lead time.Duration
}

// PromoteDrafts продвигает черновики с подписью и медиа в TargetState.
// Постам без будущего слота назначается ближайший свободный: слоты идут
// от now+Lead с шагом Interval, после уже занятых будущих слотов.
// Возвращает число продвинутых постов.
func PromoteDrafts(posts []models.Post, now time.Time, cfg PromoteConfig) int {
	nextSlot := now.Add(cfg.Lead)
	for i := range posts {
		if at := posts[i].ScheduledAt; at != nil && !at.Before(nextSlot) {
			nextSlot = at.Add(cfg.Interval)
		}
	}

	promoted := 0
	for i := range posts {
		p := &posts[i]
		if p.State != models.PostStateDraft {
			continue
		}
		if strings.TrimSpace(p.Caption) == "" {
			continue
		}
		if !p.HasMedia() {
			continue
		}
		if err := transition(p, models.PostStateApproved); err != nil {
			continue
		}
		if cfg.TargetState == models.PostStateReady {
			// Немедленное продвижение до ready используется в тестовых
			// и ручных сценариях; по умолчанию цель — approved.
			_ = transition(p, models.PostStateReady)
		}
		if p.ScheduledAt == nil || !p.ScheduledAt.After(now) {
			slot := nextSlot
			p.ScheduledAt = &slot
			nextSlot = nextSlot.Add(cfg.Interval)
		}
		promoted++
	}
	return promoted
}

// AdvanceReady переводит approved-посты в ready, когда их слот наступил
// и медиа на месте. Возвращает число переведённых постов.
func AdvanceReady(posts []models.Post, now time.Time) int {
	advanced := 0
	for i := range posts {
		p := &posts[i]
		if p.State != models.PostStateApproved {
			continue
		}
		if p.ScheduledAt != nil && p.ScheduledAt.After(now) {
			continue
		}
		if strings.TrimSpace(p.Caption) == "" || !p.HasMedia() {
			continue
		}
		if err := transition(p, models.PostStateReady); err == nil {
			advanced++
		}
	}
	return advanced
}

// ReviveFailed возвращает failed-посты в ready для повторной попытки на
// следующей инвокации, пока не исчерпан лимит попыток. Возвращает число
// возвращённых постов.
func ReviveFailed(posts []models.Post, maxAttempts int) int {
	revived := 0
	for i := range posts {
		p := &posts[i]
		if p.State != models.PostStateFailed {
			continue
		}
		if p.Attempts >= maxAttempts {
			continue
		}
		if err := transition(p, models.PostStateReady); err == nil {
			revived++
		}
	}
	return revived
}

// NextEligible возвращает старейший ready-пост, ещё не опубликованный на
// всех включённых платформах, либо nil. Старшинство — по слоту публикации,
// при равенстве по времени создания.
func NextEligible(posts []models.Post, now time.Time, platforms []string) *models.Post {
	var best *models.Post
	for i := range posts {
		p := &posts[i]
		if p.State != models.PostStateReady && p.State != models.PostStatePosted {
			continue
		}
		if p.ScheduledAt != nil && p.ScheduledAt.After(now) {
			continue
		}
		if strings.TrimSpace(p.Caption) == "" || !p.HasMedia() {
			continue
		}
		pending := false
		for _, platform := range platforms {
			if p.PlatformStatus(platform) != models.PlatformStatusPosted {
				pending = true
				break
			}
		}
		if !pending {
			continue
		}
		if best == nil || earlier(p, best) {
			best = p
		}
	}
	return best
}

func earlier(a, b *models.Post) bool {
	at, bt := a.CreatedAt, b.CreatedAt
	if a.ScheduledAt != nil {
		at = *a.ScheduledAt
	}
	if b.ScheduledAt != nil {
		bt = *b.ScheduledAt
	}
	if at.Equal(bt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return at.Before(bt)
}

// MarkPosted фиксирует успешную публикацию на платформе. На каждую
// платформу пост публикуется не более одного раза: повторная пометка
// возвращает ErrAlreadyPosted, и проигравшая CAS инвокация не считает
// публикацию своей.
func MarkPosted(p *models.Post, platform, externalID string, now time.Time) error {
	if p.PlatformStatus(platform) == models.PlatformStatusPosted {
		return fmt.Errorf("%w: %s на %s", ErrAlreadyPosted, p.ID, platform)
	}
	if p.State != models.PostStateReady && p.State != models.PostStatePosted {
		return fmt.Errorf("%w: %s: публикация из состояния %s", ErrLifecycle, p.ID, p.State)
	}
	if err := transition(p, models.PostStatePosted); err != nil {
		return err
	}
	if p.Platforms == nil {
		p.Platforms = map[string]models.PlatformResult{}
	}
	postedAt := now.UTC()
	p.Platforms[platform] = models.PlatformResult{
		Status:     models.PlatformStatusPosted,
		ExternalID: externalID,
		PostedAt:   &postedAt,
	}
	return nil
}

// MarkFailed фиксирует неудачную публикацию на платформе и увеличивает
// счётчик попыток. Пост уходит в failed, только если он ещё нигде не
// опубликован: частично опубликованный пост остаётся posted, а неудача
// видна в статусе конкретной платформы.
func MarkFailed(p *models.Post, platform string, cause error) error {
	if p.State != models.PostStateReady && p.State != models.PostStatePosted {
		return fmt.Errorf("%w: %s: отказ из состояния %s", ErrLifecycle, p.ID, p.State)
	}
	if p.Platforms == nil {
		p.Platforms = map[string]models.PlatformResult{}
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	p.Platforms[platform] = models.PlatformResult{
		Status:    models.PlatformStatusFailed,
		LastError: msg,
	}
	p.Attempts++
	if p.State == models.PostStateReady {
		return transition(p, models.PostStateFailed)
	}
	return nil
}

// StatusCounts считает посты по состояниям — для отчётов и логов.
func StatusCounts(posts []models.Post) map[string]int {
	counts := map[string]int{}
	for i := range posts {
		counts[posts[i].State]++
	}
	return counts
}

// PublishableCount — сколько постов готово или одобрено к публикации.
// По этому числу решается, пора ли генерировать новые черновики.
func PublishableCount(posts []models.Post) int {
	n := 0
	for i := range posts {
		if posts[i].State == models.PostStateReady || posts[i].State == models.PostStateApproved {
			n++
		}
	}
	return n
}

// NextPostID генерирует следующий идентификатор вида prefix-NNN по
// максимальному из уже существующих.
func NextPostID(posts []models.Post, prefix string) string {
	maxNum := 0
	for i := range posts {
		id := strings.ToLower(strings.TrimSpace(posts[i].ID))
		tail, ok := strings.CutPrefix(id, prefix+"-")
		if !ok {
			continue
		}
		num := 0
		for _, r := range tail {
			if r < '0' || r > '9' {
				num = -1
				break
			}
			num = num*10 + int(r-'0')
		}
		if num > maxNum {
			maxNum = num
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, maxNum+1)
}

// SortBySchedule упорядочивает посты по слоту публикации (без слота — в
// конец), затем по времени создания. Используется отчётами.
func SortBySchedule(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.ScheduledAt == nil && b.ScheduledAt == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.ScheduledAt == nil:
			return false
		case b.ScheduledAt == nil:
			return true
		default:
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
	})
}

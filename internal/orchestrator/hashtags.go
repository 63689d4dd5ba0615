package orchestrator

import (
	"math/rand"
	"strings"

	"smm_go/internal/config"
	"smm_go/models"
)

// Пирамидная стратегия хэштегов: 1 бренд + 1 широкий + 1-2 средних +
// 1 нишевый в подписи (категоризация, не охват), и до 18 добавочных в
// первом комментарии для охвата. Подписи с налитыми под завязку
// хэштегами алгоритм режет, поэтому в саму подпись идёт не больше пяти.

const maxCaptionTags = 5
const maxCommentTags = 18

func sampleTags(rng *rand.Rand, pool []string, n int) []string {
	if n >= len(pool) {
		out := make([]string, len(pool))
		copy(out, pool)
		return out
	}
	idx := rng.Perm(len(pool))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

// BuildCaption строит итоговую подпись и блок хэштегов первого
// комментария. Возвращает (подпись, первый комментарий); комментарий
// пуст, если добавочных тегов не набралось.
func BuildCaption(h config.PersonaHashtags, caption, format string, rng *rand.Rand) (string, string) {
	tags := make([]string, 0, maxCaptionTags)
	tags = append(tags, h.Brand...)

	if format == models.PostFormatCarousel && len(h.Carousel) > 0 {
		tags = append(tags, sampleTags(rng, h.Carousel, 3)...)
	} else {
		if len(h.Broad) > 0 {
			tags = append(tags, h.Broad[rng.Intn(len(h.Broad))])
		}
		tags = append(tags, sampleTags(rng, h.Medium, 2)...)
		if len(h.Niche) > 0 {
			tags = append(tags, h.Niche[rng.Intn(len(h.Niche))])
		}
	}
	if len(tags) > maxCaptionTags {
		tags = tags[:maxCaptionTags]
	}

	keyword := ""
	if len(h.KeywordPhrases) > 0 {
		keyword = h.KeywordPhrases[rng.Intn(len(h.KeywordPhrases))]
	}

	var b strings.Builder
	b.WriteString(caption)
	if keyword != "" {
		b.WriteString("\n.\n")
		b.WriteString(keyword)
	}
	if len(tags) > 0 {
		b.WriteString("\n.\n")
		b.WriteString(hashtagBlock(tags))
	}

	// Первый комментарий: остатки всех пулов, кроме уже занятых.
	used := map[string]bool{}
	for _, t := range tags {
		used[t] = true
	}
	var remaining []string
	for _, pool := range [][]string{h.Broad, h.Medium, h.Niche, h.Carousel} {
		for _, t := range pool {
			if !used[t] {
				remaining = append(remaining, t)
				used[t] = true
			}
		}
	}
	rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})
	if len(remaining) > maxCommentTags {
		remaining = remaining[:maxCommentTags]
	}

	firstComment := ""
	if len(remaining) > 0 {
		firstComment = ".\n" + hashtagBlock(remaining)
	}
	return b.String(), firstComment
}

// MaybePartnerMention изредка дописывает к подписи упоминание
// партнёрского аккаунта. Вероятность и шаблоны задаёт блок cross_promo
// персоны; маркер {partner} в шаблоне заменяется ником партнёра.
func MaybePartnerMention(cp config.PersonaCrossPromo, caption string, rng *rand.Rand) string {
	if len(cp.PartnerAccounts) == 0 || len(cp.MentionTemplates) == 0 {
		return caption
	}
	if rng.Float64() > cp.MentionProbability {
		return caption
	}
	partner := cp.PartnerAccounts[rng.Intn(len(cp.PartnerAccounts))]
	tpl := cp.MentionTemplates[rng.Intn(len(cp.MentionTemplates))]
	return caption + "\n.\n" + strings.ReplaceAll(tpl, "{partner}", partner)
}

func hashtagBlock(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, "#"+t)
	}
	return strings.Join(parts, " ")
}

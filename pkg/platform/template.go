package platform

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// TemplateGenerator — локальный генератор подписей из шаблонов персоны.
// Служит запасным вариантом при отказе внешнего генератора: отсутствие
// сети не должно останавливать конвейер.
type TemplateGenerator struct {
	Templates []string
	rng       *rand.Rand
}

// NewTemplateGenerator создаёт генератор с зерном для детерминизма тестов.
func NewTemplateGenerator(templates []string, seed int64) *TemplateGenerator {
	return &TemplateGenerator{
		Templates: templates,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (g *TemplateGenerator) Generate(ctx context.Context, prompt, persona string) (GeneratedContent, error) {
	if len(g.Templates) == 0 {
		return GeneratedContent{}, NewError(KindPermanent, "template", fmt.Errorf("нет шаблонов подписей"))
	}
	tpl := g.Templates[g.rng.Intn(len(g.Templates))]
	caption := strings.ReplaceAll(tpl, "{topic}", prompt)
	return GeneratedContent{
		Caption: caption,
		Topic:   prompt,
	}, nil
}

// FallbackGenerator пробует основной генератор и при любой его ошибке
// молча переходит на запасной.
type FallbackGenerator struct {
	Primary  ContentGenerator
	Fallback ContentGenerator
}

func (g *FallbackGenerator) Generate(ctx context.Context, prompt, persona string) (GeneratedContent, error) {
	if g.Primary != nil {
		content, err := g.Primary.Generate(ctx, prompt, persona)
		if err == nil {
			return content, nil
		}
	}
	return g.Fallback.Generate(ctx, prompt, persona)
}

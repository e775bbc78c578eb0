package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"watchdeck/models"
	"watchdeck/services/metadata"
	"watchdeck/services/sources"
)

// Pipeline is one widget instance: an origin source wired through
// resolution, enrichment, fusion and card building, supervised by a
// primary → secondary → terminal fallback chain. Run never returns an
// error; the worst case is a single diagnostic card.
type Pipeline struct {
	Source      sources.Adapter
	Meta        *metadata.Service
	Policy      SortPolicy
	ResolveMode string
	// Enrich turns on the per-item detail fetch; only views that sort or
	// label by episode dates need it.
	Enrich bool
}

// Run executes one invocation. The returned list is always renderable:
// primary results, the provider's trending feed, or a diagnostic card.
func (p *Pipeline) Run(ctx context.Context, q sources.Query) []models.Card {
	// Short correlation id; one invocation logs under one tag.
	runID := uuid.NewString()[:8]

	cards, ok := p.runPrimary(ctx, runID, q)
	if ok {
		return cards
	}

	cards, ok = p.runSecondary(ctx, runID)
	if ok {
		return cards
	}

	log.Printf("[pipeline %s] terminal: primary and secondary both failed", runID)
	if !p.Meta.Configured() {
		return []models.Card{DiagnosticCard("配置缺失", "未设置 TMDB API Key")}
	}
	return []models.Card{DiagnosticCard("网络错误", p.Source.Name()+" 与 TMDB 均无数据，请稍后重试")}
}

func (p *Pipeline) runPrimary(ctx context.Context, runID string, q sources.Query) ([]models.Card, bool) {
	cands, err := p.Source.Fetch(ctx, q)
	if err != nil {
		log.Printf("[pipeline %s] primary %s failed: %v", runID, p.Source.Name(), err)
		return nil, false
	}
	if len(cands) == 0 {
		log.Printf("[pipeline %s] primary %s returned nothing", runID, p.Source.Name())
		return nil, false
	}

	var canonical []*models.CanonicalTitle
	if p.Meta.Configured() {
		canonical = p.Meta.ResolveBatch(ctx, cands)
	} else {
		// No provider key: every record degrades to origin-only fields.
		canonical = make([]*models.CanonicalTitle, len(cands))
	}

	if p.Enrich {
		p.Meta.EnrichBatch(ctx, canonical)
	}

	fused := Fuse(cands, canonical, p.ResolveMode)
	if len(fused) == 0 {
		// Strict mode can drop everything; trending beats an empty list.
		log.Printf("[pipeline %s] no candidates survived fusion", runID)
		return nil, false
	}
	fused = Sort(fused, p.Policy, time.Now())

	cards := make([]models.Card, 0, len(fused))
	for _, f := range fused {
		cards = append(cards, BuildCard(f, p.Meta.GenreLabel))
	}
	return cards, true
}

// RenderCanonical sorts and builds cards for provider-native records from
// trending or discover feeds; those views have no origin source and no
// resolution step.
func RenderCanonical(titles []models.CanonicalTitle, policy SortPolicy, genres GenreLabeler) []models.Card {
	fused := Sort(FuseCanonical(titles), policy, time.Now())
	cards := make([]models.Card, 0, len(fused))
	for _, f := range fused {
		cards = append(cards, BuildCard(f, genres))
	}
	return cards
}

// runSecondary queries the canonical provider's trending feed directly,
// bypassing the origin source and the resolver.
func (p *Pipeline) runSecondary(ctx context.Context, runID string) ([]models.Card, bool) {
	if !p.Meta.Configured() {
		return nil, false
	}

	titles, err := p.Meta.Trending(ctx, p.Source.MediaKind())
	if err != nil {
		log.Printf("[pipeline %s] secondary trending failed: %v", runID, err)
		return nil, false
	}
	if len(titles) == 0 {
		return nil, false
	}
	log.Printf("[pipeline %s] secondary: serving %d trending items", runID, len(titles))

	return RenderCanonical(titles, p.Policy, p.Meta.GenreLabel), true
}

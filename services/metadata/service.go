package metadata

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	"watchdeck/models"
)

// Service is the canonical metadata provider facade: candidate resolution,
// detail enrichment, discovery and trending, with an in-memory response
// cache in front of the provider.
type Service struct {
	tmdb        *tmdbClient
	resolver    *resolver
	genres      *GenreTable
	cache       *memoryCache
	maxParallel int
}

// Options configures a metadata Service.
type Options struct {
	TMDBAPIKey     string
	Language       string
	MaxParallel    int
	CacheTTL       time.Duration
	GenreOverrides map[string]string
	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

func NewService(opts Options) *Service {
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 12
	}
	if maxParallel > 25 {
		maxParallel = 25
	}
	tmdb := newTMDBClient(opts.TMDBAPIKey, opts.Language, opts.HTTPClient)
	return &Service{
		tmdb:        tmdb,
		resolver:    newResolver(tmdb),
		genres:      NewGenreTable(opts.GenreOverrides),
		cache:       newMemoryCache(opts.CacheTTL),
		maxParallel: maxParallel,
	}
}

// Configured reports whether the canonical provider is usable.
func (s *Service) Configured() bool {
	return s.tmdb.isConfigured()
}

// GenreLabel renders up to two genre labels for the given codes.
func (s *Service) GenreLabel(ids []int64) string {
	return s.genres.Label(ids, 2)
}

// Resolve finds the canonical match for one candidate. Nil without error
// means a definitive miss.
func (s *Service) Resolve(ctx context.Context, cand models.Candidate) (*models.CanonicalTitle, error) {
	return s.resolver.resolve(ctx, cand)
}

// ResolveBatch resolves every candidate in parallel with a join-all
// barrier: the result slice is index-aligned with the input and no entry is
// acted on before all lookups settle, keeping downstream ordering
// independent of network race order. Per-item transport failures degrade to
// a miss (nil entry).
func (s *Service) ResolveBatch(ctx context.Context, cands []models.Candidate) []*models.CanonicalTitle {
	out := make([]*models.CanonicalTitle, len(cands))
	p := pool.New().WithMaxGoroutines(s.maxParallel)
	for i := range cands {
		i := i
		p.Go(func() {
			match, err := s.resolver.resolve(ctx, cands[i])
			if err != nil {
				log.Printf("[metadata] resolve %q failed: %v", cands[i].Title, err)
				return
			}
			out[i] = match
		})
	}
	p.Wait()
	return out
}

// Trending returns the provider's own trending list for the media kind.
// This is the fallback feed when an origin source is down.
func (s *Service) Trending(ctx context.Context, mediaKind string) ([]models.CanonicalTitle, error) {
	key := cacheKey("tmdb", "trending", mediaKind)
	if v, ok := s.cache.get(key); ok {
		if items, ok := v.([]models.CanonicalTitle); ok {
			return items, nil
		}
	}

	items, err := s.tmdb.trending(ctx, mediaKind)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.cache.set(key, items)
	}
	return items, nil
}

// DiscoverTV runs a calendar-window discover query (native pagination).
func (s *Service) DiscoverTV(ctx context.Context, dq DiscoverQuery) ([]models.CanonicalTitle, error) {
	mode := "update"
	if dq.Premiere {
		mode = "premiere"
	}
	key := cacheKey("tmdb", "discover", dq.Start.String(), dq.End.String(),
		mode, dq.Region, strconv.Itoa(dq.Page))
	if v, ok := s.cache.get(key); ok {
		if items, ok := v.([]models.CanonicalTitle); ok {
			return items, nil
		}
	}

	items, err := s.tmdb.discoverTV(ctx, dq)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.cache.set(key, items)
	}
	return items, nil
}

package metadata

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/width"

	"watchdeck/models"
	"watchdeck/utils/similarity"
)

// yearTolerance is how far a search result's release year may drift from
// the origin source's year and still count as the same title. Regional
// premiere offsets and re-releases routinely shift a year either way.
const yearTolerance = 2

var (
	cjkSeasonRe     = regexp.MustCompile(`第[一二三四五六七八九十百\d]+[季章部期]`)
	latinSeasonRe   = regexp.MustCompile(`(?i)\bseason\s*\d+\b`)
	trailingMarkRe  = regexp.MustCompile(`(?i)\s*(\(\d{4}\)|【[^】]*】)\s*$`)
	whitespaceRunRe = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle strips season/part markers and trailing year or bracket
// annotations from a search query. Canonical providers index base titles
// without season suffixes, so "进击的巨人 第三季" must search as "进击的巨人".
func CleanTitle(s string) string {
	s = width.Narrow.String(s)
	s = cjkSeasonRe.ReplaceAllString(s, "")
	s = latinSeasonRe.ReplaceAllString(s, "")
	s = trailingMarkRe.ReplaceAllString(s, "")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// resolver performs the fuzzy candidate → canonical join. It memoizes per
// process run so the same candidate always maps to the same canonical ID,
// even across concurrent lookups. The memo stores values and every call
// gets its own clone: enrichment mutates the returned record, and two
// pipeline runs (or two duplicates in one batch) must never share one.
type resolver struct {
	tmdb *tmdbClient

	mu       sync.Mutex
	resolved map[string]resolveEntry
}

type resolveEntry struct {
	title models.CanonicalTitle
	found bool // false caches a definitive miss
}

func (e resolveEntry) result() *models.CanonicalTitle {
	if !e.found {
		return nil
	}
	return e.title.Clone()
}

func newResolver(tmdb *tmdbClient) *resolver {
	return &resolver{tmdb: tmdb, resolved: make(map[string]resolveEntry)}
}

// resolve finds the best canonical match for a candidate, or nil when no
// plausible match exists. "Not found" is a nil result, never an error;
// errors mean transport failure and callers treat them like a miss.
func (r *resolver) resolve(ctx context.Context, cand models.Candidate) (*models.CanonicalTitle, error) {
	// Sources that already know the canonical ID skip the search entirely.
	if hint := cand.SourceMeta.TMDBHint; hint > 0 {
		return r.resolveByID(ctx, hint, cand.MediaKind)
	}

	key := strings.Join([]string{cand.Title, cand.AlternateTitle, cand.Year, cand.MediaKind}, "\x1f")

	r.mu.Lock()
	if e, ok := r.resolved[key]; ok {
		r.mu.Unlock()
		return e.result(), nil
	}
	r.mu.Unlock()

	match, err := r.lookup(ctx, cand)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// First completed lookup wins; duplicates racing here return the same
	// canonical ID as everyone else.
	if e, ok := r.resolved[key]; ok {
		r.mu.Unlock()
		return e.result(), nil
	}
	entry := resolveEntry{found: match != nil}
	if match != nil {
		entry.title = *match
	}
	r.resolved[key] = entry
	r.mu.Unlock()

	return entry.result(), nil
}

func (r *resolver) resolveByID(ctx context.Context, id int64, mediaKind string) (*models.CanonicalTitle, error) {
	if mediaKind == models.MediaKindMovie {
		return r.tmdb.movieDetails(ctx, id)
	}
	detail, err := r.tmdb.tvDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	return &detail.Title, nil
}

func (r *resolver) lookup(ctx context.Context, cand models.Candidate) (*models.CanonicalTitle, error) {
	query := CleanTitle(cand.Title)
	if query == "" {
		return nil, nil
	}

	results, err := r.tmdb.search(ctx, query, cand.MediaKind)
	if err != nil {
		return nil, err
	}

	// A second attempt with the original-language title catches entries the
	// provider indexes under the original name only.
	if len(results) == 0 && cand.AlternateTitle != "" && cand.AlternateTitle != cand.Title {
		alt := CleanTitle(cand.AlternateTitle)
		if alt != "" && alt != query {
			results, err = r.tmdb.search(ctx, alt, cand.MediaKind)
			if err != nil {
				return nil, err
			}
		}
	}

	if len(results) == 0 {
		return nil, nil
	}

	best := pickBestMatch(results, cand)
	log.Printf("[resolver] %q (%s, year=%q) -> tmdb %d %q", cand.Title, cand.MediaKind, cand.Year, best.ID, best.Name)
	return best, nil
}

// pickBestMatch selects from provider-ranked results. With a known year,
// the nearest in-tolerance year wins; a distance tie breaks on title
// similarity, then provider order. Without a year the first result with a
// poster wins, falling back to the first result.
func pickBestMatch(results []models.CanonicalTitle, cand models.Candidate) *models.CanonicalTitle {
	if year, err := strconv.Atoi(strings.TrimSpace(cand.Year)); err == nil && year > 0 {
		bestIdx := -1
		bestDist := yearTolerance + 1
		bestSim := -1.0
		for i := range results {
			ry := results[i].ReleaseDate.Time().Year()
			if !results[i].ReleaseDate.Valid() {
				continue
			}
			dist := ry - year
			if dist < 0 {
				dist = -dist
			}
			if dist > yearTolerance || dist > bestDist {
				continue
			}
			sim := similarity.Similarity(cand.Title, results[i].Name)
			if altSim := similarity.Similarity(cand.Title, results[i].OriginalName); altSim > sim {
				sim = altSim
			}
			if dist < bestDist || (dist == bestDist && sim > bestSim) {
				bestIdx = i
				bestDist = dist
				bestSim = sim
			}
		}
		if bestIdx >= 0 {
			return &results[bestIdx]
		}
	}

	for i := range results {
		if results[i].PosterPath != "" {
			return &results[i]
		}
	}
	return &results[0]
}

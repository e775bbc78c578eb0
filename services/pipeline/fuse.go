package pipeline

import (
	"sort"
	"time"

	"watchdeck/models"
	"watchdeck/services/metadata"
)

// ResolveMode controls what happens to candidates the resolver missed:
// lenient keeps them with origin-only fields, strict drops them.
const (
	ResolveLenient = "lenient"
	ResolveStrict  = "strict"
)

// SortPolicy names the orderings the fusion engine supports.
type SortPolicy string

const (
	SortChronoAsc      SortPolicy = "chronological-ascending"
	SortChronoDesc     SortPolicy = "chronological-descending"
	SortPopularityDesc SortPolicy = "popularity-descending"
	SortRatingDesc     SortPolicy = "rating-descending"
	SortFutureFirst    SortPolicy = "future-first"
	SortNone           SortPolicy = "none"
)

// Fused is the merge of one origin candidate with its canonical match.
// Canonical is nil when resolution missed; origin fields carry the record
// alone in that case.
type Fused struct {
	Candidate models.Candidate
	Canonical *models.CanonicalTitle
	SortDate  models.AirDate
}

// Rating is the display rating: canonical wins when present, the origin
// source's own score otherwise.
func (f Fused) Rating() float64 {
	if f.Canonical != nil && f.Canonical.Rating > 0 {
		return f.Canonical.Rating
	}
	return f.Candidate.SourceMeta.Rating
}

func (f Fused) popularity() float64 {
	if f.Canonical != nil {
		return f.Canonical.Popularity
	}
	return 0
}

// Fuse folds index-aligned resolution results into candidates. In strict
// mode unresolved candidates are dropped; in lenient mode they survive on
// origin fields alone. The relative input order is preserved.
func Fuse(cands []models.Candidate, canonical []*models.CanonicalTitle, resolveMode string) []Fused {
	out := make([]Fused, 0, len(cands))
	for i, cand := range cands {
		var c *models.CanonicalTitle
		if i < len(canonical) {
			c = canonical[i]
		}
		if c == nil && resolveMode == ResolveStrict {
			continue
		}
		out = append(out, Fused{
			Candidate: cand,
			Canonical: c,
			SortDate:  fusedSortDate(cand, c),
		})
	}
	return out
}

// FuseCanonical wraps provider-native records (trending, discover) that
// never pass through the resolver.
func FuseCanonical(titles []models.CanonicalTitle) []Fused {
	out := make([]Fused, 0, len(titles))
	for i := range titles {
		t := titles[i]
		out = append(out, Fused{
			Canonical: &t,
			SortDate:  metadata.SortDate(&t),
		})
	}
	return out
}

func fusedSortDate(cand models.Candidate, c *models.CanonicalTitle) models.AirDate {
	if c != nil {
		return metadata.SortDate(c)
	}
	return cand.SourceMeta.AirDate
}

// Sort orders fused records per the policy. All sorts are stable, so
// numeric ties keep the provider's original relative order.
func Sort(records []Fused, policy SortPolicy, today time.Time) []Fused {
	switch policy {
	case SortChronoAsc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SortDate.Less(records[j].SortDate)
		})
	case SortChronoDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[j].SortDate.Less(records[i].SortDate)
		})
	case SortPopularityDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].popularity() > records[j].popularity()
		})
	case SortRatingDesc:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Rating() > records[j].Rating()
		})
	case SortFutureFirst:
		return futureFirst(records, today)
	}
	return records
}

// futureFirst partitions into records with a confirmed date today-or-later
// (soonest first) followed by everything else (most recent first, dateless
// records last). The two buckets order in opposite directions, which is
// why this is a partition and not a single comparator.
func futureFirst(records []Fused, today time.Time) []Fused {
	day := models.DateOf(today)

	var future, past []Fused
	for _, r := range records {
		if r.SortDate.Valid() && !r.SortDate.Less(day) {
			future = append(future, r)
		} else {
			past = append(past, r)
		}
	}
	sort.SliceStable(future, func(i, j int) bool {
		return future[i].SortDate.Less(future[j].SortDate)
	})
	sort.SliceStable(past, func(i, j int) bool {
		return past[j].SortDate.Less(past[i].SortDate)
	})
	return append(future, past...)
}

package metadata

import (
	"context"
	"log"
	"time"

	"github.com/sourcegraph/conc/pool"

	"watchdeck/models"
)

// EnrichBatch fetches extended detail for every resolved title in parallel,
// capped at maxParallel in-flight requests. The call returns only after the
// whole batch settles; a per-item failure leaves that title's enrichment
// fields empty instead of dropping it or failing the batch.
func (s *Service) EnrichBatch(ctx context.Context, titles []*models.CanonicalTitle) {
	p := pool.New().WithMaxGoroutines(s.maxParallel)
	for _, t := range titles {
		if t == nil {
			continue
		}
		t := t
		p.Go(func() {
			s.enrichOne(ctx, t)
		})
	}
	p.Wait()
}

func (s *Service) enrichOne(ctx context.Context, t *models.CanonicalTitle) {
	if t.MediaKind != models.MediaKindSeries {
		return
	}

	detail, err := s.tmdb.tvDetails(ctx, t.ID)
	if err != nil {
		// Partial enrichment: keep the item with a date-less schedule.
		log.Printf("[enricher] detail fetch failed for tmdb %d: %v", t.ID, err)
		return
	}

	// The detail payload is higher fidelity than the search row it came
	// from; fill anything the list response left blank.
	if t.Name == "" {
		t.Name = detail.Title.Name
	}
	if t.OriginalName == "" {
		t.OriginalName = detail.Title.OriginalName
	}
	if t.PosterPath == "" {
		t.PosterPath = detail.Title.PosterPath
	}
	if t.BackdropPath == "" {
		t.BackdropPath = detail.Title.BackdropPath
	}
	if t.Overview == "" {
		t.Overview = detail.Title.Overview
	}
	if len(t.GenreIDs) == 0 {
		t.GenreIDs = detail.Title.GenreIDs
	}
	if !t.ReleaseDate.Valid() {
		t.ReleaseDate = detail.Title.ReleaseDate
	}
	if t.Rating == 0 {
		t.Rating = detail.Title.Rating
	}

	ApplySchedule(t, detail.NextEpisode, detail.LastEpisode, time.Now())
}

// ApplySchedule sets the title's episode pointers and schedule tag from the
// provider's next/last episode data, relative to today:
//
//   - a scheduled episode airing today or later is the next episode
//     ("upcoming") and becomes the sort/display date;
//   - otherwise the most recently aired episode is the last episode
//     ("recent");
//   - with neither, the series keeps only its first-air-date
//     ("unknown-schedule").
func ApplySchedule(t *models.CanonicalTitle, next, last *models.EpisodeRef, today time.Time) {
	dayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	if next != nil && next.AirDate.Valid() && !next.AirDate.Time().Before(dayStart) {
		t.NextEpisode = next
		t.Schedule = models.ScheduleUpcoming
		return
	}

	// A stale "next" pointer whose date already passed still proves a
	// recent episode exists; prefer the provider's explicit last pointer.
	if last == nil && next != nil && next.AirDate.Valid() {
		last = next
	}
	if last != nil && last.AirDate.Valid() {
		t.LastEpisode = last
		t.Schedule = models.ScheduleRecent
		return
	}

	t.Schedule = models.ScheduleUnknown
}

// SortDate returns the date a title sorts by once enriched: the upcoming
// episode's air date, else the last aired episode's, else first-air-date.
func SortDate(t *models.CanonicalTitle) models.AirDate {
	if t == nil {
		return models.AirDate{}
	}
	switch t.Schedule {
	case models.ScheduleUpcoming:
		if t.NextEpisode != nil {
			return t.NextEpisode.AirDate
		}
	case models.ScheduleRecent:
		if t.LastEpisode != nil {
			return t.LastEpisode.AirDate
		}
	}
	return t.ReleaseDate
}

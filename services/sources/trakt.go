package sources

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"watchdeck/models"
	"watchdeck/services/trakt"
)

// TraktList serves public Trakt user lists. Trakt already carries TMDB IDs
// for its entries, so candidates come out with a canonical hint and the
// resolver skips the fuzzy search.
type TraktList struct {
	client    *trakt.Client
	user      string
	mediaKind string
}

func NewTraktList(client *trakt.Client, user, mediaKind string) *TraktList {
	if mediaKind != models.MediaKindMovie {
		mediaKind = models.MediaKindSeries
	}
	return &TraktList{client: client, user: user, mediaKind: mediaKind}
}

func (t *TraktList) Name() string      { return "trakt" }
func (t *TraktList) MediaKind() string { return t.mediaKind }

func (t *TraktList) Fetch(ctx context.Context, q Query) ([]models.Candidate, error) {
	if !t.client.IsConfigured() {
		return nil, fmt.Errorf("%w: trakt not configured", ErrUnavailable)
	}

	listType := q.Category
	if listType == "" {
		listType = "watchlist"
	}
	// The airing calendar is global; every other list needs a user slug.
	if listType == "calendar" {
		return t.fetchCalendar(ctx, q)
	}
	if t.user == "" {
		return nil, fmt.Errorf("%w: trakt user not set", ErrUnavailable)
	}

	mediaType := "shows"
	if t.mediaKind == models.MediaKindMovie {
		mediaType = "movies"
	}

	var (
		items []trakt.ListItem
		err   error
	)
	if listType == "watchlist" {
		items, err = t.client.Watchlist(ctx, t.user, mediaType)
	} else {
		items, err = t.client.UserList(ctx, t.user, listType, mediaType)
	}
	if err != nil {
		log.Printf("[trakt] %s/%s fetch failed: %v", t.user, listType, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var all []models.Candidate
	for _, item := range items {
		cand, ok := candidateFromListItem(item)
		if !ok {
			continue
		}
		all = append(all, cand)
	}
	return slicePage(all, q.Page, q.PageSize), nil
}

// fetchCalendar serves the global airing calendar for the next week. Each
// entry carries the episode's air date so chronological policies work
// without a second enrichment pass.
func (t *TraktList) fetchCalendar(ctx context.Context, q Query) ([]models.Candidate, error) {
	entries, err := t.client.Calendar(ctx, time.Now(), 7)
	if err != nil {
		log.Printf("[trakt] calendar fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var all []models.Candidate
	seen := make(map[int64]bool)
	for _, e := range entries {
		if e.Show == nil || e.Show.Title == "" {
			continue
		}
		// One card per show even when several episodes air in the window.
		if e.Show.IDs.Trakt != 0 && seen[e.Show.IDs.Trakt] {
			continue
		}
		seen[e.Show.IDs.Trakt] = true

		supplement := ""
		if e.Episode != nil && e.Episode.Number > 0 {
			supplement = fmt.Sprintf("S%02dE%02d", e.Episode.Season, e.Episode.Number)
		}
		yearText := ""
		if e.Show.Year > 0 {
			yearText = strconv.Itoa(e.Show.Year)
		}
		var aired models.AirDate
		if !e.FirstAired.IsZero() {
			aired = models.DateOf(e.FirstAired)
		}
		all = append(all, models.Candidate{
			Title:     e.Show.Title,
			Year:      yearText,
			MediaKind: models.MediaKindSeries,
			SourceID:  fmt.Sprintf("trakt_%d", e.Show.IDs.Trakt),
			SourceMeta: models.SourceMeta{
				Rating:      e.Show.Rating,
				Description: e.Show.Overview,
				Supplement:  supplement,
				TMDBHint:    e.Show.IDs.TMDB,
				AirDate:     aired,
			},
		})
	}
	return slicePage(all, q.Page, q.PageSize), nil
}

func candidateFromListItem(item trakt.ListItem) (models.Candidate, bool) {
	var (
		title    string
		year     int
		overview string
		rating   float64
		ids      trakt.IDs
		kind     string
	)
	switch {
	case item.Show != nil:
		title, year, overview, rating, ids = item.Show.Title, item.Show.Year, item.Show.Overview, item.Show.Rating, item.Show.IDs
		kind = models.MediaKindSeries
	case item.Movie != nil:
		title, year, overview, rating, ids = item.Movie.Title, item.Movie.Year, item.Movie.Overview, item.Movie.Rating, item.Movie.IDs
		kind = models.MediaKindMovie
	default:
		return models.Candidate{}, false
	}
	if title == "" {
		return models.Candidate{}, false
	}

	yearText := ""
	if year > 0 {
		yearText = strconv.Itoa(year)
	}
	return models.Candidate{
		Title:     title,
		Year:      yearText,
		MediaKind: kind,
		SourceID:  fmt.Sprintf("trakt_%d", ids.Trakt),
		SourceMeta: models.SourceMeta{
			Rating:      rating,
			Description: overview,
			TMDBHint:    ids.TMDB,
		},
	}, true
}

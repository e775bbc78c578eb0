package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"watchdeck/models"
)

const (
	tmdbBaseURL = "https://api.themoviedb.org/3"
)

// tmdbClient is a minimal TMDB v3 client covering the endpoints the widget
// pipelines need: search, detail, discover and trending.
type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client

	// TMDB allows ~50 req/s; the limiter keeps burst fan-out from resolver
	// batches under that ceiling.
	limiter *rate.Limiter
}

func newTMDBClient(apiKey, language string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:   strings.TrimSpace(apiKey),
		language: language,
		httpc:    httpc,
		limiter:  rate.NewLimiter(rate.Every(25*time.Millisecond), 5),
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

// doGET performs a rate-limited GET with retry on transient failures.
// Client errors (4xx other than 429) and decode errors are not retried.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if !c.isConfigured() {
		return errors.New("tmdb api key not configured")
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	if query.Get("language") == "" {
		query.Set("language", normalizeLanguage(c.language))
	}
	full := tmdbBaseURL + endpoint + "?" + query.Encode()

	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpc.Do(req)
			if err != nil {
				log.Printf("[tmdb] http error for %s: %v", endpoint, err)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				log.Printf("[tmdb] transient status for %s: %s", endpoint, resp.Status)
				return fmt.Errorf("tmdb request failed: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("tmdb request failed: %s", resp.Status))
			}
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}

// tmdbListItem is the shared shape of entries in search, discover and
// trending result lists.
type tmdbListItem struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	OriginalName  string  `json:"original_name"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	FirstAirDate  string  `json:"first_air_date"`
	ReleaseDate   string  `json:"release_date"`
	GenreIDs      []int64 `json:"genre_ids"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity"`
}

type tmdbListResponse struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []tmdbListItem `json:"results"`
}

func (r tmdbListItem) toCanonical(mediaKind string) models.CanonicalTitle {
	name := r.Name
	original := r.OriginalName
	date := r.FirstAirDate
	if mediaKind == models.MediaKindMovie {
		name = r.Title
		original = r.OriginalTitle
		date = r.ReleaseDate
	}
	if name == "" {
		name = original
	}
	return models.CanonicalTitle{
		ID:           r.ID,
		Name:         name,
		OriginalName: original,
		MediaKind:    mediaKind,
		ReleaseDate:  models.ParseAirDate(date),
		GenreIDs:     r.GenreIDs,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		Rating:       r.VoteAverage,
		Popularity:   r.Popularity,
		Overview:     r.Overview,
	}
}

// search queries the kind-specific search endpoint and returns results in
// provider rank order.
func (c *tmdbClient) search(ctx context.Context, query, mediaKind string) ([]models.CanonicalTitle, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("include_adult", "false")

	var payload tmdbListResponse
	if err := c.doGET(ctx, "/search/"+apiMediaType(mediaKind), q, &payload); err != nil {
		return nil, err
	}

	out := make([]models.CanonicalTitle, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == 0 {
			continue
		}
		out = append(out, r.toCanonical(mediaKind))
	}
	return out, nil
}

// trending returns this week's trending titles for the media kind.
func (c *tmdbClient) trending(ctx context.Context, mediaKind string) ([]models.CanonicalTitle, error) {
	var payload tmdbListResponse
	if err := c.doGET(ctx, "/trending/"+apiMediaType(mediaKind)+"/week", nil, &payload); err != nil {
		return nil, err
	}

	out := make([]models.CanonicalTitle, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == 0 {
			continue
		}
		out = append(out, r.toCanonical(mediaKind))
	}
	return out, nil
}

// DiscoverQuery describes a /discover/tv date-window request. Premiere
// windows filter on first_air_date, update windows on air_date.
type DiscoverQuery struct {
	Start    models.AirDate
	End      models.AirDate
	Premiere bool
	Region   string // origin country filter, empty = global
	Page     int
}

var regionLanguage = map[string]string{
	"JP": "ja",
	"KR": "ko",
	"CN": "zh",
	"GB": "en",
	"US": "en",
}

// discoverTV runs a calendar-style discover query with native pagination.
func (c *tmdbClient) discoverTV(ctx context.Context, dq DiscoverQuery) ([]models.CanonicalTitle, error) {
	q := url.Values{}
	q.Set("sort_by", "popularity.desc")
	q.Set("include_null_first_air_dates", "false")
	q.Set("timezone", "Asia/Shanghai")
	page := dq.Page
	if page <= 0 {
		page = 1
	}
	q.Set("page", fmt.Sprintf("%d", page))

	dateField := "air_date"
	if dq.Premiere {
		dateField = "first_air_date"
	}
	if dq.Start.Valid() {
		q.Set(dateField+".gte", dq.Start.String())
	}
	if dq.End.Valid() {
		q.Set(dateField+".lte", dq.End.String())
	}
	if dq.Region != "" {
		q.Set("with_origin_country", dq.Region)
		if lang, ok := regionLanguage[dq.Region]; ok {
			q.Set("with_original_language", lang)
		}
	}

	var payload tmdbListResponse
	if err := c.doGET(ctx, "/discover/tv", q, &payload); err != nil {
		return nil, err
	}

	out := make([]models.CanonicalTitle, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.ID == 0 {
			continue
		}
		out = append(out, r.toCanonical(models.MediaKindSeries))
	}
	return out, nil
}

type tmdbEpisode struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

func (e *tmdbEpisode) toRef() *models.EpisodeRef {
	if e == nil {
		return nil
	}
	return &models.EpisodeRef{
		SeasonNumber:  e.SeasonNumber,
		EpisodeNumber: e.EpisodeNumber,
		AirDate:       models.ParseAirDate(e.AirDate),
	}
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbTVDetail struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	OriginalName     string       `json:"original_name"`
	Overview         string       `json:"overview"`
	PosterPath       string       `json:"poster_path"`
	BackdropPath     string       `json:"backdrop_path"`
	FirstAirDate     string       `json:"first_air_date"`
	Genres           []tmdbGenre  `json:"genres"`
	VoteAverage      float64      `json:"vote_average"`
	Popularity       float64      `json:"popularity"`
	NextEpisodeToAir *tmdbEpisode `json:"next_episode_to_air"`
	LastEpisodeToAir *tmdbEpisode `json:"last_episode_to_air"`
}

// tvDetail holds a series detail plus its episode schedule pointers.
type tvDetail struct {
	Title       models.CanonicalTitle
	NextEpisode *models.EpisodeRef
	LastEpisode *models.EpisodeRef
}

func (c *tmdbClient) tvDetails(ctx context.Context, id int64) (*tvDetail, error) {
	var payload tmdbTVDetail
	if err := c.doGET(ctx, fmt.Sprintf("/tv/%d", id), nil, &payload); err != nil {
		return nil, err
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("tmdb tv %d: empty detail", id)
	}

	genreIDs := make([]int64, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		genreIDs = append(genreIDs, g.ID)
	}

	return &tvDetail{
		Title: models.CanonicalTitle{
			ID:           payload.ID,
			Name:         payload.Name,
			OriginalName: payload.OriginalName,
			MediaKind:    models.MediaKindSeries,
			ReleaseDate:  models.ParseAirDate(payload.FirstAirDate),
			GenreIDs:     genreIDs,
			PosterPath:   payload.PosterPath,
			BackdropPath: payload.BackdropPath,
			Rating:       payload.VoteAverage,
			Popularity:   payload.Popularity,
			Overview:     payload.Overview,
		},
		NextEpisode: payload.NextEpisodeToAir.toRef(),
		LastEpisode: payload.LastEpisodeToAir.toRef(),
	}, nil
}

type tmdbMovieDetail struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	Overview      string      `json:"overview"`
	PosterPath    string      `json:"poster_path"`
	BackdropPath  string      `json:"backdrop_path"`
	ReleaseDate   string      `json:"release_date"`
	Genres        []tmdbGenre `json:"genres"`
	VoteAverage   float64     `json:"vote_average"`
	Popularity    float64     `json:"popularity"`
}

func (c *tmdbClient) movieDetails(ctx context.Context, id int64) (*models.CanonicalTitle, error) {
	var payload tmdbMovieDetail
	if err := c.doGET(ctx, fmt.Sprintf("/movie/%d", id), nil, &payload); err != nil {
		return nil, err
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("tmdb movie %d: empty detail", id)
	}

	genreIDs := make([]int64, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		genreIDs = append(genreIDs, g.ID)
	}

	return &models.CanonicalTitle{
		ID:           payload.ID,
		Name:         payload.Title,
		OriginalName: payload.OriginalTitle,
		MediaKind:    models.MediaKindMovie,
		ReleaseDate:  models.ParseAirDate(payload.ReleaseDate),
		GenreIDs:     genreIDs,
		PosterPath:   payload.PosterPath,
		BackdropPath: payload.BackdropPath,
		Rating:       payload.VoteAverage,
		Popularity:   payload.Popularity,
		Overview:     payload.Overview,
	}, nil
}

func apiMediaType(mediaKind string) string {
	if mediaKind == models.MediaKindMovie {
		return "movie"
	}
	return "tv"
}

var shortLanguageRegion = map[string]string{
	"zh": "zh-CN",
	"en": "en-US",
	"ja": "ja-JP",
	"ko": "ko-KR",
}

func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return "zh-CN"
	}
	if len(lang) == 2 {
		lower := strings.ToLower(lang)
		if full, ok := shortLanguageRegion[lower]; ok {
			return full
		}
		return lower + "-" + strings.ToUpper(lang)
	}
	if len(lang) >= 5 {
		return strings.ToLower(lang[:2]) + "-" + strings.ToUpper(lang[3:5])
	}
	return "zh-CN"
}

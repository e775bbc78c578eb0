package models

// Shared metadata structures flowing through the widget pipelines.

// Media kinds. Each pipeline invocation fixes one kind; adapters never mix
// them within a single result set.
const (
	MediaKindMovie  = "movie"
	MediaKindSeries = "series"
)

// SourceMeta carries the fields an origin source provides directly. They
// are used only when canonical resolution fails, except Supplement which is
// preserved as display text regardless of match outcome.
type SourceMeta struct {
	Rating      float64 `json:"rating,omitempty"`
	PosterURL   string  `json:"posterUrl,omitempty"`
	Description string  `json:"description,omitempty"`
	LinkURL     string  `json:"linkUrl,omitempty"`
	// Supplement is origin-only display text (watcher count, update index,
	// community comment) appended to the subtitle.
	Supplement string `json:"supplement,omitempty"`
	// TMDBHint is a canonical ID the source already knows (Trakt items carry
	// one), letting the resolver skip the search round-trip.
	TMDBHint int64 `json:"tmdbHint,omitempty"`
	// AirDate is the source's own notion of when the item airs or updated.
	AirDate AirDate `json:"airDate,omitempty"`
}

// Candidate is a raw, low-fidelity item from an origin source,
// pre-resolution. Adapters drop entries they cannot title.
type Candidate struct {
	Title          string     `json:"title"`
	AlternateTitle string     `json:"alternateTitle,omitempty"`
	Year           string     `json:"year,omitempty"`
	MediaKind      string     `json:"mediaKind"`
	SourceID       string     `json:"sourceId"`
	SourceMeta     SourceMeta `json:"sourceMeta"`
}

// ScheduleTag classifies a series' airing state after enrichment.
type ScheduleTag string

const (
	ScheduleUpcoming ScheduleTag = "upcoming"
	ScheduleRecent   ScheduleTag = "recent"
	ScheduleUnknown  ScheduleTag = "unknown-schedule"
)

// EpisodeRef points at one episode of a series.
type EpisodeRef struct {
	SeasonNumber  int     `json:"seasonNumber"`
	EpisodeNumber int     `json:"episodeNumber"`
	AirDate       AirDate `json:"airDate"`
}

// CanonicalTitle is the canonical provider's view of a title. ID uniquely
// determines name and artwork for the lifetime of one pipeline run.
type CanonicalTitle struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"originalName,omitempty"`
	MediaKind    string  `json:"mediaKind"`
	ReleaseDate  AirDate `json:"releaseDate"`
	GenreIDs     []int64 `json:"genreIds,omitempty"`
	PosterPath   string  `json:"posterPath,omitempty"`
	BackdropPath string  `json:"backdropPath,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
	Overview     string  `json:"overview,omitempty"`

	// Enrichment fields, series only. Empty until the detail enricher runs;
	// they stay empty when the per-item detail fetch fails.
	NextEpisode *EpisodeRef `json:"nextEpisode,omitempty"`
	LastEpisode *EpisodeRef `json:"lastEpisode,omitempty"`
	Schedule    ScheduleTag `json:"schedule,omitempty"`
}

// Clone returns an independent copy. Enrichment mutates canonical records
// in place, so any record handed to more than one pipeline run must be
// cloned first.
func (t *CanonicalTitle) Clone() *CanonicalTitle {
	if t == nil {
		return nil
	}
	c := *t
	if t.GenreIDs != nil {
		c.GenreIDs = append([]int64(nil), t.GenreIDs...)
	}
	if t.NextEpisode != nil {
		next := *t.NextEpisode
		c.NextEpisode = &next
	}
	if t.LastEpisode != nil {
		last := *t.LastEpisode
		c.LastEpisode = &last
	}
	return &c
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"watchdeck/config"
	"watchdeck/models"
	"watchdeck/services/metadata"
	"watchdeck/services/pipeline"
	"watchdeck/services/sources"
	"watchdeck/services/trakt"
)

// WidgetHandler serves the widget endpoints. Every endpoint responds with a
// renderable card list and status 200; failures surface as diagnostic
// cards, never as HTTP errors.
type WidgetHandler struct {
	Meta     *metadata.Service
	Settings config.Settings
	Trakt    *trakt.Client

	// HTTPClient overrides the adapters' transport, for tests.
	HTTPClient *http.Client
}

func NewWidgetHandler(meta *metadata.Service, settings config.Settings, traktClient *trakt.Client) *WidgetHandler {
	return &WidgetHandler{Meta: meta, Settings: settings, Trakt: traktClient}
}

func (h *WidgetHandler) writeCards(w http.ResponseWriter, cards []models.Card) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cards)
}

func (h *WidgetHandler) query(r *http.Request) sources.Query {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	weekday, _ := strconv.Atoi(q.Get("weekday"))
	if weekday < 0 || weekday > 7 {
		weekday = 0
	}
	return sources.Query{
		Weekday:  weekday,
		Page:     page,
		PageSize: h.Settings.Pipeline.PageSize,
		Category: strings.TrimSpace(q.Get("category")),
	}
}

func (h *WidgetHandler) sortPolicy(r *http.Request, fallback pipeline.SortPolicy) pipeline.SortPolicy {
	switch r.URL.Query().Get("sort") {
	case "date-asc":
		return pipeline.SortChronoAsc
	case "date-desc":
		return pipeline.SortChronoDesc
	case "popularity":
		return pipeline.SortPopularityDesc
	case "rating":
		return pipeline.SortRatingDesc
	case "future-first":
		return pipeline.SortFutureFirst
	default:
		return fallback
	}
}

func (h *WidgetHandler) resolveMode() string {
	if h.Settings.Pipeline.ResolveMode == config.ResolveModeStrict {
		return pipeline.ResolveStrict
	}
	return pipeline.ResolveLenient
}

func (h *WidgetHandler) run(w http.ResponseWriter, r *http.Request, source sources.Adapter, policy pipeline.SortPolicy, enrich bool) {
	p := &pipeline.Pipeline{
		Source:      source,
		Meta:        h.Meta,
		Policy:      h.sortPolicy(r, policy),
		ResolveMode: h.resolveMode(),
		Enrich:      enrich,
	}
	h.writeCards(w, p.Run(r.Context(), h.query(r)))
}

// AnimeCalendar serves the Bangumi weekly broadcast calendar.
// GET /api/widgets/anime-calendar?weekday=0..7&page=1
func (h *WidgetHandler) AnimeCalendar(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, sources.NewBangumi(h.HTTPClient), pipeline.SortNone, false)
}

// BiliCalendar serves the Bilibili bangumi update timeline.
// GET /api/widgets/bili-calendar?weekday=0..7&page=1
func (h *WidgetHandler) BiliCalendar(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, sources.NewBilibili(h.HTTPClient), pipeline.SortNone, false)
}

// StreamingHot serves Douban's ranked hot lists.
// GET /api/widgets/streaming-hot?type=series|movie&category=热门&page=1&sort=rating
func (h *WidgetHandler) StreamingHot(w http.ResponseWriter, r *http.Request) {
	mediaKind := models.MediaKindSeries
	if r.URL.Query().Get("type") == models.MediaKindMovie {
		mediaKind = models.MediaKindMovie
	}
	h.run(w, r, sources.NewDouban(h.HTTPClient, mediaKind), pipeline.SortNone, false)
}

// Tomatoes serves the Rotten Tomatoes certified browse lists.
// GET /api/widgets/tomatoes?category=movies_home|tv_popular|...&page=1
func (h *WidgetHandler) Tomatoes(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, sources.NewRottenTomatoes(h.HTTPClient), pipeline.SortNone, false)
}

// TraktList serves a public Trakt user list with episode-level tracking:
// entries are enriched and partitioned future-first so "what airs next"
// leads the list.
// GET /api/widgets/trakt-list?user=slug&type=series|movie&category=watchlist
func (h *WidgetHandler) TraktList(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		user = h.Settings.Trakt.DefaultUser
	}
	mediaKind := models.MediaKindSeries
	if r.URL.Query().Get("type") == models.MediaKindMovie {
		mediaKind = models.MediaKindMovie
	}

	enrich := mediaKind == models.MediaKindSeries
	h.run(w, r, sources.NewTraktList(h.Trakt, user, mediaKind), pipeline.SortFutureFirst, enrich)
}

// AirCalendar serves airing/premiering series straight from the canonical
// provider's discover feed (no origin source, no resolution). The mode
// parameter picks the date window: "today" for today's episode updates
// (default: the surrounding week), "premiere-tomorrow" / "premiere-week" /
// "premiere-month" for upcoming first airings.
// GET /api/widgets/air-calendar?mode=premiere-week&region=JP&page=1
func (h *WidgetHandler) AirCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	var dq metadata.DiscoverQuery
	switch r.URL.Query().Get("mode") {
	case "today":
		dq = metadata.DiscoverQuery{Start: models.DateOf(now), End: models.DateOf(now)}
	case "premiere-tomorrow":
		tomorrow := models.DateOf(now.AddDate(0, 0, 1))
		dq = metadata.DiscoverQuery{Start: tomorrow, End: tomorrow, Premiere: true}
	case "premiere-week":
		dq = metadata.DiscoverQuery{
			Start:    models.DateOf(now),
			End:      models.DateOf(now.AddDate(0, 0, 7)),
			Premiere: true,
		}
	case "premiere-month":
		dq = metadata.DiscoverQuery{
			Start:    models.DateOf(now),
			End:      models.DateOf(now.AddDate(0, 0, 30)),
			Premiere: true,
		}
	default:
		dq = metadata.DiscoverQuery{
			Start: models.DateOf(now.AddDate(0, 0, -1)),
			End:   models.DateOf(now.AddDate(0, 0, 6)),
		}
	}
	h.discover(w, r, dq, pipeline.SortChronoAsc)
}

// Upcoming serves series premiering in the next 30 days, nearest premiere
// first; anything already premiered inside the window sorts behind the
// future entries.
// GET /api/widgets/upcoming?region=KR&page=1
func (h *WidgetHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	h.discover(w, r, metadata.DiscoverQuery{
		Start:    models.DateOf(now),
		End:      models.DateOf(now.AddDate(0, 0, 30)),
		Premiere: true,
	}, pipeline.SortFutureFirst)
}

func (h *WidgetHandler) discover(w http.ResponseWriter, r *http.Request, dq metadata.DiscoverQuery, policy pipeline.SortPolicy) {
	if !h.Meta.Configured() {
		h.writeCards(w, []models.Card{pipeline.DiagnosticCard("配置缺失", "未设置 TMDB API Key")})
		return
	}

	q := r.URL.Query()
	dq.Region = strings.ToUpper(strings.TrimSpace(q.Get("region")))
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		dq.Page = page
	}

	titles, err := h.Meta.DiscoverTV(r.Context(), dq)
	if err != nil {
		h.writeCards(w, []models.Card{pipeline.DiagnosticCard("网络错误", "TMDB 查询失败，请稍后重试")})
		return
	}
	if len(titles) == 0 {
		h.writeCards(w, []models.Card{pipeline.DiagnosticCard("暂无数据", "该时间窗口内没有条目")})
		return
	}

	h.writeCards(w, pipeline.RenderCanonical(titles, h.sortPolicy(r, policy), h.Meta.GenreLabel))
}

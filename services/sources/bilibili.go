package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"watchdeck/models"
)

const bilibiliTimelineURL = "https://api.bilibili.com/pgc/web/timeline/v2?season_type=1&before=6&after=6"

// Bilibili serves the bangumi update timeline from the Bilibili PGC API.
// Like Bangumi, the upstream returns a 13-day window in one payload and
// pagination is emulated locally.
type Bilibili struct {
	httpc *http.Client
}

func NewBilibili(httpc *http.Client) *Bilibili {
	if httpc == nil {
		httpc = defaultHTTPClient()
	}
	return &Bilibili{httpc: httpc}
}

func (b *Bilibili) Name() string      { return "bilibili" }
func (b *Bilibili) MediaKind() string { return models.MediaKindSeries }

type bilibiliTimelineResponse struct {
	Result struct {
		Timeline []struct {
			DayOfWeek int    `json:"day_of_week"`
			Date      string `json:"date"`
			Episodes  []struct {
				SeasonID    int64  `json:"season_id"`
				SeasonTitle string `json:"season_title"`
				Title       string `json:"title"`
				Cover       string `json:"cover"`
				PubIndex    string `json:"pub_index"`
				PubTime     string `json:"pub_time"`
			} `json:"episodes"`
		} `json:"timeline"`
	} `json:"result"`
}

func (b *Bilibili) Fetch(ctx context.Context, q Query) ([]models.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bilibiliTimelineURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := b.httpc.Do(req)
	if err != nil {
		log.Printf("[bilibili] timeline fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var payload bilibiliTimelineResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	day := isoWeekday(q.Weekday, time.Now())
	var all []models.Candidate
	for _, t := range payload.Result.Timeline {
		if t.DayOfWeek != day {
			continue
		}
		for _, ep := range t.Episodes {
			title := ep.SeasonTitle
			if title == "" {
				title = ep.Title
			}
			if title == "" {
				continue
			}
			// "19:00 • 第8话" style update line, shown whether or not the
			// canonical join succeeds.
			supplement := ep.PubTime
			if ep.PubIndex != "" {
				if supplement != "" {
					supplement += " • "
				}
				supplement += ep.PubIndex
			}
			all = append(all, models.Candidate{
				Title:     title,
				MediaKind: models.MediaKindSeries,
				SourceID:  fmt.Sprintf("bili_%d", ep.SeasonID),
				SourceMeta: models.SourceMeta{
					PosterURL:  ep.Cover,
					Supplement: supplement,
					AirDate:    models.ParseAirDate(t.Date),
				},
			})
		}
		// The window can contain the same weekday twice; the first
		// occurrence is the one closest to today.
		break
	}

	return slicePage(all, q.Page, q.PageSize), nil
}

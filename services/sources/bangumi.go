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

const bangumiCalendarURL = "https://api.bgm.tv/calendar"

// Bangumi serves the weekly anime broadcast calendar from bgm.tv. The
// upstream returns the whole week in one payload, so pagination is
// client-side slicing of the selected day.
type Bangumi struct {
	httpc *http.Client
}

func NewBangumi(httpc *http.Client) *Bangumi {
	if httpc == nil {
		httpc = defaultHTTPClient()
	}
	return &Bangumi{httpc: httpc}
}

func (b *Bangumi) Name() string      { return "bangumi" }
func (b *Bangumi) MediaKind() string { return models.MediaKindSeries }

type bangumiDay struct {
	Weekday struct {
		ID int `json:"id"`
	} `json:"weekday"`
	Items []struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		NameCN  string `json:"name_cn"`
		Summary string `json:"summary"`
		AirDate string `json:"air_date"`
		Rating  struct {
			Score float64 `json:"score"`
		} `json:"rating"`
		Images struct {
			Large  string `json:"large"`
			Common string `json:"common"`
		} `json:"images"`
	} `json:"items"`
}

func (b *Bangumi) Fetch(ctx context.Context, q Query) ([]models.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bangumiCalendarURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := b.httpc.Do(req)
	if err != nil {
		log.Printf("[bangumi] calendar fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var week []bangumiDay
	if err := json.NewDecoder(resp.Body).Decode(&week); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	day := isoWeekday(q.Weekday, time.Now())
	var all []models.Candidate
	for _, d := range week {
		if d.Weekday.ID != day {
			continue
		}
		for _, item := range d.Items {
			title := item.NameCN
			if title == "" {
				title = item.Name
			}
			if title == "" {
				continue
			}
			poster := item.Images.Large
			if poster == "" {
				poster = item.Images.Common
			}
			year := ""
			if len(item.AirDate) >= 4 {
				year = item.AirDate[:4]
			}
			all = append(all, models.Candidate{
				Title:          title,
				AlternateTitle: item.Name,
				Year:           year,
				MediaKind:      models.MediaKindSeries,
				SourceID:       fmt.Sprintf("bgm_%d", item.ID),
				SourceMeta: models.SourceMeta{
					Rating:      item.Rating.Score,
					PosterURL:   poster,
					Description: item.Summary,
					AirDate:     models.ParseAirDate(item.AirDate),
				},
			})
		}
		break
	}

	return slicePage(all, q.Page, q.PageSize), nil
}

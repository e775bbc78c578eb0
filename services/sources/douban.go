package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"watchdeck/models"
)

const doubanSearchSubjectsURL = "https://movie.douban.com/j/search_subjects"

// Douban serves the "热门" style ranked lists from Douban's mobile JSON
// endpoint. The endpoint takes page_start/page_limit, so pagination is
// passed through natively.
type Douban struct {
	httpc *http.Client
	// mediaKind decides the upstream type parameter and the kind stamped
	// on every candidate; one instance per kind.
	mediaKind string
}

func NewDouban(httpc *http.Client, mediaKind string) *Douban {
	if httpc == nil {
		httpc = defaultHTTPClient()
	}
	if mediaKind != models.MediaKindMovie {
		mediaKind = models.MediaKindSeries
	}
	return &Douban{httpc: httpc, mediaKind: mediaKind}
}

func (d *Douban) Name() string      { return "douban" }
func (d *Douban) MediaKind() string { return d.mediaKind }

type doubanSubjectsResponse struct {
	Subjects []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Rate  string `json:"rate"`
		Cover string `json:"cover"`
		URL   string `json:"url"`
	} `json:"subjects"`
}

func (d *Douban) Fetch(ctx context.Context, q Query) ([]models.Candidate, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 15
	}
	tag := q.Category
	if tag == "" {
		tag = "热门"
	}
	upstreamType := "tv"
	if d.mediaKind == models.MediaKindMovie {
		upstreamType = "movie"
	}

	params := url.Values{}
	params.Set("type", upstreamType)
	params.Set("tag", tag)
	params.Set("sort", "recommend")
	params.Set("page_limit", strconv.Itoa(pageSize))
	params.Set("page_start", strconv.Itoa((page-1)*pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doubanSearchSubjectsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// The endpoint rejects requests without a browser UA and referer.
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Referer", "https://movie.douban.com/")

	resp, err := d.httpc.Do(req)
	if err != nil {
		log.Printf("[douban] %s/%s fetch failed: %v", upstreamType, tag, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	var payload doubanSubjectsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	out := make([]models.Candidate, 0, len(payload.Subjects))
	for _, s := range payload.Subjects {
		if s.Title == "" {
			continue
		}
		rating, _ := strconv.ParseFloat(s.Rate, 64)
		out = append(out, models.Candidate{
			Title:     s.Title,
			MediaKind: d.mediaKind,
			SourceID:  "db_" + s.ID,
			SourceMeta: models.SourceMeta{
				Rating:    rating,
				PosterURL: s.Cover,
				LinkURL:   s.URL,
			},
		})
	}
	return out, nil
}

package sources

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"watchdeck/models"
)

// Rotten Tomatoes has no public API; the browse pages are scraped. Each
// category maps to one pre-filtered browse URL.
var rottenTomatoesLists = map[string]string{
	"movies_theater": "https://www.rottentomatoes.com/browse/movies_in_theaters/sort:popular?minTomato=75",
	"movies_home":    "https://www.rottentomatoes.com/browse/movies_at_home/sort:popular?minTomato=75",
	"movies_best":    "https://www.rottentomatoes.com/browse/movies_at_home/sort:critic_highest?minTomato=90",
	"tv_popular":     "https://www.rottentomatoes.com/browse/tv_series_browse/sort:popular?minTomato=75",
	"tv_new":         "https://www.rottentomatoes.com/browse/tv_series_browse/sort:newest?minTomato=75",
}

type RottenTomatoes struct {
	httpc *http.Client
}

func NewRottenTomatoes(httpc *http.Client) *RottenTomatoes {
	if httpc == nil {
		httpc = defaultHTTPClient()
	}
	return &RottenTomatoes{httpc: httpc}
}

func (r *RottenTomatoes) Name() string { return "tomatoes" }

// MediaKind depends on the category; the series kind is the safe default
// for the generic interface and Fetch stamps each candidate correctly.
func (r *RottenTomatoes) MediaKind() string { return models.MediaKindMovie }

func categoryMediaKind(category string) string {
	if strings.HasPrefix(category, "tv") {
		return models.MediaKindSeries
	}
	return models.MediaKindMovie
}

func (r *RottenTomatoes) Fetch(ctx context.Context, q Query) ([]models.Candidate, error) {
	listURL, ok := rottenTomatoesLists[q.Category]
	if !ok {
		listURL = rottenTomatoesLists["movies_home"]
	}
	mediaKind := categoryMediaKind(q.Category)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := r.httpc.Do(req)
	if err != nil {
		log.Printf("[tomatoes] browse fetch failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrUnavailable, err)
	}

	all := parseRottenTomatoesBrowse(doc, mediaKind)
	return slicePage(all, q.Page, q.PageSize), nil
}

// parseRottenTomatoesBrowse extracts title and score pairs from a browse
// page. The critic/audience scores travel as a supplement string so they
// survive fusion even after canonical data replaces the rest.
func parseRottenTomatoesBrowse(doc *goquery.Document, mediaKind string) []models.Candidate {
	var out []models.Candidate
	doc.Find(`[data-qa="discovery-media-list-item"]`).Each(func(i int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(`[data-qa="discovery-media-list-item-title"]`).Text())
		if title == "" {
			return
		}

		scores := sel.Find("score-pairs").First()
		var tags []string
		if v, ok := scores.Attr("critics-score"); ok && v != "" {
			tags = append(tags, "🍅 "+v+"%")
		}
		if v, ok := scores.Attr("audiencescore"); ok && v != "" {
			tags = append(tags, "🍿 "+v+"%")
		}
		supplement := strings.Join(tags, "  ")
		if supplement == "" {
			supplement = "烂番茄认证"
		}

		cleanTitle, year := stripTrailingYear(title)
		out = append(out, models.Candidate{
			Title:     cleanTitle,
			Year:      year,
			MediaKind: mediaKind,
			SourceID:  fmt.Sprintf("rt_%s_%d", mediaKind, i),
			SourceMeta: models.SourceMeta{
				Supplement: supplement,
			},
		})
	})
	return out
}

// stripTrailingYear splits a "Title (2024)" listing into title and year.
func stripTrailingYear(title string) (string, string) {
	if i := strings.LastIndex(title, " ("); i > 0 && strings.HasSuffix(title, ")") {
		year := title[i+2 : len(title)-1]
		if len(year) == 4 {
			for _, r := range year {
				if r < '0' || r > '9' {
					return title, ""
				}
			}
			return title[:i], year
		}
	}
	return title, ""
}

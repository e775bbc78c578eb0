package sources

import (
	"context"
	"net/http"
	"testing"

	"watchdeck/models"
)

const tomatoesFixture = `<html><body>
<div data-qa="discovery-media-list-item">
  <span data-qa="discovery-media-list-item-title"> Dune: Part Two </span>
  <score-pairs critics-score="93" audiencescore="95"></score-pairs>
</div>
<div data-qa="discovery-media-list-item">
  <span data-qa="discovery-media-list-item-title">Old Classic (1994)</span>
  <score-pairs critics-score="98" audiencescore=""></score-pairs>
</div>
<div data-qa="discovery-media-list-item">
  <span data-qa="discovery-media-list-item-title"></span>
</div>
</body></html>`

func TestRottenTomatoesFetchParsesBrowsePage(t *testing.T) {
	adapter := NewRottenTomatoes(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Host != "www.rottentomatoes.com" {
				t.Fatalf("unexpected host: %s", req.URL.Host)
			}
			if req.Header.Get("User-Agent") == "" {
				t.Fatalf("scrape requests need a browser user agent")
			}
			return fixedResponse(http.StatusOK, tomatoesFixture)
		}),
	})

	cands, err := adapter.Fetch(context.Background(), Query{Category: "movies_home", PageSize: 15})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates (titleless row dropped), got %d", len(cands))
	}

	if cands[0].Title != "Dune: Part Two" {
		t.Fatalf("unexpected title %q", cands[0].Title)
	}
	if cands[0].SourceMeta.Supplement != "🍅 93%  🍿 95%" {
		t.Fatalf("unexpected supplement %q", cands[0].SourceMeta.Supplement)
	}
	if cands[0].MediaKind != models.MediaKindMovie {
		t.Fatalf("unexpected media kind %q", cands[0].MediaKind)
	}

	if cands[1].Title != "Old Classic" || cands[1].Year != "1994" {
		t.Fatalf("trailing year should split into title/year: %+v", cands[1])
	}
	if cands[1].SourceMeta.Supplement != "🍅 98%" {
		t.Fatalf("unexpected supplement %q", cands[1].SourceMeta.Supplement)
	}
}

func TestRottenTomatoesTVCategoryStampsSeries(t *testing.T) {
	adapter := NewRottenTomatoes(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return fixedResponse(http.StatusOK, `<html><body>
				<div data-qa="discovery-media-list-item">
				  <span data-qa="discovery-media-list-item-title">Severance</span>
				</div></body></html>`)
		}),
	})

	cands, err := adapter.Fetch(context.Background(), Query{Category: "tv_popular"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(cands) != 1 || cands[0].MediaKind != models.MediaKindSeries {
		t.Fatalf("expected series candidate, got %+v", cands)
	}
	// No score attributes at all still yields a displayable supplement.
	if cands[0].SourceMeta.Supplement != "烂番茄认证" {
		t.Fatalf("unexpected supplement %q", cands[0].SourceMeta.Supplement)
	}
}

func TestStripTrailingYear(t *testing.T) {
	cases := []struct {
		in, title, year string
	}{
		{"Dune (2021)", "Dune", "2021"},
		{"Dune", "Dune", ""},
		{"Movie (abcd)", "Movie (abcd)", ""},
		{"(2021)", "(2021)", ""},
	}
	for _, c := range cases {
		title, year := stripTrailingYear(c.in)
		if title != c.title || year != c.year {
			t.Fatalf("stripTrailingYear(%q) = %q, %q", c.in, title, year)
		}
	}
}

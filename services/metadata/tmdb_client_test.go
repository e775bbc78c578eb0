package metadata

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"

	"watchdeck/models"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}, nil
}

func TestTMDBSearchSendsKeyAndLanguage(t *testing.T) {
	var captured *http.Request
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{"page":1,"results":[{"id":1429,"name":"进击的巨人","original_name":"進撃の巨人","first_air_date":"2013-04-07","poster_path":"/p.jpg","genre_ids":[16,10759],"vote_average":8.7}]}`)
		}),
	}

	client := newTMDBClient("testkey", "zh", httpc)

	results, err := client.search(context.Background(), "进击的巨人", "tv")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != 1429 || results[0].Name != "进击的巨人" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if results[0].ReleaseDate.String() != "2013-04-07" {
		t.Fatalf("unexpected release date: %s", results[0].ReleaseDate.String())
	}

	q := captured.URL.Query()
	if q.Get("api_key") != "testkey" {
		t.Fatalf("expected api_key on request, got %q", q.Get("api_key"))
	}
	if q.Get("language") != "zh-CN" {
		t.Fatalf("expected language zh-CN, got %q", q.Get("language"))
	}
	if captured.URL.Path != "/3/search/tv" {
		t.Fatalf("unexpected path: %s", captured.URL.Path)
	}
}

func TestTMDBRetriesServerErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return jsonResponse(http.StatusBadGateway, `{}`)
			}
			return jsonResponse(http.StatusOK, `{"page":1,"results":[]}`)
		}),
	}

	client := newTMDBClient("testkey", "zh-CN", httpc)

	if _, err := client.search(context.Background(), "anything", "tv"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
}

func TestTMDBDoesNotRetryClientErrors(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return jsonResponse(http.StatusUnauthorized, `{"status_message":"Invalid API key"}`)
		}),
	}

	client := newTMDBClient("badkey", "zh-CN", httpc)

	if _, err := client.search(context.Background(), "anything", "tv"); err == nil {
		t.Fatalf("expected error for 401")
	}
	if calls != 1 {
		t.Fatalf("expected a single request for a client error, got %d", calls)
	}
}

func TestTMDBUnconfiguredFailsFast(t *testing.T) {
	client := newTMDBClient("", "zh-CN", &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatalf("unexpected request: %s", req.URL)
			return nil, nil
		}),
	})

	if client.isConfigured() {
		t.Fatalf("expected unconfigured client")
	}
	if _, err := client.search(context.Background(), "anything", "tv"); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestTMDBDiscoverWindowFields(t *testing.T) {
	var captured *http.Request
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured = req
			return jsonResponse(http.StatusOK, `{"page":1,"results":[]}`)
		}),
	}

	client := newTMDBClient("testkey", "zh-CN", httpc)

	dq := DiscoverQuery{
		Start:    models.ParseAirDate("2026-08-01"),
		End:      models.ParseAirDate("2026-08-31"),
		Premiere: true,
		Region:   "JP",
	}
	if _, err := client.discoverTV(context.Background(), dq); err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	q := captured.URL.Query()
	if q.Get("first_air_date.gte") != "2026-08-01" || q.Get("first_air_date.lte") != "2026-08-31" {
		t.Fatalf("expected premiere window on first_air_date, got %v", q)
	}
	if q.Get("air_date.gte") != "" {
		t.Fatalf("premiere query must not filter air_date")
	}
	if q.Get("with_origin_country") != "JP" || q.Get("with_original_language") != "ja" {
		t.Fatalf("expected JP region filters, got %v", q)
	}
}

func TestTMDBTVDetailsEpisodePointers(t *testing.T) {
	httpc := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/3/tv/1429" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			return jsonResponse(http.StatusOK, `{
				"id":1429,"name":"进击的巨人","original_name":"進撃の巨人",
				"first_air_date":"2013-04-07",
				"genres":[{"id":16,"name":"动画"}],
				"next_episode_to_air":{"season_number":4,"episode_number":29,"air_date":"2026-09-01"},
				"last_episode_to_air":{"season_number":4,"episode_number":28,"air_date":"2026-08-25"}
			}`)
		}),
	}

	client := newTMDBClient("testkey", "zh-CN", httpc)

	detail, err := client.tvDetails(context.Background(), 1429)
	if err != nil {
		t.Fatalf("tvDetails failed: %v", err)
	}
	if detail.NextEpisode == nil || detail.NextEpisode.AirDate.String() != "2026-09-01" {
		t.Fatalf("unexpected next episode: %+v", detail.NextEpisode)
	}
	if detail.LastEpisode == nil || detail.LastEpisode.EpisodeNumber != 28 {
		t.Fatalf("unexpected last episode: %+v", detail.LastEpisode)
	}
	if len(detail.Title.GenreIDs) != 1 || detail.Title.GenreIDs[0] != 16 {
		t.Fatalf("unexpected genres: %v", detail.Title.GenreIDs)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "zh-CN",
		"zh":    "zh-CN",
		"zh-CN": "zh-CN",
		"zh_cn": "zh-CN",
		"ja":    "ja-JP",
		"en-us": "en-US",
	}
	for in, want := range cases {
		if got := normalizeLanguage(in); got != want {
			t.Fatalf("normalizeLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

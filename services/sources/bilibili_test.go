package sources

import (
	"context"
	"net/http"
	"testing"
)

const bilibiliFixture = `{"result":{"timeline":[
	{"day_of_week":4,"date":"2026-08-27","episodes":[
		{"season_id":4001,"season_title":"咒术回战 第二季","cover":"https://i0.hdslb.com/a.jpg","pub_index":"第18话","pub_time":"23:00"},
		{"season_id":4002,"season_title":"","title":"","cover":""}
	]},
	{"day_of_week":5,"date":"2026-08-28","episodes":[
		{"season_id":4003,"season_title":"葬送的芙莉莲","pub_index":"第9话","pub_time":"22:00"}
	]}
]}}`

func TestBilibiliFetchBuildsSupplement(t *testing.T) {
	adapter := NewBilibili(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Host != "api.bilibili.com" {
				t.Fatalf("unexpected host: %s", req.URL.Host)
			}
			return fixedResponse(http.StatusOK, bilibiliFixture)
		}),
	})

	cands, err := adapter.Fetch(context.Background(), Query{Weekday: 4, PageSize: 15})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Title != "咒术回战 第二季" {
		t.Fatalf("unexpected title %q", c.Title)
	}
	if c.SourceMeta.Supplement != "23:00 • 第18话" {
		t.Fatalf("unexpected supplement %q", c.SourceMeta.Supplement)
	}
	if c.SourceID != "bili_4001" {
		t.Fatalf("unexpected source id %q", c.SourceID)
	}
}

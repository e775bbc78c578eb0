package pipeline

import (
	"reflect"
	"testing"

	"watchdeck/models"
)

func sampleFused() Fused {
	return Fused{
		Candidate: models.Candidate{
			Title:     "葬送的芙莉莲",
			Year:      "2023",
			MediaKind: models.MediaKindSeries,
			SourceID:  "bgm_1",
			SourceMeta: models.SourceMeta{
				Rating:      8.6,
				PosterURL:   "https://lain.bgm.tv/large.jpg",
				Description: "来自起源站点的简介",
			},
		},
		Canonical: &models.CanonicalTitle{
			ID:           209867,
			Name:         "葬送的芙莉莲",
			MediaKind:    models.MediaKindSeries,
			ReleaseDate:  models.ParseAirDate("2023-09-29"),
			GenreIDs:     []int64{16, 10759},
			PosterPath:   "/poster.jpg",
			BackdropPath: "/backdrop.jpg",
			Rating:       8.8,
			Overview:     "提供方的简介",
			Schedule:     models.ScheduleUpcoming,
			NextEpisode: &models.EpisodeRef{
				SeasonNumber:  1,
				EpisodeNumber: 9,
				AirDate:       models.ParseAirDate("2026-09-04"),
			},
		},
		SortDate: models.ParseAirDate("2026-09-04"),
	}
}

func staticGenres(ids []int64) string { return "动画 / 动作冒险" }

func TestBuildCardCanonicalWins(t *testing.T) {
	card := BuildCard(sampleFused(), staticGenres)

	if card.ID != "209867" || card.CanonicalID != 209867 {
		t.Fatalf("unexpected ids: %+v", card)
	}
	if card.Kind != models.CardKindTMDB {
		t.Fatalf("resolved card must be kind tmdb, got %q", card.Kind)
	}
	if card.PosterURL != "https://image.tmdb.org/t/p/w500/poster.jpg" {
		t.Fatalf("unexpected poster url %q", card.PosterURL)
	}
	if card.BackdropURL != "https://image.tmdb.org/t/p/w780/backdrop.jpg" {
		t.Fatalf("unexpected backdrop url %q", card.BackdropURL)
	}
	if card.RatingText != "8.8" {
		t.Fatalf("canonical rating must win, got %q", card.RatingText)
	}
	if card.YearText != "2023" {
		t.Fatalf("unexpected year text %q", card.YearText)
	}
	if card.Description != "提供方的简介" {
		t.Fatalf("canonical overview must win, got %q", card.Description)
	}
	if card.Subtitle != "09-04 播出 • 第9集" {
		t.Fatalf("unexpected subtitle %q", card.Subtitle)
	}
	if card.GenreLabel != "动画 / 动作冒险" {
		t.Fatalf("unexpected genre label %q", card.GenreLabel)
	}
}

func TestBuildCardOriginFallback(t *testing.T) {
	f := sampleFused()
	f.Canonical = nil
	f.SortDate = f.Candidate.SourceMeta.AirDate

	card := BuildCard(f, staticGenres)

	if card.Kind != models.CardKindURL {
		t.Fatalf("unresolved card must be kind url, got %q", card.Kind)
	}
	if card.ID != "bgm_1" || card.CanonicalID != 0 {
		t.Fatalf("unresolved card keeps the source id: %+v", card)
	}
	if card.PosterURL != "https://lain.bgm.tv/large.jpg" {
		t.Fatalf("origin poster must carry a miss, got %q", card.PosterURL)
	}
	if card.RatingText != "8.6" {
		t.Fatalf("origin rating must carry a miss, got %q", card.RatingText)
	}
	if card.Description != "来自起源站点的简介" {
		t.Fatalf("unexpected description %q", card.Description)
	}
}

func TestBuildCardOriginLinkBecomesID(t *testing.T) {
	f := sampleFused()
	f.Canonical = nil
	f.SortDate = f.Candidate.SourceMeta.AirDate
	f.Candidate.SourceMeta.LinkURL = "https://movie.douban.com/subject/36208094/"

	card := BuildCard(f, staticGenres)

	if card.Kind != models.CardKindURL {
		t.Fatalf("unresolved card must be kind url, got %q", card.Kind)
	}
	if card.ID != "https://movie.douban.com/subject/36208094/" {
		t.Fatalf("url card must open the origin page, got id %q", card.ID)
	}
}

func TestBuildCardIdempotent(t *testing.T) {
	first := BuildCard(sampleFused(), staticGenres)
	second := BuildCard(sampleFused(), staticGenres)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input must yield identical cards:\n%+v\n%+v", first, second)
	}
}

func TestBuildCardEmptyFieldsStayEmpty(t *testing.T) {
	card := BuildCard(Fused{Candidate: models.Candidate{Title: "只有标题", SourceID: "x"}}, nil)
	if card.Title != "只有标题" {
		t.Fatalf("unexpected title %q", card.Title)
	}
	if card.RatingText != "" || card.YearText != "" || card.Subtitle != "" || card.GenreLabel != "" {
		t.Fatalf("unknown fields must render empty, got %+v", card)
	}
}

func TestBuildCardSupplementSurvivesResolution(t *testing.T) {
	f := sampleFused()
	f.Candidate.SourceMeta.Supplement = "🍅 93%"

	card := BuildCard(f, staticGenres)
	if card.Subtitle != "09-04 播出 • 第9集 • 🍅 93%" {
		t.Fatalf("supplement must survive fusion, got %q", card.Subtitle)
	}
}

func TestDiagnosticCardShape(t *testing.T) {
	card := DiagnosticCard("网络错误", "douban 连接失败")
	if card.Kind != models.CardKindText {
		t.Fatalf("diagnostic cards are text kind, got %q", card.Kind)
	}
	if card.Title != "网络错误" || card.Subtitle != "douban 连接失败" {
		t.Fatalf("unexpected diagnostic card: %+v", card)
	}
}

func TestRatingText(t *testing.T) {
	if got := ratingText(8.55); got != "8.5" {
		t.Fatalf("ratingText(8.55) = %q", got)
	}
	if got := ratingText(9); got != "9.0" {
		t.Fatalf("ratingText(9) = %q", got)
	}
	if got := ratingText(0); got != "" {
		t.Fatalf("ratingText(0) = %q", got)
	}
}

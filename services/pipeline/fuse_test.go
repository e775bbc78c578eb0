package pipeline

import (
	"reflect"
	"testing"
	"time"

	"watchdeck/models"
)

func datedFused(id string, date models.AirDate) Fused {
	return Fused{
		Candidate: models.Candidate{Title: id, SourceID: id, MediaKind: models.MediaKindSeries},
		SortDate:  date,
	}
}

func fusedIDs(records []Fused) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Candidate.SourceID)
	}
	return out
}

func TestFuseLenientKeepsMisses(t *testing.T) {
	cands := []models.Candidate{
		{Title: "A", SourceID: "a", MediaKind: models.MediaKindSeries},
		{Title: "B", SourceID: "b", MediaKind: models.MediaKindSeries},
	}
	canonical := []*models.CanonicalTitle{
		{ID: 1, Name: "A Canonical"},
		nil,
	}

	lenient := Fuse(cands, canonical, ResolveLenient)
	if len(lenient) != 2 {
		t.Fatalf("lenient mode must keep misses, got %d", len(lenient))
	}
	if lenient[1].Canonical != nil {
		t.Fatalf("missed record must carry no canonical data")
	}

	strict := Fuse(cands, canonical, ResolveStrict)
	if len(strict) != 1 || strict[0].Candidate.SourceID != "a" {
		t.Fatalf("strict mode must drop misses, got %v", fusedIDs(strict))
	}
}

func TestFuseSortDatePrecedence(t *testing.T) {
	cand := models.Candidate{
		Title:    "A",
		SourceID: "a",
		SourceMeta: models.SourceMeta{
			AirDate: models.ParseAirDate("2026-01-01"),
		},
	}

	// Canonical match present: its schedule dates win over the origin date.
	withCanonical := Fuse([]models.Candidate{cand}, []*models.CanonicalTitle{{
		ID:          1,
		Schedule:    models.ScheduleUpcoming,
		NextEpisode: &models.EpisodeRef{AirDate: models.ParseAirDate("2026-09-04")},
	}}, ResolveLenient)
	if got := withCanonical[0].SortDate.String(); got != "2026-09-04" {
		t.Fatalf("canonical schedule must win, got %s", got)
	}

	// No match: the origin source's own date carries the record.
	originOnly := Fuse([]models.Candidate{cand}, []*models.CanonicalTitle{nil}, ResolveLenient)
	if got := originOnly[0].SortDate.String(); got != "2026-01-01" {
		t.Fatalf("origin date must carry a miss, got %s", got)
	}
}

func TestSortDeterministic(t *testing.T) {
	build := func() []Fused {
		return []Fused{
			datedFused("c", models.ParseAirDate("2026-03-01")),
			datedFused("a", models.ParseAirDate("2026-01-01")),
			datedFused("b", models.ParseAirDate("2026-02-01")),
		}
	}
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	first := fusedIDs(Sort(build(), SortChronoAsc, today))
	second := fusedIDs(Sort(build(), SortChronoAsc, today))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("sort must be deterministic: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected ascending order: %v", first)
	}

	desc := fusedIDs(Sort(build(), SortChronoDesc, today))
	if !reflect.DeepEqual(desc, []string{"c", "b", "a"}) {
		t.Fatalf("unexpected descending order: %v", desc)
	}
}

func TestSortRatingTiesKeepProviderOrder(t *testing.T) {
	a := datedFused("a", models.AirDate{})
	a.Candidate.SourceMeta.Rating = 8.0
	b := datedFused("b", models.AirDate{})
	b.Candidate.SourceMeta.Rating = 8.0
	c := datedFused("c", models.AirDate{})
	c.Candidate.SourceMeta.Rating = 9.0

	got := fusedIDs(Sort([]Fused{a, b, c}, SortRatingDesc, time.Now()))
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("ties must keep original relative order, got %v", got)
	}
}

func TestFutureFirstPartition(t *testing.T) {
	today := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	day := func(offset int) models.AirDate {
		return models.DateOf(today.AddDate(0, 0, offset))
	}

	records := []Fused{
		datedFused("+3", day(3)),
		datedFused("+1", day(1)),
		datedFused("-2", day(-2)),
		datedFused("null", models.AirDate{}),
		datedFused("-5", day(-5)),
	}

	got := fusedIDs(Sort(records, SortFutureFirst, today))
	want := []string{"+1", "+3", "-2", "-5", "null"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("future-first order = %v, want %v", got, want)
	}
}

func TestFutureFirstTodayCountsAsFuture(t *testing.T) {
	today := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	records := []Fused{
		datedFused("yesterday", models.ParseAirDate("2026-08-27")),
		datedFused("today", models.ParseAirDate("2026-08-28")),
	}

	got := fusedIDs(Sort(records, SortFutureFirst, today))
	if !reflect.DeepEqual(got, []string{"today", "yesterday"}) {
		t.Fatalf("today's date belongs in the future bucket, got %v", got)
	}
}

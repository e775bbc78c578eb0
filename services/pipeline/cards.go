package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"watchdeck/models"
)

const (
	posterBaseURL   = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL = "https://image.tmdb.org/t/p/w780"
)

// GenreLabeler renders provider genre codes into a display label.
type GenreLabeler func(ids []int64) string

// BuildCard converts one fused record into the host's card shape. It is a
// pure, total function: unknown fields render as empty strings and the
// same input always yields the same card.
func BuildCard(f Fused, genres GenreLabeler) models.Card {
	if f.Canonical != nil {
		return canonicalCard(f, genres)
	}
	return originCard(f)
}

func canonicalCard(f Fused, genres GenreLabeler) models.Card {
	c := f.Canonical
	title := c.Name
	if title == "" {
		title = f.Candidate.Title
	}
	description := c.Overview
	if description == "" {
		description = f.Candidate.SourceMeta.Description
	}

	genreLabel := ""
	if genres != nil {
		genreLabel = genres(c.GenreIDs)
	}

	return models.Card{
		ID:          strconv.FormatInt(c.ID, 10),
		CanonicalID: c.ID,
		Kind:        models.CardKindTMDB,
		Title:       title,
		Subtitle:    buildSubtitle(f),
		GenreLabel:  genreLabel,
		PosterURL:   imageURL(posterBaseURL, c.PosterPath, f.Candidate.SourceMeta.PosterURL),
		BackdropURL: imageURL(backdropBaseURL, c.BackdropPath, ""),
		RatingText:  ratingText(f.Rating()),
		YearText:    yearText(f),
		Description: description,
	}
}

// originCard renders a record the resolver could not match. The origin
// source's own image and link have to carry it; the host treats the url
// kind as an external click-through.
func originCard(f Fused) models.Card {
	cand := f.Candidate
	// The host opens a url card's id as the click-through target, so the
	// origin page link becomes the id when the source provides one.
	id := cand.SourceMeta.LinkURL
	if id == "" {
		id = cand.SourceID
	}
	return models.Card{
		ID:          id,
		Kind:        models.CardKindURL,
		Title:       cand.Title,
		Subtitle:    buildSubtitle(f),
		GenreLabel:  "",
		PosterURL:   cand.SourceMeta.PosterURL,
		BackdropURL: cand.SourceMeta.PosterURL,
		RatingText:  ratingText(cand.SourceMeta.Rating),
		YearText:    cand.Year,
		Description: cand.SourceMeta.Description,
	}
}

// DiagnosticCard is the terminal fallback output: a single text card the
// host renders in place of the list. Category is a short class like
// "网络错误"; detail says what actually happened.
func DiagnosticCard(category, detail string) models.Card {
	return models.Card{
		ID:       "diagnostic",
		Kind:     models.CardKindText,
		Title:    category,
		Subtitle: detail,
	}
}

// buildSubtitle joins the date fragment, episode fragment and the origin
// source's supplement into one line. Every fragment is optional; a record
// with none renders an empty subtitle rather than filler.
func buildSubtitle(f Fused) string {
	var parts []string

	if f.Canonical != nil {
		switch f.Canonical.Schedule {
		case models.ScheduleUpcoming:
			if ep := f.Canonical.NextEpisode; ep != nil {
				if ep.AirDate.Valid() {
					parts = append(parts, ep.AirDate.Short()+" 播出")
				}
				if ep.EpisodeNumber > 0 {
					parts = append(parts, fmt.Sprintf("第%d集", ep.EpisodeNumber))
				}
			}
		case models.ScheduleRecent:
			if ep := f.Canonical.LastEpisode; ep != nil {
				if ep.AirDate.Valid() {
					parts = append(parts, ep.AirDate.Short()+" 更新")
				}
				if ep.EpisodeNumber > 0 {
					parts = append(parts, fmt.Sprintf("第%d集", ep.EpisodeNumber))
				}
			}
		}
	} else if f.SortDate.Valid() {
		parts = append(parts, f.SortDate.Short())
	}

	if s := f.Candidate.SourceMeta.Supplement; s != "" {
		parts = append(parts, s)
	}

	return strings.Join(parts, " • ")
}

func imageURL(base, relativePath, fallback string) string {
	if relativePath == "" {
		return fallback
	}
	if strings.HasPrefix(relativePath, "http") {
		return relativePath
	}
	return base + relativePath
}

func ratingText(rating float64) string {
	if rating <= 0 {
		return ""
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

func yearText(f Fused) string {
	if f.Canonical != nil {
		if y := f.Canonical.ReleaseDate.YearText(); y != "" {
			return y
		}
	}
	return f.Candidate.Year
}

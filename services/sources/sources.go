package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"watchdeck/models"
)

// ErrUnavailable marks an origin source that is unreachable or returned an
// unparsable body. The fallback controller keys off this to switch to the
// provider's own trending feed.
var ErrUnavailable = errors.New("source unavailable")

// Several origin sources gate their public endpoints behind a browser
// check; a mobile UA is enough to pass.
const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"

// Query selects the slice of an origin source's list to fetch. Weekday is
// ISO-ish 1 (Monday) through 7 (Sunday); zero means "today". Category is a
// source-specific list selector (a Rotten Tomatoes browse list, a Douban
// tag, a Trakt list name).
type Query struct {
	Weekday  int
	Page     int
	PageSize int
	Category string
}

// Adapter fetches one page of normalized candidates from an origin
// source. Implementations must degrade missing upstream fields to zero
// values and drop entries that have no usable title; a transport failure
// or garbage body surfaces as ErrUnavailable.
type Adapter interface {
	Name() string
	MediaKind() string
	Fetch(ctx context.Context, q Query) ([]models.Candidate, error)
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// isoWeekday resolves a query weekday, mapping 0 to today's day in the
// Asia/Shanghai broadcast day (all wired calendar sources publish on CST).
func isoWeekday(requested int, now time.Time) int {
	if requested >= 1 && requested <= 7 {
		return requested
	}
	if loc, err := time.LoadLocation("Asia/Shanghai"); err == nil {
		now = now.In(loc)
	}
	wd := int(now.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// slicePage emulates pagination over a fully-fetched list for sources with
// no native paging. Out-of-range pages return an empty, non-nil slice so
// callers can tell "past the end" from "source empty".
func slicePage(items []models.Candidate, page, pageSize int) []models.Candidate {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 15
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []models.Candidate{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

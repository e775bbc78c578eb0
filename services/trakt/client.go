package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	traktAPIBaseURL = "https://api.trakt.tv"
	traktAPIVersion = "2"
)

// Client handles the public read-only parts of the Trakt API: user lists
// and the airing calendar. These endpoints need only a client ID, no
// OAuth.
type Client struct {
	httpClient *http.Client
	clientID   string

	// Trakt's unauthenticated limit is 1000 req / 5 min; the limiter keeps
	// calendar fan-out under it.
	limiter *rate.Limiter
}

// IDs holds external identifiers for a media item
type IDs struct {
	Trakt int64  `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int64  `json:"tmdb,omitempty"`
	TVDB  int64  `json:"tvdb,omitempty"`
}

// Movie represents a Trakt movie
type Movie struct {
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	IDs      IDs     `json:"ids"`
	Overview string  `json:"overview,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// Show represents a Trakt TV show
type Show struct {
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	IDs      IDs     `json:"ids"`
	Overview string  `json:"overview,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// Episode represents a Trakt episode
type Episode struct {
	Season int    `json:"season"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	IDs    IDs    `json:"ids"`
}

// ListItem represents an entry from a user list (watchlist, collection,
// history all share the shape)
type ListItem struct {
	Rank     int       `json:"rank"`
	ListedAt time.Time `json:"listed_at"`
	Type     string    `json:"type"` // "movie" or "show"
	Movie    *Movie    `json:"movie,omitempty"`
	Show     *Show     `json:"show,omitempty"`
}

// CalendarEntry represents one airing from the all-shows calendar
type CalendarEntry struct {
	FirstAired time.Time `json:"first_aired"`
	Episode    *Episode  `json:"episode,omitempty"`
	Show       *Show     `json:"show,omitempty"`
}

// NewClient creates a new Trakt API client
func NewClient(clientID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		clientID:   clientID,
		limiter:    rate.NewLimiter(rate.Every(300*time.Millisecond), 3),
	}
}

// SetHTTPClient overrides the transport, for tests.
func (c *Client) SetHTTPClient(httpc *http.Client) {
	if httpc != nil {
		c.httpClient = httpc
	}
}

// IsConfigured reports whether a client ID is set
func (c *Client) IsConfigured() bool {
	return c != nil && c.clientID != ""
}

// setTraktHeaders adds required Trakt API headers to a request
func (c *Client) setTraktHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	if !c.IsConfigured() {
		return fmt.Errorf("trakt client id not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	u := traktAPIBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trakt api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trakt request failed: %s - %s", resp.Status, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Watchlist retrieves a user's public watchlist in rank order.
// mediaType is "movies" or "shows".
func (c *Client) Watchlist(ctx context.Context, user, mediaType string) ([]ListItem, error) {
	q := url.Values{}
	q.Set("extended", "full")
	path := fmt.Sprintf("/users/%s/watchlist/%s/rank", url.PathEscape(user), mediaType)

	var items []ListItem
	if err := c.getJSON(ctx, path, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UserList retrieves any other public user list (collection, history).
func (c *Client) UserList(ctx context.Context, user, listType, mediaType string) ([]ListItem, error) {
	q := url.Values{}
	q.Set("extended", "full")
	path := fmt.Sprintf("/users/%s/%s/%s", url.PathEscape(user), listType, mediaType)

	var items []ListItem
	if err := c.getJSON(ctx, path, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Calendar retrieves the all-shows airing calendar for a date window.
func (c *Client) Calendar(ctx context.Context, start time.Time, days int) ([]CalendarEntry, error) {
	if days <= 0 {
		days = 7
	}
	q := url.Values{}
	q.Set("extended", "full")
	path := "/calendars/all/shows/" + start.Format("2006-01-02") + "/" + strconv.Itoa(days)

	var entries []CalendarEntry
	if err := c.getJSON(ctx, path, q, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

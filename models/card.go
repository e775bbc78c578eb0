package models

// Card kinds understood by the host application. The kind decides click
// behavior: "tmdb" opens the detail page for CanonicalID, "url"/"video"/
// "webview" open the card's source link, "text" is display-only.
const (
	CardKindTMDB    = "tmdb"
	CardKindURL     = "url"
	CardKindText    = "text"
	CardKindVideo   = "video"
	CardKindWebview = "webview"
)

// Card is the output record the host renders as one list entry. The field
// set is the contract the host depends on; every widget emits exactly this
// shape. Unknown values render as empty strings, never as nulls.
type Card struct {
	ID          string `json:"id"`
	CanonicalID int64  `json:"canonicalId,omitempty"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	GenreLabel  string `json:"genreLabel"`
	PosterURL   string `json:"posterUrl"`
	BackdropURL string `json:"backdropUrl"`
	RatingText  string `json:"ratingText"`
	YearText    string `json:"yearText"`
	Description string `json:"description"`
}

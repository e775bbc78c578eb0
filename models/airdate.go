package models

import (
	"encoding/json"
	"time"
)

const airDateLayout = "2006-01-02"

// AirDate is a calendar date that may be absent. Sorting helpers treat an
// absent date as maximally old, so unknown-dated items land last in
// most-recent-first views and after every dated item in oldest-first views.
type AirDate struct {
	t     time.Time
	valid bool
}

// ParseAirDate reads an ISO date ("2006-01-02", longer strings are
// truncated). Unparsable or empty input yields the absent date.
func ParseAirDate(s string) AirDate {
	if len(s) > len(airDateLayout) {
		s = s[:len(airDateLayout)]
	}
	t, err := time.Parse(airDateLayout, s)
	if err != nil {
		return AirDate{}
	}
	return AirDate{t: t, valid: true}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) AirDate {
	y, m, d := t.UTC().Date()
	return AirDate{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), valid: true}
}

func (d AirDate) Valid() bool { return d.valid }

// Time returns the underlying date; the zero time when absent.
func (d AirDate) Time() time.Time {
	if !d.valid {
		return time.Time{}
	}
	return d.t
}

// String renders "2006-01-02", or "" when absent.
func (d AirDate) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(airDateLayout)
}

// Short renders "01-02" for compact subtitles, or "" when absent.
func (d AirDate) Short() string {
	if !d.valid {
		return ""
	}
	return d.t.Format("01-02")
}

// YearText returns the 4-digit year as a string, or "" when absent.
func (d AirDate) YearText() string {
	if !d.valid {
		return ""
	}
	return d.t.Format("2006")
}

// After reports whether d is strictly after ref. Absent dates are never
// after anything.
func (d AirDate) After(ref time.Time) bool {
	return d.valid && d.t.After(ref)
}

// Less orders dates ascending with absent dates first (maximally old).
func (d AirDate) Less(other AirDate) bool {
	if d.valid != other.valid {
		return !d.valid
	}
	return d.t.Before(other.t)
}

func (d AirDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *AirDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*d = ParseAirDate(s)
	return nil
}

package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseAirDate(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  string
	}{
		{"2024-10-25", true, "2024-10-25"},
		{"2024-10-25T08:00:00Z", true, "2024-10-25"},
		{"", false, ""},
		{"not-a-date", false, ""},
		{"1900-01-01", true, "1900-01-01"},
	}
	for _, tc := range cases {
		d := ParseAirDate(tc.in)
		if d.Valid() != tc.valid {
			t.Errorf("ParseAirDate(%q).Valid() = %v, want %v", tc.in, d.Valid(), tc.valid)
		}
		if d.String() != tc.want {
			t.Errorf("ParseAirDate(%q).String() = %q, want %q", tc.in, d.String(), tc.want)
		}
	}
}

func TestAirDateLessAbsentFirst(t *testing.T) {
	absent := AirDate{}
	dated := ParseAirDate("2024-01-01")

	if !absent.Less(dated) {
		t.Error("absent date should order before any dated value")
	}
	if dated.Less(absent) {
		t.Error("dated value should not order before absent")
	}
	if absent.Less(absent) {
		t.Error("absent is not less than absent")
	}
}

func TestAirDateAfter(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !ParseAirDate("2024-06-02").After(ref) {
		t.Error("next day should be after ref")
	}
	if ParseAirDate("2024-06-01").After(ref) {
		t.Error("same day is not after ref")
	}
	if (AirDate{}).After(ref) {
		t.Error("absent date is never after anything")
	}
}

func TestAirDateJSONRoundTrip(t *testing.T) {
	type wrap struct {
		D AirDate `json:"d"`
	}
	b, err := json.Marshal(wrap{D: ParseAirDate("2023-03-15")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2023-03-15"}` {
		t.Fatalf("unexpected JSON: %s", b)
	}

	var w wrap
	if err := json.Unmarshal([]byte(`{"d":""}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.D.Valid() {
		t.Error("empty string should decode to absent date")
	}
}

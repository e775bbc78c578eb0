package metadata

import (
	"strconv"
	"strings"
)

// defaultGenreLabels maps TMDB genre codes to the Chinese labels the host
// displays. One shared table for every pipeline; widget-specific overrides
// come from configuration, never from re-declared copies.
var defaultGenreLabels = map[int64]string{
	// TV
	10759: "动作冒险",
	10762: "儿童",
	10763: "新闻",
	10764: "真人秀",
	10765: "科幻奇幻",
	10766: "肥皂剧",
	10767: "脱口秀",
	10768: "战争政治",
	// Shared / movie
	16:    "动画",
	18:    "剧情",
	27:    "恐怖",
	28:    "动作",
	12:    "冒险",
	14:    "奇幻",
	35:    "喜剧",
	36:    "历史",
	37:    "西部",
	53:    "惊悚",
	80:    "犯罪",
	99:    "纪录片",
	878:   "科幻",
	9648:  "悬疑",
	10402: "音乐",
	10749: "爱情",
	10751: "家庭",
	10752: "战争",
	10770: "电视电影",
}

// GenreTable resolves provider genre codes to display labels.
type GenreTable struct {
	labels map[int64]string
}

// NewGenreTable builds the lookup table, applying configured overrides on
// top of the defaults. Override keys are decimal genre codes.
func NewGenreTable(overrides map[string]string) *GenreTable {
	labels := make(map[int64]string, len(defaultGenreLabels)+len(overrides))
	for id, label := range defaultGenreLabels {
		labels[id] = label
	}
	for key, label := range overrides {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil || label == "" {
			continue
		}
		labels[id] = label
	}
	return &GenreTable{labels: labels}
}

// Label joins the first max known labels with " / ", preserving the
// provider's code order. Unknown codes are skipped; no codes known yields "".
func (t *GenreTable) Label(ids []int64, max int) string {
	if t == nil || max <= 0 {
		return ""
	}
	parts := make([]string, 0, max)
	for _, id := range ids {
		label, ok := t.labels[id]
		if !ok {
			continue
		}
		parts = append(parts, label)
		if len(parts) == max {
			break
		}
	}
	return strings.Join(parts, " / ")
}

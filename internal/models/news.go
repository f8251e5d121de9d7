package models

import "time"

// RecentDateSentinel marks an article whose date could not be determined but
// is assumed current. It always survives the recency filter and sorts first.
const RecentDateSentinel = "Recent"

type NewsArticle struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

const (
	articleDateTimeLayout = "2006-01-02 15:04:05 MST"
	articleDateLayout     = "2006-01-02"
)

// ParseArticleDate recognizes exactly two layouts: "2006-01-02 15:04:05 MST"
// and "2006-01-02" (midnight UTC). Everything else reports ok=false; callers
// treat that as "no timestamp", never as an error.
func ParseArticleDate(value string) (time.Time, bool) {
	if ts, err := time.Parse(articleDateTimeLayout, value); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation(articleDateLayout, value, time.UTC); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func (a NewsArticle) IsRecentSentinel() bool {
	return a.Date == RecentDateSentinel
}

// package chart defines the Billboard Hot 100 data model and chart sources.
//
// A chart is an ordered list of ranked (title, artist) rows for one date.
// Fetching and parsing the billboard.com page happens outside this program;
// sources here consume already-scraped chart dumps.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/hitcapsule/internal/shared"
)

// BillboardStart is the first published Hot 100 chart (1958-08-04).
var BillboardStart = time.Date(1958, time.August, 4, 0, 0, 0, 0, time.UTC)

// DateLayout is the wire format for chart dates.
const DateLayout = "2006-01-02"

// Entry is one ranked row of a dated Hot 100 chart. Immutable once scraped.
type Entry struct {
	Rank   int    `json:"rank"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Date   string `json:"date,omitempty"` // chart date, YYYY-MM-DD
}

// Valid reports whether the entry carries enough data to resolve.
// Rows failing this check are skipped and counted as missing, never fatal.
func (e Entry) Valid() bool {
	return strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.Artist) != ""
}

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s — %s", e.Rank, e.Artist, e.Title)
}

// ValidateDate checks that a chart date parses and falls inside chart
// history (Hot 100 starts 1958-08-04, nothing after today exists).
func ValidateDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", shared.ErrInvalidArgument, date)
	}
	if t.Before(BillboardStart) {
		return time.Time{}, fmt.Errorf("%w: %s predates the first Hot 100 (%s)",
			shared.ErrDateOutOfRange, date, BillboardStart.Format(DateLayout))
	}
	if t.After(time.Now()) {
		return time.Time{}, fmt.Errorf("%w: %s is in the future", shared.ErrDateOutOfRange, date)
	}
	return t, nil
}

// Clean normalizes a scraped chart: drops rows with empty titles, removes
// duplicate (title, artist) rows while preserving order, caps the list at
// 100 and reassigns ranks 1..n. Scraped pages occasionally render extras.
func Clean(entries []Entry, date string) []Entry {
	seen := make(map[string]struct{}, len(entries))
	cleaned := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Title)) + "|" + strings.ToLower(strings.TrimSpace(e.Artist))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, e)
		if len(cleaned) == 100 {
			break
		}
	}

	for i := range cleaned {
		cleaned[i].Rank = i + 1
		cleaned[i].Date = date
	}

	return cleaned
}

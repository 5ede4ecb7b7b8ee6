package match

import (
	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/shared"
)

// Candidate is one catalog search result considered as a possible match.
// Supplied by the search collaborator; read-only to the engine.
type Candidate struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"` // primary first
	Popularity int      `json:"popularity"`
	DurationMS int      `json:"duration_ms"`
	AlbumType  string   `json:"album_type,omitempty"`

	// Derived from title tokens at construction time.
	LikelyLive  bool `json:"likely_live,omitempty"`
	LikelyRemix bool `json:"likely_remix,omitempty"`
}

// NewCandidate builds a Candidate and derives the live/remix flags from the
// catalog title.
func NewCandidate(id, title string, artists []string, popularity, durationMS int, albumType string) Candidate {
	live, remix := FlagTokens(title)
	return Candidate{
		ID:          id,
		Title:       title,
		Artists:     artists,
		Popularity:  popularity,
		DurationMS:  durationMS,
		AlbumType:   albumType,
		LikelyLive:  live,
		LikelyRemix: remix,
	}
}

// ScoredCandidate pairs a candidate with its composite score and the
// per-component breakdown, kept for diagnostics and tests.
type ScoredCandidate struct {
	Candidate Candidate
	Score     float64
	Breakdown map[string]float64
}

// ResolvedEntry is the outcome of resolving one chart row. MatchedID is
// empty when no candidate cleared the acceptance threshold.
type ResolvedEntry struct {
	Entry      chart.Entry
	MatchedID  string
	MatchScore float64
}

// Matched reports whether the row resolved to a catalog track.
func (r ResolvedEntry) Matched() bool { return r.MatchedID != "" }

// QueryCache is the read-through cache consulted before issuing a search
// query. Implementations must be safe for concurrent use; the engine only
// appends for the duration of a run.
type QueryCache interface {
	Get(key string) ([]Candidate, bool)
	Put(key string, candidates []Candidate) error
}

// MissingReport collects the chart rows that failed resolution, grouped by
// source date in insertion order. Rank order is preserved within a date.
type MissingReport struct {
	RunID   string                   `json:"run_id"`
	Dates   []string                 `json:"dates"`
	Entries map[string][]chart.Entry `json:"entries"`
}

// NewMissingReport creates an empty report tagged with a fresh run id.
func NewMissingReport() *MissingReport {
	return &MissingReport{
		RunID:   shared.GenerateID(),
		Entries: make(map[string][]chart.Entry),
	}
}

// Add records a chart row that could not be resolved.
func (m *MissingReport) Add(e chart.Entry) {
	if _, ok := m.Entries[e.Date]; !ok {
		m.Dates = append(m.Dates, e.Date)
	}
	m.Entries[e.Date] = append(m.Entries[e.Date], e)
}

// Merge appends another report's entries, preserving date grouping.
func (m *MissingReport) Merge(other *MissingReport) {
	if other == nil {
		return
	}
	for _, date := range other.Dates {
		for _, e := range other.Entries[date] {
			m.Add(e)
		}
	}
}

// Total returns the number of unresolved rows across all dates.
func (m *MissingReport) Total() int {
	total := 0
	for _, entries := range m.Entries {
		total += len(entries)
	}
	return total
}

// BlendResult is the interleaved, deduplicated track-id sequence of two
// resolved charts plus the count of ids dropped as duplicates.
type BlendResult struct {
	IDs     []string
	Dropped int
}

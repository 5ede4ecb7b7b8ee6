package match

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scoring weights and thresholds. The composite score is a weighted sum of
// title similarity and artist match, minus a flat penalty for live/remix
// candidates the chart row did not ask for. Popularity stays out of the
// composite entirely; it only breaks exact ties in Better, so a perfect
// title+artist match outranks an imperfect one at any popularity.
const (
	titleWeight      = 0.55
	artistWeight     = 0.30
	renditionPenalty = 0.25

	// titleFloor is the minimum title similarity for acceptance; below it a
	// candidate is rejected no matter how popular it is.
	titleFloor = 0.60

	// listedArtistCredit is the partial artist score when the chart's
	// primary artist appears in the candidate's credits but not first.
	listedArtistCredit = 0.6

	// typicalSingleMS is the duration plausibility anchor for tie-breaking.
	typicalSingleMS = 210_000
)

// ScoreCandidate scores one search-result candidate against a normalized
// chart row. Deterministic and pure.
func ScoreCandidate(e NormalizedEntry, c Candidate) ScoredCandidate {
	title := titleSimilarity(e, c)
	artist := artistScore(e, c)

	penalty := 0.0
	if (c.LikelyLive && !e.Live) || (c.LikelyRemix && !e.Remix) {
		penalty = renditionPenalty
	}

	score := titleWeight*title + artistWeight*artist - penalty

	return ScoredCandidate{
		Candidate: c,
		Score:     score,
		Breakdown: map[string]float64{
			"title":   titleWeight * title,
			"artist":  artistWeight * artist,
			"penalty": -penalty,
		},
	}
}

// Acceptable reports whether a scored candidate clears the acceptance
// threshold: title similarity at or above the floor AND a nonzero artist
// component. Popularity alone never qualifies a candidate.
func (s ScoredCandidate) Acceptable() bool {
	return s.titleSimilarity() >= titleFloor && s.Breakdown["artist"] > 0
}

func (s ScoredCandidate) titleSimilarity() float64 {
	return s.Breakdown["title"] / titleWeight
}

// titleSimilarity is the best normalized similarity between the candidate
// title and any variant of the chart title.
func titleSimilarity(e NormalizedEntry, c Candidate) float64 {
	candTitle := Fold(c.Title)

	best := 0.0
	for _, v := range e.Variants {
		if sim := Similarity(v, candTitle); sim > best {
			best = sim
		}
	}
	return best
}

// artistScore gives full credit for a primary-vs-primary match, partial
// credit when the chart's primary artist is credited anywhere on the
// candidate, zero otherwise.
func artistScore(e NormalizedEntry, c Candidate) float64 {
	primary := e.Primary()
	if primary == "" {
		return 0
	}

	for i, name := range c.Artists {
		if Fold(name) != primary {
			continue
		}
		if i == 0 {
			return 1.0
		}
		return listedArtistCredit
	}
	return 0
}

// Similarity is a Levenshtein ratio in [0,1]: 1 for identical strings,
// scaled by the longer input's length. Length is counted in runes to match
// the edit distance, which also operates on runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// Better reports whether a should outrank b. Composite score decides;
// exact ties fall through popularity, then duration closest to a typical
// single, then first-seen order for full determinism.
func Better(a, b ScoredCandidate, orderA, orderB int) bool {
	const epsilon = 1e-9

	if diff := a.Score - b.Score; diff > epsilon {
		return true
	} else if diff < -epsilon {
		return false
	}

	if pa, pb := clampPopularity(a.Candidate.Popularity), clampPopularity(b.Candidate.Popularity); pa != pb {
		return pa > pb
	}

	da, db := durationDrift(a.Candidate.DurationMS), durationDrift(b.Candidate.DurationMS)
	if da != db {
		return da < db
	}

	return orderA < orderB
}

func durationDrift(ms int) int {
	drift := ms - typicalSingleMS
	if drift < 0 {
		return -drift
	}
	return drift
}

func clampPopularity(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

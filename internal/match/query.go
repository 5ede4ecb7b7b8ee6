package match

// Stage identifies one step of the progressively looser query plan.
type Stage int

const (
	// StageTitleArtist queries the exact normalized title plus primary artist.
	StageTitleArtist Stage = iota
	// StageTitleOnly drops the artist from the query string; the artist still
	// participates in scoring. Recovers charts whose artist spelling differs
	// from the catalog's.
	StageTitleOnly
	// StageVariant tries each variant title (parenthetical-stripped, A/B
	// sides) with the primary artist, in normalizer order.
	StageVariant
	// StageArtistOnly is the last resort: the primary artist alone, with
	// candidates filtered by title-token overlap before scoring.
	StageArtistOnly
)

// MaxStages is the fixed stage budget; a plan never goes past it.
const MaxStages = 4

func (s Stage) String() string {
	switch s {
	case StageTitleArtist:
		return "title_artist"
	case StageTitleOnly:
		return "title_only"
	case StageVariant:
		return "variant"
	case StageArtistOnly:
		return "artist_only"
	default:
		return ""
	}
}

// Query is one search string the resolver issues to the collaborator.
type Query struct {
	Text  string
	Stage Stage
}

// PlanQueries produces the ordered query sequence for a normalized chart
// row. The sequence is finite, deterministic and never empty; the resolver
// stops consuming it as soon as a stage yields an acceptable candidate.
func PlanQueries(e NormalizedEntry) []Query {
	primary := e.Primary()

	queries := make([]Query, 0, 3+len(e.Variants))
	seen := make(map[string]struct{})
	add := func(text string, stage Stage) {
		if text == "" {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		queries = append(queries, Query{Text: text, Stage: stage})
	}

	add(joinQuery(e.Title, primary), StageTitleArtist)
	add(e.Title, StageTitleOnly)
	for _, v := range e.Variants[1:] {
		add(joinQuery(v, primary), StageVariant)
	}
	add(primary, StageArtistOnly)

	if len(queries) == 0 {
		// A row whose title and artist both folded empty still gets one
		// query, so callers can rely on a non-empty plan. The search simply
		// comes back with no candidates.
		queries = append(queries, Query{Text: e.Title, Stage: StageTitleOnly})
	}

	return queries
}

func joinQuery(title, artist string) string {
	if artist == "" {
		return title
	}
	if title == "" {
		return artist
	}
	return title + " " + artist
}

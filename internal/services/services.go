// package services holds the catalog collaborators behind the resolution
// engine: track search and playlist persistence against the Spotify Web API.
package services

import (
	"context"

	"github.com/desertthunder/hitcapsule/internal/match"
)

// SearchService answers free-text track queries with scored candidates.
type SearchService interface {
	// Search runs one catalog query. Errors wrap either
	// shared.ErrSearchTransient or shared.ErrSearchFatal.
	Search(ctx context.Context, query string) ([]match.Candidate, error)

	// Name returns the service name (e.g. "Spotify").
	Name() string
}

// PlaylistSink persists an ordered tracklist under a playlist name.
type PlaylistSink interface {
	// Upsert finds an owned playlist by exact name and replaces its contents,
	// or creates it when none exists. Returns the playlist and whether it was
	// newly created.
	Upsert(ctx context.Context, name string, public bool, trackIDs []string) (*Playlist, bool, error)
}

// Playlist is the service-agnostic playlist summary returned by sinks.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
	Public     bool
	URL        string
}

// Spotify API implementation of [SearchService] and [PlaylistSink]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	searchLimit   = 10
	addChunkSize  = 100
	pageLimit     = 50
	defaultMarket = "US"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type spotifyAlbum struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AlbumType string `json:"album_type"` // album, single, compilation
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Public       bool         `json:"public"`
	ExternalURLs externalURLs `json:"external_urls"`
	Tracks       struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// SpotifyService implements [SearchService] and [PlaylistSink] against the
// Spotify Web API. Uses [oauth2] for token refresh.
type SpotifyService struct {
	httpClient *http.Client
	market     string
	logger     *log.Logger

	userID string // cached after the first profile lookup
}

// NewSpotifyService builds a client from out-of-band credentials. Tokens are
// expected in the config (no interactive auth flow); when a refresh token and
// client secret are present the oauth2 transport renews access automatically.
func NewSpotifyService(ctx context.Context, creds shared.SpotifyConfig, logger *log.Logger) (*SpotifyService, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: spotify access_token", shared.ErrMissingCredentials)
	}

	market := creds.Market
	if market == "" {
		market = defaultMarket
	}

	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}

	var client *http.Client
	if creds.RefreshToken != "" && creds.ClientID != "" && creds.ClientSecret != "" {
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: spotifyTokenURL},
		}
		client = conf.Client(ctx, token)
	} else {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	return &SpotifyService{
		httpClient: client,
		market:     market,
		logger:     logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated request against the API, encoding body
// as JSON when present and decoding the response into result. Status codes
// map onto the search error taxonomy: 401/403 are fatal, 429 carries the
// Retry-After delay, 5xx is transient.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result interface{}) error {
	apiURL := spotifyBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSearchTransient, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrSearchFatal, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &shared.RateLimitError{After: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrSearchTransient, resp.StatusCode)
	default:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

// Search runs one /v1/search track query and converts the results into
// scorer candidates, preserving provider order.
func (s *SpotifyService) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(searchLimit))
	params.Set("market", s.market)

	var response searchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]match.Candidate, 0, len(response.Tracks.Items))
	for _, track := range response.Tracks.Items {
		artists := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			artists = append(artists, a.Name)
		}
		candidates = append(candidates, match.NewCandidate(
			track.ID, track.Name, artists, track.Popularity, track.DurationMS, track.Album.AlbumType,
		))
	}

	return candidates, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert finds an owned playlist by exact name and replaces its contents, or
// creates a fresh playlist when none exists. Track order is preserved.
func (s *SpotifyService) Upsert(ctx context.Context, name string, public bool, trackIDs []string) (*Playlist, bool, error) {
	existing, err := s.findPlaylistByName(ctx, name)
	if err != nil {
		return nil, false, err
	}

	created := false
	if existing == nil {
		existing, err = s.createPlaylist(ctx, name, public)
		if err != nil {
			return nil, false, err
		}
		created = true
	}

	if err := s.replaceTracks(ctx, existing.ID, trackIDs); err != nil {
		return nil, created, err
	}

	return &Playlist{
		ID:         existing.ID,
		Name:       existing.Name,
		TrackCount: len(trackIDs),
		Public:     existing.Public,
		URL:        s.PlaylistURL(existing),
	}, created, nil
}

// PlaylistURL returns the public web URL for a playlist.
func (s *SpotifyService) PlaylistURL(p *SpotifyPlaylist) string {
	if p.ExternalURLs.Spotify != "" {
		return p.ExternalURLs.Spotify
	}
	return "https://open.spotify.com/playlist/" + p.ID
}

// findPlaylistByName pages through the user's playlists looking for an exact
// name match. Returns nil when no playlist matches.
func (s *SpotifyService) findPlaylistByName(ctx context.Context, name string) (*SpotifyPlaylist, error) {
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", pageLimit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for i := range page.Items {
			if page.Items[i].Name == name {
				return &page.Items[i], nil
			}
		}

		if page.Next == nil {
			return nil, nil
		}
		offset += pageLimit
	}
}

func (s *SpotifyService) createPlaylist(ctx context.Context, name string, public bool) (*SpotifyPlaylist, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":        name,
		"public":      public,
		"description": "Billboard Hot 100 time capsule built with hitcapsule",
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist %q: %w", name, err)
	}

	s.logger.Info("created playlist", "name", name, "id", playlist.ID)
	return &playlist, nil
}

// replaceTracks overwrites the playlist contents: the first 100 uris go in a
// single PUT, the remainder in chunked POST appends.
func (s *SpotifyService) replaceTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	head := uris
	if len(head) > addChunkSize {
		head = uris[:addChunkSize]
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, http.MethodPut, endpoint, map[string]interface{}{"uris": head}, nil); err != nil {
		return fmt.Errorf("failed to replace playlist tracks: %w", err)
	}

	for start := addChunkSize; start < len(uris); start += addChunkSize {
		end := start + addChunkSize
		if end > len(uris) {
			end = len(uris)
		}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, map[string]interface{}{"uris": uris[start:end]}, nil); err != nil {
			return fmt.Errorf("failed to append playlist tracks: %w", err)
		}
	}

	return nil
}

func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to look up current user: %w", err)
	}

	s.userID = user.ID
	return s.userID, nil
}

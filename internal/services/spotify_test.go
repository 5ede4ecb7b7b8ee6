package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"

	. "github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
	tu "github.com/desertthunder/hitcapsule/internal/testing"
	"golang.org/x/oauth2"
)

// routeTripper answers requests by method+path, recording request bodies.
type routeTripper struct {
	routes map[string]*http.Response
	bodies map[string][]byte
	calls  []string
}

func (rt *routeTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.Method + " " + req.URL.Path
	rt.calls = append(rt.calls, key)

	if req.Body != nil {
		if rt.bodies == nil {
			rt.bodies = make(map[string][]byte)
		}
		body, _ := io.ReadAll(req.Body)
		rt.bodies[key] = body
	}

	if resp, ok := rt.routes[key]; ok {
		return resp, nil
	}
	return jsonResponse(http.StatusNotFound, `{}`), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func newTestService(t *testing.T, rt http.RoundTripper) *SpotifyService {
	t.Helper()

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: rt})
	svc, err := NewSpotifyService(ctx, shared.SpotifyConfig{AccessToken: "test-token", Market: "US"}, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewSpotifyService: %v", err)
	}
	return svc
}

func TestNewSpotifyServiceRequiresToken(t *testing.T) {
	_, err := NewSpotifyService(context.Background(), shared.SpotifyConfig{}, shared.NewLogger(io.Discard))
	if !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestSearchParsesCandidates(t *testing.T) {
	body := `{"tracks":{"items":[
		{"id":"t1","name":"Jump","artists":[{"id":"a1","name":"Van Halen"}],
		 "album":{"id":"al1","name":"1984","album_type":"album"},
		 "duration_ms":241000,"popularity":78},
		{"id":"t2","name":"Jump (Live)","artists":[{"id":"a1","name":"Van Halen"}],
		 "album":{"id":"al2","name":"Live: Right Here","album_type":"album"},
		 "duration_ms":255000,"popularity":40}
	]}}`

	rt := &routeTripper{routes: map[string]*http.Response{
		"GET /v1/search": jsonResponse(http.StatusOK, body),
	}}
	svc := newTestService(t, rt)

	candidates, err := svc.Search(context.Background(), "jump van halen")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("len = %d, want 2", len(candidates))
	}
	if candidates[0].ID != "t1" || candidates[0].Popularity != 78 {
		t.Errorf("candidate 0 = %+v", candidates[0])
	}
	if !candidates[1].LikelyLive {
		t.Error("live flag should be derived from the catalog title")
	}
	if candidates[0].Artists[0] != "Van Halen" {
		t.Errorf("artists = %v", candidates[0].Artists)
	}
}

func TestSearchErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		headers http.Header
		wantErr error
	}{
		{"unauthorized is fatal", http.StatusUnauthorized, nil, shared.ErrSearchFatal},
		{"forbidden is fatal", http.StatusForbidden, nil, shared.ErrSearchFatal},
		{"server error is transient", http.StatusBadGateway, nil, shared.ErrSearchTransient},
		{"rate limited is transient", http.StatusTooManyRequests,
			http.Header{"Retry-After": []string{"3"}}, shared.ErrSearchTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := jsonResponse(tt.status, `{}`)
			if tt.headers != nil {
				resp.Header = tt.headers
			}

			rt := &routeTripper{routes: map[string]*http.Response{"GET /v1/search": resp}}
			svc := newTestService(t, rt)

			_, err := svc.Search(context.Background(), "anything")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}

			if tt.status == http.StatusTooManyRequests {
				var rl *shared.RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rl.After.Seconds() != 3 {
					t.Errorf("After = %v, want 3s", rl.After)
				}
			}
		})
	}
}

func TestSearchTransportErrorIsTransient(t *testing.T) {
	rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
	svc := newTestService(t, rt)

	_, err := svc.Search(context.Background(), "anything")
	if !errors.Is(err, shared.ErrSearchTransient) {
		t.Errorf("err = %v, want ErrSearchTransient", err)
	}
}

func TestUpsertCreatesWhenAbsent(t *testing.T) {
	rt := &routeTripper{routes: map[string]*http.Response{
		"GET /v1/me/playlists": jsonResponse(http.StatusOK, `{"items":[],"next":null}`),
		"GET /v1/me":           jsonResponse(http.StatusOK, `{"id":"user-1","display_name":"Tester"}`),
		"POST /v1/users/user-1/playlists": jsonResponse(http.StatusCreated,
			`{"id":"pl-1","name":"1984-01-07 Billboard Hot 100","public":false,
			  "external_urls":{"spotify":"https://open.spotify.com/playlist/pl-1"}}`),
		"PUT /v1/playlists/pl-1/tracks": jsonResponse(http.StatusCreated, `{"snapshot_id":"s1"}`),
	}}
	svc := newTestService(t, rt)

	playlist, created, err := svc.Upsert(context.Background(), "1984-01-07 Billboard Hot 100", false, []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Error("expected a newly created playlist")
	}
	if playlist.ID != "pl-1" || playlist.TrackCount != 2 {
		t.Errorf("playlist = %+v", playlist)
	}

	var put struct {
		URIs []string `json:"uris"`
	}
	if err := json.Unmarshal(rt.bodies["PUT /v1/playlists/pl-1/tracks"], &put); err != nil {
		t.Fatalf("decode PUT body: %v", err)
	}
	if len(put.URIs) != 2 || put.URIs[0] != "spotify:track:t1" {
		t.Errorf("PUT uris = %v", put.URIs)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	rt := &routeTripper{routes: map[string]*http.Response{
		"GET /v1/me/playlists": jsonResponse(http.StatusOK,
			`{"items":[{"id":"pl-9","name":"My Capsule","public":true,
			   "external_urls":{"spotify":"https://open.spotify.com/playlist/pl-9"}}],"next":null}`),
		"PUT /v1/playlists/pl-9/tracks": jsonResponse(http.StatusCreated, `{"snapshot_id":"s2"}`),
	}}
	svc := newTestService(t, rt)

	playlist, created, err := svc.Upsert(context.Background(), "My Capsule", true, []string{"t1"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Error("existing playlist should be reused, not recreated")
	}
	if playlist.ID != "pl-9" {
		t.Errorf("playlist = %+v", playlist)
	}

	for _, call := range rt.calls {
		if call == "GET /v1/me" {
			t.Error("reusing a playlist should not need the user profile")
		}
	}
}

func TestUpsertChunksLargeTrackLists(t *testing.T) {
	rt := &routeTripper{routes: map[string]*http.Response{
		"GET /v1/me/playlists": jsonResponse(http.StatusOK,
			`{"items":[{"id":"pl-2","name":"Big Blend","public":false,
			   "external_urls":{"spotify":"https://open.spotify.com/playlist/pl-2"}}],"next":null}`),
		"PUT /v1/playlists/pl-2/tracks":  jsonResponse(http.StatusCreated, `{"snapshot_id":"s1"}`),
		"POST /v1/playlists/pl-2/tracks": jsonResponse(http.StatusCreated, `{"snapshot_id":"s2"}`),
	}}
	svc := newTestService(t, rt)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = "t" + strconv.Itoa(i)
	}

	if _, _, err := svc.Upsert(context.Background(), "Big Blend", false, ids); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var puts, posts int
	for _, call := range rt.calls {
		switch call {
		case "PUT /v1/playlists/pl-2/tracks":
			puts++
		case "POST /v1/playlists/pl-2/tracks":
			posts++
		}
	}
	if puts != 1 || posts != 1 {
		t.Errorf("puts = %d, posts = %d, want 1 and 1", puts, posts)
	}

	var tail struct {
		URIs []string `json:"uris"`
	}
	if err := json.Unmarshal(rt.bodies["POST /v1/playlists/pl-2/tracks"], &tail); err != nil {
		t.Fatalf("decode POST body: %v", err)
	}
	if len(tail.URIs) != 50 || tail.URIs[0] != "spotify:track:t100" {
		t.Errorf("POST chunk starts at %q with %d uris", tail.URIs[0], len(tail.URIs))
	}
}

func TestUserProfile(t *testing.T) {
	rt := &routeTripper{routes: map[string]*http.Response{
		"GET /v1/me": jsonResponse(http.StatusOK, `{"id":"user-1","display_name":"Tester","country":"US","product":"premium"}`),
	}}
	svc := newTestService(t, rt)

	user, err := svc.UserProfile(context.Background())
	if err != nil {
		t.Fatalf("UserProfile: %v", err)
	}
	if user.ID != "user-1" || user.Product != "premium" {
		t.Errorf("user = %+v", user)
	}
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/services"
)

// MockSearcher is a test double for [services.SearchService]. Queries are
// answered from the Results map, falling back to the Err field when set.
type MockSearcher struct {
	Results map[string][]match.Candidate
	Err     error
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results[query], nil
}

func (m *MockSearcher) Name() string { return "mock" }

// MockSink is a test double for [services.PlaylistSink] that records the
// last upsert.
type MockSink struct {
	Name     string
	Public   bool
	TrackIDs []string
	Created  bool
	Err      error
}

func (m *MockSink) Upsert(ctx context.Context, name string, public bool, trackIDs []string) (*services.Playlist, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.Name = name
	m.Public = public
	m.TrackIDs = append([]string(nil), trackIDs...)
	return &services.Playlist{
		ID:         "mock-playlist",
		Name:       name,
		TrackCount: len(trackIDs),
		Public:     public,
		URL:        "https://open.spotify.com/playlist/mock-playlist",
	}, m.Created, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

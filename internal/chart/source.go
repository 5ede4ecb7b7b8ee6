package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/hitcapsule/internal/shared"
)

// Source supplies the chart for a date.
//
// Implementations wrap whatever produced the chart rows (a scraper dump on
// disk, a fixture in tests); the resolution engine only sees []Entry.
type Source interface {
	// Fetch returns the ordered chart for the given YYYY-MM-DD date.
	Fetch(ctx context.Context, date string) ([]Entry, error)
}

// fileDump is the JSON document written by the external scraper:
// either a bare array of entries or an object with date + entries.
type fileDump struct {
	Date    string  `json:"date"`
	Entries []Entry `json:"entries"`
}

// FileSource reads scraper dumps named <date>.json from a directory.
type FileSource struct {
	dir string
}

// NewFileSource creates a Source over a directory of chart dumps.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Fetch loads, validates and cleans the chart dump for a date.
func (s *FileSource) Fetch(ctx context.Context, date string) ([]Entry, error) {
	if _, err := ValidateDate(date); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, date+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: no chart dump for %s at %s", shared.ErrChartUnavailable, date, path)
	}

	entries, err := ParseDump(data)
	if err != nil {
		return nil, fmt.Errorf("chart dump %s: %w", path, err)
	}

	return Clean(entries, date), nil
}

// ParseDump decodes a scraper dump, accepting both the array and the
// object form.
func ParseDump(data []byte) ([]Entry, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var entries []Entry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode chart entries: %w", err)
		}
		return entries, nil
	}

	var dump fileDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to decode chart dump: %w", err)
	}
	return dump.Entries, nil
}

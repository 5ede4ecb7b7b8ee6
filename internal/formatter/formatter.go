// package formatter provides functions to export resolved charts and missing
// reports to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/shared"
)

// ResolvedToCSV converts a resolved chart to CSV with columns: Rank, Title, Artist, TrackID, Score
func ResolvedToCSV(entries []match.ResolvedEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Rank", "Title", "Artist", "TrackID", "Score"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, re := range entries {
		record := []string{
			strconv.Itoa(re.Entry.Rank),
			re.Entry.Title,
			re.Entry.Artist,
			re.MatchedID,
			strconv.FormatFloat(re.MatchScore, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResolvedToMarkdown converts a resolved chart to Markdown.
func ResolvedToMarkdown(title string, entries []match.ResolvedEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	matched := 0
	for _, re := range entries {
		if re.Matched() {
			matched++
		}
	}
	buf.WriteString(fmt.Sprintf("**Entries**: %d\n", len(entries)))
	buf.WriteString(fmt.Sprintf("**Matched**: %d\n\n", matched))

	buf.WriteString("## Tracklist\n\n")
	for _, re := range entries {
		mark := "✗"
		if re.Matched() {
			mark = "✓"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s\n", re.Entry.Rank, mark, re.Entry.Artist, re.Entry.Title))
	}

	return buf.Bytes(), nil
}

// ResolvedToText converts a resolved chart to plain text, matched rows only.
func ResolvedToText(title string, entries []match.ResolvedEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n\n", title))

	for _, re := range entries {
		if !re.Matched() {
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", re.Entry.Rank, re.Entry.Artist, re.Entry.Title))
	}

	return buf.Bytes(), nil
}

// MissingToMarkdown renders a missing report grouped by chart date.
func MissingToMarkdown(report *match.MissingReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Unmatched Chart Entries\n\n")
	buf.WriteString(fmt.Sprintf("**Run**: %s\n", report.RunID))
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", report.Total()))

	for _, date := range report.Dates {
		buf.WriteString(fmt.Sprintf("## %s\n\n", date))
		for _, e := range report.Entries[date] {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", e.Rank, e.Artist, e.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// MissingToJSON renders a missing report as pretty-printed JSON.
func MissingToJSON(report *match.MissingReport) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// ExportMissing renders a missing report in the requested format
// (json, markdown, md, csv, txt).
func ExportMissing(report *match.MissingReport, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return MissingToJSON(report)
	case "markdown", "md":
		return MissingToMarkdown(report)
	case "csv":
		return missingToCSV(report)
	case "txt", "text":
		return missingToText(report)
	default:
		return nil, fmt.Errorf("%w: unsupported report format %q", shared.ErrInvalidFlag, format)
	}
}

func missingToCSV(report *match.MissingReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Date", "Rank", "Title", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, date := range report.Dates {
		for _, e := range report.Entries[date] {
			record := []string{date, strconv.Itoa(e.Rank), e.Title, e.Artist}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func missingToText(report *match.MissingReport) ([]byte, error) {
	var buf bytes.Buffer

	for _, date := range report.Dates {
		buf.WriteString(fmt.Sprintf("%s\n", date))
		for _, e := range report.Entries[date] {
			buf.WriteString(fmt.Sprintf("  %d. %s - %s\n", e.Rank, e.Artist, e.Title))
		}
	}

	return buf.Bytes(), nil
}

// WriteReportFile renders a missing report and writes it to path. An empty
// format defaults to JSON.
func WriteReportFile(report *match.MissingReport, path, format string) error {
	if path == "" {
		return fmt.Errorf("%w: report path", shared.ErrMissingArgument)
	}

	data, err := ExportMissing(report, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

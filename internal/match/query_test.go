package match

import (
	"testing"
)

func TestPlanQueriesStageOrder(t *testing.T) {
	e := Normalize("(I Can't Get No) Satisfaction", "The Rolling Stones")
	queries := PlanQueries(e)

	if len(queries) == 0 {
		t.Fatal("expected a non-empty plan")
	}
	if len(queries) > MaxStages+len(e.Variants) {
		t.Fatalf("plan unexpectedly long: %d queries", len(queries))
	}

	want := []Query{
		{Text: "(i can't get no) satisfaction the rolling stones", Stage: StageTitleArtist},
		{Text: "(i can't get no) satisfaction", Stage: StageTitleOnly},
		{Text: "satisfaction the rolling stones", Stage: StageVariant},
		{Text: "the rolling stones", Stage: StageArtistOnly},
	}

	if len(queries) != len(want) {
		t.Fatalf("got %d queries, want %d: %v", len(queries), len(want), queries)
	}
	for i, q := range queries {
		if q != want[i] {
			t.Errorf("query %d = %+v, want %+v", i, q, want[i])
		}
	}
}

func TestPlanQueriesDeterministic(t *testing.T) {
	e := Normalize("Penny Lane / Strawberry Fields Forever", "The Beatles")

	first := PlanQueries(e)
	second := PlanQueries(e)

	if len(first) != len(second) {
		t.Fatalf("plans differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("plan not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPlanQueriesDedupes(t *testing.T) {
	e := Normalize("Yesterday", "")
	queries := PlanQueries(e)

	seen := make(map[string]struct{})
	for _, q := range queries {
		if _, dup := seen[q.Text]; dup {
			t.Errorf("duplicate query text %q", q.Text)
		}
		seen[q.Text] = struct{}{}
	}
}

func TestPlanQueriesNeverEmpty(t *testing.T) {
	entries := []NormalizedEntry{
		Normalize("Yesterday", "The Beatles"),
		Normalize("Yesterday", ""),
		Normalize("", "The Beatles"),
		// Rows where both fields fold to nothing still plan one query.
		Normalize("", ""),
		Normalize("   ", " \t "),
	}

	for _, e := range entries {
		if len(PlanQueries(e)) == 0 {
			t.Errorf("empty plan for %+v", e)
		}
	}
}

package scoring

import (
	"slices"
	"testing"

	"github.com/spigell/unimatch/internal/catalog"
)

func programIDs(programs []*catalog.Program) []string {
	ids := make([]string, 0, len(programs))
	for _, p := range programs {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFilterByDegreeEmptyIsIdentity(t *testing.T) {
	t.Parallel()

	programs := []*catalog.Program{
		{ID: "3", Title: "PhD Chemistry"},
		{ID: "1", Title: "BSc Physics"},
		{ID: "2", Title: "Some course"},
	}

	for _, desired := range []string{"", "   "} {
		got := FilterByDegree(programs, desired)
		if !slices.Equal(programIDs(got), []string{"3", "1", "2"}) {
			t.Fatalf("expected identity for %q, got %v", desired, programIDs(got))
		}
	}
}

func TestFilterByDegree(t *testing.T) {
	t.Parallel()

	programs := []*catalog.Program{
		{ID: "bsc", Title: "BSc Physics", DegreeLevel: "Undergraduate"},
		{ID: "msc", Title: "Data Science", DegreeLevel: "Master's"},
		{ID: "phd", Title: "Doctoral programme in History"},
		{ID: "research", Title: "Fellowship", Description: "A post-doctoral research position"},
		{ID: "mba", Title: "Executive MBA"},
		{ID: "cert", Title: "Certificate in Cooking"},
	}

	tests := []struct {
		desired string
		expect  []string
	}{
		// Plain substring matching: "graduate" hits "undergraduate", "ba" hits "mba"
		// and "doctoral" hits "post-doctoral".
		{desired: "masters", expect: []string{"bsc", "msc", "mba"}},
		{desired: "Bachelors", expect: []string{"bsc", "mba"}},
		{desired: "phd", expect: []string{"phd", "research"}},
		{desired: "postdoc", expect: []string{"research"}},
		{desired: "certificate", expect: []string{"cert"}},
		{desired: "associate", expect: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.desired, func(t *testing.T) {
			t.Parallel()
			got := programIDs(FilterByDegree(programs, tt.desired))
			if !slices.Equal(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestDegreeSynonyms(t *testing.T) {
	t.Parallel()

	if got := DegreeSynonyms(" MASTERS "); !slices.Contains(got, "mba") {
		t.Fatalf("expected masters synonyms, got %v", got)
	}
	if got := DegreeSynonyms("diploma"); !slices.Equal(got, []string{"diploma"}) {
		t.Fatalf("expected fallback to the value itself, got %v", got)
	}
	if got := DegreeSynonyms(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

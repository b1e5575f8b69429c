package filter

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/erazemk/compendium/internal/model"
)

var catalog = []model.Analysis{
	{ID: 1, Name: "Glucose", Laboratory: "LabX", Sector: "Chemistry"},
	{ID: 2, Name: "Urine glucose", Laboratory: "LabY", Sector: "Chemistry"},
	{ID: 3, Name: "Ferritin", Laboratory: "LabX", Sector: "Hematology"},
	{ID: 4, Name: "HbA1c", Laboratory: "LabZ"},
	{ID: 5, Name: "GLUCOSE tolerance", Laboratory: "LabX", Sector: "Chemistry"},
}

func names(analyses []model.Analysis) []string {
	out := make([]string, len(analyses))
	for i, a := range analyses {
		out[i] = a.Name
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		expected []string
	}{
		{"no criteria", Criteria{}, []string{}},
		{"query case-insensitive", Criteria{Query: "gLuCoSe"}, []string{"Glucose", "Urine glucose", "GLUCOSE tolerance"}},
		{"query and laboratory", Criteria{Query: "glucose", Laboratory: "LabX"}, []string{"Glucose", "GLUCOSE tolerance"}},
		{"sector only", Criteria{Sector: "Hematology"}, []string{"Ferritin"}},
		{"laboratory only", Criteria{Laboratory: "LabZ"}, []string{"HbA1c"}},
		{"sector is exact", Criteria{Sector: "chemistry"}, []string{}},
		{"query matches name only", Criteria{Query: "LabX"}, []string{}},
		{"no match", Criteria{Query: "zinc"}, []string{}},
		{"leading space is part of the query", Criteria{Query: " glu"}, []string{"Urine glucose"}},
		{"whitespace query matches multi-word names", Criteria{Query: " "}, []string{"Urine glucose", "GLUCOSE tolerance"}},
	}

	for _, tt := range tests {
		got := Filter(catalog, tt.criteria)
		if got == nil {
			t.Errorf("%s: expected non-nil result", tt.name)
		}
		if !reflect.DeepEqual(names(got), tt.expected) {
			t.Errorf("%s: Filter(%+v) = %v, want %v", tt.name, tt.criteria, names(got), tt.expected)
		}
	}
}

func TestFilterEmptyCriteriaOnAnyCatalog(t *testing.T) {
	for _, analyses := range [][]model.Analysis{nil, {}, catalog} {
		if got := Filter(analyses, Criteria{}); len(got) != 0 {
			t.Errorf("expected empty result, got %d analyses", len(got))
		}
	}
}

func TestFilterCapsResults(t *testing.T) {
	var analyses []model.Analysis
	for i := 0; i < 25; i++ {
		analyses = append(analyses, model.Analysis{ID: int64(i + 1), Name: fmt.Sprintf("Panel %d", i), Laboratory: "LabX"})
	}

	got := Filter(analyses, Criteria{Query: "panel"})
	if len(got) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(got))
	}
	for i, a := range got {
		if a.ID != int64(i+1) {
			t.Errorf("expected input order, position %d has id %d", i, a.ID)
		}
		if !strings.Contains(strings.ToLower(a.Name), "panel") {
			t.Errorf("result %q does not contain query", a.Name)
		}
	}
}

func TestFacets(t *testing.T) {
	if got, want := Sectors(catalog), []string{"Chemistry", "Hematology"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Sectors = %v, want %v", got, want)
	}
	if got, want := Laboratories(catalog), []string{"LabX", "LabY", "LabZ"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Laboratories = %v, want %v", got, want)
	}
	if got := Sectors(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil sectors, got %v", got)
	}
}

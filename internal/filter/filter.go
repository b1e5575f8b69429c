// Package filter selects analyses from the catalog by name, sector and
// laboratory. It is pure and does no I/O.
package filter

import (
	"sort"
	"strings"

	"github.com/erazemk/compendium/internal/model"
)

// MaxResults caps the number of analyses returned by Filter.
const MaxResults = 10

// Criteria are the visitor's search inputs. Empty fields are ignored.
type Criteria struct {
	Query      string `json:"q"`
	Sector     string `json:"sector"`
	Laboratory string `json:"laboratory"`
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return c.Query == "" && c.Sector == "" && c.Laboratory == ""
}

// Filter returns, in input order, at most MaxResults analyses whose name
// contains c.Query case-insensitively and whose sector and laboratory
// equal c.Sector and c.Laboratory when those are set. With no criteria it
// returns an empty slice rather than the whole catalog.
func Filter(analyses []model.Analysis, c Criteria) []model.Analysis {
	out := []model.Analysis{}
	if c.Empty() {
		return out
	}

	q := strings.ToLower(c.Query)
	for _, a := range analyses {
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) {
			continue
		}
		if c.Sector != "" && a.Sector != c.Sector {
			continue
		}
		if c.Laboratory != "" && a.Laboratory != c.Laboratory {
			continue
		}
		out = append(out, a)
		if len(out) == MaxResults {
			break
		}
	}
	return out
}

// Sectors returns the distinct non-empty sectors, sorted.
func Sectors(analyses []model.Analysis) []string {
	return distinct(analyses, func(a model.Analysis) string { return a.Sector })
}

// Laboratories returns the distinct non-empty laboratories, sorted.
func Laboratories(analyses []model.Analysis) []string {
	return distinct(analyses, func(a model.Analysis) string { return a.Laboratory })
}

func distinct(analyses []model.Analysis, field func(model.Analysis) string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, a := range analyses {
		v := field(a)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

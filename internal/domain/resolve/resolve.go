// Package resolve picks one resource per calendar year from a catalog listing.
package resolve

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/gridlake/internal/domain/model"
)

// trailing numeric token of a file stem, separated from the rest by a non-alphanumeric rune.
var yearToken = regexp.MustCompile(`(?:^|[^0-9A-Za-z])([0-9]+)$`)

// InferYear derives the year from the trailing numeric token of the descriptor's file stem.
// It returns 0 unless the token is exactly four digits.
func InferYear(d model.ResourceDescriptor) int {
	m := yearToken.FindStringSubmatch(d.Stem())
	if m == nil || len(m[1]) != 4 {
		return 0
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return y
}

// Resolve selects at most one descriptor for every year in rng.
// Parquet outranks CSV; among equal ranks the later candidate wins.
// Years without a candidate are absent from the result.
func Resolve(resources []model.ResourceDescriptor, rng model.DateRange) model.YearSelection {
	wanted := make(map[int]struct{})
	for _, y := range rng.Years() {
		wanted[y] = struct{}{}
	}

	sel := make(model.YearSelection)
	for _, r := range resources {
		if strings.TrimSpace(r.URL) == "" || r.Format.Rank() == 0 {
			continue
		}
		year := InferYear(r)
		if year == 0 {
			continue
		}
		if _, ok := wanted[year]; !ok {
			continue
		}
		r.InferredYear = year
		if cur, ok := sel[year]; ok && r.Format.Rank() < cur.Format.Rank() {
			continue
		}
		sel[year] = r
	}
	return sel
}

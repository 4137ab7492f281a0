// Package stats is the dashboard side of the dataset: it loads the TSV the
// pipeline wrote, applies user filters and aggregates salary distributions.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/project-tktt/salary-pulse/internal/export"
)

// Row is one dataset record as the dashboard sees it. Numeric columns treat
// the unspecified sentinel (and the less-than-a-year form) as zero; string
// columns keep the sentinel text as a regular category.
type Row struct {
	Company           string
	Position          string
	Grade             string
	SalaryRUB         int
	BonusFrequency    string
	BonusRUB          int
	ExperienceField   int
	ExperienceCompany int
	Perks             string
	WorkFormat        string
	WorkLocation      string
	WorkdayHoursUpper int
	Likes             string
	Dislikes          string
	Published         time.Time
	Permalink         string
}

// Load reads the persisted dataset file.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = len(export.Columns)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has no header", path)
	}
	if !slices.Equal(records[0], export.Columns) {
		return nil, fmt.Errorf("dataset %s has unexpected columns", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			Company:           rec[0],
			Position:          rec[1],
			Grade:             rec[2],
			SalaryRUB:         numeric(rec[3]),
			BonusFrequency:    rec[4],
			BonusRUB:          numeric(rec[5]),
			ExperienceField:   numeric(rec[6]),
			ExperienceCompany: numeric(rec[7]),
			Perks:             rec[8],
			WorkFormat:        rec[9],
			WorkLocation:      rec[10],
			WorkdayHoursUpper: numeric(rec[11]),
			Likes:             rec[12],
			Dislikes:          rec[13],
			Published:         date(rec[14]),
			Permalink:         rec[15],
		})
	}
	return rows, nil
}

// numeric parses a dataset cell, mapping the sentinel and anything
// non-numeric to zero, the way the dashboard always has.
func numeric(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func date(s string) time.Time {
	t, err := time.Parse("02.01.2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Filter narrows the dataset. Empty slices and zero bounds mean "no
// constraint"; a positive minimum on a numeric column also drops rows where
// that column was unspecified (read as zero). Since filters on the
// publication date.
type Filter struct {
	Grades      []string
	Companies   []string
	WorkFormats []string
	SalaryMin   int
	SalaryMax   int
	BonusMin    int
	BonusMax    int
	YearsMin    int
	YearsMax    int
	Since       time.Time
}

// Match reports whether a row passes the filter.
func (f Filter) Match(r Row) bool {
	if len(f.Grades) > 0 && !slices.Contains(f.Grades, r.Grade) {
		return false
	}
	if len(f.Companies) > 0 && !slices.Contains(f.Companies, r.Company) {
		return false
	}
	if len(f.WorkFormats) > 0 && !slices.Contains(f.WorkFormats, r.WorkFormat) {
		return false
	}
	if !inRange(r.SalaryRUB, f.SalaryMin, f.SalaryMax) {
		return false
	}
	if !inRange(r.BonusRUB, f.BonusMin, f.BonusMax) {
		return false
	}
	if !inRange(r.ExperienceField, f.YearsMin, f.YearsMax) {
		return false
	}
	if !f.Since.IsZero() && r.Published.Before(f.Since) {
		return false
	}
	return true
}

func inRange(v, min, max int) bool {
	if min > 0 && v < min {
		return false
	}
	if max > 0 && v > max {
		return false
	}
	return true
}

// Apply returns the rows passing the filter, preserving dataset order.
func Apply(rows []Row, f Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Summary is a min/median/max salary distribution for one group.
type Summary struct {
	Group  string `json:"group"`
	Count  int    `json:"count"`
	Min    int    `json:"min"`
	Median int    `json:"median"`
	Max    int    `json:"max"`
}

// GradeOrder is the fixed seniority ordering used by the dashboard charts.
var GradeOrder = []string{"Chief", "Lead", "Senior", "Middle+", "Middle"}

// CohortOrder is the fixed ordering of experience cohorts.
var CohortOrder = []string{"0-3 года", "4-5 лет", "6-10 лет", "11 лет и более"}

// Cohort buckets years of field experience.
func Cohort(years int) string {
	switch {
	case years <= 3:
		return CohortOrder[0]
	case years <= 5:
		return CohortOrder[1]
	case years <= 10:
		return CohortOrder[2]
	default:
		return CohortOrder[3]
	}
}

// ByGrade aggregates salaries per grade in the fixed grade order; grades
// outside the known ordering follow alphabetically.
func ByGrade(rows []Row) []Summary {
	groups := groupSalaries(rows, func(r Row) string { return r.Grade })
	return ordered(groups, GradeOrder)
}

// ByCohort aggregates salaries per experience cohort.
func ByCohort(rows []Row) []Summary {
	groups := groupSalaries(rows, func(r Row) string { return Cohort(r.ExperienceField) })
	return ordered(groups, CohortOrder)
}

// ByCompany aggregates salaries per company, sorted by median ascending.
func ByCompany(rows []Row) []Summary {
	return byMedian(groupSalaries(rows, func(r Row) string { return r.Company }))
}

// BonusByCompany aggregates bonus amounts per company over rows that carry
// a bonus, sorted by median ascending.
func BonusByCompany(rows []Row) []Summary {
	groups := make(map[string][]int)
	for _, r := range rows {
		if r.BonusRUB > 0 {
			groups[r.Company] = append(groups[r.Company], r.BonusRUB)
		}
	}
	return byMedian(groups)
}

func groupSalaries(rows []Row, key func(Row) string) map[string][]int {
	groups := make(map[string][]int)
	for _, r := range rows {
		k := key(r)
		groups[k] = append(groups[k], r.SalaryRUB)
	}
	return groups
}

func ordered(groups map[string][]int, order []string) []Summary {
	var out []Summary
	for _, name := range order {
		if vals, ok := groups[name]; ok {
			out = append(out, summarize(name, vals))
			delete(groups, name)
		}
	}
	rest := make([]string, 0, len(groups))
	for name := range groups {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, summarize(name, groups[name]))
	}
	return out
}

func byMedian(groups map[string][]int) []Summary {
	out := make([]Summary, 0, len(groups))
	for name, vals := range groups {
		out = append(out, summarize(name, vals))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Median != out[j].Median {
			return out[i].Median < out[j].Median
		}
		return out[i].Group < out[j].Group
	})
	return out
}

func summarize(name string, vals []int) Summary {
	sorted := slices.Clone(vals)
	sort.Ints(sorted)
	return Summary{
		Group:  name,
		Count:  len(sorted),
		Min:    sorted[0],
		Median: median(sorted),
		Max:    sorted[len(sorted)-1],
	}
}

// median of a sorted slice; an even count averages the two middle values.
func median(sorted []int) int {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

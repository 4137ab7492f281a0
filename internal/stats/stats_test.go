package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/project-tktt/salary-pulse/internal/domain"
	"github.com/project-tktt/salary-pulse/internal/export"
)

func writeDataset(t *testing.T, rows [][]string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(export.Columns, "\t") + "\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t") + "\n")
	}
	path := filepath.Join(t.TempDir(), "reports.tsv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func dataRow(company, grade, salary, bonus, expField, format, date string) []string {
	return []string{
		company, "Developer", grade, salary,
		domain.Unspecified, bonus, expField, domain.Unspecified,
		domain.Unspecified, format, domain.Unspecified, domain.Unspecified,
		domain.Unspecified, domain.Unspecified, date, "https://t.me/testchan/1",
	}
}

func TestLoad(t *testing.T) {
	path := writeDataset(t, [][]string{
		dataRow("Acme", "Senior", "250000", "75000", "5", "гибрид", "12.05.2026"),
		dataRow("Globex", "Middle", domain.Unspecified, domain.Unspecified, domain.LessThanYear, "офис", "13.05.2026"),
	})

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Load() = %d rows, want 2", len(rows))
	}

	if rows[0].SalaryRUB != 250000 || rows[0].BonusRUB != 75000 || rows[0].ExperienceField != 5 {
		t.Errorf("numeric columns = %+v", rows[0])
	}
	if !rows[0].Published.Equal(time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("published = %v", rows[0].Published)
	}

	// Sentinel and less-than-a-year text in numeric columns read as zero.
	if rows[1].SalaryRUB != 0 || rows[1].BonusRUB != 0 || rows[1].ExperienceField != 0 {
		t.Errorf("sentinel columns = %+v", rows[1])
	}
	// String columns keep the sentinel as a regular category.
	if rows[1].BonusFrequency != domain.Unspecified {
		t.Errorf("bonus frequency = %q", rows[1].BonusFrequency)
	}
}

func TestLoadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.tsv")
	if err := os.WriteFile(path, []byte("a\tb\tc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a file with foreign columns")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("Load() accepted a missing file")
	}
}

func TestCohort(t *testing.T) {
	tests := []struct {
		years int
		want  string
	}{
		{0, "0-3 года"},
		{3, "0-3 года"},
		{4, "4-5 лет"},
		{5, "4-5 лет"},
		{6, "6-10 лет"},
		{10, "6-10 лет"},
		{11, "11 лет и более"},
		{25, "11 лет и более"},
	}
	for _, tt := range tests {
		if got := Cohort(tt.years); got != tt.want {
			t.Errorf("Cohort(%d) = %q, want %q", tt.years, got, tt.want)
		}
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		vals []int
		want int
	}{
		{[]int{100}, 100},
		{[]int{100, 200, 300}, 200},
		{[]int{100, 200}, 150},
		{[]int{100, 200, 300, 400}, 250},
	}
	for _, tt := range tests {
		if got := median(tt.vals); got != tt.want {
			t.Errorf("median(%v) = %d, want %d", tt.vals, got, tt.want)
		}
	}
}

func TestByGrade(t *testing.T) {
	rows := []Row{
		{Grade: "Middle", SalaryRUB: 150000},
		{Grade: "Senior", SalaryRUB: 250000},
		{Grade: "Senior", SalaryRUB: 350000},
		{Grade: domain.Unspecified, SalaryRUB: 0},
		{Grade: "Lead", SalaryRUB: 400000},
	}

	got := ByGrade(rows)
	order := make([]string, len(got))
	for i, s := range got {
		order[i] = s.Group
	}
	// Known grades in seniority order, everything else after.
	want := []string{"Lead", "Senior", "Middle", domain.Unspecified}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("grade order = %v, want %v", order, want)
		}
	}

	senior := got[1]
	if senior.Count != 2 || senior.Min != 250000 || senior.Median != 300000 || senior.Max != 350000 {
		t.Errorf("Senior summary = %+v", senior)
	}
}

func TestByCohort(t *testing.T) {
	rows := []Row{
		{ExperienceField: 2, SalaryRUB: 100000},
		{ExperienceField: 8, SalaryRUB: 300000},
		{ExperienceField: 12, SalaryRUB: 500000},
	}

	got := ByCohort(rows)
	want := []string{"0-3 года", "6-10 лет", "11 лет и более"}
	if len(got) != len(want) {
		t.Fatalf("ByCohort() = %d groups, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Group != want[i] {
			t.Errorf("cohort[%d] = %q, want %q", i, got[i].Group, want[i])
		}
	}
}

func TestByCompanySortsByMedian(t *testing.T) {
	rows := []Row{
		{Company: "Acme", SalaryRUB: 300000},
		{Company: "Globex", SalaryRUB: 100000},
		{Company: "Initech", SalaryRUB: 200000},
	}
	got := ByCompany(rows)
	want := []string{"Globex", "Initech", "Acme"}
	for i := range want {
		if got[i].Group != want[i] {
			t.Fatalf("company order = %+v, want %v", got, want)
		}
	}
}

func TestBonusByCompanySkipsRowsWithoutBonus(t *testing.T) {
	rows := []Row{
		{Company: "Acme", BonusRUB: 50000},
		{Company: "Acme", BonusRUB: 0}, // unspecified bonus read as zero
		{Company: "Globex", BonusRUB: 0},
	}
	got := BonusByCompany(rows)
	if len(got) != 1 || got[0].Group != "Acme" || got[0].Count != 1 {
		t.Errorf("BonusByCompany() = %+v, want a single Acme group of one", got)
	}
}

func TestFilter(t *testing.T) {
	rows := []Row{
		{Company: "Acme", Grade: "Senior", WorkFormat: "гибрид", SalaryRUB: 250000,
			BonusRUB: 75000, ExperienceField: 5,
			Published: time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)},
		{Company: "Globex", Grade: "Middle", WorkFormat: "офис", SalaryRUB: 150000,
			ExperienceField: 2,
			Published:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)},
	}

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"empty filter keeps everything", Filter{}, 2},
		{"by grade", Filter{Grades: []string{"Senior"}}, 1},
		{"by company", Filter{Companies: []string{"Globex"}}, 1},
		{"by work format", Filter{WorkFormats: []string{"гибрид"}}, 1},
		{"salary min", Filter{SalaryMin: 200000}, 1},
		{"salary max", Filter{SalaryMax: 200000}, 1},
		// An unspecified bonus reads as zero, so a positive minimum drops it.
		{"bonus min", Filter{BonusMin: 50000}, 1},
		{"bonus max", Filter{BonusMax: 50000}, 1},
		{"years min", Filter{YearsMin: 3}, 1},
		{"years max", Filter{YearsMax: 3}, 1},
		{"years range", Filter{YearsMin: 1, YearsMax: 10}, 2},
		{"since", Filter{Since: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, 1},
		{"combined no match", Filter{Grades: []string{"Senior"}, SalaryMax: 200000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(rows, tt.f); len(got) != tt.want {
				t.Errorf("Apply() kept %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

// Package export serializes the report dataset to its tabular file.
// This is the only place the "Не указан" sentinel text is produced; inside
// the pipeline a missing field is a nil pointer or an unknown Years value.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// Columns is the dataset header, in dataset order. Downstream consumers key
// on these names.
var Columns = []string{
	"company",
	"position",
	"grade",
	"salaryAmountHome",
	"bonusFrequency",
	"bonusAmountHome",
	"experienceInFieldYears",
	"experienceInCompanyYears",
	"perks",
	"workFormat",
	"workLocation",
	"workingHoursSpan",
	"likes",
	"dislikes",
	"publishedDate",
	"permalink",
}

// Row renders one report in dataset column order.
func Row(r domain.Report) []string {
	return []string{
		text(r.Company),
		text(r.Position),
		text(r.Grade),
		number(r.SalaryRUB),
		text(r.BonusFrequency),
		number(r.BonusRUB),
		r.ExperienceField.String(),
		r.ExperienceCompany.String(),
		text(r.Perks),
		text(r.WorkFormat),
		text(r.WorkLocation),
		number(r.WorkdayHoursUpper),
		text(r.Likes),
		text(r.Dislikes),
		r.PublishedDate(),
		r.Permalink,
	}
}

// WriteFile writes the full dataset as TSV in one atomic step: the rows go
// to a temp file in the target directory which is then renamed over the
// destination. A failed run never leaves a partial dataset behind.
func WriteFile(path string, reports []domain.Report) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".salary-reports-*.tsv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = '\t'

	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range reports {
		if err := w.Write(Row(r)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row %d: %w", r.MessageID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace dataset %s: %w", path, err)
	}
	return nil
}

func text(v *string) string {
	if v == nil {
		return domain.Unspecified
	}
	return *v
}

func number(v *int) string {
	if v == nil {
		return domain.Unspecified
	}
	return strconv.Itoa(*v)
}

// Package extract holds one pure extraction rule per report field. Every
// function takes the raw message text and reports a miss through its ok
// result; a miss is a normal outcome, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

var (
	// Header line: marker glyph, grade token, position, literal "в", company.
	headerRe = regexp.MustCompile(`⚡️\s*([A-Za-zА-Яа-яЁё0-9+]+)\s+([A-Za-zА-Яа-яЁё ]+?)\s+в\s+([A-Za-zА-Яа-яЁё ]+)`)

	salaryRe = regexp.MustCompile(`Зарплата:\s*([0-9][0-9 ]*)\s*([€$₽])?`)

	bonusFreqRe   = regexp.MustCompile(`Премия:\s*(.+?)(?:\||\n|$)`)
	bonusDetailRe = regexp.MustCompile(`\|\s*([^\n]+)`)
	percentRe     = regexp.MustCompile(`(\d+)% от зп`)
	amountRe      = regexp.MustCompile(`([0-9][0-9 ]*)\s*([€$₽])?`)

	expLineRe    = regexp.MustCompile(`Опыт:\s*(.+)`)
	expFieldRe   = regexp.MustCompile(`(\d+)\s+(?:лет|года|год)\s+в\s+сфере`)
	expCompanyRe = regexp.MustCompile(`(\d+)\s+(?:лет|года|год)\s+в\s+компании`)
	expMonthsRe  = regexp.MustCompile(`(\d+)\s+мес`)

	perksRe = regexp.MustCompile(`(?s)Бонусы:\s*(.+?)(?:Формат работы|Что нравится|Что не нравится|\z)`)

	workFormatRe = regexp.MustCompile(`Формат работы:\s*(.+?)\s*\((.+?)\)\s*\|\s*(\d+)[-–](\d+)`)

	likesRe    = regexp.MustCompile(`(?s)Что нравится в компании\?\s*(.+?)(?:Что не нравится|\z)`)
	dislikesRe = regexp.MustCompile(`(?s)Что не нравится\?\s*(.+?)(?:Комментарий|\[|#|\z)`)
)

// Header extracts grade, position and company from the marker line.
// A message without the marker glyph yields no match for all three.
func Header(text string) (grade, position, company string, ok bool) {
	m := headerRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3]), true
}

// Salary extracts the base amount in its original currency. Embedded spaces
// in the digit group are stripped before parsing. The currency is empty when
// the amount was written without a glyph.
func Salary(text string) (amount int, currency domain.Currency, ok bool) {
	m := salaryRe.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	digits := strings.ReplaceAll(m[1], " ", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}
	return n, domain.Currency(m[2]), true
}

// Bonus extracts the bonus frequency (capitalized) and, when the message
// carries a separator, the raw detail text after it. The detail is searched
// across the whole message, matching the source channel's layout where the
// bonus line is the first to carry a separator.
func Bonus(text string) (freq, detail string, ok bool) {
	m := bonusFreqRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	freq = Capitalize(strings.TrimSpace(m[1]))
	if d := bonusDetailRe.FindStringSubmatch(text); d != nil {
		detail = strings.TrimSpace(d[1])
	}
	return freq, detail, true
}

// BonusDetail is the parsed form of the text after the bonus separator:
// either a percentage of the base salary or a standalone amount.
type BonusDetail struct {
	IsPercent bool
	Percent   int
	Amount    int
	Currency  domain.Currency
}

// ParseBonusDetail parses a bonus detail string. A detail that yields no
// digits is a miss, not an error.
func ParseBonusDetail(detail string) (BonusDetail, bool) {
	if m := percentRe.FindStringSubmatch(detail); m != nil {
		p, err := strconv.Atoi(m[1])
		if err == nil {
			return BonusDetail{IsPercent: true, Percent: p}, true
		}
	}
	m := amountRe.FindStringSubmatch(detail)
	if m == nil {
		return BonusDetail{}, false
	}
	digits := strings.ReplaceAll(m[1], " ", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return BonusDetail{}, false
	}
	return BonusDetail{Amount: n, Currency: domain.Currency(m[2])}, true
}

// Experience extracts years in field and years in company from the labeled
// line. A months-only mention maps field experience to the less-than-a-year
// form; it is consulted only when no yearly field value is present.
func Experience(text string) (field, company domain.Years) {
	m := expLineRe.FindStringSubmatch(text)
	if m == nil {
		return domain.Years{}, domain.Years{}
	}
	line := m[1]

	if f := expFieldRe.FindStringSubmatch(line); f != nil {
		n, err := strconv.Atoi(f[1])
		if err == nil {
			field = domain.Years{Known: true, Value: n}
		}
	} else if expMonthsRe.MatchString(line) {
		field = domain.Years{Known: true, LessThanYear: true}
	}

	if c := expCompanyRe.FindStringSubmatch(line); c != nil {
		n, err := strconv.Atoi(c[1])
		if err == nil {
			company = domain.Years{Known: true, Value: n}
		}
	}
	return field, company
}

// Perks captures the free text between the perks label and the next section,
// flattened to one comma-joined line.
func Perks(text string) (string, bool) {
	m := perksRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return flatten(m[1], ", "), true
}

// WorkFormat extracts the format, location (capitalized) and the upper bound
// of the working-hours range. The lower bound is matched but not recorded.
func WorkFormat(text string) (format, location string, hoursUpper int, ok bool) {
	m := workFormatRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", 0, false
	}
	upper, err := strconv.Atoi(m[4])
	if err != nil {
		return "", "", 0, false
	}
	return strings.TrimSpace(m[1]), Capitalize(strings.TrimSpace(m[2])), upper, true
}

// Likes captures the free text of the "what do you like" section, newlines
// flattened to spaces.
func Likes(text string) (string, bool) {
	m := likesRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return flatten(m[1], " "), true
}

// Dislikes captures the free text of the "what don't you like" section up to
// the comment block or trailing markers, newlines flattened to spaces.
func Dislikes(text string) (string, bool) {
	m := dislikesRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return flatten(m[1], " "), true
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func flatten(s, sep string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", sep)
}

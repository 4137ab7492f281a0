package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Unspecified is the literal written to the dataset for a field that could
// not be extracted from the source text. It exists only at the serialization
// boundary; inside the pipeline absence is typed (nil pointers, Years.Known).
const Unspecified = "Не указан"

// LessThanYear is the value recorded for field experience reported in months.
const LessThanYear = "Менее 1 года"

// Currency is the glyph that follows an amount in a salary report.
type Currency string

const (
	CurrencyRUB Currency = "₽"
	CurrencyEUR Currency = "€"
	CurrencyUSD Currency = "$"
)

// Code returns the ISO 4217 code used by the rate source, or "" for the
// home currency and for amounts written without a glyph.
func (c Currency) Code() string {
	switch c {
	case CurrencyEUR:
		return "EUR"
	case CurrencyUSD:
		return "USD"
	default:
		return ""
	}
}

// RawMessage is one post pulled from the channel. Supplied by the channel
// source; messages with empty text are skipped and produce no report.
type RawMessage struct {
	ID          int64
	Text        string
	PublishedAt time.Time
}

// Years holds an extracted experience value. A months-only mention maps to
// the "less than one year" form rather than a numeric value.
type Years struct {
	Known        bool
	LessThanYear bool
	Value        int
}

// String renders the value the way the dataset records it.
func (y Years) String() string {
	switch {
	case !y.Known:
		return Unspecified
	case y.LessThanYear:
		return LessThanYear
	default:
		return strconv.Itoa(y.Value)
	}
}

// Report is the structured record extracted from one channel message.
// Nil pointer fields mean the extractor found no match; the sentinel text is
// applied only when the dataset is written.
type Report struct {
	MessageID int64  `json:"message_id"`
	Channel   string `json:"channel"`

	Company  *string `json:"company"`
	Position *string `json:"position"`
	Grade    *string `json:"grade"`

	// SalaryRUB is the base salary converted into rubles and rounded to the
	// nearest thousand when a conversion applied.
	SalaryRUB *int `json:"salary_rub"`

	BonusFrequency *string `json:"bonus_frequency"`
	BonusRUB       *int    `json:"bonus_rub"`

	ExperienceField   Years `json:"experience_field"`
	ExperienceCompany Years `json:"experience_company"`

	Perks        *string `json:"perks"`
	WorkFormat   *string `json:"work_format"`
	WorkLocation *string `json:"work_location"`

	// WorkdayHoursUpper is the upper bound of the reported working-hours
	// range. The span is not computed; only the upper bound is recorded.
	WorkdayHoursUpper *int `json:"workday_hours_upper"`

	Likes    *string `json:"likes"`
	Dislikes *string `json:"dislikes"`

	PublishedAt time.Time `json:"published_at"`
	Permalink   string    `json:"permalink"`
}

// PublishedDate is the publication timestamp truncated to a calendar date,
// formatted the way the dataset records it.
func (r Report) PublishedDate() string {
	return r.PublishedAt.Format("02.01.2006")
}

// PermalinkFor builds the canonical post URL for a message in a channel.
func PermalinkFor(channel string, messageID int64) string {
	return fmt.Sprintf("https://t.me/%s/%d", channel, messageID)
}

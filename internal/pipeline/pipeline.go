// Package pipeline turns a channel's message stream into the report dataset.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/project-tktt/salary-pulse/internal/channel"
	"github.com/project-tktt/salary-pulse/internal/domain"
	"github.com/project-tktt/salary-pulse/internal/extract"
	"github.com/project-tktt/salary-pulse/internal/normalize"
)

// Pipeline reads every message of a channel, extracts one report per
// non-empty message and accumulates them in publication order. Extraction
// misses never drop a record; only failure to read the channel aborts a run.
type Pipeline struct {
	source  channel.Source
	rates   normalize.Rates
	channel string
}

// New creates a pipeline over a source with a fixed per-run rate table.
func New(source channel.Source, rates normalize.Rates, channelName string) *Pipeline {
	return &Pipeline{source: source, rates: rates, channel: strings.TrimPrefix(channelName, "@")}
}

// Run consumes the stream and returns the accumulated dataset.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Report, error) {
	messages, err := p.source.Messages(ctx, p.channel)
	if err != nil {
		return nil, fmt.Errorf("read channel %s: %w", p.channel, err)
	}

	reports := make([]domain.Report, 0, len(messages))
	for _, msg := range messages {
		if msg.Text == "" {
			continue
		}
		reports = append(reports, BuildReport(msg, p.channel, p.rates))
	}

	log.Printf("pipeline: %d messages, %d reports", len(messages), len(reports))
	return reports, nil
}

// BuildReport extracts all fields of one message. Salary runs strictly
// before bonus: a percentage bonus is derived from the parsed base amount in
// the salary's original currency.
func BuildReport(msg domain.RawMessage, channelName string, rates normalize.Rates) domain.Report {
	r := domain.Report{
		MessageID:   msg.ID,
		Channel:     channelName,
		PublishedAt: msg.PublishedAt,
		Permalink:   domain.PermalinkFor(channelName, msg.ID),
	}

	if grade, position, company, ok := extract.Header(msg.Text); ok {
		r.Grade = &grade
		r.Position = &position
		r.Company = &company
	}

	var (
		salaryBase     int
		salaryCurrency domain.Currency
		salaryOK       bool
	)
	if amount, currency, ok := extract.Salary(msg.Text); ok {
		salaryBase, salaryCurrency, salaryOK = amount, currency, true
		rub := normalize.Amount(float64(amount), currency, rates)
		r.SalaryRUB = &rub
	}

	if freq, detail, ok := extract.Bonus(msg.Text); ok {
		r.BonusFrequency = &freq
		if rub, ok := bonusAmount(detail, salaryBase, salaryCurrency, salaryOK, rates); ok {
			r.BonusRUB = &rub
		}
	}

	r.ExperienceField, r.ExperienceCompany = extract.Experience(msg.Text)

	if perks, ok := extract.Perks(msg.Text); ok {
		r.Perks = &perks
	}
	if format, location, upper, ok := extract.WorkFormat(msg.Text); ok {
		r.WorkFormat = &format
		r.WorkLocation = &location
		r.WorkdayHoursUpper = &upper
	}
	if likes, ok := extract.Likes(msg.Text); ok {
		r.Likes = &likes
	}
	if dislikes, ok := extract.Dislikes(msg.Text); ok {
		r.Dislikes = &dislikes
	}

	return r
}

// bonusAmount resolves the bonus detail into rubles. A percentage detail
// without a parsed base salary stays unspecified.
func bonusAmount(detail string, base int, currency domain.Currency, baseOK bool, rates normalize.Rates) (int, bool) {
	parsed, ok := extract.ParseBonusDetail(detail)
	if !ok {
		return 0, false
	}
	if parsed.IsPercent {
		if !baseOK {
			return 0, false
		}
		return normalize.BonusFromPercent(parsed.Percent, base, currency, rates), true
	}
	return normalize.Amount(float64(parsed.Amount), parsed.Currency, rates), true
}

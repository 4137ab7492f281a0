// Package preview reads a public channel through its t.me/s web preview.
// It needs no API credentials, which makes it the default source for public
// channels; MTProto remains available for anything the preview cannot see.
package preview

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// DefaultBaseURL is the public web preview host.
const DefaultBaseURL = "https://t.me/s"

// Config holds scraper settings.
type Config struct {
	BaseURL   string
	UserAgent string
	// MaxPages bounds the history walk; 0 means no bound.
	MaxPages int
}

// Scraper walks the paginated web preview of a channel and yields its
// messages oldest first.
type Scraper struct {
	collector *colly.Collector
	policy    *bluemonday.Policy
	baseURL   string
	maxPages  int
}

var brRe = regexp.MustCompile(`(?i)<br\s*/?>`)

// NewScraper creates a preview scraper.
func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}

	return &Scraper{
		collector: colly.NewCollector(opts...),
		policy:    bluemonday.StrictPolicy(),
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		maxPages:  cfg.MaxPages,
	}
}

// Messages fetches the channel history, paging backwards with the preview's
// ?before cursor, and returns the posts oldest first.
func (s *Scraper) Messages(ctx context.Context, channel string) ([]domain.RawMessage, error) {
	channel = strings.TrimPrefix(channel, "@")

	seen := make(map[int64]domain.RawMessage)
	var pageIDs []int64

	c := s.collector.Clone()
	c.OnHTML("div.tgme_widget_message", func(e *colly.HTMLElement) {
		msg, ok := s.parseMessage(e.DOM, channel)
		if !ok {
			return
		}
		if _, dup := seen[msg.ID]; !dup {
			seen[msg.ID] = msg
			pageIDs = append(pageIDs, msg.ID)
		}
	})

	url := fmt.Sprintf("%s/%s", s.baseURL, channel)
	for page := 0; s.maxPages == 0 || page < s.maxPages; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageIDs = pageIDs[:0]
		if err := c.Visit(url); err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetch preview for %s: %w", channel, err)
			}
			break
		}

		if len(pageIDs) == 0 {
			break
		}

		minID := pageIDs[0]
		for _, id := range pageIDs[1:] {
			if id < minID {
				minID = id
			}
		}
		if minID <= 1 {
			break
		}
		url = fmt.Sprintf("%s/%s?before=%d", s.baseURL, channel, minID)
	}

	all := make([]domain.RawMessage, 0, len(seen))
	for _, msg := range seen {
		all = append(all, msg)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *Scraper) parseMessage(sel *goquery.Selection, channel string) (domain.RawMessage, bool) {
	post := sel.AttrOr("data-post", "")
	idx := strings.LastIndex(post, "/")
	if idx < 0 {
		return domain.RawMessage{}, false
	}
	id, err := strconv.ParseInt(post[idx+1:], 10, 64)
	if err != nil {
		return domain.RawMessage{}, false
	}

	var published time.Time
	if dt := sel.Find("a.tgme_widget_message_date time").AttrOr("datetime", ""); dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			published = t
		}
	}

	text := ""
	if body, err := sel.Find("div.tgme_widget_message_text").Html(); err == nil {
		text = s.htmlToText(body)
	}

	return domain.RawMessage{ID: id, Text: text, PublishedAt: published}, true
}

// htmlToText strips preview markup while keeping the line structure the
// extractors depend on.
func (s *Scraper) htmlToText(body string) string {
	withBreaks := brRe.ReplaceAllString(body, "\n")
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(withBreaks)))
}

// Package rates looks up same-day official CBR exchange rates.
package rates

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBaseURL is the CBR daily-rates endpoint.
const DefaultBaseURL = "https://www.cbr.ru/scripts/XML_daily.asp"

// Table is a fixed per-run snapshot of rates. It satisfies normalize.Rates.
type Table map[string]float64

// Rate returns the snapshot rate for an ISO code.
func (t Table) Rate(code string) (float64, bool) {
	v, ok := t[code]
	return v, ok
}

// Resolver fetches a rate for a 3-letter code as of a given day. Every
// failure mode (network, parse, code not listed) degrades to "unavailable";
// the resolver never returns an error to its caller. Results, including
// misses, are memoized so each currency is looked up at most once per run;
// Snapshot begins a fresh run, so a scheduled re-scan retries failed lookups
// and never carries yesterday's rate into a new day. An optional Redis
// client caches hits for the rest of the day, so repeated runs skip the HTTP
// call (same keying style as the crawler deduplicator).
type Resolver struct {
	client  *http.Client
	baseURL string
	rdb     *redis.Client
	prefix  string
	now     func() time.Time

	mu   sync.Mutex
	memo map[string]memoEntry
}

type memoEntry struct {
	rate float64
	ok   bool
}

// NewResolver creates a resolver. rdb may be nil to disable cross-run caching.
func NewResolver(baseURL string, rdb *redis.Client, prefix string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if prefix == "" {
		prefix = "rates"
	}
	return &Resolver{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		rdb:     rdb,
		prefix:  prefix,
		now:     time.Now,
		memo:    make(map[string]memoEntry),
	}
}

// Rate resolves the same-day rate for a currency code.
func (r *Resolver) Rate(ctx context.Context, code string) (float64, bool) {
	r.mu.Lock()
	if e, ok := r.memo[code]; ok {
		r.mu.Unlock()
		return e.rate, e.ok
	}
	r.mu.Unlock()

	rate, ok := r.lookup(ctx, code)

	r.mu.Lock()
	r.memo[code] = memoEntry{rate: rate, ok: ok}
	r.mu.Unlock()
	return rate, ok
}

// Snapshot resolves the given codes once and returns a fixed table for the
// run. Unavailable codes are simply absent from the table. Each snapshot is
// its own run: earlier memoized results are discarded first, so the lookup
// hits the day-keyed cache (or the endpoint) again instead of an answer from
// a previous tick.
func (r *Resolver) Snapshot(ctx context.Context, codes ...string) Table {
	r.mu.Lock()
	r.memo = make(map[string]memoEntry)
	r.mu.Unlock()

	t := Table{}
	for _, code := range codes {
		if v, ok := r.Rate(ctx, code); ok {
			t[code] = v
		}
	}
	return t
}

func (r *Resolver) lookup(ctx context.Context, code string) (float64, bool) {
	day := r.now().Format("02/01/2006")

	if v, ok := r.cached(ctx, code, day); ok {
		return v, true
	}

	url := fmt.Sprintf("%s?date_req=%s", r.baseURL, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("rates: build request: %v", err)
		return 0, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Printf("rates: fetch %s: %v", code, err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("rates: fetch %s: unexpected status %d", code, resp.StatusCode)
		return 0, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("rates: read body: %v", err)
		return 0, false
	}

	rate, ok := parseRate(string(body), code)
	if !ok {
		// Code not listed for this date is a normal outcome.
		return 0, false
	}

	r.store(ctx, code, day, rate)
	return rate, true
}

// parseRate extracts the value for a code from the CBR XML body. The value
// uses a decimal comma.
func parseRate(body, code string) (float64, bool) {
	re := regexp.MustCompile(`(?s)<CharCode>` + regexp.QuoteMeta(code) + `</CharCode>.*?<Value>([\d,]+)</Value>`)
	m := re.FindStringSubmatch(body)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Resolver) cacheKey(code, day string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, code, day)
}

func (r *Resolver) cached(ctx context.Context, code, day string) (float64, bool) {
	if r.rdb == nil {
		return 0, false
	}
	val, err := r.rdb.Get(ctx, r.cacheKey(code, day)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		log.Printf("rates: cache get: %v", err)
		return 0, false
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Resolver) store(ctx context.Context, code, day string, rate float64) {
	if r.rdb == nil {
		return
	}
	// Rates are daily; keep the entry until shortly after midnight.
	midnight := r.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	ttl := time.Until(midnight) + time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}
	val := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := r.rdb.Set(ctx, r.cacheKey(code, day), val, ttl).Err(); err != nil {
		log.Printf("rates: cache set: %v", err)
	}
}

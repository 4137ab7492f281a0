package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/project-tktt/salary-pulse/internal/config"
	"github.com/project-tktt/salary-pulse/internal/stats"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	srv := &server{datasetPath: cfg.Dashboard.DatasetPath}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/reports", srv.handleReports)
	mux.HandleFunc("/api/summary/grades", srv.summary(stats.ByGrade))
	mux.HandleFunc("/api/summary/companies", srv.summary(stats.ByCompany))
	mux.HandleFunc("/api/summary/cohorts", srv.summary(stats.ByCohort))
	mux.HandleFunc("/api/summary/bonuses", srv.summary(stats.BonusByCompany))

	log.Printf("Dashboard backend on %s (dataset: %s)", cfg.Dashboard.Addr, cfg.Dashboard.DatasetPath)
	if err := http.ListenAndServe(cfg.Dashboard.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

type server struct {
	datasetPath string
}

// load re-reads the dataset on every request; the file is small and the
// ingest run replaces it atomically, so a reader never sees a partial write.
func (s *server) load(w http.ResponseWriter, r *http.Request) ([]stats.Row, bool) {
	rows, err := stats.Load(s.datasetPath)
	if err != nil {
		log.Printf("Load dataset: %v", err)
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
		return nil, false
	}
	return stats.Apply(rows, filterFromQuery(r)), true
}

func (s *server) handleReports(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, rows)
}

func (s *server) summary(aggregate func([]stats.Row) []stats.Summary) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, ok := s.load(w, r)
		if !ok {
			return
		}
		writeJSON(w, aggregate(rows))
	}
}

// filterFromQuery maps query parameters onto a dataset filter:
// grades, companies and formats are comma-separated lists; salary_min,
// salary_max, bonus_min, bonus_max, years_min and years_max bound the ruble
// amounts and the years of field experience; days keeps the last N days.
func filterFromQuery(r *http.Request) stats.Filter {
	q := r.URL.Query()
	f := stats.Filter{
		Grades:      splitParam(q.Get("grades")),
		Companies:   splitParam(q.Get("companies")),
		WorkFormats: splitParam(q.Get("formats")),
		SalaryMin:   intParam(q.Get("salary_min")),
		SalaryMax:   intParam(q.Get("salary_max")),
		BonusMin:    intParam(q.Get("bonus_min")),
		BonusMax:    intParam(q.Get("bonus_max")),
		YearsMin:    intParam(q.Get("years_min")),
		YearsMax:    intParam(q.Get("years_max")),
	}
	if days, err := strconv.Atoi(q.Get("days")); err == nil && days > 0 {
		f.Since = time.Now().AddDate(0, 0, -days)
	}
	return f
}

func intParam(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode response: %v", err)
	}
}

package observability

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Metric names recorded by the server and CLI.
const (
	MetricConfigGenerated = "config_generated"
	MetricConfigInstalled = "config_installed"
	MetricChatProxied     = "chat_proxied"
	MetricChatFailed      = "chat_failed"
	MetricProfileSaved    = "profile_saved"
)

// Metric is a single counter for a surface in a time period.
type Metric struct {
	Surface     string `json:"surface"`
	MetricName  string `json:"metric_name"`
	MetricValue int64  `json:"metric_value"`
	Period      string `json:"period"`
}

// Summary is an aggregate view of all counters for one surface.
type Summary struct {
	Surface string           `json:"surface"`
	Metrics map[string]int64 `json:"metrics"`
}

// Store aggregates usage counters in hourly buckets.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new observability Store.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// currentPeriod returns the current hourly bucket as "2006-01-02T15".
func (s *Store) currentPeriod() string {
	return s.now().UTC().Format("2006-01-02T15")
}

// Increment adds 1 to the named counter for surface in the current bucket.
func (s *Store) Increment(ctx context.Context, surface, metricName string) error {
	return s.IncrementBy(ctx, surface, metricName, 1)
}

// IncrementBy adds delta to the named counter for surface in the current bucket.
func (s *Store) IncrementBy(ctx context.Context, surface, metricName string, delta int64) error {
	period := s.currentPeriod()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_metrics (surface, metric_name, metric_value, period)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (surface, metric_name, period)
		 DO UPDATE SET metric_value = usage_metrics.metric_value + ?`,
		surface, metricName, delta, period, delta)
	if err != nil {
		return fmt.Errorf("increment metric: %w", err)
	}
	return nil
}

// Query returns raw counters, optionally filtered by period prefix.
// "2026-02-16" matches every hour of that day.
func (s *Store) Query(ctx context.Context, period string) ([]Metric, error) {
	query := `SELECT surface, metric_name, metric_value, period FROM usage_metrics WHERE 1=1`
	args := []any{}

	if period != "" {
		query += ` AND period LIKE ?`
		args = append(args, period+"%")
	}
	query += ` ORDER BY surface, period DESC, metric_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var items []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Surface, &m.MetricName, &m.MetricValue, &m.Period); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// Summarize returns counter totals per surface across all periods, or
// those matching the period prefix.
func (s *Store) Summarize(ctx context.Context, period string) ([]Summary, error) {
	query := `SELECT surface, metric_name, SUM(metric_value) FROM usage_metrics WHERE 1=1`
	args := []any{}

	if period != "" {
		query += ` AND period LIKE ?`
		args = append(args, period+"%")
	}
	query += ` GROUP BY surface, metric_name ORDER BY surface, metric_name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize metrics: %w", err)
	}
	defer rows.Close()

	summaryMap := map[string]*Summary{}
	var order []string

	for rows.Next() {
		var surface, name string
		var total int64
		if err := rows.Scan(&surface, &name, &total); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if _, ok := summaryMap[surface]; !ok {
			summaryMap[surface] = &Summary{Surface: surface, Metrics: map[string]int64{}}
			order = append(order, surface)
		}
		summaryMap[surface].Metrics[name] = total
	}

	result := make([]Summary, 0, len(order))
	for _, surface := range order {
		result = append(result, *summaryMap[surface])
	}
	return result, rows.Err()
}

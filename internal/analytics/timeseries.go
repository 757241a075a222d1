package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Metrics the time-series endpoint can chart.
const (
	MetricVisitors = "visitors"
	MetricRevenue  = "revenue"
	MetricQuizzes  = "quizzes"
)

// ErrInvalidMetric rejects unknown metric selectors. Callers check it
// before any store query runs, so the client gets a 400 and the store
// is never touched.
var ErrInvalidMetric = errors.New("invalid metric: must be one of visitors, revenue, quizzes")

// ValidMetric reports whether m is a chartable metric.
func ValidMetric(m string) bool {
	switch m {
	case MetricVisitors, MetricRevenue, MetricQuizzes:
		return true
	}
	return false
}

// Point is one day of a time series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

const dateLayout = "2006-01-02"

// TimeSeries buckets one metric into daily values covering every
// calendar day from the window start through today inclusive. Days
// with no activity appear with value 0; the result always has days+1
// entries in ascending date order.
func (s *Service) TimeSeries(ctx context.Context, days int, metric string) ([]Point, error) {
	if !ValidMetric(metric) {
		return nil, ErrInvalidMetric
	}

	days = ClampDays(days)
	now := time.Now().UTC()
	since := windowStart(now, days)

	values, err := s.dailyValues(ctx, metric, since)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, days+1)
	start := since.Truncate(24 * time.Hour)
	today := now.Truncate(24 * time.Hour)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		v := values[date]
		if metric == MetricRevenue {
			v = round2(v)
		}
		points = append(points, Point{Date: date, Value: v})
	}
	return points, nil
}

// dailyValues groups raw rows by the date portion of their stored
// timestamp. No timezone conversion is applied.
func (s *Service) dailyValues(ctx context.Context, metric string, since time.Time) (map[string]float64, error) {
	values := make(map[string]float64)

	switch metric {
	case MetricVisitors:
		views, err := s.pageViews.ListSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load page views: %w", err)
		}
		seen := make(map[string]map[string]bool)
		for _, pv := range views {
			date := pv.CreatedAt.Format(dateLayout)
			if seen[date] == nil {
				seen[date] = make(map[string]bool)
			}
			seen[date][pv.SessionToken] = true
		}
		for date, tokens := range seen {
			values[date] = float64(len(tokens))
		}

	case MetricRevenue:
		purchases, err := s.purchases.ListCompletedSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load purchases: %w", err)
		}
		for _, p := range purchases {
			values[p.CreatedAt.Format(dateLayout)] += p.Amount
		}

	case MetricQuizzes:
		results, err := s.results.ListSince(ctx, since)
		if err != nil {
			return nil, fmt.Errorf("failed to load quiz results: %w", err)
		}
		for _, q := range results {
			values[q.CreatedAt.Format(dateLayout)]++
		}
	}

	return values, nil
}

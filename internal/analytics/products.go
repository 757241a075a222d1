package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/eredeticsakra/csakra-api/internal/catalog"
)

// ProductStat summarizes one product's completed sales in a window.
type ProductStat struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	Sales      int     `json:"sales"`
	Revenue    float64 `json:"revenue"`
	Percentage float64 `json:"percentage"`
}

// ProductStats groups completed purchases by product id and computes
// each product's revenue share, highest revenue first. A window with
// no completed purchases yields an empty list.
func (s *Service) ProductStats(ctx context.Context, days int) ([]ProductStat, error) {
	days = ClampDays(days)
	since := windowStart(time.Now().UTC(), days)

	purchases, err := s.purchases.ListCompletedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	type group struct {
		sales   int
		revenue float64
	}
	groups := make(map[string]*group)
	var total float64
	for _, p := range purchases {
		g := groups[p.ProductID]
		if g == nil {
			g = &group{}
			groups[p.ProductID] = g
		}
		g.sales++
		g.revenue += p.Amount
		total += p.Amount
	}

	stats := make([]ProductStat, 0, len(groups))
	for id, g := range groups {
		stats = append(stats, ProductStat{
			ProductID:  id,
			Name:       catalog.Name(id),
			Sales:      g.sales,
			Revenue:    round2(g.revenue),
			Percentage: percent(g.revenue, total),
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Revenue > stats[j].Revenue })
	return stats, nil
}

package analysis

import (
	"slices"

	"github.com/YnaPqt/deploiement-getaround/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Breakdown counts rentals per check-in type and delay category and
// summarises checkout delays per check-in type.
// Groups and stats are ordered mobile before connect, categories by severity.
func Breakdown(records []domain.RentalRecord, filter domain.CheckinFilter) domain.DelayBreakdown {
	out := domain.DelayBreakdown{
		Checkin: filter,
		Total:   len(records),
		Groups:  []domain.BreakdownGroup{},
		Stats:   []domain.DelayStatistics{},
	}

	counts := make(map[domain.CheckinType]map[domain.DelayCategory]int)
	delays := make(map[domain.CheckinType][]float64)
	for _, r := range records {
		if counts[r.CheckinType] == nil {
			counts[r.CheckinType] = make(map[domain.DelayCategory]int)
		}
		counts[r.CheckinType][r.DelayCategory]++
		delays[r.CheckinType] = append(delays[r.CheckinType], r.DelayAtCheckout)
	}

	for _, ct := range []domain.CheckinType{domain.CheckinMobile, domain.CheckinConnect} {
		byCategory, ok := counts[ct]
		if !ok {
			continue
		}
		for _, cat := range domain.DelayCategories {
			out.Groups = append(out.Groups, domain.BreakdownGroup{
				CheckinType: ct,
				Category:    cat,
				Count:       byCategory[cat],
				Share:       percent(byCategory[cat], len(records)),
			})
		}
		out.Stats = append(out.Stats, delayStatistics(ct, delays[ct], len(delays[ct])-byCategory[domain.DelayOnTime]))
	}

	return out
}

func delayStatistics(ct domain.CheckinType, delays []float64, late int) domain.DelayStatistics {
	sorted := slices.Clone(delays)
	slices.Sort(sorted)

	return domain.DelayStatistics{
		CheckinType: ct,
		Count:       len(sorted),
		MeanDelay:   stat.Mean(sorted, nil),
		MedianDelay: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P90Delay:    stat.Quantile(0.9, stat.Empirical, sorted, nil),
		LateShare:   percent(late, len(sorted)),
	}
}

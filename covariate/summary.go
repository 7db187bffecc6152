package covariate

import (
	"math"
	"sort"
)

// Stat aggregates one covariate over a cohort. Rows without a value count as
// zero in Mean and SD.
type Stat struct {
	CovariateID int64   `json:"covariateId"`
	Count       int     `json:"count"`
	Sum         float64 `json:"sum"`
	Mean        float64 `json:"mean"`
	SD          float64 `json:"sd"`
}

// Summarize computes per-covariate statistics sorted by covariate id. When
// cohortSize is not positive the number of distinct row ids is used.
func Summarize(c *Combined, cohortSize int) []Stat {
	if c == nil || len(c.Covariates) == 0 {
		return nil
	}
	if cohortSize <= 0 {
		rows := make(map[int64]bool)
		for _, cov := range c.Covariates {
			rows[cov.RowID] = true
		}
		cohortSize = len(rows)
	}

	type acc struct {
		count      int
		sum, sumSq float64
	}
	byID := make(map[int64]*acc)
	for _, cov := range c.Covariates {
		a := byID[cov.CovariateID]
		if a == nil {
			a = &acc{}
			byID[cov.CovariateID] = a
		}
		a.count++
		a.sum += cov.Value
		a.sumSq += cov.Value * cov.Value
	}

	n := float64(cohortSize)
	stats := make([]Stat, 0, len(byID))
	for id, a := range byID {
		mean := a.sum / n
		variance := a.sumSq/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		stats = append(stats, Stat{CovariateID: id, Count: a.count, Sum: a.sum, Mean: mean, SD: math.Sqrt(variance)})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].CovariateID < stats[j].CovariateID })
	return stats
}

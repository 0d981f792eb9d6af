package dataset

import (
	"sort"

	"car-price-estimator/models"
	"car-price-estimator/utils"
)

// Summary counts listings per brand and body type and reports the model-year
// range.
func (s *Snapshot) Summary() *models.DatasetSummary {
	report := &models.DatasetSummary{
		ListingsByBrand: make(map[string]int),
		ListingsByBody:  make(map[string]int),
	}
	if len(s.records) == 0 {
		return report
	}

	report.TotalListings = len(s.records)
	for _, r := range s.records {
		if r.Brand != "" {
			report.ListingsByBrand[r.Brand]++
		}
		if r.BodyType != "" {
			report.ListingsByBody[string(r.BodyType)]++
		}
	}
	report.MinModelYear = s.years[0]
	report.MaxModelYear = s.years[len(s.years)-1]
	return report
}

// LogSummary writes the top brands of the summary at info level.
func LogSummary(logger *utils.Logger, r *models.DatasetSummary, top int) {
	type brandCount struct {
		brand string
		count int
	}
	var brands []brandCount
	for b, n := range r.ListingsByBrand {
		brands = append(brands, brandCount{b, n})
	}
	sort.Slice(brands, func(i, j int) bool {
		if brands[i].count != brands[j].count {
			return brands[i].count > brands[j].count
		}
		return brands[i].brand < brands[j].brand
	})
	if len(brands) > top {
		brands = brands[:top]
	}

	logger.Info("[dataset] %d listings, model years %d-%d, %d body types",
		r.TotalListings, r.MinModelYear, r.MaxModelYear, len(r.ListingsByBody))
	for i, bc := range brands {
		logger.Info("[dataset]   %d. %-20s %d", i+1, bc.brand, bc.count)
	}
}

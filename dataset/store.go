// Package dataset holds the reference listings shared by every form session.
//
// The listings are loaded once per process and never reloaded; a Snapshot is
// read-only and safe for concurrent use.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"car-price-estimator/metrics"
	"car-price-estimator/models"
	"car-price-estimator/storage"
	"car-price-estimator/utils"
)

// ErrEmptyDataset is returned when the source yields no listings.
var ErrEmptyDataset = errors.New("dataset: no listings loaded")

// Store loads the reference dataset on first use and caches it for the
// lifetime of the process.
type Store struct {
	source storage.ListingSource
	retry  *utils.RetryConfig
	logger *utils.Logger

	once sync.Once
	snap *Snapshot
	err  error
}

// NewStore creates a Store reading from source. retry may be nil.
func NewStore(source storage.ListingSource, retry *utils.RetryConfig, logger *utils.Logger) *Store {
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: logger}
	}
	return &Store{source: source, retry: retry, logger: logger}
}

// Snapshot returns the cached dataset, loading it on the first call. A failed
// load is cached too: the dataset is never reloaded mid-process.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.once.Do(func() {
		s.snap, s.err = s.load(ctx)
	})
	return s.snap, s.err
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	var records []models.ListingRecord
	err := s.retry.DoContext(ctx, "load reference dataset", func() error {
		var err error
		records, err = s.source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: load: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	snap := NewSnapshot(records)
	metrics.DatasetListings.Set(float64(len(records)))
	s.logger.Info("[dataset] Loaded %d listings (%d brands, model years %d-%d)",
		len(records), len(snap.brands), snap.years[0], snap.years[len(snap.years)-1])
	return snap, nil
}

// Snapshot is an immutable view of the reference listings together with the
// distinct values the form draws its dropdowns from.
type Snapshot struct {
	records []models.ListingRecord

	brands []string
	colors []string
	cities []string
	years  []int

	brandSet map[string]struct{}
	colorSet map[string]struct{}
	citySet  map[string]struct{}
	yearSet  map[int]struct{}
}

// NewSnapshot indexes records. The slice is copied.
func NewSnapshot(records []models.ListingRecord) *Snapshot {
	s := &Snapshot{
		records:  append([]models.ListingRecord(nil), records...),
		brandSet: make(map[string]struct{}),
		colorSet: make(map[string]struct{}),
		citySet:  make(map[string]struct{}),
		yearSet:  make(map[int]struct{}),
	}

	for _, r := range s.records {
		s.brands = appendUnique(s.brands, s.brandSet, r.Brand)
		s.colors = appendUnique(s.colors, s.colorSet, r.Color)
		s.cities = appendUnique(s.cities, s.citySet, r.City)
		if _, ok := s.yearSet[r.ModelYear]; !ok {
			s.yearSet[r.ModelYear] = struct{}{}
			s.years = append(s.years, r.ModelYear)
		}
	}
	sort.Ints(s.years)
	return s
}

func appendUnique(list []string, seen map[string]struct{}, v string) []string {
	if _, ok := seen[v]; ok {
		return list
	}
	seen[v] = struct{}{}
	return append(list, v)
}

// Records returns the shared listing slice. Callers must not modify it.
func (s *Snapshot) Records() []models.ListingRecord { return s.records }

// Len returns the number of listings.
func (s *Snapshot) Len() int { return len(s.records) }

// Brands returns the distinct brands in dataset encounter order.
func (s *Snapshot) Brands() []string { return append([]string(nil), s.brands...) }

// Colors returns the distinct colors in dataset encounter order.
func (s *Snapshot) Colors() []string { return append([]string(nil), s.colors...) }

// Cities returns the distinct cities in dataset encounter order.
func (s *Snapshot) Cities() []string { return append([]string(nil), s.cities...) }

// ModelYears returns the distinct model years, ascending.
func (s *Snapshot) ModelYears() []int { return append([]int(nil), s.years...) }

func (s *Snapshot) HasBrand(v string) bool {
	_, ok := s.brandSet[v]
	return ok
}

func (s *Snapshot) HasColor(v string) bool {
	_, ok := s.colorSet[v]
	return ok
}

func (s *Snapshot) HasCity(v string) bool {
	_, ok := s.citySet[v]
	return ok
}

func (s *Snapshot) HasYear(v int) bool {
	_, ok := s.yearSet[v]
	return ok
}

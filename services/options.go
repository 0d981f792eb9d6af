package services

import (
	"sort"

	"car-price-estimator/dataset"
	"car-price-estimator/models"
)

const (
	// NotAvailable is offered when no model matches the chosen brand, body
	// type and fuel type, so the dropdown always has an option.
	NotAvailable = "Not Available"
	// NoSeats is offered when no listing has the chosen body type.
	NoSeats = 0
)

// Fixed option lists of the form.
var (
	Transmissions     = []string{"Manual", "Automatic"}
	OwnerCounts       = []int{1, 2, 3, 4, 5}
	InsuranceValidity = []string{
		"Third Party insurance", "Comprehensive", "Third Party",
		"Zero Dep", "2", "1", "Not Available",
	}
)

// Range bounds an integer input.
type Range struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

var (
	KmsDrivenRange = Range{Min: 100, Max: 100000, Step: 1000}
	MileageRange   = Range{Min: 5, Max: 50, Step: 1}
)

// FilterModels returns the distinct models of listings matching brand, body
// type and fuel type exactly, in dataset order. It never returns an empty
// slice: with no match the result is [NotAvailable].
func FilterModels(records []models.ListingRecord, brand string, bodyType models.BodyType, fuelType models.FuelType) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if r.Brand != brand || r.BodyType != bodyType || r.FuelType != fuelType {
			continue
		}
		if _, dup := seen[r.Model]; dup {
			continue
		}
		seen[r.Model] = struct{}{}
		out = append(out, r.Model)
	}
	if len(out) == 0 {
		return []string{NotAvailable}
	}
	return out
}

// FilterSeats returns the distinct seat counts of listings with the given
// body type, ascending. With no match the result is [NoSeats].
func FilterSeats(records []models.ListingRecord, bodyType models.BodyType) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, r := range records {
		if r.BodyType != bodyType {
			continue
		}
		if _, dup := seen[r.Seats]; dup {
			continue
		}
		seen[r.Seats] = struct{}{}
		out = append(out, r.Seats)
	}
	if len(out) == 0 {
		return []int{NoSeats}
	}
	sort.Ints(out)
	return out
}

func ListBrands(snap *dataset.Snapshot) []string { return snap.Brands() }

func ListFuelTypes() []models.FuelType {
	return append([]models.FuelType(nil), models.FuelTypes...)
}

func ListBodyTypes() []models.BodyType {
	return append([]models.BodyType(nil), models.BodyTypes...)
}

func ListTransmissions() []string { return append([]string(nil), Transmissions...) }

func ListOwnerCounts() []int { return append([]int(nil), OwnerCounts...) }

func ListInsuranceValidity() []string { return append([]string(nil), InsuranceValidity...) }

// ListModelYears returns the model years present in the dataset, ascending.
func ListModelYears(snap *dataset.Snapshot) []int { return snap.ModelYears() }

func ListColors(snap *dataset.Snapshot) []string { return snap.Colors() }

func ListCities(snap *dataset.Snapshot) []string { return snap.Cities() }

// Options is every dropdown and range of the form that does not depend on
// another field.
type Options struct {
	Brands            []string          `json:"brands"`
	FuelTypes         []models.FuelType `json:"fuel_types"`
	BodyTypes         []models.BodyType `json:"body_types"`
	Transmissions     []string          `json:"transmissions"`
	OwnerCounts       []int             `json:"owner_counts"`
	ModelYears        []int             `json:"model_years"`
	InsuranceValidity []string          `json:"insurance_validity"`
	Colors            []string          `json:"colors"`
	Cities            []string          `json:"cities"`
	KmsDriven         Range             `json:"kms_driven"`
	Mileage           Range             `json:"mileage"`
}

// StaticOptions collects the independent option lists for snap.
func StaticOptions(snap *dataset.Snapshot) Options {
	return Options{
		Brands:            ListBrands(snap),
		FuelTypes:         ListFuelTypes(),
		BodyTypes:         ListBodyTypes(),
		Transmissions:     ListTransmissions(),
		OwnerCounts:       ListOwnerCounts(),
		ModelYears:        ListModelYears(snap),
		InsuranceValidity: ListInsuranceValidity(),
		Colors:            ListColors(snap),
		Cities:            ListCities(snap),
		KmsDriven:         KmsDrivenRange,
		Mileage:           MileageRange,
	}
}

package models

// BodyType is one of the fixed body styles offered by the form.
type BodyType string

const (
	BodyHatchback    BodyType = "Hatchback"
	BodySUV          BodyType = "SUV"
	BodySedan        BodyType = "Sedan"
	BodyMUV          BodyType = "MUV"
	BodyCoupe        BodyType = "Coupe"
	BodyMinivans     BodyType = "Minivans"
	BodyConvertibles BodyType = "Convertibles"
	BodyHybrids      BodyType = "Hybrids"
	BodyWagon        BodyType = "Wagon"
	BodyPickupTrucks BodyType = "Pickup Trucks"
)

// BodyTypes lists every body type in display order.
var BodyTypes = []BodyType{
	BodyHatchback, BodySUV, BodySedan, BodyMUV, BodyCoupe,
	BodyMinivans, BodyConvertibles, BodyHybrids, BodyWagon, BodyPickupTrucks,
}

// FuelType is one of the fixed fuel kinds offered by the form.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelLPG      FuelType = "LPG"
	FuelCNG      FuelType = "CNG"
	FuelElectric FuelType = "Electric"
)

// FuelTypes lists every fuel type in display order.
var FuelTypes = []FuelType{FuelPetrol, FuelDiesel, FuelLPG, FuelCNG, FuelElectric}

// ListingRecord is one historical listing from the reference dataset.
// Records are loaded once and never mutated afterwards.
type ListingRecord struct {
	Brand     string   `json:"brand"`
	Model     string   `json:"model"`
	BodyType  BodyType `json:"body_type"`
	FuelType  FuelType `json:"fuel_type"`
	Seats     int      `json:"seats"`
	Color     string   `json:"color"`
	City      string   `json:"city"`
	ModelYear int      `json:"model_year"`
}

// DatasetSummary holds simple counts over the reference dataset.
type DatasetSummary struct {
	TotalListings   int            `json:"total_listings"`
	ListingsByBrand map[string]int `json:"listings_by_brand"`
	ListingsByBody  map[string]int `json:"listings_by_body_type"`
	MinModelYear    int            `json:"min_model_year"`
	MaxModelYear    int            `json:"max_model_year"`
}

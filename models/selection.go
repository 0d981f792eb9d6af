package models

import (
	"bytes"
	"encoding/json"
)

// Selection is the set of choices currently held by one form session.
// It is a value type: every edit produces a new Selection.
type Selection struct {
	Brand             string   `json:"brand"`
	FuelType          FuelType `json:"fuel_type"`
	BodyType          BodyType `json:"body_type"`
	Model             string   `json:"model"`
	Transmission      string   `json:"transmission"`
	OwnerNo           int      `json:"owner_no"`
	ModelYear         int      `json:"model_year"`
	InsuranceValidity string   `json:"insurance_validity"`
	KmsDriven         int      `json:"kms_driven"`
	Mileage           int      `json:"mileage"`
	Seats             int      `json:"seats"`
	Color             string   `json:"color"`
	City              string   `json:"city"`
}

// Column names of the training schema, in the order the pipeline expects.
const (
	ColBrand             = "Brand"
	ColModel             = "model"
	ColFuelType          = "Fuel type"
	ColBodyType          = "body type"
	ColTransmission      = "transmission"
	ColOwnerNo           = "ownerNo"
	ColModelYear         = "modelYear"
	ColInsuranceValidity = "Insurance Validity"
	ColKmsDriven         = "Kms Driven"
	ColMileage           = "Mileage"
	ColSeats             = "Seats"
	ColColor             = "Color"
	ColCity              = "City"
)

// FeatureColumns is the ordered training schema.
var FeatureColumns = []string{
	ColBrand, ColModel, ColFuelType, ColBodyType, ColTransmission, ColOwnerNo,
	ColModelYear, ColInsuranceValidity, ColKmsDriven, ColMileage, ColSeats,
	ColColor, ColCity,
}

// FeatureRow is the single-row record handed to a predictor. Values are
// copied verbatim from a Selection; no encoding happens here.
type FeatureRow struct {
	Brand             string
	Model             string
	FuelType          string
	BodyType          string
	Transmission      string
	OwnerNo           int
	ModelYear         int
	InsuranceValidity string
	KmsDriven         int
	Mileage           int
	Seats             int
	Color             string
	City              string
}

// NewFeatureRow derives the feature row for a selection.
func NewFeatureRow(s Selection) FeatureRow {
	return FeatureRow{
		Brand:             s.Brand,
		Model:             s.Model,
		FuelType:          string(s.FuelType),
		BodyType:          string(s.BodyType),
		Transmission:      s.Transmission,
		OwnerNo:           s.OwnerNo,
		ModelYear:         s.ModelYear,
		InsuranceValidity: s.InsuranceValidity,
		KmsDriven:         s.KmsDriven,
		Mileage:           s.Mileage,
		Seats:             s.Seats,
		Color:             s.Color,
		City:              s.City,
	}
}

// Columns returns the column names in schema order.
func (r FeatureRow) Columns() []string {
	out := make([]string, len(FeatureColumns))
	copy(out, FeatureColumns)
	return out
}

// Values returns the row values in schema order. Strings stay strings and
// integers stay integers.
func (r FeatureRow) Values() []any {
	return []any{
		r.Brand, r.Model, r.FuelType, r.BodyType, r.Transmission, r.OwnerNo,
		r.ModelYear, r.InsuranceValidity, r.KmsDriven, r.Mileage, r.Seats,
		r.Color, r.City,
	}
}

// MarshalJSON writes the row as an object whose keys keep schema order.
func (r FeatureRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.Values() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(FeatureColumns[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PredictionResult is either a price estimate or a failure reason.
type PredictionResult struct {
	OK         bool       `json:"ok"`
	Brand      string     `json:"brand,omitempty"`
	Model      string     `json:"model,omitempty"`
	PriceLakhs float64    `json:"price_lakhs"`
	Code       string     `json:"code,omitempty"`
	Message    string     `json:"message"`
	Features   FeatureRow `json:"features"`
}

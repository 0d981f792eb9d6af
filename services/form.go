package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"car-price-estimator/dataset"
	"car-price-estimator/metrics"
	"car-price-estimator/models"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidOption  = errors.New("value is not a valid option")
	ErrOutOfRange     = errors.New("value is out of range")
	ErrInvalidValue   = errors.New("value has the wrong type")
	ErrNotIndependent = errors.New("field does not drive other fields")
)

// Field names a form input.
type Field string

const (
	FieldBrand             Field = "brand"
	FieldFuelType          Field = "fuel_type"
	FieldBodyType          Field = "body_type"
	FieldModel             Field = "model"
	FieldTransmission      Field = "transmission"
	FieldOwnerNo           Field = "owner_no"
	FieldModelYear         Field = "model_year"
	FieldInsuranceValidity Field = "insurance_validity"
	FieldKmsDriven         Field = "kms_driven"
	FieldMileage           Field = "mileage"
	FieldSeats             Field = "seats"
	FieldColor             Field = "color"
	FieldCity              Field = "city"
)

// Independent reports whether other fields' options depend on f.
func (f Field) Independent() bool {
	return f == FieldBrand || f == FieldBodyType || f == FieldFuelType
}

func (f Field) drivesModel() bool { return f.Independent() }
func (f Field) drivesSeats() bool { return f == FieldBodyType }

// State is the form lifecycle state.
type State string

const (
	StateEditing   State = "editing"
	StateSubmitted State = "submitted"
)

// Form is the complete state of one form session: the selection, the
// lifecycle state and the current options of the dependent dropdowns.
// Model and Seats of the selection are always members of ModelOptions and
// SeatOptions.
type Form struct {
	Selection    models.Selection `json:"selection"`
	State        State            `json:"state"`
	ModelOptions []string         `json:"model_options"`
	SeatOptions  []int            `json:"seat_options"`
}

// NewForm returns the initial form: the first option of every dropdown and
// the minimum of every numeric input.
func NewForm(snap *dataset.Snapshot) Form {
	sel := models.Selection{
		FuelType:          models.FuelTypes[0],
		BodyType:          models.BodyTypes[0],
		Transmission:      Transmissions[0],
		OwnerNo:           OwnerCounts[0],
		InsuranceValidity: InsuranceValidity[0],
		KmsDriven:         KmsDrivenRange.Min,
		Mileage:           MileageRange.Min,
	}
	if b := snap.Brands(); len(b) > 0 {
		sel.Brand = b[0]
	}
	if y := snap.ModelYears(); len(y) > 0 {
		sel.ModelYear = y[0]
	}
	if c := snap.Colors(); len(c) > 0 {
		sel.Color = c[0]
	}
	if c := snap.Cities(); len(c) > 0 {
		sel.City = c[0]
	}

	f := Form{Selection: sel, State: StateEditing}
	f.refreshModels(snap)
	f.refreshSeats(snap)
	return f
}

// Restore rebuilds a form from a selection held by a client, rejecting any
// value the current options would not offer.
func Restore(snap *dataset.Snapshot, sel models.Selection) (Form, error) {
	f := Form{Selection: sel, State: StateEditing}
	f.ModelOptions = FilterModels(snap.Records(), sel.Brand, sel.BodyType, sel.FuelType)
	f.SeatOptions = FilterSeats(snap.Records(), sel.BodyType)

	checks := []struct {
		field Field
		value any
	}{
		{FieldBrand, sel.Brand},
		{FieldFuelType, string(sel.FuelType)},
		{FieldBodyType, string(sel.BodyType)},
		{FieldModel, sel.Model},
		{FieldTransmission, sel.Transmission},
		{FieldOwnerNo, sel.OwnerNo},
		{FieldModelYear, sel.ModelYear},
		{FieldInsuranceValidity, sel.InsuranceValidity},
		{FieldKmsDriven, sel.KmsDriven},
		{FieldMileage, sel.Mileage},
		{FieldSeats, sel.Seats},
		{FieldColor, sel.Color},
		{FieldCity, sel.City},
	}
	for _, c := range checks {
		if _, err := f.apply(snap, c.field, c.value); err != nil {
			return Form{}, err
		}
	}
	return f, nil
}

// Transition applies one field edit and returns the resulting form. It is a
// pure function of its inputs: f is not modified and, on error, the returned
// form is f unchanged.
//
// Editing brand, body type or fuel type recomputes the dependent option sets
// (model from all three, seats from body type) and resets a dependent value
// to the first option when it is no longer offered.
func Transition(snap *dataset.Snapshot, f Form, field Field, value any) (Form, error) {
	sel, err := f.apply(snap, field, value)
	if err != nil {
		metrics.FormTransitions.WithLabelValues(string(field), "rejected").Inc()
		return f, err
	}
	metrics.FormTransitions.WithLabelValues(string(field), "applied").Inc()

	next := f
	next.Selection = sel
	next.State = StateEditing
	if field.drivesModel() {
		next.refreshModels(snap)
	}
	if field.drivesSeats() {
		next.refreshSeats(snap)
	}
	return next, nil
}

// apply validates value for field against f's current options and returns
// the updated selection.
func (f Form) apply(snap *dataset.Snapshot, field Field, value any) (models.Selection, error) {
	sel := f.Selection

	switch field {
	case FieldBrand:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !snap.HasBrand(s) {
			return sel, invalidOption(field, s)
		}
		sel.Brand = s

	case FieldFuelType:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(models.FuelTypes, models.FuelType(s)) {
			return sel, invalidOption(field, s)
		}
		sel.FuelType = models.FuelType(s)

	case FieldBodyType:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(models.BodyTypes, models.BodyType(s)) {
			return sel, invalidOption(field, s)
		}
		sel.BodyType = models.BodyType(s)

	case FieldModel:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(f.ModelOptions, s) {
			return sel, invalidOption(field, s)
		}
		sel.Model = s

	case FieldTransmission:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(Transmissions, s) {
			return sel, invalidOption(field, s)
		}
		sel.Transmission = s

	case FieldInsuranceValidity:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(InsuranceValidity, s) {
			return sel, invalidOption(field, s)
		}
		sel.InsuranceValidity = s

	case FieldColor:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !snap.HasColor(s) {
			return sel, invalidOption(field, s)
		}
		sel.Color = s

	case FieldCity:
		s, err := asString(field, value)
		if err != nil {
			return sel, err
		}
		if !snap.HasCity(s) {
			return sel, invalidOption(field, s)
		}
		sel.City = s

	case FieldOwnerNo:
		n, err := asInt(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(OwnerCounts, n) {
			return sel, invalidOption(field, n)
		}
		sel.OwnerNo = n

	case FieldModelYear:
		n, err := asInt(field, value)
		if err != nil {
			return sel, err
		}
		if !snap.HasYear(n) {
			return sel, invalidOption(field, n)
		}
		sel.ModelYear = n

	case FieldSeats:
		n, err := asInt(field, value)
		if err != nil {
			return sel, err
		}
		if !slices.Contains(f.SeatOptions, n) {
			return sel, invalidOption(field, n)
		}
		sel.Seats = n

	case FieldKmsDriven:
		n, err := asInt(field, value)
		if err != nil {
			return sel, err
		}
		if !KmsDrivenRange.Contains(n) {
			return sel, outOfRange(field, n, KmsDrivenRange)
		}
		sel.KmsDriven = n

	case FieldMileage:
		n, err := asInt(field, value)
		if err != nil {
			return sel, err
		}
		if !MileageRange.Contains(n) {
			return sel, outOfRange(field, n, MileageRange)
		}
		sel.Mileage = n

	default:
		return sel, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return sel, nil
}

func (f *Form) refreshModels(snap *dataset.Snapshot) {
	s := &f.Selection
	f.ModelOptions = FilterModels(snap.Records(), s.Brand, s.BodyType, s.FuelType)
	if !slices.Contains(f.ModelOptions, s.Model) {
		s.Model = f.ModelOptions[0]
	}
}

func (f *Form) refreshSeats(snap *dataset.Snapshot) {
	s := &f.Selection
	f.SeatOptions = FilterSeats(snap.Records(), s.BodyType)
	if !slices.Contains(f.SeatOptions, s.Seats) {
		s.Seats = f.SeatOptions[0]
	}
}

func invalidOption(field Field, v any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidOption, field, v)
}

func outOfRange(field Field, v int, r Range) error {
	return fmt.Errorf("%w: %s=%d, want %d..%d", ErrOutOfRange, field, v, r.Min, r.Max)
}

func asString(field Field, v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case models.FuelType:
		return string(x), nil
	case models.BodyType:
		return string(x), nil
	}
	return "", fmt.Errorf("%w: %s wants a string, got %T", ErrInvalidValue, field, v)
}

// asInt accepts Go integers, JSON numbers and numeric strings as long as the
// value is integral.
func asInt(field Field, v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return int(x), nil
		}
	case float64:
		// -math.MinInt is exact as a float64, math.MaxInt is not
		if x == math.Trunc(x) && x >= math.MinInt && x < -math.MinInt {
			return int(x), nil
		}
	case json.Number:
		if n, err := x.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s wants an integer, got %v", ErrInvalidValue, field, v)
}

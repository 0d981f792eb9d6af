package services

import (
	"context"
	"fmt"

	"car-price-estimator/dataset"
	"car-price-estimator/models"
)

// Controller owns the form of a single session. It is not safe for
// concurrent use; each session gets its own Controller while the snapshot
// and prediction service are shared.
type Controller struct {
	snap        *dataset.Snapshot
	predictions *PredictionService
	form        Form
	last        *models.PredictionResult
}

// NewController starts a session with the default form.
func NewController(snap *dataset.Snapshot, predictions *PredictionService) *Controller {
	return &Controller{snap: snap, predictions: predictions, form: NewForm(snap)}
}

// OnFieldChanged applies one edit. On error the form is left as it was.
func (c *Controller) OnFieldChanged(field Field, value any) error {
	next, err := Transition(c.snap, c.form, field, value)
	if err != nil {
		return err
	}
	c.form = next
	c.last = nil
	return nil
}

// OnIndependentFieldChanged is OnFieldChanged restricted to brand, body type
// and fuel type.
func (c *Controller) OnIndependentFieldChanged(field Field, value any) error {
	if !field.Independent() {
		return fmt.Errorf("%w: %q", ErrNotIndependent, field)
	}
	return c.OnFieldChanged(field, value)
}

// Selection returns a copy of the current selection.
func (c *Controller) Selection() models.Selection { return c.form.Selection }

func (c *Controller) State() State { return c.form.State }

// Form returns a copy of the full form state.
func (c *Controller) Form() Form {
	f := c.form
	f.ModelOptions = append([]string(nil), f.ModelOptions...)
	f.SeatOptions = append([]int(nil), f.SeatOptions...)
	return f
}

// Options returns the independent option lists.
func (c *Controller) Options() Options { return StaticOptions(c.snap) }

// Submit runs a prediction for the current selection and moves the form to
// the submitted state. The selection is unchanged whatever the outcome, so a
// failed prediction can simply be resubmitted.
func (c *Controller) Submit(ctx context.Context) models.PredictionResult {
	res := c.predictions.Predict(ctx, c.form.Selection)
	c.form.State = StateSubmitted
	c.last = &res
	return res
}

// LastResult returns the result of the latest Submit, or nil when the form
// has been edited since.
func (c *Controller) LastResult() *models.PredictionResult { return c.last }

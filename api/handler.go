// Package api exposes the form over HTTP. Handlers only decode requests,
// call into services and encode the result; the client holds the selection
// and sends it back with every edit, so no session state lives here.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"car-price-estimator/dataset"
	"car-price-estimator/models"
	"car-price-estimator/services"
	"car-price-estimator/utils"
)

// Handler serves the form endpoints for one loaded dataset.
type Handler struct {
	snap        *dataset.Snapshot
	predictions *services.PredictionService
	logger      *utils.Logger
}

func NewHandler(snap *dataset.Snapshot, predictions *services.PredictionService, logger *utils.Logger) *Handler {
	return &Handler{snap: snap, predictions: predictions, logger: logger}
}

// FieldChangeRequest carries one edit. Selection is the form the client
// currently shows; when omitted the edit applies to the default form.
type FieldChangeRequest struct {
	Selection *models.Selection `json:"selection"`
	Field     services.Field    `json:"field" binding:"required"`
	Value     any               `json:"value"`
}

type PredictRequest struct {
	Selection models.Selection `json:"selection"`
}

type PredictResponse struct {
	Form   services.Form           `json:"form"`
	Result models.PredictionResult `json:"result"`
}

// GetOptions handles GET /api/options.
func (h *Handler) GetOptions(c *gin.Context) {
	c.JSON(http.StatusOK, services.StaticOptions(h.snap))
}

// GetModels handles GET /api/options/models?brand=&body_type=&fuel_type=.
func (h *Handler) GetModels(c *gin.Context) {
	list := services.FilterModels(h.snap.Records(),
		c.Query("brand"),
		models.BodyType(c.Query("body_type")),
		models.FuelType(c.Query("fuel_type")),
	)
	c.JSON(http.StatusOK, gin.H{"models": list})
}

// GetSeats handles GET /api/options/seats?body_type=.
func (h *Handler) GetSeats(c *gin.Context) {
	list := services.FilterSeats(h.snap.Records(), models.BodyType(c.Query("body_type")))
	c.JSON(http.StatusOK, gin.H{"seats": list})
}

// GetForm handles GET /api/form and returns the initial form.
func (h *Handler) GetForm(c *gin.Context) {
	c.JSON(http.StatusOK, services.NewForm(h.snap))
}

// ChangeField handles POST /api/form/field.
func (h *Handler) ChangeField(c *gin.Context) {
	var req FieldChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	form := services.NewForm(h.snap)
	if req.Selection != nil {
		restored, err := services.Restore(h.snap, *req.Selection)
		if err != nil {
			h.rejectSelection(c, err)
			return
		}
		form = restored
	}

	next, err := services.Transition(h.snap, form, req.Field, req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": editErrorCode(err)})
		return
	}
	c.JSON(http.StatusOK, next)
}

// Predict handles POST /api/predict. A failed estimate is still a 200: the
// result carries ok=false with the failure code and message.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	form, err := services.Restore(h.snap, req.Selection)
	if err != nil {
		h.rejectSelection(c, err)
		return
	}

	res := h.predictions.Predict(c.Request.Context(), form.Selection)
	form.State = services.StateSubmitted
	c.JSON(http.StatusOK, PredictResponse{Form: form, Result: res})
}

// GetSummary handles GET /api/dataset/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.snap.Summary())
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "listings": h.snap.Len()})
}

func (h *Handler) rejectSelection(c *gin.Context, err error) {
	h.logger.Warn("[api] rejected selection: %v", err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Selection is not consistent with the current options",
		"details": err.Error(),
		"code":    editErrorCode(err),
	})
}

func editErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidOption):
		return "INVALID_OPTION"
	case errors.Is(err, services.ErrOutOfRange):
		return "OUT_OF_RANGE"
	case errors.Is(err, services.ErrInvalidValue):
		return "INVALID_VALUE"
	case errors.Is(err, services.ErrUnknownField):
		return "UNKNOWN_FIELD"
	}
	return "INVALID_REQUEST"
}

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"car-price-estimator/utils"
)

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(h *Handler, logger *utils.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))

	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := r.Group("/api")
	group.GET("/options", h.GetOptions)
	group.GET("/options/models", h.GetModels)
	group.GET("/options/seats", h.GetSeats)
	group.GET("/form", h.GetForm)
	group.POST("/form/field", h.ChangeField)
	group.POST("/predict", h.Predict)
	group.GET("/dataset/summary", h.GetSummary)
}

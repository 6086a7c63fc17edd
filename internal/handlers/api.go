package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const cacheControl = "public, max-age=60"

type APIHandlers struct {
	reporting *services.Reporting
	logger    *slog.Logger
}

func NewAPIHandlers(reporting *services.Reporting, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		reporting: reporting,
		logger:    logger,
	}
}

// HandleFilterOptions serves the distinct value sets that populate the
// city, customer type, and gender filter controls.
func (h *APIHandlers) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	data := h.reporting.FilterOptions()

	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// KPIResponse wraps the KPI set with an Empty flag so clients can render
// placeholders when the selection matched no records.
type KPIResponse struct {
	KPIs  models.KPISet `json:"kpis"`
	Stars int           `json:"stars"`
	Empty bool          `json:"empty"`
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	subset := h.reporting.Select(parseSelection(r.URL.Query()))

	kpis, err := services.Summarize(subset)
	if err != nil && !errors.IsEmptyInput(err) {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, KPIResponse{
		KPIs:  kpis,
		Stars: services.StarCount(kpis.MeanRating),
		Empty: len(subset) == 0,
	})
}

// HandleSalesByHour serves the hour-of-day aggregation, ordered
// chronologically (group key ascending, 0 through 23).
func (h *APIHandlers) HandleSalesByHour(w http.ResponseWriter, r *http.Request) {
	subset := h.reporting.Select(parseSelection(r.URL.Query()))

	rows, err := services.Aggregate(subset, models.FieldHour, models.FieldTotal, services.SortByKey)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, rows)
}

// HandleSalesByProductLine serves the product-category aggregation, ordered
// by summed sales ascending so a top-to-bottom-reversed horizontal bar chart
// reads largest-first.
func (h *APIHandlers) HandleSalesByProductLine(w http.ResponseWriter, r *http.Request) {
	subset := h.reporting.Select(parseSelection(r.URL.Query()))

	rows, err := services.Aggregate(subset, models.FieldProductLine, models.FieldTotal, services.SortByValue)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccess(w, rows)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.reporting.Stats())
}

package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

var kpiTemplate = template.Must(template.New("kpiStrip").Parse(`
<div id="kpi-strip" class="kpi-strip">
<div class="kpi"><h3>Total Sales</h3><p>{{.TotalSales}}</p></div>
<div class="kpi"><h3>Average Rating</h3><p>{{.MeanRating}} <span class="stars">{{.Stars}}</span></p></div>
<div class="kpi"><h3>Average Sale / Order</h3><p>{{.MeanSale}}</p></div>
</div>`))

var hourChartTemplate = template.Must(template.New("hourChart").Parse(`
<div id="hour-chart" class="chart">
<h3>Sales by Hour</h3>
<div class="bars-vertical">
{{range .}}<div class="bar-col" title="{{.Label}}:00 — {{.Value}}">
<div class="bar" style="height: {{.Pct}}%"></div>
<span class="bar-label">{{.Label}}</span>
</div>{{end}}
</div>
</div>`))

var productChartTemplate = template.Must(template.New("productChart").Parse(`
<div id="product-chart" class="chart">
<h3>Sales by Product Line</h3>
<div class="bars-horizontal">
{{range .}}<div class="bar-row">
<span class="bar-label">{{.Label}}</span>
<div class="bar" style="width: {{.Pct}}%"></div>
<span class="bar-value">{{.Value}}</span>
</div>{{end}}
</div>
</div>`))

type kpiView struct {
	TotalSales string
	MeanRating string
	Stars      string
	MeanSale   string
}

type barView struct {
	Label string
	Value string
	Pct   float64
}

type SSEHandlers struct {
	reporting *services.Reporting
	logger    *slog.Logger
	printer   *message.Printer
}

func NewSSEHandlers(reporting *services.Reporting, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		reporting: reporting,
		logger:    logger,
		printer:   message.NewPrinter(language.English),
	}
}

// HandleDashboard recomputes the full dashboard for the current filter
// selection and patches the KPI strip and both charts in one SSE exchange.
// Every interaction runs the whole filter → aggregate → summarize pass;
// nothing is cached between requests.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	subset := h.reporting.Select(parseSelection(r.URL.Query()))

	kpis, err := services.Summarize(subset)
	if err != nil && !errors.IsEmptyInput(err) {
		h.logger.Error("summarize selection", "error", err)
		return
	}
	empty := len(subset) == 0

	hourRows, err := services.Aggregate(subset, models.FieldHour, models.FieldTotal, services.SortByKey)
	if err != nil {
		h.logger.Error("aggregate by hour", "error", err)
		return
	}

	productRows, err := services.Aggregate(subset, models.FieldProductLine, models.FieldTotal, services.SortByValue)
	if err != nil {
		h.logger.Error("aggregate by product line", "error", err)
		return
	}

	kpiHTML, err := h.renderKPIs(kpis, empty)
	if err != nil {
		h.logger.Error("render kpi strip", "error", err)
		return
	}
	sse.PatchElements(kpiHTML)

	hourHTML, err := renderFragment(hourChartTemplate, h.hourBars(hourRows))
	if err != nil {
		h.logger.Error("render hour chart", "error", err)
		return
	}
	sse.PatchElements(hourHTML)

	productHTML, err := renderFragment(productChartTemplate, h.productBars(productRows))
	if err != nil {
		h.logger.Error("render product chart", "error", err)
		return
	}
	sse.PatchElements(productHTML)

	signals, err := json.Marshal(map[string]any{
		"orders":    len(subset),
		"updatedAt": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("marshal dashboard signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) renderKPIs(kpis models.KPISet, empty bool) (string, error) {
	view := kpiView{
		TotalSales: h.printer.Sprintf("RMB ¥ %d", int(kpis.TotalSales)),
		MeanRating: "–",
		Stars:      "",
		MeanSale:   "–",
	}
	if !empty {
		view.MeanRating = fmt.Sprintf("%.1f", kpis.MeanRating)
		view.Stars = strings.Repeat("★", services.StarCount(kpis.MeanRating))
		view.MeanSale = h.printer.Sprintf("RMB ¥ %.2f", kpis.MeanSalePerOrder)
	}

	return renderFragment(kpiTemplate, view)
}

// hourBars scales each hour's sum against the largest hour. Keys arrive
// chronological and are kept that way.
func (h *SSEHandlers) hourBars(rows []models.AggregateRow) []barView {
	max := maxSum(rows)

	bars := make([]barView, len(rows))
	for i, row := range rows {
		bars[i] = barView{
			Label: row.Key,
			Value: h.printer.Sprintf("RMB ¥ %.2f", row.Sum),
			Pct:   pct(row.Sum, max),
		}
	}
	return bars
}

// productBars reverses the value-ascending aggregation so the largest
// category renders at the top of the horizontal chart.
func (h *SSEHandlers) productBars(rows []models.AggregateRow) []barView {
	max := maxSum(rows)

	bars := make([]barView, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		bars = append(bars, barView{
			Label: row.Key,
			Value: h.printer.Sprintf("RMB ¥ %.2f", row.Sum),
			Pct:   pct(row.Sum, max),
		})
	}
	return bars
}

func renderFragment(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

func maxSum(rows []models.AggregateRow) float64 {
	var max float64
	for _, row := range rows {
		if row.Sum > max {
			max = row.Sum
		}
	}
	return max
}

func pct(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return services.Round(v/max*100, 1)
}

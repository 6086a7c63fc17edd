package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestReporting() *services.Reporting {
	r := services.NewReporting(testLogger())
	r.SetData([]models.Sale{
		{InvoiceID: "750-67-8428", City: "Yangon", CustomerType: "Member", Gender: "Female", ProductLine: "Health and beauty", Total: 100, Rating: 8, Time: "13:08:00", Hour: 13},
		{InvoiceID: "226-31-3081", City: "Yangon", CustomerType: "Normal", Gender: "Male", ProductLine: "Sports and travel", Total: 50, Rating: 6, Time: "13:45:00", Hour: 13},
		{InvoiceID: "631-41-3108", City: "Mandalay", CustomerType: "Member", Gender: "Female", ProductLine: "Health and beauty", Total: 30, Rating: 10, Time: "10:29:00", Hour: 10},
	})
	return r
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Success bool            `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  models.FilterSelection
	}{
		{
			name:  "no parameters means no constraints",
			query: "",
			want:  models.FilterSelection{},
		},
		{
			name:  "single city",
			query: "city=Yangon",
			want:  models.FilterSelection{models.FieldCity: models.NewStringSet("Yangon")},
		},
		{
			name:  "repeated values and multiple fields",
			query: "city=Yangon&city=Mandalay&gender=Female",
			want: models.FilterSelection{
				models.FieldCity:   models.NewStringSet("Yangon", "Mandalay"),
				models.FieldGender: models.NewStringSet("Female"),
			},
		},
		{
			name:  "bare parameter is an explicitly empty set",
			query: "customer_type=",
			want:  models.FilterSelection{models.FieldCustomerType: models.NewStringSet()},
		},
		{
			name:  "empty marker alongside values is ignored",
			query: "city=&city=Yangon",
			want:  models.FilterSelection{models.FieldCity: models.NewStringSet("Yangon")},
		},
		{
			name:  "unknown parameters are ignored",
			query: "branch=A&city=Yangon",
			want:  models.FilterSelection{models.FieldCity: models.NewStringSet("Yangon")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got := parseSelection(q)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseSelection(%q) wrong (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestAPIHandlers_FilterOptions(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleFilterOptions(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got models.FilterOptions
	decodeData(t, rec, &got)

	want := models.FilterOptions{
		Cities:        []string{"Mandalay", "Yangon"},
		CustomerTypes: []string{"Member", "Normal"},
		Genders:       []string{"Female", "Male"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter options wrong (-want +got):\n%s", diff)
	}
}

func TestAPIHandlers_KPIs(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, httptest.NewRequest(http.MethodGet, "/api/kpis?city=Yangon", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got KPIResponse
	decodeData(t, rec, &got)

	if got.Empty {
		t.Error("Empty should be false for a matching selection")
	}
	if got.KPIs.TotalSales != 150 {
		t.Errorf("TotalSales = %v, want 150", got.KPIs.TotalSales)
	}
	if got.KPIs.MeanRating != 7.0 {
		t.Errorf("MeanRating = %v, want 7.0", got.KPIs.MeanRating)
	}
	if got.KPIs.MeanSalePerOrder != 75 {
		t.Errorf("MeanSalePerOrder = %v, want 75", got.KPIs.MeanSalePerOrder)
	}
	if got.Stars != 7 {
		t.Errorf("Stars = %d, want 7", got.Stars)
	}
}

func TestAPIHandlers_KPIs_EmptySelectionDegradesGracefully(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	// An explicitly empty accepted set matches nothing; the endpoint must
	// answer 200 with zeroed KPIs, not an error.
	rec := httptest.NewRecorder()
	h.HandleKPIs(rec, httptest.NewRequest(http.MethodGet, "/api/kpis?city=", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got KPIResponse
	decodeData(t, rec, &got)

	if !got.Empty {
		t.Error("Empty should be true when no records match")
	}
	if got.KPIs.TotalSales != 0 {
		t.Errorf("TotalSales = %v, want 0", got.KPIs.TotalSales)
	}
	if got.KPIs.Orders != 0 {
		t.Errorf("Orders = %d, want 0", got.KPIs.Orders)
	}
}

func TestAPIHandlers_SalesByHour(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleSalesByHour(rec, httptest.NewRequest(http.MethodGet, "/api/sales-by-hour", nil))

	var got []models.AggregateRow
	decodeData(t, rec, &got)

	want := []models.AggregateRow{
		{Key: "10", Sum: 30},
		{Key: "13", Sum: 150},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sales by hour wrong (-want +got):\n%s", diff)
	}
}

func TestAPIHandlers_SalesByProductLine(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleSalesByProductLine(rec, httptest.NewRequest(http.MethodGet, "/api/sales-by-product-line", nil))

	var got []models.AggregateRow
	decodeData(t, rec, &got)

	// Value ascending: Sports and travel (50) before Health and beauty (130).
	want := []models.AggregateRow{
		{Key: "Sports and travel", Sum: 50},
		{Key: "Health and beauty", Sum: 130},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sales by product line wrong (-want +got):\n%s", diff)
	}
}

func TestAPIHandlers_SelectionNarrowsAggregation(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleSalesByHour(rec, httptest.NewRequest(http.MethodGet, "/api/sales-by-hour?city=Mandalay", nil))

	var got []models.AggregateRow
	decodeData(t, rec, &got)

	want := []models.AggregateRow{{Key: "10", Sum: 30}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filtered sales by hour wrong (-want +got):\n%s", diff)
	}
}

func TestAPIHandlers_Health(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var got map[string]string
	decodeData(t, rec, &got)
	if got["status"] != "healthy" {
		t.Errorf("status field = %q, want %q", got["status"], "healthy")
	}
}

func TestAPIHandlers_Stats(t *testing.T) {
	h := NewAPIHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var got map[string]any
	decodeData(t, rec, &got)

	if got["record_count"] != float64(3) {
		t.Errorf("record_count = %v, want 3", got["record_count"])
	}
}

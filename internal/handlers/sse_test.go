package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/models"
)

func TestNewSSEHandlers(t *testing.T) {
	reporting := newTestReporting()
	logger := testLogger()

	h := NewSSEHandlers(reporting, logger)

	if h == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if h.reporting != reporting {
		t.Error("NewSSEHandlers() should set the reporting field")
	}
	if h.printer == nil {
		t.Error("NewSSEHandlers() should construct a message printer")
	}
}

func TestSSEHandlers_HandleDashboard(t *testing.T) {
	h := NewSSEHandlers(newTestReporting(), testLogger())

	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/sse/dashboard?city=Yangon", nil))

	body := rec.Body.String()

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want an event stream", ct)
	}

	for _, fragment := range []string{
		`id="kpi-strip"`,
		`id="hour-chart"`,
		`id="product-chart"`,
		"Sales by Hour",
		"Sales by Product Line",
		"RMB ¥ 150", // total for the Yangon subset
		"★★★★★★★",    // mean rating 7.0 renders seven stars
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("dashboard stream missing %q\nbody:\n%s", fragment, body)
		}
	}

	if !strings.Contains(body, "datastar-patch-elements") {
		t.Error("dashboard stream should patch elements")
	}
	if !strings.Contains(body, "datastar-patch-signals") {
		t.Error("dashboard stream should patch signals")
	}
}

func TestSSEHandlers_HandleDashboard_EmptySelection(t *testing.T) {
	h := NewSSEHandlers(newTestReporting(), testLogger())

	// Every field present but empty: matches nothing, must still stream a
	// placeholder dashboard instead of failing.
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/sse/dashboard?city=&customer_type=&gender=", nil))

	body := rec.Body.String()

	if !strings.Contains(body, "RMB ¥ 0") {
		t.Errorf("empty dashboard should show a zero total\nbody:\n%s", body)
	}
	if !strings.Contains(body, "–") {
		t.Errorf("empty dashboard should show mean placeholders\nbody:\n%s", body)
	}
	if strings.Contains(body, "★") {
		t.Error("empty dashboard should not render stars")
	}
}

func TestSSEHandlers_ProductBarsLargestFirst(t *testing.T) {
	h := NewSSEHandlers(newTestReporting(), testLogger())

	rows := []models.AggregateRow{
		{Key: "Small", Sum: 10},
		{Key: "Big", Sum: 100},
	}

	bars := h.productBars(rows)

	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Label != "Big" {
		t.Errorf("first bar = %q, want the largest category on top", bars[0].Label)
	}
	if bars[0].Pct != 100 {
		t.Errorf("largest bar Pct = %v, want 100", bars[0].Pct)
	}
	if bars[1].Pct != 10 {
		t.Errorf("smallest bar Pct = %v, want 10", bars[1].Pct)
	}
}

func TestSSEHandlers_HourBarsChronological(t *testing.T) {
	h := NewSSEHandlers(newTestReporting(), testLogger())

	rows := []models.AggregateRow{
		{Key: "9", Sum: 50},
		{Key: "14", Sum: 200},
	}

	bars := h.hourBars(rows)

	if bars[0].Label != "9" || bars[1].Label != "14" {
		t.Errorf("hour bars reordered: got [%s %s], want chronological", bars[0].Label, bars[1].Label)
	}
	if bars[1].Pct != 100 {
		t.Errorf("largest hour Pct = %v, want 100", bars[1].Pct)
	}
}

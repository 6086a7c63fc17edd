package services

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	apperrors "sales-dashboard/internal/errors"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
)

// SortOrder selects how aggregation rows are ordered. Both orders are
// ascending; ties in SortByValue break by group key for determinism.
type SortOrder int

const (
	SortByKey SortOrder = iota
	SortByValue
)

// Reporting owns the in-memory record store. The store is written once at
// load and read-only afterwards; every filter change recomputes its results
// from scratch (freshness over throughput at this table size).
type Reporting struct {
	mu       sync.RWMutex
	store    []models.Sale
	loadedAt time.Time
	logger   *slog.Logger
}

func NewReporting(logger *slog.Logger) *Reporting {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporting{logger: logger}
}

// LoadWorkbook populates the store from the sales workbook. Any parse
// failure aborts the load with nothing retained.
func (r *Reporting) LoadWorkbook(ctx context.Context, path string, opts ingest.Options) error {
	reader := ingest.NewReader(path, opts, r.logger)
	sales, err := reader.Read(ctx)
	if err != nil {
		return err
	}
	r.SetData(sales)
	return nil
}

func (r *Reporting) SetData(sales []models.Sale) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = sales
	r.loadedAt = time.Now()
}

// Records returns the full record store. Callers must treat it as read-only.
func (r *Reporting) Records() []models.Sale {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// Select applies the given filter selection to the store.
func (r *Reporting) Select(selection models.FilterSelection) []models.Sale {
	return Filter(r.Records(), selection)
}

// FilterOptions lists the distinct values of each categorical filter field,
// sorted ascending, for populating the filter controls.
func (r *Reporting) FilterOptions() models.FilterOptions {
	records := r.Records()
	return models.FilterOptions{
		Cities:        distinct(records, func(s models.Sale) string { return s.City }),
		CustomerTypes: distinct(records, func(s models.Sale) string { return s.CustomerType }),
		Genders:       distinct(records, func(s models.Sale) string { return s.Gender }),
	}
}

func (r *Reporting) Stats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := models.FilterOptions{}
	if len(r.store) > 0 {
		opts = models.FilterOptions{
			Cities:        distinct(r.store, func(s models.Sale) string { return s.City }),
			CustomerTypes: distinct(r.store, func(s models.Sale) string { return s.CustomerType }),
			Genders:       distinct(r.store, func(s models.Sale) string { return s.Gender }),
		}
	}

	return map[string]any{
		"record_count":   len(r.store),
		"loaded_at":      r.loadedAt,
		"cities":         len(opts.Cities),
		"customer_types": len(opts.CustomerTypes),
		"genders":        len(opts.Genders),
	}
}

func distinct(records []models.Sale, value func(models.Sale) string) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, rec := range records {
		v := value(rec)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// filterFields are the categorical fields a selection may constrain,
// paired with their accessors.
var filterFields = []struct {
	name  string
	value func(models.Sale) string
}{
	{models.FieldCity, func(s models.Sale) string { return s.City }},
	{models.FieldCustomerType, func(s models.Sale) string { return s.CustomerType }},
	{models.FieldGender, func(s models.Sale) string { return s.Gender }},
}

// Filter returns the records whose city, customer type, and gender are all
// members of the corresponding accepted set. A field absent from the
// selection imposes no constraint; a field present with an empty set
// excludes everything. The input is never mutated and row order is kept.
func Filter(records []models.Sale, selection models.FilterSelection) []models.Sale {
	filtered := make([]models.Sale, 0, len(records))
	for _, rec := range records {
		if matches(rec, selection) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func matches(rec models.Sale, selection models.FilterSelection) bool {
	for _, f := range filterFields {
		accepted, constrained := selection[f.name]
		if !constrained {
			continue
		}
		if !accepted.Has(f.value(rec)) {
			return false
		}
	}
	return true
}

var groupAccessors = map[string]func(models.Sale) string{
	models.FieldCity:         func(s models.Sale) string { return s.City },
	models.FieldCustomerType: func(s models.Sale) string { return s.CustomerType },
	models.FieldGender:       func(s models.Sale) string { return s.Gender },
	models.FieldProductLine:  func(s models.Sale) string { return s.ProductLine },
	models.FieldHour:         func(s models.Sale) string { return strconv.Itoa(s.Hour) },
}

var valueAccessors = map[string]func(models.Sale) float64{
	models.FieldTotal:  func(s models.Sale) float64 { return s.Total },
	models.FieldRating: func(s models.Sale) float64 { return s.Rating },
}

// Aggregate groups records by groupField and sums valueField within each
// group. Groups with no contributing records are omitted, so an empty
// input yields an empty result rather than an error.
func Aggregate(records []models.Sale, groupField, valueField string, order SortOrder) ([]models.AggregateRow, error) {
	groupOf, ok := groupAccessors[groupField]
	if !ok {
		return nil, apperrors.InvalidAggregationField("unknown group field: " + groupField)
	}

	valueOf, ok := valueAccessors[valueField]
	if !ok {
		return nil, apperrors.InvalidAggregationField("not a numeric field: " + valueField)
	}

	sums := make(map[string]float64)
	for _, rec := range records {
		sums[groupOf(rec)] += valueOf(rec)
	}

	rows := make([]models.AggregateRow, 0, len(sums))
	for key, sum := range sums {
		rows = append(rows, models.AggregateRow{Key: key, Sum: sum})
	}

	numericKeys := groupField == models.FieldHour
	slices.SortFunc(rows, func(a, b models.AggregateRow) int {
		if order == SortByValue {
			if c := cmp.Compare(a.Sum, b.Sum); c != 0 {
				return c
			}
		}
		return compareKeys(a.Key, b.Key, numericKeys)
	})

	return rows, nil
}

// compareKeys orders hour keys numerically so "9" sorts before "14".
func compareKeys(a, b string, numeric bool) int {
	if numeric {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return cmp.Compare(ai, bi)
		}
	}
	return cmp.Compare(a, b)
}

// Summarize computes the KPI set over records. The total is always valid,
// 0 for an empty input; the means are undefined over zero records, so an
// empty input additionally yields an EMPTY_INPUT error the presentation
// layer turns into a placeholder.
func Summarize(records []models.Sale) (models.KPISet, error) {
	kpi := models.KPISet{Orders: len(records)}

	if len(records) == 0 {
		return kpi, apperrors.EmptyInput("mean requested over zero records")
	}

	totals := make([]float64, len(records))
	ratings := make([]float64, len(records))
	for i, rec := range records {
		totals[i] = rec.Total
		ratings[i] = rec.Rating
	}

	totalSales, err := stats.Sum(totals)
	if err != nil {
		return kpi, apperrors.InternalWrap(err, "sum totals")
	}

	meanRating, err := stats.Mean(ratings)
	if err != nil {
		return kpi, apperrors.InternalWrap(err, "mean rating")
	}

	meanSale, err := stats.Mean(totals)
	if err != nil {
		return kpi, apperrors.InternalWrap(err, "mean sale")
	}

	kpi.TotalSales = totalSales
	kpi.MeanRating = Round(meanRating, 1)
	kpi.MeanSalePerOrder = Round(meanSale, 2)
	return kpi, nil
}

// Round rounds half away from zero to the given number of decimals. The
// star-rating glyph count uses the same mode so the displayed mean and the
// stars never disagree.
func Round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

// StarCount is the number of rating glyphs for a mean rating.
func StarCount(meanRating float64) int {
	return int(Round(meanRating, 0))
}

package models

// Sale is one retail transaction loaded from the sales workbook. The Hour
// field is derived from Time once at load and never recomputed.
type Sale struct {
	InvoiceID    string
	City         string
	CustomerType string
	Gender       string
	ProductLine  string
	Total        float64
	Rating       float64
	Time         string
	Hour         int
}

// Field names accepted by the filter and aggregation layers.
const (
	FieldCity         = "city"
	FieldCustomerType = "customer_type"
	FieldGender       = "gender"
	FieldProductLine  = "product_line"
	FieldHour         = "hour"
	FieldTotal        = "total"
	FieldRating       = "rating"
)

// StringSet is a membership set over categorical field values.
type StringSet map[string]struct{}

func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// FilterSelection maps a categorical field name to the set of accepted
// values. A field absent from the map imposes no constraint; a field mapped
// to an empty set excludes every record.
type FilterSelection map[string]StringSet

// AggregateRow is one (group key, summed value) pair of an aggregation.
type AggregateRow struct {
	Key string  `json:"key"`
	Sum float64 `json:"sum"`
}

// KPISet holds the scalar summary metrics for the current selection.
// MeanRating is rounded to 1 decimal, MeanSalePerOrder to 2.
type KPISet struct {
	TotalSales       float64 `json:"total_sales"`
	MeanRating       float64 `json:"mean_rating"`
	MeanSalePerOrder float64 `json:"mean_sale_per_order"`
	Orders           int     `json:"orders"`
}

// FilterOptions lists the distinct values available for each filter control,
// sorted ascending.
type FilterOptions struct {
	Cities        []string `json:"cities"`
	CustomerTypes []string `json:"customer_types"`
	Genders       []string `json:"genders"`
}

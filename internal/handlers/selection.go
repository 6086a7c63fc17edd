package handlers

import (
	"net/url"

	"sales-dashboard/internal/models"
)

var selectionFields = []string{
	models.FieldCity,
	models.FieldCustomerType,
	models.FieldGender,
}

// parseSelection builds a filter selection from query parameters. Each of
// the three categorical fields may appear any number of times. A field that
// never appears imposes no constraint; a field present only with an empty
// value (e.g. "city=") is an explicitly empty set and excludes every record.
// The two cases are deliberately distinct.
func parseSelection(q url.Values) models.FilterSelection {
	selection := make(models.FilterSelection)

	for _, field := range selectionFields {
		if !q.Has(field) {
			continue
		}

		accepted := models.NewStringSet()
		for _, v := range q[field] {
			if v == "" {
				continue
			}
			accepted[v] = struct{}{}
		}
		selection[field] = accepted
	}

	return selection
}

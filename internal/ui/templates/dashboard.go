package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Sales Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; min-height: 100vh; background: #f5f6fa; }
aside { width: 240px; padding: 1.5rem; background: #1f2430; color: #eceff4; }
aside h2 { font-size: 1rem; margin-top: 0; }
aside fieldset { border: none; padding: 0; margin: 0 0 1.25rem; }
aside legend { font-weight: 600; margin-bottom: .4rem; }
aside label { display: block; font-size: .9rem; margin: .2rem 0; }
main { flex: 1; padding: 1.5rem 2rem; }
.kpi-strip { display: flex; gap: 1.5rem; margin-bottom: 1.5rem; }
.kpi { flex: 1; background: #fff; border-radius: 8px; padding: 1rem 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.kpi h3 { margin: 0 0 .5rem; font-size: .85rem; color: #6b7280; }
.kpi p { margin: 0; font-size: 1.4rem; font-weight: 600; }
.stars { color: #f5b301; }
.charts { display: flex; gap: 1.5rem; align-items: flex-start; }
.chart { flex: 1; background: #fff; border-radius: 8px; padding: 1rem 1.25rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
.bars-vertical { display: flex; align-items: flex-end; gap: 4px; height: 220px; }
.bar-col { flex: 1; display: flex; flex-direction: column; justify-content: flex-end; height: 100%; text-align: center; }
.bars-vertical .bar { background: #3b82f6; border-radius: 2px 2px 0 0; }
.bar-row { display: flex; align-items: center; gap: .5rem; margin: .35rem 0; }
.bar-row .bar-label { width: 170px; font-size: .85rem; text-align: right; }
.bars-horizontal .bar { background: #3b82f6; height: 14px; border-radius: 0 2px 2px 0; }
.bar-value, .bar-label { font-size: .75rem; color: #6b7280; }
footer { margin-top: 1.5rem; font-size: .8rem; color: #6b7280; }
</style>
</head>
`

// Dashboard renders the single-page dashboard shell: sidebar filter
// controls bound to the SSE recompute endpoint, the KPI strip, and the two
// chart targets. Every control keeps a hidden empty-valued input so its
// field is always present in the query; unchecking every box therefore
// sends an explicitly empty accepted set, which excludes all records.
func Dashboard(options models.FilterOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if _, err := io.WriteString(w, `<body data-signals="{orders: 0, updatedAt: ''}">
<aside>
<h2>Filter the data</h2>
<form id="filters" data-on-load="@get('/sse/dashboard', {contentType: 'form'})" data-on-change="@get('/sse/dashboard', {contentType: 'form'})">
`); err != nil {
			return err
		}

		controls := []struct {
			legend string
			field  string
			values []string
		}{
			{"City", models.FieldCity, options.Cities},
			{"Customer type", models.FieldCustomerType, options.CustomerTypes},
			{"Gender", models.FieldGender, options.Genders},
		}

		for _, c := range controls {
			if err := writeControl(w, c.legend, c.field, c.values); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</form>
</aside>
<main>
<h1>📊 Sales Dashboard</h1>
<div id="kpi-strip" class="kpi-strip"></div>
<div class="charts">
<div id="hour-chart" class="chart"></div>
<div id="product-chart" class="chart"></div>
</div>
<footer>Orders in view: <span data-text="$orders"></span> · Updated <span data-text="$updatedAt"></span></footer>
</main>
</body>
</html>
`)
		return err
	})
}

func writeControl(w io.Writer, legend, field string, values []string) error {
	if _, err := fmt.Fprintf(w, "<fieldset>\n<legend>%s</legend>\n<input type=\"hidden\" name=%q value=\"\">\n",
		templ.EscapeString(legend), field); err != nil {
		return err
	}

	for _, v := range values {
		escaped := templ.EscapeString(v)
		if _, err := fmt.Fprintf(w, "<label><input type=\"checkbox\" name=%q value=\"%s\" checked> %s</label>\n",
			field, escaped, escaped); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</fieldset>\n")
	return err
}

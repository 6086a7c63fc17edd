package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

const (
	maxParseWorkers = 10
	timeLayout      = "15:04:05"
)

// Workbook column headers, matched case-insensitively after trimming.
const (
	colInvoiceID    = "invoice id"
	colCity         = "city"
	colCustomerType = "customer type"
	colGender       = "gender"
	colProductLine  = "product line"
	colTotal        = "total"
	colRating       = "rating"
	colTime         = "time"
)

var requiredColumns = []string{
	colInvoiceID,
	colCity,
	colCustomerType,
	colGender,
	colProductLine,
	colTotal,
	colRating,
	colTime,
}

// Options selects the sheet holding the transactions and the number of
// title rows preceding the header row.
type Options struct {
	Sheet    string
	SkipRows int
}

// Reader loads the sales workbook into memory. Ingestion is strict: any
// malformed row aborts the whole load so the dashboard never serves a
// partially corrupt table.
type Reader struct {
	path   string
	opts   Options
	logger *slog.Logger
}

func NewReader(path string, opts Options, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{path: path, opts: opts, logger: logger}
}

// Read parses every transaction row of the configured sheet, deriving the
// hour-of-day field once per record. Row order is preserved.
func (r *Reader) Read(ctx context.Context) ([]models.Sale, error) {
	start := time.Now()

	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, apperrors.Validation(fmt.Sprintf("workbook not found: %s", r.path))
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, apperrors.InternalWrap(err, "open workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(r.opts.Sheet)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidation, fmt.Sprintf("read sheet %q", r.opts.Sheet))
	}

	if len(rows) <= r.opts.SkipRows {
		return nil, apperrors.Validation("workbook has no header row")
	}

	header := rows[r.opts.SkipRows]
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	dataRows := rows[r.opts.SkipRows+1:]
	sales, err := r.parseRows(ctx, dataRows, cols)
	if err != nil {
		return nil, err
	}

	if len(sales) == 0 {
		return nil, apperrors.Validation("workbook has no data rows")
	}

	if err := checkInvoiceUniqueness(sales); err != nil {
		return nil, err
	}

	r.logger.Info("workbook loaded",
		"path", r.path,
		"sheet", r.opts.Sheet,
		"records", len(sales),
		"duration", time.Since(start),
	)

	return sales, nil
}

// parseRows converts raw cell rows into Sale records with a bounded worker
// pool. Each worker writes to its own index so order survives and no mutex
// is needed; the first parse failure cancels the rest.
func (r *Reader) parseRows(ctx context.Context, dataRows [][]string, cols map[string]int) ([]models.Sale, error) {
	type numbered struct {
		cells []string
		line  int
	}

	rows := make([]numbered, 0, len(dataRows))
	for i, cells := range dataRows {
		if isBlankRow(cells) {
			continue
		}
		// Line numbers are 1-based and count the skipped title and header rows.
		rows = append(rows, numbered{cells: cells, line: r.opts.SkipRows + i + 2})
	}

	sales := make([]models.Sale, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParseWorkers)

	for i, row := range rows {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			sale, err := parseSale(row.cells, cols, row.line)
			if err != nil {
				return err
			}
			sales[i] = sale
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return sales, nil
}

func parseSale(cells []string, cols map[string]int, line int) (models.Sale, error) {
	cell := func(name string) string {
		idx := cols[name]
		if idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	total, err := strconv.ParseFloat(cell(colTotal), 64)
	if err != nil {
		return models.Sale{}, apperrors.ValidationWrap(err, fmt.Sprintf("row %d: malformed total %q", line, cell(colTotal)))
	}
	if total < 0 {
		return models.Sale{}, apperrors.Validation(fmt.Sprintf("row %d: negative total %v", line, total))
	}

	rating, err := strconv.ParseFloat(cell(colRating), 64)
	if err != nil {
		return models.Sale{}, apperrors.ValidationWrap(err, fmt.Sprintf("row %d: malformed rating %q", line, cell(colRating)))
	}

	timeOfDay := cell(colTime)
	hour, err := DeriveHour(timeOfDay)
	if err != nil {
		return models.Sale{}, apperrors.MalformedTime(err, fmt.Sprintf("row %d: time-of-day %q", line, timeOfDay))
	}

	sale := models.Sale{
		InvoiceID:    cell(colInvoiceID),
		City:         cell(colCity),
		CustomerType: cell(colCustomerType),
		Gender:       cell(colGender),
		ProductLine:  cell(colProductLine),
		Total:        total,
		Rating:       rating,
		Time:         timeOfDay,
		Hour:         hour,
	}

	if sale.InvoiceID == "" {
		return models.Sale{}, apperrors.Validation(fmt.Sprintf("row %d: empty invoice id", line))
	}

	return sale, nil
}

// DeriveHour parses a wall-clock "HH:MM:SS" value and returns its hour,
// always in [0,23].
func DeriveHour(timeOfDay string) (int, error) {
	t, err := time.Parse(timeLayout, timeOfDay)
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Validation(fmt.Sprintf("workbook missing required columns: %s", strings.Join(missing, ", ")))
	}

	return cols, nil
}

func checkInvoiceUniqueness(sales []models.Sale) error {
	seen := make(map[string]struct{}, len(sales))
	for _, s := range sales {
		if _, dup := seen[s.InvoiceID]; dup {
			return apperrors.DuplicateInvoice(fmt.Sprintf("invoice id %q appears more than once", s.InvoiceID))
		}
		seen[s.InvoiceID] = struct{}{}
	}
	return nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

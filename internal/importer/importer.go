package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// Format identifies the input encoding.
type Format string

// Supported formats.
const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// Options controls how rows are read.
type Options struct {
	// Sheet names the worksheet to read. Empty selects the first sheet.
	Sheet string
	// SkipHeader drops the first row.
	SkipHeader bool
}

// DefaultOptions reads the first sheet and skips its header row.
func DefaultOptions() Options {
	return Options{SkipHeader: true}
}

// Result summarises an import.
type Result struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Importer inserts parsed records into an item store. Passing a
// cache.CachedItemStore primes the record cache with the new records.
type Importer struct {
	items  store.ItemStore
	logger *slog.Logger
}

// New creates an importer writing to items.
func New(items store.ItemStore, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{items: items, logger: logger.With(slog.String("component", "importer"))}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImportFile imports the file at path, choosing the format by extension.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (Result, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return im.Import(ctx, f, format, opts)
}

// Import reads rows from r and inserts them as new records in one batch.
// Row-level problems are reported in Result.Errors and do not abort the
// import; a store failure does, and nothing is inserted.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format, opts Options) (Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = ReadXLSX(r, opts.Sheet)
	case FormatCSV:
		rows, err = ReadCSV(r)
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Result{}, err
	}

	records, result := ParseRows(rows, opts)
	if len(records) == 0 {
		return result, nil
	}

	if err := im.items.Insert(ctx, records); err != nil {
		im.logger.Error("import failed",
			slog.String("error", err.Error()),
			slog.Int("records", len(records)))
		return result, fmt.Errorf("failed to insert imported items: %w", err)
	}
	result.Imported = len(records)

	im.logger.Info("import completed",
		slog.Int("rows", result.Rows),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// ReadXLSX returns the rows of the named sheet, or of the first sheet when
// sheet is empty.
func ReadXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ReadCSV returns all CSV records, allowing ragged rows.
func ReadCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// ParseRows turns raw rows into new records. Blank rows are ignored; rows
// with an empty term, a bad difficulty or a term already seen in the input
// are skipped and reported.
func ParseRows(rows [][]string, opts Options) ([]domain.ItemRecord, Result) {
	var (
		result  Result
		records []domain.ItemRecord
		seen    = make(map[string]struct{})
	)

	for i, row := range rows {
		if opts.SkipHeader && i == 0 {
			continue
		}
		if blank(row) {
			continue
		}
		result.Rows++
		line := i + 1

		term := cell(row, 0)
		key := strings.ToLower(term)
		if term == "" {
			result.skip(line, "missing term")
			continue
		}
		if _, dup := seen[key]; dup {
			result.skip(line, fmt.Sprintf("duplicate term %q", term))
			continue
		}

		difficulty := result.Rows
		if raw := cell(row, 2); raw != "" {
			d, err := strconv.Atoi(raw)
			if err != nil || d < 0 {
				result.skip(line, fmt.Sprintf("invalid difficulty %q", raw))
				continue
			}
			difficulty = d
		}

		record, err := domain.NewItemRecord(term, cell(row, 1), difficulty)
		if err != nil {
			result.skip(line, err.Error())
			continue
		}
		seen[key] = struct{}{}
		records = append(records, record)
	}
	return records, result
}

func (r *Result) skip(line int, reason string) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: %s", line, reason))
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package api

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/phrazzld/scry-vocab/internal/api/shared"
	"github.com/phrazzld/scry-vocab/internal/importer"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// MaxImportBytes bounds uploaded vocabulary lists.
const MaxImportBytes = 10 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ItemHandler serves the /items routes.
type ItemHandler struct {
	items    store.ItemStore
	importer *importer.Importer
	machine  SessionMachine
	logger   *slog.Logger
}

// NewItemHandler creates an ItemHandler. The machine is finished before a
// reset so no session keeps pointing at reset state.
func NewItemHandler(items store.ItemStore, imp *importer.Importer, machine SessionMachine, logger *slog.Logger) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{
		items:    items,
		importer: imp,
		machine:  machine,
		logger:   logger.With(slog.String("component", "item_handler")),
	}
}

// Reset handles POST /items/reset.
func (h *ItemHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.machine.Finish(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to finish the current session")
		return
	}
	if err := h.items.ResetAll(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to reset items")
		return
	}

	log.Info("all items reset")
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /items/import. The body is an xlsx workbook or a CSV
// file, chosen by the format query parameter or the Content-Type header.
func (h *ItemHandler) Import(w http.ResponseWriter, r *http.Request) {
	format, err := importFormat(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	opts := importer.DefaultOptions()
	opts.Sheet = r.URL.Query().Get("sheet")
	if r.URL.Query().Get("header") == "false" {
		opts.SkipHeader = false
	}

	body := http.MaxBytesReader(w, r.Body, MaxImportBytes)
	result, err := h.importer.Import(r.Context(), body, format, opts)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import items")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

func importFormat(r *http.Request) (importer.Format, error) {
	if f := strings.ToLower(r.URL.Query().Get("format")); f != "" {
		return importer.FormatFromPath("upload." + f)
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", importer.ErrUnsupportedFormat
	}
	switch mediaType {
	case xlsxContentType:
		return importer.FormatXLSX, nil
	case "text/csv":
		return importer.FormatCSV, nil
	default:
		return "", importer.ErrUnsupportedFormat
	}
}

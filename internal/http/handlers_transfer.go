package http

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	applog "finledger/internal/log"
	"finledger/internal/services"
	"finledger/internal/transfer"
)

// handleExport streams a JSON backup, or a CSV/XLSX sheet of the
// records visible under the type and q filters.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format == "" {
		format = "json"
	}
	now := s.now()

	var (
		buf         bytes.Buffer
		err         error
		filename    string
		contentType string
		count       int
	)
	switch format {
	case "json":
		scope := transfer.ParseScope(q.Get("scope"))
		records := s.app.Ledger.Load(ctx)
		count = len(records)
		err = transfer.ExportJSON(&buf, scope, s.app.Settings.Load(ctx), records)
		filename = transfer.JSONFileName(scope, now)
		contentType = "application/json; charset=utf-8"
	case "csv":
		records := s.app.Query.View(ctx, services.ParseFilter(q.Get("type")), sanitizeInput(q.Get("q")))
		count = len(records)
		err = transfer.ExportCSV(&buf, records)
		filename = transfer.TableFileName("csv", now)
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		records := s.app.Query.View(ctx, services.ParseFilter(q.Get("type")), sanitizeInput(q.Get("q")))
		count = len(records)
		err = transfer.ExportXLSX(&buf, records)
		filename = transfer.TableFileName("xlsx", now)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		BadRequestError("format must be json, csv or xlsx").Write(w)
		return
	}
	if err != nil {
		s.structured.LogError(ctx, "Export failed", err, applog.ComponentTransfer, applog.OpExport, applog.LogFields{"format": format})
		InternalServerError("Export failed").Write(w)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Export generated",
		applog.FieldOperation, applog.OpExport, "format", format, "records", count)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		BadRequestError("Could not read request body").Write(w)
		return
	}
	s.writeImportResult(w, r, func() (transfer.Result, error) {
		return s.app.Importer.Apply(r.Context(), transfer.ParseImport(body))
	})
}

// handleImportDefault loads the seed file configured for the server.
func (s *Server) handleImportDefault(w http.ResponseWriter, r *http.Request) {
	if s.seedPath == "" {
		NotFoundError("no default data configured").Write(w)
		return
	}
	s.writeImportResult(w, r, func() (transfer.Result, error) {
		return s.app.Importer.ApplyFile(r.Context(), s.seedPath)
	})
}

func (s *Server) writeImportResult(w http.ResponseWriter, r *http.Request, apply func() (transfer.Result, error)) {
	ctx := r.Context()
	res, err := apply()
	switch {
	case errors.Is(err, transfer.ErrInvalidImport):
		applog.FromContext(ctx).WarnContext(ctx, "Import rejected", applog.FieldError, err.Error())
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, fs.ErrNotExist):
		NotFoundError("default data file not found").Write(w)
	case err != nil:
		s.structured.LogError(ctx, "Import failed", err, applog.ComponentTransfer, applog.OpImport, nil)
		InternalServerError("Import failed").Write(w)
	default:
		NewJSONResponse().Body(res).Write(w)
	}
}

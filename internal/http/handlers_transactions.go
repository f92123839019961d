package http

import (
	"errors"
	"net/http"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/services"
)

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records := s.app.Query.View(r.Context(), services.ParseFilter(q.Get("type")), sanitizeInput(q.Get("q")))
	if records == nil {
		records = []core.Transaction{}
	}
	NewJSONResponse().Body(transactionList{Transactions: records, Count: len(records)}).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, ok := s.app.Ledger.FindByID(r.Context(), id)
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewJSONResponse().Body(record).Write(w)
}

// handleSaveTransaction creates a record, or updates one when editId
// names an existing record.
func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	body, err := readBody(w, r)
	if err != nil {
		BadRequestError("Could not read request body").Write(w)
		return
	}
	form, err := ParseRecordForm(r.Header.Get("Content-Type"), body)
	if err != nil {
		logger.WarnContext(ctx, "Invalid record form", applog.FieldError, err.Error())
		BadRequestError(err.Error()).Write(w)
		return
	}

	res, err := s.app.Builder.Build(ctx, form)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			logger.InfoContext(ctx, "Record form rejected", "fields", fieldNames(verr))
			ValidationErrorResponse(verr).Write(w)
			return
		}
		s.structured.LogError(ctx, "Failed to save record", err, applog.ComponentLedger, applog.OpCreate, nil)
		InternalServerError("Could not save the transaction").Write(w)
		return
	}

	rec := res.Record
	s.structured.LogRecordSaved(ctx, string(res.Outcome), rec.ID, string(rec.Type), rec.Amount.Plain(), rec.Category)

	status := http.StatusCreated
	if res.Outcome == services.Updated {
		status = http.StatusOK
	}
	NewJSONResponse().Status(status).Body(res).Write(w)
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := s.app.Ledger.Delete(ctx, id); err != nil {
		s.structured.LogError(ctx, "Failed to delete record", err, applog.ComponentLedger, applog.OpDelete,
			applog.LogFields{applog.FieldRecordID: id})
		InternalServerError("Could not delete the transaction").Write(w)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Record deleted", applog.FieldRecordID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

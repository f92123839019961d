package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"finledger/internal/core"
	"finledger/internal/currency"
	applog "finledger/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.app.Settings.Load(r.Context())).Write(w)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := readBody(w, r)
	if err != nil {
		BadRequestError("Could not read request body").Write(w)
		return
	}
	patch, err := ParseSettingsPatch(body)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	st, err := s.app.Settings.Merge(ctx, patch)
	switch {
	case errors.Is(err, core.ErrInvalidTheme), errors.Is(err, core.ErrInvalidWarn), errors.Is(err, core.ErrInvalidBudget):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	case err != nil:
		s.structured.LogError(ctx, "Failed to save settings", err, applog.ComponentSettings, applog.OpUpdate, nil)
		InternalServerError("Could not save settings").Write(w)
		return
	}
	applog.FromContext(ctx).InfoContext(ctx, "Settings updated", applog.FieldOperation, applog.OpUpdate)
	NewJSONResponse().Body(st).Write(w)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st, err := s.app.Settings.Reset(ctx)
	if err != nil {
		s.structured.LogError(ctx, "Failed to reset settings", err, applog.ComponentSettings, applog.OpUpdate, nil)
		InternalServerError("Could not reset settings").Write(w)
		return
	}
	NewJSONResponse().Body(st).Write(w)
}

type currenciesResponse struct {
	Base  string          `json:"base"`
	Rates []currency.Rate `json:"rates"`
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	conv := s.app.Converter
	NewJSONResponse().Body(currenciesResponse{Base: conv.Base(), Rates: conv.Rates()}).Write(w)
}

type rateResponse struct {
	Code      string          `json:"code"`
	Base      string          `json:"base"`
	Rate      decimal.Decimal `json:"rate"`
	Supported bool            `json:"supported"`
}

// handleCurrencyRate reports rate 1 for unknown codes, flagged unsupported.
func (s *Server) handleCurrencyRate(w http.ResponseWriter, r *http.Request) {
	conv := s.app.Converter
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	NewJSONResponse().Body(rateResponse{
		Code:      code,
		Base:      conv.Base(),
		Rate:      conv.RateToBase(code),
		Supported: conv.Supports(code),
	}).Write(w)
}

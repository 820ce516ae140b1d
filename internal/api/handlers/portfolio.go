package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/session"
	"github.com/wonny/betascope/pkg/logger"
)

// PortfolioHandler handles portfolio and analysis endpoints
// SSOT: Portfolio API 핸들러는 이 구조체에서만
type PortfolioHandler struct {
	session *session.Session
	logger  *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(s *session.Session, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		session: s,
		logger:  log,
	}
}

// HoldingView is a holding as returned by the API
type HoldingView struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	MarketValue   float64 `json:"market_value"`
	Weight        float64 `json:"weight"`
}

// PortfolioView is the whole portfolio as returned by the API
type PortfolioView struct {
	Holdings   []HoldingView `json:"holdings"`
	TotalValue float64       `json:"total_value"`
	Revision   uint64        `json:"revision"`
}

func portfolioView(snap session.Snapshot) PortfolioView {
	view := PortfolioView{
		Holdings:   make([]HoldingView, len(snap.Holdings)),
		TotalValue: snap.TotalValue,
		Revision:   snap.Revision,
	}
	for i, h := range snap.Holdings {
		view.Holdings[i] = HoldingView{
			Ticker:        h.Ticker,
			Shares:        h.Shares,
			PricePerShare: h.Price,
			MarketValue:   h.MarketValue(),
			Weight:        snap.Weights[h.Ticker],
		}
	}
	return view
}

// AddHoldingRequest represents an add-holding request.
// Price is optional; without it the current quote is fetched.
type AddHoldingRequest struct {
	Ticker string   `json:"ticker" validate:"required,ticker"`
	Shares float64  `json:"shares" validate:"gt=0"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
}

// UpdateHoldingRequest represents an update-holding request
type UpdateHoldingRequest struct {
	Shares *float64 `json:"shares,omitempty" validate:"omitempty,gt=0"`
	Price  *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
}

// GetPortfolio returns the current holdings
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    portfolioView(h.session.Snapshot()),
	})
}

// AddHolding adds (or replaces) a holding
// POST /api/portfolio/holdings
func (h *PortfolioHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req AddHoldingRequest
	if err := decode(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := portfolio.FetchCurrent()
	if req.Price != nil {
		in = portfolio.Given(*req.Price)
	}

	holding, err := h.session.Add(r.Context(), req.Ticker, req.Shares, in)
	if err != nil {
		h.logger.WithError(err).WithTicker(req.Ticker).Warn("Failed to add holding")
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Added %v shares of %s", holding.Shares, holding.Ticker),
		"portfolio": portfolioView(h.session.Snapshot()),
	})
}

// UpdateHolding changes shares and/or price
// PUT /api/portfolio/holdings/{ticker}
func (h *PortfolioHandler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	var req UpdateHoldingRequest
	if err := decode(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Shares == nil && req.Price == nil {
		respondError(w, http.StatusBadRequest, "shares or price is required")
		return
	}

	holding, err := h.session.Update(ticker, req.Shares, req.Price)
	if err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   fmt.Sprintf("Updated %s", holding.Ticker),
		"portfolio": portfolioView(h.session.Snapshot()),
	})
}

// RemoveHolding deletes a holding
// DELETE /api/portfolio/holdings/{ticker}
func (h *PortfolioHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	ticker := portfolio.NormalizeTicker(mux.Vars(r)["ticker"])

	if err := h.session.Remove(ticker); err != nil {
		respondFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Removed %s", ticker),
	})
}

// Clear drops every holding
// POST /api/portfolio/clear
func (h *PortfolioHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.session.Clear()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Portfolio cleared",
	})
}

// Save persists the holdings
// POST /api/portfolio/save
func (h *PortfolioHandler) Save(w http.ResponseWriter, r *http.Request) {
	n, err := h.session.Save(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to save portfolio")
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Portfolio saved",
		"holdings": n,
	})
}

// Load replaces the holdings with the saved ones
// POST /api/portfolio/load
func (h *PortfolioHandler) Load(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Load(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Portfolio loaded",
		"portfolio": portfolioView(snap),
	})
}

// Analyze computes the portfolio beta report
// POST /api/analyze
func (h *PortfolioHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	rep, err := h.session.Analyze(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Analysis failed")
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rep,
	})
}

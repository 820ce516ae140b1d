package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/session"
	"github.com/wonny/betascope/internal/watchlist"
	"github.com/wonny/betascope/pkg/logger"
)

// WatchlistHandler handles watchlist endpoints
type WatchlistHandler struct {
	session *session.Session
	logger  *logger.Logger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(s *session.Session, log *logger.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		session: s,
		logger:  log,
	}
}

// WatchlistRequest represents an add-to-watchlist request
type WatchlistRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
}

// RecommendRequest represents a beta balancing request; target defaults to 1.0
type RecommendRequest struct {
	TargetBeta *float64 `json:"target_beta,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// GetWatchlist returns every watchlist ticker with price, beta and risk level
// GET /api/watchlist
func (h *WatchlistHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.session.Optimizer().Entries(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get watchlist")
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}

// Add adds a ticker after checking that it has a quote
// POST /api/watchlist
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req WatchlistRequest
	if err := decode(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ticker := portfolio.NormalizeTicker(req.Ticker)

	added, err := h.session.WatchlistAdd(r.Context(), ticker)
	if err != nil {
		respondFailure(w, err)
		return
	}

	if !added {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("%s is already on the watchlist", ticker),
		})
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%s added to watchlist", ticker),
	})
}

// Remove deletes a ticker
// DELETE /api/watchlist/{ticker}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ticker := portfolio.NormalizeTicker(mux.Vars(r)["ticker"])

	if err := h.session.WatchlistRemove(ticker); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%s removed from watchlist", ticker),
	})
}

// Recommend ranks watchlist tickers for moving the portfolio beta toward the target
// POST /api/watchlist/recommendations
func (h *WatchlistHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := decode(r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	target := watchlist.DefaultTargetBeta
	if req.TargetBeta != nil {
		target = *req.TargetBeta
	}

	plan, err := h.session.Recommend(r.Context(), target)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    plan,
	})
}

// Diversification counts the watchlist per risk tier
// GET /api/watchlist/diversification
func (h *WatchlistHandler) Diversification(w http.ResponseWriter, r *http.Request) {
	d, err := h.session.Optimizer().Diversification(r.Context())
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    d,
	})
}

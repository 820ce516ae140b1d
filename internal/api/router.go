package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/betascope/internal/api/handlers"
	"github.com/wonny/betascope/internal/session"
	"github.com/wonny/betascope/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(s *session.Session, log *logger.Logger) http.Handler {
	portfolioHandler := handlers.NewPortfolioHandler(s, log.WithComponent("api"))
	watchlistHandler := handlers.NewWatchlistHandler(s, log.WithComponent("api"))

	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(s)).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Portfolio endpoints
	api.HandleFunc("/portfolio", portfolioHandler.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio/holdings", portfolioHandler.AddHolding).Methods("POST")
	api.HandleFunc("/portfolio/holdings/{ticker}", portfolioHandler.UpdateHolding).Methods("PUT")
	api.HandleFunc("/portfolio/holdings/{ticker}", portfolioHandler.RemoveHolding).Methods("DELETE")
	api.HandleFunc("/portfolio/clear", portfolioHandler.Clear).Methods("POST")
	api.HandleFunc("/portfolio/save", portfolioHandler.Save).Methods("POST")
	api.HandleFunc("/portfolio/load", portfolioHandler.Load).Methods("POST")
	api.HandleFunc("/analyze", portfolioHandler.Analyze).Methods("POST")

	// Watchlist endpoints
	api.HandleFunc("/watchlist", watchlistHandler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", watchlistHandler.Add).Methods("POST")
	api.HandleFunc("/watchlist/recommendations", watchlistHandler.Recommend).Methods("POST")
	api.HandleFunc("/watchlist/diversification", watchlistHandler.Diversification).Methods("GET")
	api.HandleFunc("/watchlist/{ticker}", watchlistHandler.Remove).Methods("DELETE")

	// request id → logging → recovery → handler
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler reports liveness plus the size of the working portfolio
func healthCheckHandler(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"service":  "betascope-api",
			"holdings": len(snap.Holdings),
			"revision": snap.Revision,
		})
	}
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware keeps a caller-supplied X-Request-ID or assigns a new one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by the handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"request_id": r.Header.Get(requestIDHeader),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"request_id": r.Header.Get(requestIDHeader),
						"error":      err,
						"path":       r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"success": false,
						"error":   "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

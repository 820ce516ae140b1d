package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/session"
	"github.com/wonny/betascope/internal/store"
)

// Yahoo symbols: letters, digits and . - ^ = (e.g. BRK-B, ^GSPC, EURUSD=X)
var tickerRegex = regexp.MustCompile(`^[A-Za-z0-9.\-^=]{1,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", validateTicker)
	return v
}

func validateTicker(fl validator.FieldLevel) bool {
	return tickerRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

// decode reads a JSON body into dst and validates its struct tags.
// An empty body is accepted when allowEmpty is set.
func decode(r *http.Request, dst interface{}, allowEmpty bool) error {
	if r.Body == nil || r.ContentLength == 0 {
		if !allowEmpty {
			return errors.New("invalid request body")
		}
	} else if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed '%s'", strings.ToLower(fe.Field()), fe.Tag())
			}
			return errors.New("invalid request: " + strings.Join(msgs, ", "))
		}
		return err
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidQuantity),
		errors.Is(err, contracts.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNotFound),
		errors.Is(err, store.ErrNoSavedPortfolio):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrEmptyPortfolio),
		errors.Is(err, contracts.ErrNoValidBeta),
		errors.Is(err, session.ErrNoBeta):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrDataFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondFailure picks the status from err; 5xx details stay in the log
func respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	respondError(w, status, msg)
}

// Utilities for parsing and validating HTTP request data shared by the
// transaction handlers.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, falling
// back to the supplied reference date for absent values. A parameter that is
// present but not an integer is a validation error, never coerced.
func ParseMonthParams(query url.Values, today time.Time) (MonthParams, error) {
	params := MonthParams{
		Year:  today.Year(),
		Month: int(today.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.ErrInvalidYear
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.ErrInvalidMonth
		}
		params.Month = m
	}

	return params, nil
}

// ParseTransactionForm builds a core.Transaction from submitted form values.
// The date field defaults to the reference date when absent.
func ParseTransactionForm(form url.Values, today time.Time) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(form.Get("type"))
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(form.Get("amount")))
	if err != nil {
		return core.Transaction{}, err
	}

	date := core.DateOf(today)
	if v := strings.TrimSpace(form.Get("date")); v != "" {
		date, err = core.ParseDate(v)
		if err != nil {
			return core.Transaction{}, err
		}
	}

	return core.Transaction{
		Type:     typ,
		Category: sanitizeInput(form.Get("category")),
		Amount:   core.Money{Cents: cents},
		Date:     date,
	}, nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
)

const listCacheKey = "all"

// getTransactions returns the full listing, newest first, through the cache.
func (s *Server) getTransactions(ctx context.Context) ([]core.Transaction, error) {
	if items, found := s.listCache.Get(listCacheKey); found {
		slog.DebugContext(ctx, "Transaction list cache hit", "count", len(items))
		result := make([]core.Transaction, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.ledger.ListAll(cctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	s.listCache.Set(listCacheKey, items)
	return items, nil
}

type indexRow struct {
	ID       int64
	Type     string
	Category string
	Amount   string
	Date     string
	Income   bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	txs, err := s.getTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list error", "error", err)
	}
	totals := core.Aggregate(txs)

	today := s.now()
	data := struct {
		Today        string
		Year         int
		Month        int
		Rows         []indexRow
		TotalIncome  string
		TotalExpense string
		Net          string
	}{
		Today:        core.DateOf(today).String(),
		Year:         today.Year(),
		Month:        int(today.Month()),
		TotalIncome:  totals.Income().String(),
		TotalExpense: totals.Expense().String(),
		Net:          totals.Net().String(),
	}
	for _, tx := range txs {
		data.Rows = append(data.Rows, indexRow{
			ID:       tx.ID,
			Type:     string(tx.Type),
			Category: tx.Category,
			Amount:   tx.Amount.String(),
			Date:     tx.Date.String(),
			Income:   tx.Type == core.Income,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	tx, err := ParseTransactionForm(r.Form, s.now())
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}

	saved, err := s.ledger.Create(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError(validationMessage(err)).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Transaction create error", "error", err, "category", tx.Category, "amount_cents", tx.Amount.Cents)
		InternalServerError("Failed to save transaction").Write(w)
		return
	}

	s.invalidateViews()

	NewHTMXResponse().
		TriggerTransactionCreated(saved.Date.Year(), saved.Date.Month()).
		TriggerFormReset().
		BodyHTML(`<div class="success">Recorded #` + strconv.FormatInt(saved.ID, 10) + `: ` +
			template.HTMLEscapeString(saved.Category) +
			` — ` + template.HTMLEscapeString(saved.Amount.String()) +
			` (` + template.HTMLEscapeString(string(saved.Type)) + `, ` + saved.Date.String() + `)</div>`).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	idStr := strings.TrimSpace(r.Form.Get("id"))
	if idStr == "" {
		idStr = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		BadRequestError("Invalid transaction id").Write(w)
		return
	}

	found, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction delete error", "error", err, "id", id)
		InternalServerError("Failed to delete transaction").Write(w)
		return
	}
	if !found {
		NotFoundError("Transaction not found").Write(w)
		return
	}

	s.invalidateViews()

	NewHTMXResponse().
		TriggerTransactionDeleted(id).
		BodyHTML(`<div class="success">Deleted transaction #` + strconv.FormatInt(id, 10) + `</div>`).
		Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}
	doc, err := s.ledger.MonthlyReport(r.Context(), params.Year, params.Month)
	if err != nil {
		if isValidationError(err) {
			BadRequestError(validationMessage(err)).Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Report render error", "error", err, "year", params.Year, "month", params.Month)
		InternalServerError("Failed to generate report").Write(w)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError(http.MethodGet).Write(w)
		return
	}

	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}
	if err := core.ValidatePeriod(params.Year, params.Month); err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}

	key := strconv.Itoa(params.Year) + "-" + strconv.Itoa(params.Month)
	snapshot, found := s.chartCache.Get(key)
	if !found {
		ref := time.Date(params.Year, time.Month(params.Month), 1, 0, 0, 0, 0, time.UTC)
		var err error
		snapshot, err = s.ledger.ChartData(r.Context(), ref)
		if err != nil {
			slog.ErrorContext(r.Context(), "Chart data error", "error", err, "year", params.Year, "month", params.Month)
			http.Error(w, "failed to build chart data", http.StatusInternalServerError)
			return
		}
		s.chartCache.Set(key, snapshot)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]float64{
		"income":  snapshot.Income.Value(),
		"expense": snapshot.Expense.Value(),
	})
}

// isValidationError reports whether err stems from bad client input.
func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidMonth) ||
		errors.Is(err, core.ErrInvalidYear) ||
		errors.Is(err, core.ErrInvalidCategory)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidType):
		return "Type must be income or expense"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid amount"
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date"
	case errors.Is(err, core.ErrInvalidMonth):
		return "Month must be between 1 and 12"
	case errors.Is(err, core.ErrInvalidYear):
		return "Invalid year"
	case errors.Is(err, core.ErrInvalidCategory):
		return "Category too long (max 200 characters)"
	default:
		return "Invalid input"
	}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"centsplit/internal/core"
	"centsplit/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrRuleExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrInvalidPercentage),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyTransaction):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// yearMonth parses the year and month query parameters, defaulting to the
// current month.
func yearMonth(r *http.Request) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2200 {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	return year, month, nil
}

func budgetView(r *http.Request) (core.BudgetView, error) {
	switch v := strings.TrimSpace(r.URL.Query().Get("view")); v {
	case "", string(core.ViewMine):
		return core.ViewMine, nil
	case string(core.ViewOurs):
		return core.ViewOurs, nil
	default:
		return "", fmt.Errorf("invalid view %q", v)
	}
}

type transactionResponse struct {
	ID               string `json:"id"`
	Description      string `json:"description"`
	AmountCents      int64  `json:"amount_cents"`
	Amount           string `json:"amount"`
	CategoryID       string `json:"category_id"`
	ParentCategoryID string `json:"parent_category_id"`
	CategoryName     string `json:"category_name"`
	CreatedAt        string `json:"created_at"`
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.storage.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{
		ID:               tx.ID,
		Description:      tx.Description,
		AmountCents:      tx.AmountCents,
		Amount:           core.FormatCents(tx.AmountCents),
		CategoryID:       tx.CategoryID,
		ParentCategoryID: tx.ParentCategoryID,
		CategoryName:     tx.CategoryName,
		CreatedAt:        tx.CreatedAt.Format(time.RFC3339),
	})
}

type overrideRequest struct {
	TransactionID    string `json:"transaction_id"`
	CategoryID       string `json:"category_id"`
	ParentCategoryID string `json:"parent_category_id"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		writeError(w, http.StatusUnprocessableEntity, "transaction_id is required")
		return
	}

	pair := core.CategoryPair{
		CategoryID:       req.CategoryID,
		ParentCategoryID: req.ParentCategoryID,
	}
	if err := pair.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.txService.SetOverride(r.Context(), req.TransactionID, pair); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "override saved"})
}

func (s *Server) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("transaction_id")
	if err := s.txService.DeleteOverride(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateSummaries()
	w.WriteHeader(http.StatusNoContent)
}

type ruleRequest struct {
	Description      string `json:"description"`
	CategoryID       string `json:"category_id"`
	ParentCategoryID string `json:"parent_category_id"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	pair := core.CategoryPair{
		CategoryID:       req.CategoryID,
		ParentCategoryID: req.ParentCategoryID,
	}
	if err := pair.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.txService.CreateRule(r.Context(), strings.TrimSpace(req.Description), pair)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.txService.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryShareRequest struct {
	CategoryName string `json:"category_name"`
	Shared       bool   `json:"shared"`
	Percentage   int64  `json:"percentage"`
}

func (s *Server) handleSetCategoryShare(w http.ResponseWriter, r *http.Request) {
	var req categoryShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.txService.SetCategoryShare(r.Context(), strings.TrimSpace(req.CategoryName), req.Shared, req.Percentage); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "category share saved"})
}

type transactionShareRequest struct {
	TransactionID string `json:"transaction_id"`
	Shared        bool   `json:"shared"`
	Percentage    int64  `json:"percentage"`
}

func (s *Server) handleSetTransactionShare(w http.ResponseWriter, r *http.Request) {
	var req transactionShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.txService.SetTransactionShare(r.Context(), strings.TrimSpace(req.TransactionID), req.Shared, req.Percentage); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, map[string]string{"status": "transaction share saved"})
}

type summaryResponse struct {
	Year                 int    `json:"year"`
	Month                int    `json:"month"`
	TotalShared          int64  `json:"total_shared_cents"`
	TotalPersonal        int64  `json:"total_personal_cents"`
	UserShareOfShared    int64  `json:"user_share_cents"`
	PartnerShareOfShared int64  `json:"partner_share_cents"`
	TotalSharedDisplay   string `json:"total_shared"`
	UserShareDisplay     string `json:"user_share"`
	PartnerShareDisplay  string `json:"partner_share"`
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%d-%02d", year, month)
	summary, found := s.summaryCache.Get(key)
	if !found {
		summary, err = s.budget.MonthSummary(r.Context(), year, month)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.summaryCache.Set(key, summary)
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Year:                 year,
		Month:                month,
		TotalShared:          summary.TotalShared,
		TotalPersonal:        summary.TotalPersonal,
		UserShareOfShared:    summary.UserShareOfShared,
		PartnerShareOfShared: summary.PartnerShareOfShared,
		TotalSharedDisplay:   core.FormatCents(summary.TotalShared),
		UserShareDisplay:     core.FormatCents(summary.UserShareOfShared),
		PartnerShareDisplay:  core.FormatCents(summary.PartnerShareOfShared),
	})
}

func (s *Server) handleBudgetCategory(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := budgetView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	total, err := s.budget.CategoryTotal(r.Context(), year, month, name, view)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":        year,
		"month":       month,
		"name":        name,
		"view":        view,
		"total_cents": total.Cents,
		"total":       core.FormatCents(total.Cents),
	})
}

type overviewCategory struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := budgetView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := s.budget.MonthOverview(r.Context(), year, month, view)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	categories := make([]overviewCategory, 0, len(overview.ByCategory))
	for _, c := range overview.ByCategory {
		categories = append(categories, overviewCategory{
			Name:        c.Name,
			AmountCents: c.Amount.Cents,
			Amount:      core.FormatCents(c.Amount.Cents),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":        year,
		"month":       month,
		"view":        view,
		"total_cents": overview.Total.Cents,
		"total":       core.FormatCents(overview.Total.Cents),
		"categories":  categories,
	})
}

func (s *Server) handleBudgetSplit(w http.ResponseWriter, r *http.Request) {
	userIncome, err := incomeParam(r, "user_income")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	partnerIncome, err := incomeParam(r, "partner_income")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pct := s.budget.ProposedSplit(userIncome, partnerIncome)
	writeJSON(w, http.StatusOK, map[string]int64{
		"user_percentage":    pct,
		"partner_percentage": 100 - pct,
	})
}

func incomeParam(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	cents, err := core.ParseDecimalToCents(v)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return cents, nil
}

type exportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Year < 2000 || req.Year > 2200 || req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusUnprocessableEntity, "invalid year or month")
		return
	}

	ref, err := s.budget.ExportMonthReport(r.Context(), req.Year, req.Month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

package service

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// ExpenseService handles personal expenses and their analytics views.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates an expense service.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

type expenseRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

type expenseResponse struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func newExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Category:    e.Category,
		Amount:      e.Amount,
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
	}
}

func (req expenseRequest) validate() (time.Time, string) {
	if req.Category == "" {
		return time.Time{}, "category is required"
	}
	if !req.Amount.IsPositive() {
		return time.Time{}, "amount must be positive"
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return time.Time{}, "date must be formatted YYYY-MM-DD"
	}
	return date, ""
}

// Create records a new personal expense.
func (s *ExpenseService) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	date, msg := req.validate()
	if msg != "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, msg)
		return
	}

	expense := &models.Expense{
		UserID:      middleware.GetUserID(r.Context()),
		Category:    req.Category,
		Amount:      req.Amount.Round(2),
		Date:        date,
		Description: req.Description,
	}
	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newExpenseResponse(expense))
}

// List returns the authenticated user's expenses, newest first.
func (s *ExpenseService) List(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListExpenses(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, newExpenseResponse(e))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Update replaces an expense the user owns.
func (s *ExpenseService) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	var req expenseRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	date, msg := req.validate()
	if msg != "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, msg)
		return
	}

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if expense.UserID != middleware.GetUserID(r.Context()) {
		respondError(w, errNotOwner)
		return
	}

	expense.Category = req.Category
	expense.Amount = req.Amount.Round(2)
	expense.Date = date
	expense.Description = req.Description
	if err := s.store.UpdateExpense(r.Context(), expense); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newExpenseResponse(expense))
}

// Delete removes an expense the user owns.
func (s *ExpenseService) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if expense.UserID != middleware.GetUserID(r.Context()) {
		respondError(w, errNotOwner)
		return
	}

	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "expense deleted"})
}

type categoryTotalResponse struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type monthlyTotalResponse struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// CategoryAnalytics returns total spend per category.
func (s *ExpenseService) CategoryAnalytics(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.CategoryTotals(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		resp = append(resp, categoryTotalResponse{Category: t.Category, Total: t.Total})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// MonthlyAnalytics returns total spend per calendar month.
func (s *ExpenseService) MonthlyAnalytics(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.MonthlyTotals(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]monthlyTotalResponse, 0, len(totals))
	for _, t := range totals {
		resp = append(resp, monthlyTotalResponse{Month: t.Month, Total: t.Total})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

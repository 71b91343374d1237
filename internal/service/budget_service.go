package service

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// BudgetService handles per-category monthly budgets.
type BudgetService struct {
	store storage.Store
}

// NewBudgetService creates a budget service.
func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

type budgetRequest struct {
	Category    string          `json:"category"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
}

type budgetResponse struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
}

// Create records a new budget.
func (s *BudgetService) Create(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Category == "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, "category is required")
		return
	}
	if !req.LimitAmount.IsPositive() {
		httpx.ErrorMsg(w, http.StatusBadRequest, "limit_amount must be positive")
		return
	}
	if req.Month < 1 || req.Month > 12 {
		httpx.ErrorMsg(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}
	if req.Year < 2000 {
		httpx.ErrorMsg(w, http.StatusBadRequest, "year is invalid")
		return
	}

	budget := &models.Budget{
		UserID:      middleware.GetUserID(r.Context()),
		Category:    req.Category,
		LimitAmount: req.LimitAmount.Round(2),
		Month:       req.Month,
		Year:        req.Year,
	}
	if err := s.store.CreateBudget(r.Context(), budget); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, budgetResponse{
		ID:          budget.ID,
		Category:    budget.Category,
		LimitAmount: budget.LimitAmount,
		Month:       budget.Month,
		Year:        budget.Year,
	})
}

// List returns the authenticated user's budgets.
func (s *BudgetService) List(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.store.ListBudgets(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		resp = append(resp, budgetResponse{
			ID:          b.ID,
			Category:    b.Category,
			LimitAmount: b.LimitAmount,
			Month:       b.Month,
			Year:        b.Year,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

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

// DebtService handles personal loans paid down in monthly EMIs.
type DebtService struct {
	store storage.Store
}

// NewDebtService creates a debt service.
func NewDebtService(store storage.Store) *DebtService {
	return &DebtService{store: store}
}

type debtRequest struct {
	Name            string          `json:"name"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	EMIAmount       decimal.Decimal `json:"emi_amount"`
	EMIDate         int             `json:"emi_date"`
	StartDate       string          `json:"start_date"`
}

type debtResponse struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	EMIAmount       decimal.Decimal `json:"emi_amount"`
	EMIDate         int             `json:"emi_date"`
	StartDate       string          `json:"start_date"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
}

func newDebtResponse(d *models.Debt) debtResponse {
	return debtResponse{
		ID:              d.ID,
		Name:            d.Name,
		PrincipalAmount: d.PrincipalAmount,
		InterestRate:    d.InterestRate,
		EMIAmount:       d.EMIAmount,
		EMIDate:         d.EMIDate,
		StartDate:       d.StartDate.Format(dateLayout),
		RemainingAmount: d.RemainingAmount,
		Status:          d.Status,
	}
}

func (req debtRequest) validate() (time.Time, string) {
	if req.Name == "" {
		return time.Time{}, "name is required"
	}
	if !req.PrincipalAmount.IsPositive() {
		return time.Time{}, "principal_amount must be positive"
	}
	if req.InterestRate.IsNegative() {
		return time.Time{}, "interest_rate cannot be negative"
	}
	if !req.EMIAmount.IsPositive() {
		return time.Time{}, "emi_amount must be positive"
	}
	if req.EMIDate < 1 || req.EMIDate > 31 {
		return time.Time{}, "emi_date must be a day of month between 1 and 31"
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return time.Time{}, "start_date must be formatted YYYY-MM-DD"
	}
	return start, ""
}

// Create records a new debt. The remaining amount starts at the principal.
func (s *DebtService) Create(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	start, msg := req.validate()
	if msg != "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, msg)
		return
	}

	debt := &models.Debt{
		UserID:          middleware.GetUserID(r.Context()),
		Name:            req.Name,
		PrincipalAmount: req.PrincipalAmount.Round(2),
		InterestRate:    req.InterestRate,
		EMIAmount:       req.EMIAmount.Round(2),
		EMIDate:         req.EMIDate,
		StartDate:       start,
		RemainingAmount: req.PrincipalAmount.Round(2),
		Status:          models.DebtActive,
	}
	if err := s.store.CreateDebt(r.Context(), debt); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newDebtResponse(debt))
}

// List returns the authenticated user's debts.
func (s *DebtService) List(w http.ResponseWriter, r *http.Request) {
	debts, err := s.store.ListDebts(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		resp = append(resp, newDebtResponse(d))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Update replaces the mutable fields of a debt the user owns.
func (s *DebtService) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	var req debtRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	start, msg := req.validate()
	if msg != "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, msg)
		return
	}

	debt, err := s.store.GetDebt(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if debt.UserID != middleware.GetUserID(r.Context()) {
		respondError(w, errNotOwner)
		return
	}

	debt.Name = req.Name
	debt.PrincipalAmount = req.PrincipalAmount.Round(2)
	debt.InterestRate = req.InterestRate
	debt.EMIAmount = req.EMIAmount.Round(2)
	debt.EMIDate = req.EMIDate
	debt.StartDate = start
	if err := s.store.UpdateDebt(r.Context(), debt); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newDebtResponse(debt))
}

// Delete removes a debt the user owns.
func (s *DebtService) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	debt, err := s.store.GetDebt(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if debt.UserID != middleware.GetUserID(r.Context()) {
		respondError(w, errNotOwner)
		return
	}

	if err := s.store.DeleteDebt(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "debt deleted"})
}

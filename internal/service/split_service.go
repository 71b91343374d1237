package service

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/ledger"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// SplitService handles friend-scope split expenses. The creator pays the full
// amount and every participant owes an equal share.
type SplitService struct {
	store storage.Store
}

// NewSplitService creates a split-expense service.
func NewSplitService(store storage.Store) *SplitService {
	return &SplitService{store: store}
}

type splitExpenseRequest struct {
	Description    string          `json:"description"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Category       string          `json:"category"`
	Date           string          `json:"date"`
	ParticipantIDs []int64         `json:"participant_ids"`
}

type splitExpenseResponse struct {
	ID             int64           `json:"id"`
	Description    string          `json:"description"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Category       string          `json:"category"`
	Date           string          `json:"date"`
	CreatedBy      int64           `json:"created_by"`
	ParticipantIDs []int64         `json:"participant_ids"`
	ShareAmount    decimal.Decimal `json:"share_amount"`
}

func newSplitExpenseResponse(sp *models.SplitExpense) splitExpenseResponse {
	share := decimal.Zero
	if n := len(sp.ParticipantIDs); n > 0 {
		share = sp.TotalAmount.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return splitExpenseResponse{
		ID:             sp.ID,
		Description:    sp.Description,
		TotalAmount:    sp.TotalAmount,
		Category:       sp.Category,
		Date:           sp.Date.Format(dateLayout),
		CreatedBy:      sp.CreatedBy,
		ParticipantIDs: sp.ParticipantIDs,
		ShareAmount:    share,
	}
}

// Create records a split expense. The creator is always a participant and
// every other participant must be an accepted friend of the creator.
func (s *SplitService) Create(w http.ResponseWriter, r *http.Request) {
	var req splitExpenseRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if !req.TotalAmount.IsPositive() {
		respondError(w, fmt.Errorf("%w: total must be positive", ledger.ErrInvalidExpense))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		httpx.ErrorMsg(w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	userID := middleware.GetUserID(r.Context())
	participants := req.ParticipantIDs
	if !slices.Contains(participants, userID) {
		participants = append([]int64{userID}, participants...)
	}
	if len(participants) < 2 {
		respondError(w, fmt.Errorf("%w: a split needs at least one other participant", ledger.ErrInvalidExpense))
		return
	}

	for _, pid := range participants {
		if pid == userID {
			continue
		}
		friendship, err := s.store.GetFriendshipBetween(r.Context(), userID, pid)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondError(w, fmt.Errorf("%w: user %d", errNotFriends, pid))
				return
			}
			respondError(w, err)
			return
		}
		if friendship.Status != models.FriendshipAccepted {
			respondError(w, fmt.Errorf("%w: user %d", errNotFriends, pid))
			return
		}
	}

	split := &models.SplitExpense{
		Description:    req.Description,
		TotalAmount:    req.TotalAmount.Round(2),
		Category:       req.Category,
		Date:           date,
		CreatedBy:      userID,
		ParticipantIDs: participants,
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.store.CreateSplitExpense(r.Context(), split); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newSplitExpenseResponse(split))
}

// List returns the split expenses the user participates in.
func (s *SplitService) List(w http.ResponseWriter, r *http.Request) {
	splits, err := s.store.ListSplitExpensesForUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]splitExpenseResponse, 0, len(splits))
	for _, sp := range splits {
		resp = append(resp, newSplitExpenseResponse(sp))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Delete removes a split expense. Only the creator may delete it.
func (s *SplitService) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	split, err := s.store.GetSplitExpense(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if split.CreatedBy != middleware.GetUserID(r.Context()) {
		respondError(w, fmt.Errorf("%w: only the creator can delete a split expense", errNotOwner))
		return
	}

	if err := s.store.DeleteSplitExpense(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "split expense deleted"})
}

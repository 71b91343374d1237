package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/ledger"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/payments"
	"github.com/saks786/expense-tracker/internal/storage"
)

// signatureHeader carries the gateway's hex HMAC over the webhook body.
const signatureHeader = "X-Gateway-Signature"

// PaymentService handles gateway payments for debt installments and split
// expense shares.
type PaymentService struct {
	store    storage.Store
	gateway  payments.Gateway
	currency string
}

// NewPaymentService creates a payment service.
func NewPaymentService(store storage.Store, gateway payments.Gateway, currency string) *PaymentService {
	return &PaymentService{store: store, gateway: gateway, currency: currency}
}

type createIntentRequest struct {
	Type           string          `json:"type"`
	DebtID         int64           `json:"debt_id"`
	SplitExpenseID int64           `json:"split_expense_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	Description    string          `json:"description"`
}

type createIntentResponse struct {
	TransactionID int64  `json:"transaction_id"`
	IntentID      string `json:"intent_id"`
	ClientSecret  string `json:"client_secret"`
	Status        string `json:"status"`
}

type transactionResponse struct {
	ID             int64           `json:"id"`
	IntentID       string          `json:"intent_id,omitempty"`
	Reference      string          `json:"reference"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	PaymentMethod  string          `json:"payment_method"`
	Type           string          `json:"type"`
	DebtID         int64           `json:"debt_id,omitempty"`
	SplitExpenseID int64           `json:"split_expense_id,omitempty"`
	Status         string          `json:"status"`
	Description    string          `json:"description"`
}

func newTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:             t.ID,
		IntentID:       t.IntentID,
		Reference:      t.Reference,
		Amount:         t.Amount,
		Currency:       t.Currency,
		PaymentMethod:  t.PaymentMethod,
		Type:           t.Type,
		DebtID:         t.DebtID,
		SplitExpenseID: t.SplitExpenseID,
		Status:         t.Status,
		Description:    t.Description,
	}
}

// validateIntent checks the payment against what is actually owed.
func (s *PaymentService) validateIntent(r *http.Request, userID int64, req createIntentRequest) error {
	if req.PaymentMethod != models.MethodCard && req.PaymentMethod != models.MethodUPI {
		return fmt.Errorf("%w: payment_method must be card or upi", ledger.ErrInvalidExpense)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidExpense)
	}

	switch req.Type {
	case models.TxnDebtPayment:
		debt, err := s.store.GetDebt(r.Context(), req.DebtID)
		if err != nil {
			return err
		}
		if debt.UserID != userID {
			return errNotOwner
		}
		if debt.Status != models.DebtActive {
			return fmt.Errorf("%w: debt is already paid off", errAlreadyPaid)
		}
		if req.Amount.GreaterThan(debt.RemainingAmount) {
			return fmt.Errorf("%w: amount %s exceeds remaining %s",
				errAmountMismatch, req.Amount.StringFixed(2), debt.RemainingAmount.StringFixed(2))
		}
		return nil

	case models.TxnSplitPayment:
		split, err := s.store.GetSplitExpense(r.Context(), req.SplitExpenseID)
		if err != nil {
			return err
		}
		if !slices.Contains(split.ParticipantIDs, userID) {
			return fmt.Errorf("%w: not a participant of this split expense", errNotOwner)
		}
		if split.CreatedBy == userID {
			return fmt.Errorf("%w: the creator already paid this expense", errSelfReference)
		}

		paid, err := s.store.HasSucceededSplitPayment(r.Context(), userID, split.ID)
		if err != nil {
			return err
		}
		if paid {
			return fmt.Errorf("%w: share already paid", errAlreadyPaid)
		}

		shares, err := ledger.EqualShares(split.TotalAmount, split.CreatedBy, split.ParticipantIDs)
		if err != nil {
			return err
		}
		for _, sh := range shares {
			if sh.ParticipantID != userID {
				continue
			}
			if req.Amount.Sub(sh.Amount).Abs().GreaterThan(ledger.Tolerance) {
				return fmt.Errorf("%w: your share is %s", errAmountMismatch, sh.Amount.StringFixed(2))
			}
			return nil
		}
		return fmt.Errorf("%w: not a participant of this split expense", errNotOwner)

	default:
		return fmt.Errorf("%w: type must be %s or %s",
			ledger.ErrInvalidExpense, models.TxnDebtPayment, models.TxnSplitPayment)
	}
}

// CreateIntent validates the payment, registers an intent with the gateway
// and records a pending transaction.
func (s *PaymentService) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := s.validateIntent(r, userID, req); err != nil {
		respondError(w, err)
		return
	}

	reference := uuid.NewString()
	amount := req.Amount.Round(2)
	intent, err := s.gateway.CreateIntent(r.Context(), reference, amount, s.currency, req.PaymentMethod, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}

	now := time.Now().Unix()
	txn := &models.Transaction{
		UserID:         userID,
		IntentID:       intent.ID,
		Reference:      reference,
		Amount:         amount,
		Currency:       s.currency,
		PaymentMethod:  req.PaymentMethod,
		Type:           req.Type,
		DebtID:         req.DebtID,
		SplitExpenseID: req.SplitExpenseID,
		Status:         models.TxnPending,
		Description:    req.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTransaction(r.Context(), txn); err != nil {
		respondError(w, err)
		return
	}

	slog.Info("Payment intent created",
		"user_id", userID, "transaction_id", txn.ID, "type", req.Type, "amount", amount.String())
	httpx.JSON(w, http.StatusCreated, createIntentResponse{
		TransactionID: txn.ID,
		IntentID:      intent.ID,
		ClientSecret:  intent.ClientSecret,
		Status:        txn.Status,
	})
}

type confirmRequest struct {
	IntentID string `json:"intent_id"`
}

// Confirm re-checks the intent's state at the gateway and applies the
// outcome. The webhook normally lands first; confirm covers clients polling
// before it arrives.
func (s *PaymentService) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	txn, err := s.store.GetTransactionByIntentID(r.Context(), req.IntentID)
	if err != nil {
		respondError(w, err)
		return
	}
	if txn.UserID != middleware.GetUserID(r.Context()) {
		respondError(w, errNotOwner)
		return
	}

	intent, err := s.gateway.GetIntent(r.Context(), req.IntentID)
	if err != nil {
		respondError(w, err)
		return
	}

	switch intent.Status {
	case models.TxnSucceeded, models.TxnFailed:
		if err := s.applyOutcome(r, txn, intent.Status); err != nil {
			respondError(w, err)
			return
		}
	}

	refreshed, err := s.store.GetTransactionByIntentID(r.Context(), req.IntentID)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTransactionResponse(refreshed))
}

// Webhook receives signed gateway events. It is the one unauthenticated
// payment route; the HMAC signature is the auth.
func (s *PaymentService) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.ErrorMsg(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	event, err := s.gateway.VerifyWebhook(payload, r.Header.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, payments.ErrBadSignature) {
			httpx.Error(w, http.StatusUnauthorized, err)
			return
		}
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	txn, err := s.store.GetTransactionByIntentID(r.Context(), event.IntentID)
	if err != nil {
		respondError(w, err)
		return
	}

	var status string
	switch event.Type {
	case "payment.succeeded":
		status = models.TxnSucceeded
	case "payment.failed":
		status = models.TxnFailed
	default:
		httpx.ErrorMsg(w, http.StatusBadRequest, "unknown event type")
		return
	}

	if err := s.applyOutcome(r, txn, status); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

// applyOutcome transitions a pending transaction to its final status and
// applies the side effects: a succeeded debt payment reduces the remaining
// principal, a succeeded split payment records a peer settlement toward the
// creator. Transactions already in a final state are left untouched, so
// replayed webhooks and confirm races are harmless.
func (s *PaymentService) applyOutcome(r *http.Request, txn *models.Transaction, status string) error {
	if txn.Status != models.TxnPending {
		return nil
	}

	if err := s.store.UpdateTransactionStatus(r.Context(), txn.ID, status, time.Now()); err != nil {
		return err
	}
	if status != models.TxnSucceeded {
		slog.Info("Payment failed", "transaction_id", txn.ID)
		return nil
	}

	switch txn.Type {
	case models.TxnDebtPayment:
		debt, err := s.store.GetDebt(r.Context(), txn.DebtID)
		if err != nil {
			return err
		}
		debt.RemainingAmount = debt.RemainingAmount.Sub(txn.Amount)
		if !debt.RemainingAmount.IsPositive() {
			debt.RemainingAmount = decimal.Zero
			debt.Status = models.DebtPaid
		}
		if err := s.store.UpdateDebt(r.Context(), debt); err != nil {
			return err
		}

	case models.TxnSplitPayment:
		split, err := s.store.GetSplitExpense(r.Context(), txn.SplitExpenseID)
		if err != nil {
			return err
		}
		settlement := &models.Settlement{
			FromUserID: txn.UserID,
			ToUserID:   split.CreatedBy,
			Amount:     txn.Amount,
			CreatedAt:  time.Now().Unix(),
		}
		if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
			return err
		}
	}

	slog.Info("Payment succeeded", "transaction_id", txn.ID, "type", txn.Type)
	return nil
}

// Transactions lists the caller's payment history, newest first.
func (s *PaymentService) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.ListTransactions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, newTransactionResponse(t))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/ledger"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/storage"
)

// GroupService handles groups, membership, group expenses and the
// group-scope ledger endpoints.
type GroupService struct {
	store  storage.Store
	mailer notifier.Mailer
}

// NewGroupService creates a group service.
func NewGroupService(store storage.Store, mailer notifier.Mailer) *GroupService {
	return &GroupService{store: store, mailer: mailer}
}

// requireMember loads the caller's accepted membership in the group.
func (s *GroupService) requireMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	member, err := s.store.GetGroupMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errNotMember
		}
		return nil, err
	}
	if member.Status != models.MemberAccepted {
		return nil, errNotMember
	}
	return member, nil
}

// requireAdmin loads the caller's membership and checks the admin role.
func (s *GroupService) requireAdmin(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	member, err := s.requireMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin {
		return nil, errNotAdmin
	}
	return member, nil
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

type groupResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	CreatedBy   int64  `json:"created_by"`
}

func newGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Currency:    g.Currency,
		CreatedBy:   g.CreatedBy,
	}
}

type groupMemberResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type groupDetailResponse struct {
	groupResponse
	Members []groupMemberResponse `json:"members"`
}

// Create creates a group with the caller as its admin.
func (s *GroupService) Create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Currency == "" {
		req.Currency = "INR"
	}

	userID := middleware.GetUserID(r.Context())
	now := time.Now().Unix()
	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		CreatedBy:   userID,
		IsActive:    true,
		CreatedAt:   now,
	}
	creator := &models.GroupMember{
		UserID:   userID,
		Role:     models.RoleAdmin,
		Status:   models.MemberAccepted,
		JoinedAt: now,
	}
	if err := s.store.CreateGroup(r.Context(), group, creator); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newGroupResponse(group))
}

// List returns the groups the caller is an accepted member of.
func (s *GroupService) List(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroupsForUser(r.Context(), middleware.GetUserID(r.Context()), models.MemberAccepted)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, newGroupResponse(g))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Get returns one group with its member list.
func (s *GroupService) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	members, err := s.store.ListGroupMembers(r.Context(), groupID, "")
	if err != nil {
		respondError(w, err)
		return
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.store.GetUsersByIDs(r.Context(), ids)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := groupDetailResponse{groupResponse: newGroupResponse(group)}
	for _, m := range members {
		username := ""
		if u, ok := users[m.UserID]; ok {
			username = u.Username
		}
		resp.Members = append(resp.Members, groupMemberResponse{
			UserID:   m.UserID,
			Username: username,
			Role:     m.Role,
			Status:   m.Status,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Update changes a group's name, description or currency. Admin only.
func (s *GroupService) Update(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	var req groupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		httpx.ErrorMsg(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	group.Name = req.Name
	group.Description = req.Description
	if req.Currency != "" {
		group.Currency = req.Currency
	}
	if err := s.store.UpdateGroup(r.Context(), group); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newGroupResponse(group))
}

// Delete removes a group and everything in it. Admin only.
func (s *GroupService) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.DeleteGroup(r.Context(), groupID); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "group deleted"})
}

type inviteRequest struct {
	Username string `json:"username"`
}

// Invite invites the named user into the group. Any accepted member can
// invite.
func (s *GroupService) Invite(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	if _, err := s.requireMember(r.Context(), groupID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req inviteRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	invitee, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, err)
		return
	}
	if invitee.ID == userID {
		respondError(w, fmt.Errorf("%w: cannot invite yourself", errSelfReference))
		return
	}

	if _, err := s.store.GetGroupMember(r.Context(), groupID, invitee.ID); err == nil {
		respondError(w, fmt.Errorf("%w: user is already in the group", errAlreadyExists))
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondError(w, err)
		return
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   invitee.ID,
		Role:     models.RoleMember,
		Status:   models.MemberInvited,
		JoinedAt: time.Now().Unix(),
	}
	if err := s.store.AddGroupMember(r.Context(), member); err != nil {
		respondError(w, err)
		return
	}

	group, err := s.store.GetGroup(r.Context(), groupID)
	if err == nil {
		sendMailAsync(s.mailer, invitee.Email,
			"Group invitation",
			fmt.Sprintf("<p>Hi %s,</p><p>%s invited you to the group <b>%s</b>.</p>",
				invitee.Username, middleware.GetUsername(r.Context()), group.Name),
		)
	}

	httpx.JSON(w, http.StatusCreated, groupMemberResponse{
		UserID:   invitee.ID,
		Username: invitee.Username,
		Role:     member.Role,
		Status:   member.Status,
	})
}

// PendingInvitations returns the groups the caller has been invited to but
// has not joined yet.
func (s *GroupService) PendingInvitations(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroupsForUser(r.Context(), middleware.GetUserID(r.Context()), models.MemberInvited)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, newGroupResponse(g))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Join accepts a pending group invitation.
func (s *GroupService) Join(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())

	member, err := s.store.GetGroupMember(r.Context(), groupID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, errNotInvited)
			return
		}
		respondError(w, err)
		return
	}
	if member.Status != models.MemberInvited {
		respondError(w, fmt.Errorf("%w: already a member", errAlreadyExists))
		return
	}

	member.Status = models.MemberAccepted
	member.JoinedAt = time.Now().Unix()
	if err := s.store.UpdateGroupMember(r.Context(), member); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "joined group"})
}

type memberUpdateRequest struct {
	Role string `json:"role"`
}

// UpdateMember changes another member's role. Admin only.
func (s *GroupService) UpdateMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	targetID, err := httpx.PathID(r, "userID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireAdmin(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	var req memberUpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleMember {
		httpx.ErrorMsg(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	member, err := s.store.GetGroupMember(r.Context(), groupID, targetID)
	if err != nil {
		respondError(w, err)
		return
	}
	member.Role = req.Role
	if err := s.store.UpdateGroupMember(r.Context(), member); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "member updated"})
}

// RemoveMember removes a member from the group. Admins can remove anyone;
// members can remove themselves (leave).
func (s *GroupService) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	targetID, err := httpx.PathID(r, "userID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if targetID != userID {
		if _, err := s.requireAdmin(r.Context(), groupID, userID); err != nil {
			respondError(w, err)
			return
		}
	} else if _, err := s.requireMember(r.Context(), groupID, userID); err != nil {
		respondError(w, err)
		return
	}

	if err := s.store.RemoveGroupMember(r.Context(), groupID, targetID); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "member removed"})
}

type expenseShareRequest struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type groupExpenseRequest struct {
	Description string                `json:"description"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Category    string                `json:"category"`
	Date        string                `json:"date"`
	PaidBy      int64                 `json:"paid_by"`
	Shares      []expenseShareRequest `json:"shares"`
}

type expenseShareResponse struct {
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type groupExpenseResponse struct {
	ID          int64                  `json:"id"`
	GroupID     int64                  `json:"group_id"`
	Description string                 `json:"description"`
	TotalAmount decimal.Decimal        `json:"total_amount"`
	Category    string                 `json:"category"`
	Date        string                 `json:"date"`
	PaidBy      int64                  `json:"paid_by"`
	Shares      []expenseShareResponse `json:"shares"`
}

func newGroupExpenseResponse(e *models.GroupExpense) groupExpenseResponse {
	resp := groupExpenseResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		TotalAmount: e.TotalAmount,
		Category:    e.Category,
		Date:        e.Date.Format(dateLayout),
		PaidBy:      e.PaidBy,
	}
	for _, sh := range e.Shares {
		resp.Shares = append(resp.Shares, expenseShareResponse{UserID: sh.UserID, Amount: sh.Amount})
	}
	return resp
}

// resolveShares turns the request shares into validated model shares. Empty
// shares mean an equal split across all accepted members, with the rounding
// remainder on the payer.
func (s *GroupService) resolveShares(ctx context.Context, groupID, payerID int64, total decimal.Decimal, reqShares []expenseShareRequest) ([]models.ExpenseShare, error) {
	members, err := s.store.ListGroupMembers(ctx, groupID, models.MemberAccepted)
	if err != nil {
		return nil, err
	}
	accepted := make(map[int64]bool, len(members))
	for _, m := range members {
		accepted[m.UserID] = true
	}
	if !accepted[payerID] {
		return nil, fmt.Errorf("%w: payer %d", errNotMember, payerID)
	}

	if len(reqShares) == 0 {
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		shares, err := ledger.EqualShares(total, payerID, ids)
		if err != nil {
			return nil, err
		}
		out := make([]models.ExpenseShare, 0, len(shares))
		for _, sh := range shares {
			out = append(out, models.ExpenseShare{UserID: sh.ParticipantID, Amount: sh.Amount})
		}
		return out, nil
	}

	ledgerShares := make([]ledger.Share, 0, len(reqShares))
	out := make([]models.ExpenseShare, 0, len(reqShares))
	for _, sh := range reqShares {
		if !accepted[sh.UserID] {
			return nil, fmt.Errorf("%w: share user %d", errNotMember, sh.UserID)
		}
		if sh.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: share for user %d is negative", ledger.ErrInvalidExpense, sh.UserID)
		}
		ledgerShares = append(ledgerShares, ledger.Share{ParticipantID: sh.UserID, Amount: sh.Amount})
		out = append(out, models.ExpenseShare{UserID: sh.UserID, Amount: sh.Amount.Round(2)})
	}
	if err := ledger.ValidateShares(total, ledgerShares); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateExpense records a shared expense inside the group.
func (s *GroupService) CreateExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	if _, err := s.requireMember(r.Context(), groupID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req groupExpenseRequest
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

	payerID := req.PaidBy
	if payerID == 0 {
		payerID = userID
	}

	total := req.TotalAmount.Round(2)
	shares, err := s.resolveShares(r.Context(), groupID, payerID, total, req.Shares)
	if err != nil {
		respondError(w, err)
		return
	}

	expense := &models.GroupExpense{
		GroupID:     groupID,
		Description: req.Description,
		TotalAmount: total,
		Category:    req.Category,
		Date:        date,
		PaidBy:      payerID,
		Shares:      shares,
		CreatedAt:   time.Now().Unix(),
	}
	if err := s.store.CreateGroupExpense(r.Context(), expense); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newGroupExpenseResponse(expense))
}

// ListExpenses returns the group's expenses, newest first.
func (s *GroupService) ListExpenses(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	expenses, err := s.store.ListGroupExpenses(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]groupExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, newGroupExpenseResponse(e))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// UpdateExpense replaces a group expense. Only the payer or a group admin may
// edit it.
func (s *GroupService) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	expenseID, err := httpx.PathID(r, "expenseID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	member, err := s.requireMember(r.Context(), groupID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.store.GetGroupExpense(r.Context(), expenseID)
	if err != nil {
		respondError(w, err)
		return
	}
	if expense.GroupID != groupID {
		respondError(w, storage.ErrNotFound)
		return
	}
	if expense.PaidBy != userID && member.Role != models.RoleAdmin {
		respondError(w, fmt.Errorf("%w: only the payer or an admin can edit an expense", errNotOwner))
		return
	}

	var req groupExpenseRequest
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

	payerID := req.PaidBy
	if payerID == 0 {
		payerID = expense.PaidBy
	}

	total := req.TotalAmount.Round(2)
	shares, err := s.resolveShares(r.Context(), groupID, payerID, total, req.Shares)
	if err != nil {
		respondError(w, err)
		return
	}

	expense.Description = req.Description
	expense.TotalAmount = total
	expense.Category = req.Category
	expense.Date = date
	expense.PaidBy = payerID
	expense.Shares = shares
	if err := s.store.UpdateGroupExpense(r.Context(), expense); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newGroupExpenseResponse(expense))
}

// DeleteExpense removes a group expense. Only the payer or a group admin may
// delete it.
func (s *GroupService) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	expenseID, err := httpx.PathID(r, "expenseID")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	member, err := s.requireMember(r.Context(), groupID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	expense, err := s.store.GetGroupExpense(r.Context(), expenseID)
	if err != nil {
		respondError(w, err)
		return
	}
	if expense.GroupID != groupID {
		respondError(w, storage.ErrNotFound)
		return
	}
	if expense.PaidBy != userID && member.Role != models.RoleAdmin {
		respondError(w, fmt.Errorf("%w: only the payer or an admin can delete an expense", errNotOwner))
		return
	}

	if err := s.store.DeleteGroupExpense(r.Context(), expenseID); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "expense deleted"})
}

// groupSnapshot loads the participants, expenses and settlements of a group
// as ledger inputs. Participants follow the member join order, which keeps
// balance and suggestion output stable for a fixed snapshot.
func (s *GroupService) groupSnapshot(ctx context.Context, groupID int64) ([]ledger.Participant, []ledger.SharedExpense, []ledger.Settlement, error) {
	members, err := s.store.ListGroupMembers(ctx, groupID, models.MemberAccepted)
	if err != nil {
		return nil, nil, nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, err
	}

	participants := make([]ledger.Participant, 0, len(members))
	for _, m := range members {
		username := ""
		if u, ok := users[m.UserID]; ok {
			username = u.Username
		}
		participants = append(participants, ledger.Participant{ID: m.UserID, Username: username})
	}

	groupExpenses, err := s.store.ListGroupExpenses(ctx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	expenses := make([]ledger.SharedExpense, 0, len(groupExpenses))
	for _, e := range groupExpenses {
		shares := make([]ledger.Share, 0, len(e.Shares))
		for _, sh := range e.Shares {
			shares = append(shares, ledger.Share{ParticipantID: sh.UserID, Amount: sh.Amount})
		}
		expenses = append(expenses, ledger.SharedExpense{
			ID:          e.ID,
			Description: e.Description,
			Total:       e.TotalAmount,
			PayerID:     e.PaidBy,
			Shares:      shares,
		})
	}

	groupSettlements, err := s.store.ListGroupSettlements(ctx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}

	return participants, expenses, settlementsToLedger(groupSettlements), nil
}

type memberBalanceResponse struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// Balances recomputes the group ledger and returns one net balance per
// accepted member.
func (s *GroupService) Balances(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	participants, expenses, settlements, err := s.groupSnapshot(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	balances, err := ledger.ComputeBalances(expenses, settlements, participants)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]memberBalanceResponse, 0, len(participants))
	for _, p := range participants {
		resp = append(resp, memberBalanceResponse{
			UserID:   p.ID,
			Username: p.Username,
			Balance:  balances[p.ID],
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type suggestionResponse struct {
	FromUserID   int64           `json:"from_user_id"`
	FromUsername string          `json:"from_username"`
	ToUserID     int64           `json:"to_user_id"`
	ToUsername   string          `json:"to_username"`
	Amount       decimal.Decimal `json:"amount"`
}

// SettlementSuggestions proposes transfers that would zero out the group's
// balances. Suggestions are recomputed on every call and never persisted.
func (s *GroupService) SettlementSuggestions(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	participants, expenses, settlements, err := s.groupSnapshot(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	balances, err := ledger.ComputeBalances(expenses, settlements, participants)
	if err != nil {
		respondError(w, err)
		return
	}

	suggestions := ledger.SuggestSettlements(participants, balances)
	resp := make([]suggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		resp = append(resp, suggestionResponse{
			FromUserID:   sg.FromID,
			FromUsername: sg.FromUsername,
			ToUserID:     sg.ToID,
			ToUsername:   sg.ToUsername,
			Amount:       sg.Amount,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type settlementRequest struct {
	ToUserID int64           `json:"to_user_id"`
	Amount   decimal.Decimal `json:"amount"`
}

type settlementResponse struct {
	ID         int64           `json:"id"`
	GroupID    int64           `json:"group_id"`
	FromUserID int64           `json:"from_user_id"`
	ToUserID   int64           `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// CreateSettlement records a real-world payment from the caller to another
// member. Settlements are append-only; balances subtract them on the next
// recomputation.
func (s *GroupService) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())
	if _, err := s.requireMember(r.Context(), groupID, userID); err != nil {
		respondError(w, err)
		return
	}

	var req settlementRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if !req.Amount.IsPositive() {
		respondError(w, fmt.Errorf("%w: settlement amount must be positive", ledger.ErrInvalidExpense))
		return
	}
	if req.ToUserID == userID {
		respondError(w, fmt.Errorf("%w: cannot settle with yourself", errSelfReference))
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, req.ToUserID); err != nil {
		respondError(w, err)
		return
	}

	settlement := &models.Settlement{
		GroupID:    groupID,
		FromUserID: userID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount.Round(2),
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, settlementResponse{
		ID:         settlement.ID,
		GroupID:    settlement.GroupID,
		FromUserID: settlement.FromUserID,
		ToUserID:   settlement.ToUserID,
		Amount:     settlement.Amount,
	})
}

// ListSettlements returns the group's recorded settlements, newest first.
func (s *GroupService) ListSettlements(w http.ResponseWriter, r *http.Request) {
	groupID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	if _, err := s.requireMember(r.Context(), groupID, middleware.GetUserID(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	settlements, err := s.store.ListGroupSettlements(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]settlementResponse, 0, len(settlements))
	for _, st := range settlements {
		resp = append(resp, settlementResponse{
			ID:         st.ID,
			GroupID:    st.GroupID,
			FromUserID: st.FromUserID,
			ToUserID:   st.ToUserID,
			Amount:     st.Amount,
		})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

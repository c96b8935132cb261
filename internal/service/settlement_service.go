package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitx/internal/calculator"
	"github.com/mmynk/splitx/internal/metrics"
	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage"
	"github.com/mmynk/splitx/pkg/api"
)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

var _ api.SettlementServiceHandler = (*SettlementService)(nil)

// NewSettlementService creates a SettlementService. m may be nil.
func NewSettlementService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, metrics: m, logger: logger, now: time.Now}
}

// ListSettlements returns the settlements of a group, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListSettlements failed", err, "group_id", group.ID)
	}

	users, err := loadUsers(ctx, s.store, settlementUserIDs(settlements...))
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListSettlements failed", err, "group_id", group.ID)
	}

	out := make([]api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st, groupRef(group), users)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// CreateSettlement records a pending payment between two members. The caller
// must be one of the two parties.
func (s *SettlementService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("CreateSettlement request received",
		"group_id", msg.GroupID,
		"from_user", msg.FromUser,
		"to_user", msg.ToUser,
		"amount", msg.Amount,
	)

	if msg.FromUser == "" || msg.ToUser == "" || msg.GroupID == "" || msg.Amount == 0 {
		return nil, invalidArgument("please provide all required fields")
	}
	if msg.Amount < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrNonPositiveAmount)
	}
	if msg.FromUser == msg.ToUser {
		return nil, invalidArgument("cannot settle with yourself")
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if msg.FromUser != userID && msg.ToUser != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("can only create settlements involving yourself"))
	}
	if !group.HasMember(msg.FromUser) || !group.HasMember(msg.ToUser) {
		return nil, invalidArgument("both users must be members of this group")
	}

	expenseIDs := unique(msg.ExpenseIDs)
	for _, id := range expenseIDs {
		expense, err := s.store.GetExpense(ctx, id)
		if err != nil {
			return nil, storeError(ctx, s.logger, "failed to load settlement expense", err, errExpenseNotFound, "expense_id", id)
		}
		if expense.GroupID != group.ID {
			return nil, invalidArgument(fmt.Sprintf("expense %q does not belong to this group", id))
		}
	}

	settlement := &models.Settlement{
		GroupID:    group.ID,
		FromUserID: msg.FromUser,
		ToUserID:   msg.ToUser,
		Amount:     msg.Amount,
		Status:     models.SettlementPending,
		ExpenseIDs: expenseIDs,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, internalError(ctx, s.logger, "CreateSettlement failed", err, "group_id", group.ID)
	}

	s.logger.Info("Settlement created", "settlement_id", settlement.ID, "group_id", group.ID)
	return s.settlementResponse(ctx, settlement, group)
}

// UpdateSettlement changes the status or payment reference. Moving to paid
// stamps the payment date and settles the linked expenses.
func (s *SettlementService) UpdateSettlement(ctx context.Context, req *connect.Request[api.UpdateSettlementRequest]) (*connect.Response[api.SettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("UpdateSettlement request received", "settlement_id", msg.SettlementID, "status", msg.Status)

	if msg.SettlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}
	settlement, err := s.store.GetSettlement(ctx, msg.SettlementID)
	if err != nil {
		return nil, storeError(ctx, s.logger, "failed to load settlement", err, errSettlementNotFound, "settlement_id", msg.SettlementID)
	}
	if settlement.FromUserID != userID && settlement.ToUserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotAuthorized)
	}

	if msg.Status != "" {
		status := models.SettlementStatus(msg.Status)
		if !status.Valid() {
			return nil, invalidArgument(fmt.Sprintf("invalid status %q", msg.Status))
		}
		settlement.Status = status
		if status == models.SettlementPaid {
			settlement.PaymentDate = s.now().Unix()
		}
	}
	if msg.PaymentID != "" {
		settlement.PaymentID = msg.PaymentID
	}

	if err := s.store.UpdateSettlement(ctx, settlement); err != nil {
		return nil, storeError(ctx, s.logger, "UpdateSettlement failed", err, errSettlementNotFound, "settlement_id", settlement.ID)
	}

	group, err := loadGroup(ctx, s.store, s.logger, settlement.GroupID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settlement updated", "settlement_id", settlement.ID, "status", settlement.Status)
	return s.settlementResponse(ctx, settlement, group)
}

// GetSettlementSuggestions returns the payments that would settle a group.
func (s *SettlementService) GetSettlementSuggestions(ctx context.Context, req *connect.Request[api.GetSettlementSuggestionsRequest]) (*connect.Response[api.SettlementSuggestionsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := balanceInputs(ctx, s.store, group.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetSettlementSuggestions failed", err, "group_id", group.ID)
	}

	start := time.Now()
	suggestions := calculator.MinimizeSettlements(calculator.ComputeBalances(group.ID, expenses))
	s.metrics.ObserveBalanceComputation(time.Since(start))
	s.metrics.AddSuggestions(len(suggestions))

	return connect.NewResponse(&api.SettlementSuggestionsResponse{
		Suggestions: toAPISuggestions(suggestions),
	}), nil
}

func (s *SettlementService) settlementResponse(ctx context.Context, settlement *models.Settlement, group *models.Group) (*connect.Response[api.SettlementResponse], error) {
	users, err := loadUsers(ctx, s.store, settlementUserIDs(settlement))
	if err != nil {
		return nil, internalError(ctx, s.logger, "failed to resolve settlement users", err, "settlement_id", settlement.ID)
	}
	return connect.NewResponse(&api.SettlementResponse{
		Settlement: toAPISettlement(settlement, groupRef(group), users),
	}), nil
}

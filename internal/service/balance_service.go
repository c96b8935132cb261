package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitx/internal/calculator"
	"github.com/mmynk/splitx/internal/metrics"
	"github.com/mmynk/splitx/internal/money"
	"github.com/mmynk/splitx/internal/storage"
	"github.com/mmynk/splitx/pkg/api"
)

// BalanceService implements the Connect BalanceService.
type BalanceService struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ api.BalanceServiceHandler = (*BalanceService)(nil)

// NewBalanceService creates a BalanceService. m may be nil.
func NewBalanceService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *BalanceService {
	return &BalanceService{store: store, metrics: m, logger: logger}
}

// GetGroupBalances returns every member's position in a group together with
// the payments that would settle the group.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GroupBalancesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groupID := req.Msg.GroupID
	s.logger.Info("GetGroupBalances request received", "group_id", groupID)

	group, err := loadGroupForMember(ctx, s.store, s.logger, groupID, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := balanceInputs(ctx, s.store, group.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetGroupBalances failed", err, "group_id", group.ID)
	}

	start := time.Now()
	ledger := calculator.ComputeBalances(group.ID, expenses)
	suggestions := calculator.MinimizeSettlements(ledger)
	s.metrics.ObserveBalanceComputation(time.Since(start))
	s.metrics.AddSuggestions(len(suggestions))

	entries := ledger.Entries()
	balances := make([]api.Balance, len(entries))
	for i, entry := range entries {
		balances[i] = toAPIBalance(entry)
	}

	s.logger.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"expenses_count", len(expenses),
		"members_count", len(balances),
		"suggestions_count", len(suggestions),
	)

	return connect.NewResponse(&api.GroupBalancesResponse{
		Group:       groupRef(group),
		Balances:    balances,
		Settlements: toAPISuggestions(suggestions),
	}), nil
}

// GetBalanceSummary aggregates the caller's position across their groups.
// Groups in which the caller has no unsettled activity are left out. Totals are
// summed at full precision and rounded once.
func (s *BalanceService) GetBalanceSummary(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.BalanceSummaryResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "GetBalanceSummary failed", err, "user_id", userID)
	}

	var totalPaid, totalOwed float64
	groupBalances := []api.GroupBalance{}
	for _, group := range groups {
		expenses, err := balanceInputs(ctx, s.store, group.ID)
		if err != nil {
			return nil, internalError(ctx, s.logger, "GetBalanceSummary failed", err, "group_id", group.ID)
		}

		entry := calculator.ComputeUserBalance(group.ID, expenses, userID)
		if entry.User == nil {
			continue
		}

		totalPaid += entry.TotalPaid
		totalOwed += entry.TotalOwed
		groupBalances = append(groupBalances, api.GroupBalance{
			Group:      groupRef(group),
			TotalPaid:  money.Round2(entry.TotalPaid),
			TotalOwed:  money.Round2(entry.TotalOwed),
			NetBalance: money.Round2(entry.NetBalance),
		})
	}

	return connect.NewResponse(&api.BalanceSummaryResponse{
		TotalPaid:     money.Round2(totalPaid),
		TotalOwed:     money.Round2(totalOwed),
		NetBalance:    money.Round2(totalPaid - totalOwed),
		GroupBalances: groupBalances,
	}), nil
}

// balanceInputs reads the unsettled expenses of a group with payers and split
// users resolved for display.
func balanceInputs(ctx context.Context, store storage.Store, groupID string) ([]calculator.ExpenseForBalance, error) {
	expenses, err := store.ListUnsettledExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled expenses: %w", err)
	}
	users, err := loadUsers(ctx, store, expenseUserIDs(expenses...))
	if err != nil {
		return nil, err
	}
	return toBalanceExpenses(expenses, users), nil
}

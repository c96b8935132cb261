package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitx/internal/calculator"
	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage"
	"github.com/mmynk/splitx/pkg/api"
)

// myExpensesLimit caps ListMyExpenses.
const myExpensesLimit = 50

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store  storage.Store
	logger *slog.Logger
}

var _ api.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates an ExpenseService backed by store.
func NewExpenseService(store storage.Store, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, logger: logger}
}

// CreateExpense records an expense in a group. The payer defaults to the
// caller; both must be members. Equal splits cover every group member.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"amount", msg.Amount,
		"split_type", msg.SplitType,
	)

	title := strings.TrimSpace(msg.Title)
	if title == "" || msg.Amount == 0 || msg.GroupID == "" {
		return nil, invalidArgument("please provide title, amount, and group")
	}
	if msg.Amount < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrNonPositiveAmount)
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	paidBy := msg.PaidBy
	if paidBy == "" {
		paidBy = userID
	}
	if !group.HasMember(paidBy) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}

	splitType := models.SplitType(msg.SplitType)
	splits, err := buildSplits(group, splitType, msg.Amount, msg.Splits)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Title:       title,
		Amount:      msg.Amount,
		PaidBy:      paidBy,
		GroupID:     group.ID,
		SplitType:   splitType,
		Splits:      splits,
		Description: msg.Description,
		Category:    msg.Category,
		Date:        msg.Date,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, internalError(ctx, s.logger, "CreateExpense failed", err, "group_id", group.ID)
	}

	s.logger.Info("Expense created", "expense_id", expense.ID, "group_id", group.ID)
	return s.expenseResponse(ctx, expense, group)
}

// GetExpense returns an expense of a group the caller belongs to.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, group, err := s.loadExpenseForMember(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}
	return s.expenseResponse(ctx, expense, group)
}

// ListExpensesByGroup returns every expense of a group, newest first.
func (s *ExpenseService) ListExpensesByGroup(ctx context.Context, req *connect.Request[api.ListExpensesByGroupRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListExpensesByGroup failed", err, "group_id", group.ID)
	}

	return s.listResponse(ctx, expenses, map[string]*models.Group{group.ID: group})
}

// ListMyExpenses returns the most recent expenses across the caller's groups.
func (s *ExpenseService) ListMyExpenses(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListMyExpenses failed", err, "user_id", userID)
	}

	byID := make(map[string]*models.Group, len(groups))
	groupIDs := make([]string, len(groups))
	for i, g := range groups {
		byID[g.ID] = g
		groupIDs[i] = g.ID
	}

	expenses, err := s.store.ListExpensesByGroups(ctx, groupIDs, myExpensesLimit)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListMyExpenses failed", err, "user_id", userID)
	}

	return s.listResponse(ctx, expenses, byID)
}

// UpdateExpense changes the fields present in the request. Splits are rebuilt
// when the amount or split type changes, or when new custom splits are sent.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	s.logger.Info("UpdateExpense request received", "expense_id", msg.ExpenseID)

	expense, group, err := s.loadExpenseForMember(ctx, msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(msg.Title); title != "" {
		expense.Title = title
	}
	if msg.Description != nil {
		expense.Description = *msg.Description
	}
	if msg.Category != "" {
		expense.Category = msg.Category
	}
	if msg.Date != 0 {
		expense.Date = msg.Date
	}
	if msg.Amount != nil {
		if *msg.Amount <= 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument, calculator.ErrNonPositiveAmount)
		}
		expense.Amount = *msg.Amount
	}
	if msg.SplitType != "" {
		expense.SplitType = models.SplitType(msg.SplitType)
	}

	if msg.Amount != nil || msg.SplitType != "" || len(msg.Splits) > 0 {
		inputs := msg.Splits
		if len(inputs) == 0 && expense.SplitType == models.SplitTypeCustom {
			inputs = make([]api.SplitInput, len(expense.Splits))
			for i, split := range expense.Splits {
				inputs[i] = api.SplitInput{UserID: split.UserID, Amount: split.Amount}
			}
		}
		splits, err := buildSplits(group, expense.SplitType, expense.Amount, inputs)
		if err != nil {
			return nil, err
		}
		expense.Splits = splits
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, storeError(ctx, s.logger, "UpdateExpense failed", err, errExpenseNotFound, "expense_id", expense.ID)
	}

	s.logger.Info("Expense updated", "expense_id", expense.ID)
	return s.expenseResponse(ctx, expense, group)
}

// DeleteExpense removes an expense of a group the caller belongs to.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, _, err := s.loadExpenseForMember(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, storeError(ctx, s.logger, "DeleteExpense failed", err, errExpenseNotFound, "expense_id", expense.ID)
	}

	s.logger.Info("Expense deleted", "expense_id", expense.ID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// buildSplits derives the stored splits for an expense of group.
func buildSplits(group *models.Group, splitType models.SplitType, amount float64, inputs []api.SplitInput) ([]models.Split, error) {
	var (
		shares []calculator.Share
		err    error
	)
	switch splitType {
	case models.SplitTypeEqual:
		shares, err = calculator.EqualSplits(amount, group.Members)
	case models.SplitTypeCustom:
		shareInputs := make([]calculator.ShareInput, len(inputs))
		for i, in := range inputs {
			if !group.HasMember(in.UserID) {
				return nil, invalidArgument(fmt.Sprintf("split user %q is not a member of this group", in.UserID))
			}
			shareInputs[i] = calculator.ShareInput{UserID: in.UserID, Amount: in.Amount}
		}
		shares, err = calculator.CustomSplits(amount, shareInputs)
	default:
		err = calculator.ErrNoSplits
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	splits := make([]models.Split, len(shares))
	for i, share := range shares {
		splits[i] = models.Split{UserID: share.UserID, Amount: share.Amount, Percentage: share.Percentage}
	}
	return splits, nil
}

func (s *ExpenseService) loadExpenseForMember(ctx context.Context, expenseID, userID string) (*models.Expense, *models.Group, error) {
	if expenseID == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, storeError(ctx, s.logger, "failed to load expense", err, errExpenseNotFound, "expense_id", expenseID)
	}

	group, err := loadGroup(ctx, s.store, s.logger, expense.GroupID)
	if err != nil {
		return nil, nil, err
	}
	if !group.HasMember(userID) {
		return nil, nil, connect.NewError(connect.CodePermissionDenied, errNotAuthorized)
	}
	return expense, group, nil
}

func (s *ExpenseService) expenseResponse(ctx context.Context, expense *models.Expense, group *models.Group) (*connect.Response[api.ExpenseResponse], error) {
	users, err := loadUsers(ctx, s.store, expenseUserIDs(expense))
	if err != nil {
		return nil, internalError(ctx, s.logger, "failed to resolve expense users", err, "expense_id", expense.ID)
	}
	return connect.NewResponse(&api.ExpenseResponse{
		Expense: toAPIExpense(expense, groupRef(group), users),
	}), nil
}

func (s *ExpenseService) listResponse(ctx context.Context, expenses []*models.Expense, groups map[string]*models.Group) (*connect.Response[api.ListExpensesResponse], error) {
	users, err := loadUsers(ctx, s.store, expenseUserIDs(expenses...))
	if err != nil {
		return nil, internalError(ctx, s.logger, "failed to resolve expense users", err)
	}

	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		ref := api.GroupRef{ID: e.GroupID}
		if g, ok := groups[e.GroupID]; ok {
			ref = groupRef(g)
		}
		out[i] = toAPIExpense(e, ref, users)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}


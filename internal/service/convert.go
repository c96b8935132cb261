package service

import (
	"context"
	"fmt"

	"github.com/mmynk/splitx/internal/calculator"
	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/money"
	"github.com/mmynk/splitx/internal/storage"
	"github.com/mmynk/splitx/pkg/api"
)

// userDirectory resolves user IDs for responses. Unknown IDs resolve to a
// reference carrying only the ID.
type userDirectory map[string]*models.User

func loadUsers(ctx context.Context, store storage.UserStore, ids []string) (userDirectory, error) {
	if len(ids) == 0 {
		return userDirectory{}, nil
	}
	users, err := store.GetUsersByIDs(ctx, unique(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	return userDirectory(users), nil
}

func (d userDirectory) ref(id string) calculator.UserRef {
	if u, ok := d[id]; ok {
		return calculator.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return calculator.UserRef{ID: id}
}

func (d userDirectory) user(id string) api.User {
	if u, ok := d[id]; ok {
		return toAPIUser(u)
	}
	return api.User{ID: id}
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func groupRef(g *models.Group) api.GroupRef {
	return api.GroupRef{ID: g.ID, Name: g.Name}
}

func groupUserIDs(groups ...*models.Group) []string {
	var ids []string
	for _, g := range groups {
		ids = append(ids, g.CreatedBy)
		ids = append(ids, g.Members...)
	}
	return ids
}

func toAPIGroup(g *models.Group, users userDirectory) api.Group {
	members := make([]api.User, len(g.Members))
	for i, id := range g.Members {
		members[i] = users.user(id)
	}
	return api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Type:        string(g.Type),
		CreatedBy:   users.user(g.CreatedBy),
		Members:     members,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func expenseUserIDs(expenses ...*models.Expense) []string {
	var ids []string
	for _, e := range expenses {
		ids = append(ids, e.PaidBy)
		for _, s := range e.Splits {
			ids = append(ids, s.UserID)
		}
	}
	return ids
}

func toAPIExpense(e *models.Expense, group api.GroupRef, users userDirectory) api.Expense {
	splits := make([]api.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = api.Split{
			User:       users.user(s.UserID),
			Amount:     s.Amount,
			Percentage: s.Percentage,
		}
	}
	return api.Expense{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount,
		PaidBy:      users.user(e.PaidBy),
		Group:       group,
		SplitType:   string(e.SplitType),
		Splits:      splits,
		Description: e.Description,
		Category:    e.Category,
		Date:        e.Date,
		IsSettled:   e.IsSettled,
		CreatedAt:   e.CreatedAt,
	}
}

func settlementUserIDs(settlements ...*models.Settlement) []string {
	var ids []string
	for _, s := range settlements {
		ids = append(ids, s.FromUserID, s.ToUserID)
	}
	return ids
}

func toAPISettlement(s *models.Settlement, group api.GroupRef, users userDirectory) api.Settlement {
	expenseIDs := s.ExpenseIDs
	if expenseIDs == nil {
		expenseIDs = []string{}
	}
	return api.Settlement{
		ID:          s.ID,
		Group:       group,
		FromUser:    users.user(s.FromUserID),
		ToUser:      users.user(s.ToUserID),
		Amount:      s.Amount,
		Status:      string(s.Status),
		PaymentID:   s.PaymentID,
		PaymentDate: s.PaymentDate,
		ExpenseIDs:  expenseIDs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// toBalanceExpenses prepares stored expenses for the calculator.
func toBalanceExpenses(expenses []*models.Expense, users userDirectory) []calculator.ExpenseForBalance {
	out := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		splits := make([]calculator.SplitShare, len(e.Splits))
		for j, s := range e.Splits {
			splits[j] = calculator.SplitShare{User: users.ref(s.UserID), Amount: s.Amount}
		}
		out[i] = calculator.ExpenseForBalance{
			ID:        e.ID,
			GroupID:   e.GroupID,
			Amount:    e.Amount,
			PaidBy:    users.ref(e.PaidBy),
			Splits:    splits,
			IsSettled: e.IsSettled,
		}
	}
	return out
}

func toAPIBalance(entry calculator.LedgerEntry) api.Balance {
	b := api.Balance{
		UserID:     entry.UserID,
		TotalPaid:  money.Round2(entry.TotalPaid),
		TotalOwed:  money.Round2(entry.TotalOwed),
		NetBalance: money.Round2(entry.NetBalance),
	}
	if entry.User != nil {
		b.User = &api.User{ID: entry.User.ID, Name: entry.User.Name, Email: entry.User.Email}
	}
	return b
}

func toAPISuggestions(suggestions []calculator.Suggestion) []api.Suggestion {
	out := make([]api.Suggestion, len(suggestions))
	for i, s := range suggestions {
		out[i] = api.Suggestion{
			FromUser:     s.FromUser,
			FromUserName: s.FromUserName,
			ToUser:       s.ToUser,
			ToUserName:   s.ToUserName,
			Amount:       s.Amount,
		}
	}
	return out
}

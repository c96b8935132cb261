// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitx/internal/models"
)

// ErrNotFound is wrapped by every lookup that finds no row.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	// ID, CreatedAt and UpdatedAt are populated by the store when empty.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByMember returns the groups userID belongs to, most recently updated first.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// UpdateGroup updates name, description and type. Members are unchanged.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes the group with its expenses and settlements.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMembers appends members, ignoring those already present.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces the expense fields and its splits.
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns all expenses of a group, newest date first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListUnsettledExpensesByGroup returns the expenses that still count towards balances.
	ListUnsettledExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpensesByGroups returns up to limit expenses across groups, newest date first.
	ListExpensesByGroups(ctx context.Context, groupIDs []string, limit int) ([]*models.Expense, error)
}

// SettlementStore persists settlements.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// UpdateSettlement writes status and payment fields. When the status is paid,
	// the linked expenses are marked settled in the same transaction.
	UpdateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup returns the settlements of a group, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	SettlementStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitx/internal/models"
)

const expenseColumns = `id, title, amount, paid_by, group_id, split_type, description, category, date, is_settled, created_at`

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	expense := &models.Expense{}
	var splitType string
	var settled int
	err := row.Scan(&expense.ID, &expense.Title, &expense.Amount, &expense.PaidBy,
		&expense.GroupID, &splitType, &expense.Description, &expense.Category,
		&expense.Date, &settled, &expense.CreatedAt)
	expense.SplitType = models.SplitType(splitType)
	expense.IsSettled = settled != 0
	return expense, err
}

// CreateExpense persists a new expense with its splits.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}
	if expense.Category == "" {
		expense.Category = models.DefaultCategory
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.Title, expense.Amount, expense.PaidBy, expense.GroupID,
			string(expense.SplitType), expense.Description, expense.Category,
			expense.Date, boolToInt(expense.IsSettled), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

func (s *Store) insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, split := range expense.Splits {
		_, err := s.exec(ctx, tx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, percentage, position) VALUES (?, ?, ?, ?, ?)",
			expense.ID, split.UserID, split.Amount, split.Percentage, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.queryRow(ctx, s.db,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.attachSplits(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an expense's fields and splits.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx,
			`UPDATE expenses SET title = ?, amount = ?, paid_by = ?, split_type = ?,
			 description = ?, category = ?, date = ?, is_settled = ?
			 WHERE id = ?`,
			expense.Title, expense.Amount, expense.PaidBy, string(expense.SplitType),
			expense.Description, expense.Category, expense.Date,
			boolToInt(expense.IsSettled), expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := requireAffected(result, "expense", expense.ID); err != nil {
			return err
		}

		if _, err := s.exec(ctx, tx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to delete old splits: %w", err)
		}
		return s.insertSplits(ctx, tx, expense)
	})
}

// DeleteExpense removes an expense and its splits.
func (s *Store) DeleteExpense(ctx context.Context, expenseID string) error {
	result, err := s.exec(ctx, s.db, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return requireAffected(result, "expense", expenseID)
}

// ListExpensesByGroup retrieves all expenses of a group, newest date first.
func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ?
		 ORDER BY date DESC, created_at DESC`,
		groupID,
	)
}

// ListUnsettledExpensesByGroup retrieves the expenses that still count towards balances.
// Oldest first, so ledgers list users in the order they became active.
func (s *Store) ListUnsettledExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? AND is_settled = 0
		 ORDER BY created_at, date`,
		groupID,
	)
}

// ListExpensesByGroups retrieves up to limit expenses across several groups.
func (s *Store) ListExpensesByGroups(ctx context.Context, groupIDs []string, limit int) ([]*models.Expense, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	args := append(stringArgs(groupIDs), limit)
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id IN (`+placeholders(len(groupIDs))+`)
		 ORDER BY date DESC, created_at DESC
		 LIMIT ?`,
		args...,
	)
}

func (s *Store) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if err := s.attachSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// attachSplits loads splits for all expenses with one query.
func (s *Store) attachSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := s.query(ctx, s.db,
		`SELECT expense_id, user_id, amount, percentage FROM expense_splits
		 WHERE expense_id IN (`+placeholders(len(ids))+`)
		 ORDER BY expense_id, position`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var split models.Split
		if err := rows.Scan(&expenseID, &split.UserID, &split.Amount, &split.Percentage); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}

	return nil
}

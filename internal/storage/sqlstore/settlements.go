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

const settlementColumns = `id, group_id, from_user_id, to_user_id, amount, status, payment_id, payment_date, created_at, updated_at`

func scanSettlement(row interface{ Scan(...any) error }) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var status string
	err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID,
		&settlement.ToUserID, &settlement.Amount, &status, &settlement.PaymentID,
		&settlement.PaymentDate, &settlement.CreatedAt, &settlement.UpdatedAt)
	settlement.Status = models.SettlementStatus(status)
	return settlement, err
}

// CreateSettlement persists a new settlement to the database.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.UpdatedAt == 0 {
		settlement.UpdatedAt = settlement.CreatedAt
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			`INSERT INTO settlements (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
			settlement.Amount, string(settlement.Status), settlement.PaymentID,
			settlement.PaymentDate, settlement.CreatedAt, settlement.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}

		for _, expenseID := range settlement.ExpenseIDs {
			_, err := s.exec(ctx, tx,
				`INSERT INTO settlement_expenses (settlement_id, expense_id) VALUES (?, ?)
				 ON CONFLICT (settlement_id, expense_id) DO NOTHING`,
				settlement.ID, expenseID,
			)
			if err != nil {
				return fmt.Errorf("failed to link settlement expense: %w", err)
			}
		}
		return nil
	})
}

// GetSettlement retrieves a settlement by ID.
func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.queryRow(ctx, s.db,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`, settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("settlement", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	if err := s.attachSettlementExpenses(ctx, []*models.Settlement{settlement}); err != nil {
		return nil, err
	}
	return settlement, nil
}

// UpdateSettlement writes the status and payment fields. Moving to paid marks the
// linked expenses settled in the same transaction.
func (s *Store) UpdateSettlement(ctx context.Context, settlement *models.Settlement) error {
	settlement.UpdatedAt = time.Now().Unix()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx,
			`UPDATE settlements SET status = ?, payment_id = ?, payment_date = ?, updated_at = ?
			 WHERE id = ?`,
			string(settlement.Status), settlement.PaymentID, settlement.PaymentDate,
			settlement.UpdatedAt, settlement.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		}
		if err := requireAffected(result, "settlement", settlement.ID); err != nil {
			return err
		}

		if settlement.Status != models.SettlementPaid || len(settlement.ExpenseIDs) == 0 {
			return nil
		}

		args := append([]any{settlement.GroupID}, stringArgs(settlement.ExpenseIDs)...)
		_, err = s.exec(ctx, tx,
			`UPDATE expenses SET is_settled = 1
			 WHERE group_id = ? AND id IN (`+placeholders(len(settlement.ExpenseIDs))+`)`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to mark expenses settled: %w", err)
		}
		return nil
	})
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *Store) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = ?
		 ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	rows.Close()

	if err := s.attachSettlementExpenses(ctx, settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

func (s *Store) attachSettlementExpenses(ctx context.Context, settlements []*models.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}

	byID := make(map[string]*models.Settlement, len(settlements))
	ids := make([]string, len(settlements))
	for i, st := range settlements {
		byID[st.ID] = st
		ids[i] = st.ID
	}

	rows, err := s.query(ctx, s.db,
		`SELECT settlement_id, expense_id FROM settlement_expenses
		 WHERE settlement_id IN (`+placeholders(len(ids))+`)
		 ORDER BY settlement_id, expense_id`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get settlement expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var settlementID, expenseID string
		if err := rows.Scan(&settlementID, &expenseID); err != nil {
			return fmt.Errorf("failed to scan settlement expense: %w", err)
		}
		if st, ok := byID[settlementID]; ok {
			st.ExpenseIDs = append(st.ExpenseIDs, expenseID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate settlement expenses: %w", err)
	}

	return nil
}

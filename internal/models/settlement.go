package models

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementPaid      SettlementStatus = "paid"
	SettlementCancelled SettlementStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementPending, SettlementPaid, SettlementCancelled:
		return true
	}
	return false
}

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who pays (debtor settling up).
	FromUserID string

	// ToUserID is the user who receives payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount float64

	// Status starts as pending. Moving to paid marks ExpenseIDs as settled.
	Status SettlementStatus

	// PaymentID is an optional external payment reference.
	PaymentID string

	// PaymentDate is the Unix timestamp when the settlement was marked paid, 0 otherwise.
	PaymentDate int64

	// ExpenseIDs are the expenses this settlement clears.
	ExpenseIDs []string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status change.
	UpdatedAt int64
}

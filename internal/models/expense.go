package models

// SplitType describes how an expense is divided.
type SplitType string

const (
	// SplitTypeEqual divides the amount evenly among all group members.
	SplitTypeEqual SplitType = "equal"
	// SplitTypeCustom uses caller-supplied per-member amounts.
	SplitTypeCustom SplitType = "custom"
)

// DefaultCategory is used when an expense is created without a category.
const DefaultCategory = "Other"

// Expense represents money fronted by one member on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Title is the short human-readable name (e.g., "Groceries").
	Title string

	// Amount is the total paid, in currency units.
	Amount float64

	// PaidBy is the user ID of the member who fronted the money.
	PaidBy string

	// GroupID is the group the expense belongs to.
	GroupID string

	// SplitType records how Splits were produced.
	SplitType SplitType

	// Splits are the per-member portions. Their amounts sum to Amount within one cent.
	Splits []Split

	Description string
	Category    string

	// Date is the Unix timestamp of when the expense happened (user supplied).
	Date int64

	// IsSettled is set once a paid settlement covers this expense. Settled expenses
	// no longer count towards balances.
	IsSettled bool

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's portion of an expense.
type Split struct {
	UserID string
	Amount float64

	// Percentage is Amount / expense Amount * 100. Informational only.
	Percentage float64
}

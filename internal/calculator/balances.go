package calculator

import (
	"sort"

	"github.com/mmynk/splitx/internal/money"
)

// UserRef is a resolved user reference carried through the ledger for display.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// SplitShare is one user's portion of an expense.
type SplitShare struct {
	User   UserRef
	Amount float64
}

// ExpenseForBalance is an expense with the minimal information needed for balance
// calculations. Payer and split users must already be resolved by the caller.
type ExpenseForBalance struct {
	ID        string
	GroupID   string
	Amount    float64
	PaidBy    UserRef
	Splits    []SplitShare
	IsSettled bool
}

// LedgerEntry is the balance of one user within a group.
type LedgerEntry struct {
	UserID     string
	User       *UserRef // nil for the zero entry of a user with no activity
	TotalPaid  float64
	TotalOwed  float64
	NetBalance float64 // Positive = owed money, Negative = owes money
}

// Ledger maps user IDs to their entries and remembers the order in which users
// first appeared, so iteration (and therefore settlement tie-breaks) is deterministic.
type Ledger struct {
	entries map[string]*LedgerEntry
	order   []string
}

// NewLedger builds a ledger from precomputed entries, preserving their order.
// Later entries for an already present user replace the earlier one.
func NewLedger(entries ...LedgerEntry) *Ledger {
	l := &Ledger{entries: make(map[string]*LedgerEntry, len(entries))}
	for _, e := range entries {
		entry := e
		if _, exists := l.entries[e.UserID]; !exists {
			l.order = append(l.order, e.UserID)
		}
		l.entries[e.UserID] = &entry
	}
	return l
}

func (l *Ledger) ensure(user UserRef) *LedgerEntry {
	if entry, exists := l.entries[user.ID]; exists {
		return entry
	}
	ref := user
	entry := &LedgerEntry{UserID: user.ID, User: &ref}
	l.entries[user.ID] = entry
	l.order = append(l.order, user.ID)
	return entry
}

// Len returns the number of users in the ledger.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Entry returns the entry for userID and whether it exists.
func (l *Ledger) Entry(userID string) (LedgerEntry, bool) {
	entry, ok := l.entries[userID]
	if !ok {
		return LedgerEntry{UserID: userID}, false
	}
	return *entry, true
}

// Entries returns copies of all entries in first-appearance order.
func (l *Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.entries[id])
	}
	return out
}

// ComputeBalances folds the unsettled expenses of a group into a ledger.
//
// Algorithm:
//   - payer contributed +amount (TotalPaid)
//   - each split user owes their split amount (TotalOwed)
//   - net_balance = total_paid - total_owed
//
// Settled expenses and expenses of other groups are skipped. The function never
// fails: authorization and reference resolution belong to the caller.
func ComputeBalances(groupID string, expenses []ExpenseForBalance) *Ledger {
	ledger := NewLedger()

	for _, expense := range expenses {
		if expense.IsSettled {
			continue
		}
		if expense.GroupID != "" && groupID != "" && expense.GroupID != groupID {
			continue
		}

		ledger.ensure(expense.PaidBy).TotalPaid += expense.Amount

		for _, split := range expense.Splits {
			ledger.ensure(split.User).TotalOwed += split.Amount
		}
	}

	for _, entry := range ledger.entries {
		entry.NetBalance = entry.TotalPaid - entry.TotalOwed
	}

	return ledger
}

// ComputeUserBalance returns a single user's entry. A user without activity gets a
// zero entry with a nil User rather than an error.
func ComputeUserBalance(groupID string, expenses []ExpenseForBalance, userID string) LedgerEntry {
	entry, _ := ComputeBalances(groupID, expenses).Entry(userID)
	return entry
}

// Suggestion is a proposed payment from a debtor to a creditor.
type Suggestion struct {
	FromUser     string
	FromUserName string
	ToUser       string
	ToUserName   string
	Amount       float64 // rounded to cents
}

type pending struct {
	userID  string
	name    string
	balance float64
}

func displayName(entry LedgerEntry) string {
	if entry.User != nil && entry.User.Name != "" {
		return entry.User.Name
	}
	return entry.UserID
}

// MinimizeSettlements turns net balances into payments that bring every balance to
// zero, matching the largest debtor with the largest creditor until one of them is
// settled.
//
// The result is in emission order: debtors ascending, creditors descending at the
// time each payment is emitted. Users with equal balances keep ledger order. At most
// n-1 payments are emitted for n non-zero balances. Amounts are rounded only when
// emitted; the running balances keep full precision.
func MinimizeSettlements(ledger *Ledger) []Suggestion {
	suggestions := []Suggestion{}
	if ledger == nil {
		return suggestions
	}

	var people []pending
	for _, entry := range ledger.Entries() {
		if money.IsZero(entry.NetBalance) {
			continue
		}
		people = append(people, pending{
			userID:  entry.UserID,
			name:    displayName(entry),
			balance: entry.NetBalance,
		})
	}

	sort.SliceStable(people, func(a, b int) bool {
		return people[a].balance < people[b].balance
	})

	i, j := 0, len(people)-1
	for i < j {
		debtor := &people[i]
		creditor := &people[j]

		if money.IsZero(debtor.balance) {
			i++
			continue
		}
		if money.IsZero(creditor.balance) {
			j--
			continue
		}
		// Only debtors or only creditors left: the ledger did not conserve.
		if debtor.balance > 0 || creditor.balance < 0 {
			break
		}

		amount := -debtor.balance
		if creditor.balance < amount {
			amount = creditor.balance
		}

		suggestions = append(suggestions, Suggestion{
			FromUser:     debtor.userID,
			FromUserName: debtor.name,
			ToUser:       creditor.userID,
			ToUserName:   creditor.name,
			Amount:       money.Round2(amount),
		})

		debtor.balance += amount
		creditor.balance -= amount

		if money.IsZero(debtor.balance) {
			i++
		}
		if money.IsZero(creditor.balance) {
			j--
		}
	}

	return suggestions
}

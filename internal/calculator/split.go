package calculator

import (
	"errors"

	"github.com/mmynk/splitx/internal/money"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrNoMembers         = errors.New("must have at least one member to split with")
	ErrNoSplits          = errors.New("invalid split type or splits data")
	ErrNegativeSplit     = errors.New("split amounts cannot be negative")
	ErrDuplicateSplit    = errors.New("each user can appear only once in splits")
	ErrSplitSumMismatch  = errors.New("split amounts must equal the total amount")
)

// Share is one user's calculated part of an expense.
type Share struct {
	UserID     string
	Amount     float64
	Percentage float64
}

// ShareInput is a caller-supplied amount for a custom split.
type ShareInput struct {
	UserID string
	Amount float64
}

// EqualSplits divides amount evenly among all members.
// Each share is amount/len(members) at full precision; the sum matches amount within
// money.Tolerance.
func EqualSplits(amount float64, memberIDs []string) ([]Share, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if len(memberIDs) == 0 {
		return nil, ErrNoMembers
	}

	perPerson := amount / float64(len(memberIDs))
	percentage := 100 / float64(len(memberIDs))

	shares := make([]Share, len(memberIDs))
	for i, id := range memberIDs {
		shares[i] = Share{UserID: id, Amount: perPerson, Percentage: percentage}
	}
	return shares, nil
}

// CustomSplits validates caller-supplied amounts against the total and derives the
// informational percentage of each share.
func CustomSplits(amount float64, inputs []ShareInput) ([]Share, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if len(inputs) == 0 {
		return nil, ErrNoSplits
	}

	seen := make(map[string]bool, len(inputs))
	amounts := make([]float64, len(inputs))
	for i, in := range inputs {
		if in.Amount < 0 {
			return nil, ErrNegativeSplit
		}
		if seen[in.UserID] {
			return nil, ErrDuplicateSplit
		}
		seen[in.UserID] = true
		amounts[i] = in.Amount
	}

	if err := ValidateSplits(amount, amounts); err != nil {
		return nil, err
	}

	shares := make([]Share, len(inputs))
	for i, in := range inputs {
		shares[i] = Share{
			UserID:     in.UserID,
			Amount:     in.Amount,
			Percentage: money.Percentage(in.Amount, amount),
		}
	}
	return shares, nil
}

// ValidateSplits checks that split amounts sum to amount within money.Tolerance.
func ValidateSplits(amount float64, splitAmounts []float64) error {
	if !money.Equal(money.Sum(splitAmounts...), amount) {
		return ErrSplitSumMismatch
	}
	return nil
}

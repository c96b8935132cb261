package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestEqualSplits(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		members      []string
		wantErr      error
		validateFunc func(t *testing.T, shares []Share)
	}{
		{
			name:    "three members share evenly",
			amount:  300,
			members: []string{"U1", "U2", "U3"},
			validateFunc: func(t *testing.T, shares []Share) {
				if len(shares) != 3 {
					t.Fatalf("expected 3 shares, got %d", len(shares))
				}
				for i, id := range []string{"U1", "U2", "U3"} {
					if shares[i].UserID != id {
						t.Errorf("share %d user = %s, want %s", i, shares[i].UserID, id)
					}
					if math.Abs(shares[i].Amount-100) > 0.01 {
						t.Errorf("%s amount = %v, want 100", id, shares[i].Amount)
					}
					if math.Abs(shares[i].Percentage-33.33) > 0.01 {
						t.Errorf("%s percentage = %v, want 33.33", id, shares[i].Percentage)
					}
				}
			},
		},
		{
			name:    "non-terminating division stays within tolerance",
			amount:  100,
			members: []string{"U1", "U2", "U3"},
			validateFunc: func(t *testing.T, shares []Share) {
				amounts := make([]float64, len(shares))
				for i, s := range shares {
					amounts[i] = s.Amount
				}
				if err := ValidateSplits(100, amounts); err != nil {
					t.Errorf("equal split of 100 among 3 rejected: %v", err)
				}
			},
		},
		{
			name:    "no members should error",
			amount:  50,
			members: nil,
			wantErr: ErrNoMembers,
		},
		{
			name:    "zero amount should error",
			amount:  0,
			members: []string{"U1"},
			wantErr: ErrNonPositiveAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := EqualSplits(tt.amount, tt.members)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("EqualSplits() error = %v, want %v", err, tt.wantErr)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, shares)
			}
		})
	}
}

func TestCustomSplits(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		inputs  []ShareInput
		wantErr error
	}{
		{
			name:   "exact amounts",
			amount: 80,
			inputs: []ShareInput{{UserID: "U1", Amount: 50}, {UserID: "U2", Amount: 30}},
		},
		{
			name:   "sum within tolerance",
			amount: 100,
			inputs: []ShareInput{{UserID: "U1", Amount: 33.33}, {UserID: "U2", Amount: 33.33}, {UserID: "U3", Amount: 33.33}},
		},
		{
			name:    "sum off by more than a cent",
			amount:  100,
			inputs:  []ShareInput{{UserID: "U1", Amount: 50}, {UserID: "U2", Amount: 49.98}},
			wantErr: ErrSplitSumMismatch,
		},
		{
			name:    "negative split",
			amount:  10,
			inputs:  []ShareInput{{UserID: "U1", Amount: 15}, {UserID: "U2", Amount: -5}},
			wantErr: ErrNegativeSplit,
		},
		{
			name:    "duplicate user",
			amount:  10,
			inputs:  []ShareInput{{UserID: "U1", Amount: 5}, {UserID: "U1", Amount: 5}},
			wantErr: ErrDuplicateSplit,
		},
		{
			name:    "empty splits",
			amount:  10,
			wantErr: ErrNoSplits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := CustomSplits(tt.amount, tt.inputs)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CustomSplits() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(shares) != len(tt.inputs) {
				t.Fatalf("expected %d shares, got %d", len(tt.inputs), len(shares))
			}
			for i, s := range shares {
				wantPct := tt.inputs[i].Amount / tt.amount * 100
				if math.Abs(s.Percentage-wantPct) > 1e-9 {
					t.Errorf("%s percentage = %v, want %v", s.UserID, s.Percentage, wantPct)
				}
			}
		})
	}
}

package money

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{100, 100},
		{33.333333333, 33.33},
		{66.666666666, 66.67},
		{0.005, 0.01},
		{-0.005, -0.01},
		{2.675, 2.68},
		{-12.344, -12.34},
	}

	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		in   float64
		want bool
	}{
		{0, true},
		{0.009, true},
		{-0.009, true},
		{0.01, true},
		{0.011, false},
		{-5, false},
	}

	for _, tt := range tests {
		if got := IsZero(tt.in); got != tt.want {
			t.Errorf("IsZero(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(100, 33.33+33.33+33.33) {
		t.Error("expected 99.99 to equal 100 within tolerance")
	}
	if Equal(100, 99.98) {
		t.Error("expected 99.98 to differ from 100")
	}
}

func TestSum(t *testing.T) {
	amounts := make([]float64, 0, 1000)
	for i := 0; i < 1000; i++ {
		amounts = append(amounts, 0.1)
	}
	if got := Sum(amounts...); got != 100 {
		t.Errorf("Sum = %v, want exactly 100", got)
	}
	if got := Sum(); got != 0 {
		t.Errorf("Sum() = %v, want 0", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(25, 100); math.Abs(got-25) > 1e-9 {
		t.Errorf("Percentage(25, 100) = %v, want 25", got)
	}
	if got := Percentage(5, 0); got != 0 {
		t.Errorf("Percentage(5, 0) = %v, want 0", got)
	}
}

func TestEqual_CentBoundary(t *testing.T) {
	// 100 - 99.99 is slightly more than 0.01 in binary floating point.
	if !Equal(100, 99.99) {
		t.Error("expected amounts one cent apart to be equal")
	}
	if !Equal(-3.5, -3.49) {
		t.Error("expected negative amounts one cent apart to be equal")
	}
}

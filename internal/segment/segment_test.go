package segment

import (
	"errors"
	"math"
	"testing"
)

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestL2Cost(t *testing.T) {
	c := newL2([]float64{1, 2, 3, 10})
	if got := c.cost(0, 3); math.Abs(got-2) > 1e-12 {
		t.Fatalf("expected cost 2, got %v", got)
	}
	if got := c.cost(3, 4); got != 0 {
		t.Fatalf("expected zero cost for a single sample, got %v", got)
	}
	if got := c.cost(2, 2); got != 0 {
		t.Fatalf("expected zero cost for an empty segment, got %v", got)
	}
}

func TestBinseg(t *testing.T) {
	signal := []float64{0, 0, 0, 0, 5, 5, 5, 5, 5, 5, -3, -3, -3}
	algo, err := NewBinseg(signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		n    int
		want []int
	}{
		{0, []int{13}},
		{1, []int{10, 13}},
		{2, []int{4, 10, 13}},
		// no further split lowers the cost
		{5, []int{4, 10, 13}},
	}
	for _, tc := range cases {
		if got := algo.Predict(tc.n); !equalInts(got, tc.want) {
			t.Fatalf("n=%d: expected %v, got %v", tc.n, tc.want, got)
		}
	}
}

func TestBinsegMinSize(t *testing.T) {
	algo, _ := NewBinseg([]float64{0, 0, 0, 9, 0, 0, 0})
	for _, b := range algo.Predict(3) {
		if b != 7 && (b < DefaultMinSize || b > 7-DefaultMinSize) {
			t.Fatalf("breakpoint %d leaves a segment shorter than %d", b, DefaultMinSize)
		}
	}
}

func TestPelt(t *testing.T) {
	signal := []float64{1, 1.2, 0.9, 1.1, 1, 8, 8.1, 7.9, 8, 8.2, 8, 2, 2.1, 1.9, 2}
	algo, err := NewPelt(signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := algo.Predict(math.Log(float64(len(signal)))); !equalInts(got, []int{5, 11, 15}) {
		t.Fatalf("expected [5 11 15], got %v", got)
	}
	// A penalty above the total cost leaves a single segment.
	if got := algo.Predict(1e6); !equalInts(got, []int{15}) {
		t.Fatalf("expected [15], got %v", got)
	}
}

func TestPeltShortSignal(t *testing.T) {
	algo, _ := NewPelt([]float64{3})
	if got := algo.Predict(1); !equalInts(got, []int{1}) {
		t.Fatalf("expected [1], got %v", got)
	}
}

func TestEmptySignal(t *testing.T) {
	if _, err := NewBinseg(nil); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("expected ErrEmptySignal, got %v", err)
	}
	if _, err := NewPelt(nil); !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("expected ErrEmptySignal, got %v", err)
	}
}

package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{State{3, 4}, 5.0},
		{State{1, 0}, 1.0},
		{State{0, 0}, 0.0},
		{State{1, 1, 1, 1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_Sub(t *testing.T) {
	diff := State{4, 5, 6}.Sub(State{1, 2, 3})
	if diff[0] != 3 || diff[1] != 3 || diff[2] != 3 {
		t.Errorf("Sub failed: got %v", diff)
	}
}

func TestState_SubShorter(t *testing.T) {
	diff := State{4, 5, 6}.Sub(State{1})
	if diff[0] != 3 || diff[1] != 5 || diff[2] != 6 {
		t.Errorf("Sub with shorter operand: got %v", diff)
	}
}

func TestFieldSystem(t *testing.T) {
	double := func(_ float64, s *Tensor) *Tensor {
		out := s.Clone()
		for i := range out.Data {
			out.Data[i] *= 2
		}
		return out
	}

	sys := FieldSystem(double, []int{2, 2})
	dx := sys.Derive(0, State{1, 2, 3, 4})
	if len(dx) != 4 || dx[3] != 8 {
		t.Errorf("Derive() = %v, want [2 4 6 8]", dx)
	}

	reshaped := func(_ float64, s *Tensor) *Tensor {
		return &Tensor{Shape: []int{4}, Data: s.Data}
	}
	if dx := FieldSystem(reshaped, []int{2, 2}).Derive(0, State{1, 2, 3, 4}); dx != nil {
		t.Errorf("expected nil derivative for mismatched shape, got %v", dx)
	}
}

func TestSimulationError(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: ErrStepTooSmall}
	expected := "step 150 (t=1.5): dynamo: adaptive timestep below minimum"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrStepTooSmall) {
		t.Error("SimulationError does not unwrap to its cause")
	}
}

func TestBounds(t *testing.T) {
	err := Bounds("nsub=%d exceeds n=%d", 7, 5)
	if !errors.Is(err, ErrParameterBounds) {
		t.Errorf("Bounds() = %v, want ErrParameterBounds", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1000} {
		hits := make([]int, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

package dynamo

import (
	"errors"
	"math"
	"testing"
)

func seq(shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = float64(i)
	}
	return t
}

func TestFromRows(t *testing.T) {
	x, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if !SameShape(x.Shape, []int{3, 2}) {
		t.Errorf("shape = %v, want [3 2]", x.Shape)
	}
	if x.At(2, 1) != 6 {
		t.Errorf("At(2,1) = %v, want 6", x.At(2, 1))
	}

	if _, err := FromRows([][]float64{{1, 2}, {3}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ragged rows: got %v, want ErrDimensionMismatch", err)
	}
}

func TestFromData(t *testing.T) {
	if _, err := FromData([]float64{1, 2, 3}, 2, 2); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
	x, err := FromData([]float64{1, 2, 3, 4}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if x.At(1, 0) != 3 {
		t.Errorf("At(1,0) = %v, want 3", x.At(1, 0))
	}
}

func TestRepeat(t *testing.T) {
	x := seq(2, 3)
	r := x.Repeat(4)
	if !SameShape(r.Shape, []int{4, 2, 3}) {
		t.Fatalf("shape = %v, want [4 2 3]", r.Shape)
	}
	for l := 0; l < 4; l++ {
		if MaxAbsDiff(r.Sub(l), x) != 0 {
			t.Errorf("slice %d differs from source", l)
		}
	}
}

func TestPermute(t *testing.T) {
	x := seq(2, 3, 4)
	p, err := x.Permute(1, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !SameShape(p.Shape, []int{3, 2, 4}) {
		t.Fatalf("shape = %v, want [3 2 4]", p.Shape)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				if p.At(j, i, k) != x.At(i, j, k) {
					t.Fatalf("p[%d,%d,%d] = %v, want %v", j, i, k, p.At(j, i, k), x.At(i, j, k))
				}
			}
		}
	}

	q, err := seq(2, 3, 4, 5).Permute(1, 2, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !SameShape(q.Shape, []int{3, 4, 2, 5}) {
		t.Errorf("shape = %v, want [3 4 2 5]", q.Shape)
	}
	if q.At(2, 1, 1, 3) != seq(2, 3, 4, 5).At(1, 2, 1, 3) {
		t.Error("4-d permute moved the wrong element")
	}

	tests := [][]int{{0, 1}, {0, 0, 1}, {0, 1, 3}}
	for _, axes := range tests {
		if _, err := x.Permute(axes...); !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("Permute(%v) = %v, want ErrDimensionMismatch", axes, err)
		}
	}
}

func TestSelect(t *testing.T) {
	x := seq(4, 2)
	s, err := x.Select(0, []int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{6, 7, 2, 3}
	for i, v := range want {
		if s.Data[i] != v {
			t.Fatalf("Select data = %v, want %v", s.Data, want)
		}
	}

	if _, err := x.Select(0, []int{4}); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("out of range index: got %v, want ErrParameterBounds", err)
	}
}

func TestNarrow(t *testing.T) {
	x := seq(2, 5, 3)
	n, err := x.Narrow(1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !SameShape(n.Shape, []int{2, 2, 3}) {
		t.Fatalf("shape = %v, want [2 2 3]", n.Shape)
	}
	if n.At(1, 0, 2) != x.At(1, 2, 2) {
		t.Errorf("Narrow picked %v, want %v", n.At(1, 0, 2), x.At(1, 2, 2))
	}

	if _, err := x.Narrow(1, 4, 2); !errors.Is(err, ErrParameterBounds) {
		t.Errorf("got %v, want ErrParameterBounds", err)
	}
}

func TestSubSharesData(t *testing.T) {
	x := seq(3, 2)
	v := x.Sub(1)
	v.Data[0] = 100
	if x.At(1, 0) != 100 {
		t.Error("Sub did not return a view")
	}
	if cap(v.Data) != 2 {
		t.Errorf("view capacity = %d, want 2", cap(v.Data))
	}
}

func TestMaxAbsDiff(t *testing.T) {
	a := seq(2, 3)
	b := a.Clone()
	b.Data[4] += 0.5
	b.Data[1] -= 2

	tests := []struct {
		name string
		a, b *Tensor
		want float64
	}{
		{"equal", a, a.Clone(), 0},
		{"largest entry wins", a, b, 2},
		{"empty", NewTensor(0, 3), NewTensor(0, 3), 0},
		{"shape mismatch", a, seq(3, 2), math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxAbsDiff(tt.a, tt.b); got != tt.want {
				t.Errorf("MaxAbsDiff() = %v, want %v", got, tt.want)
			}
		})
	}
}

package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a dense row-major array. Data holds prod(Shape) values.
type Tensor struct {
	Shape []int
	Data  []float64
}

func NewTensor(shape ...int) *Tensor {
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, numel(shape)),
	}
}

// FromData wraps a copy of data with the given shape.
func FromData(data []float64, shape ...int) (*Tensor, error) {
	if numel(shape) != len(data) {
		return nil, Mismatch("%d values cannot fill shape %v", len(data), shape)
	}
	t := NewTensor(shape...)
	copy(t.Data, data)
	return t, nil
}

// FromRows builds an [N,d] tensor from N rows of equal length d.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return NewTensor(0, 0), nil
	}
	d := len(rows[0])
	t := NewTensor(len(rows), d)
	for i, row := range rows {
		if len(row) != d {
			return nil, Mismatch("row %d has %d values, want %d", i, len(row), d)
		}
		copy(t.Data[i*d:], row)
	}
	return t, nil
}

func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func strides(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

// SameShape reports whether a and b describe the same shape.
func SameShape(a, b []int) bool {
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

func (t *Tensor) NDim() int     { return len(t.Shape) }
func (t *Tensor) Size() int     { return len(t.Data) }
func (t *Tensor) Dim(i int) int { return t.Shape[i] }

func (t *Tensor) Clone() *Tensor {
	c := &Tensor{Shape: append([]int(nil), t.Shape...), Data: make([]float64, len(t.Data))}
	copy(c.Data, t.Data)
	return c
}

func (t *Tensor) offset(idx []int) int {
	off := 0
	for i, v := range idx {
		off = off*t.Shape[i] + v
	}
	return off
}

// At returns the element at the full index idx.
func (t *Tensor) At(idx ...int) float64 { return t.Data[t.offset(idx)] }

// Set stores v at the full index idx.
func (t *Tensor) Set(v float64, idx ...int) { t.Data[t.offset(idx)] = v }

func (t *Tensor) IsValid() bool { return State(t.Data).IsValid() }

// Sub returns a view of the i-th slice along the leading axis. The view
// shares Data with t.
func (t *Tensor) Sub(i int) *Tensor {
	inner := numel(t.Shape[1:])
	return &Tensor{
		Shape: append([]int(nil), t.Shape[1:]...),
		Data:  t.Data[i*inner : (i+1)*inner : (i+1)*inner],
	}
}

// Repeat stacks L copies of t along a new leading axis.
func (t *Tensor) Repeat(L int) *Tensor {
	out := NewTensor(append([]int{L}, t.Shape...)...)
	n := len(t.Data)
	for l := 0; l < L; l++ {
		copy(out.Data[l*n:], t.Data)
	}
	return out
}

// Permute returns a copy of t with axes reordered so that output axis i is
// input axis axes[i].
func (t *Tensor) Permute(axes ...int) (*Tensor, error) {
	nd := len(t.Shape)
	if len(axes) != nd {
		return nil, Mismatch("permute of %d-d tensor needs %d axes, got %d", nd, nd, len(axes))
	}
	seen := make([]bool, nd)
	shape := make([]int, nd)
	for i, a := range axes {
		if a < 0 || a >= nd || seen[a] {
			return nil, Mismatch("invalid permutation %v", axes)
		}
		seen[a] = true
		shape[i] = t.Shape[a]
	}

	out := NewTensor(shape...)
	if len(out.Data) == 0 {
		return out, nil
	}

	src := strides(t.Shape)
	st := make([]int, nd)
	for i, a := range axes {
		st[i] = src[a]
	}

	idx := make([]int, nd)
	off := 0
	for k := range out.Data {
		out.Data[k] = t.Data[off]
		for i := nd - 1; i >= 0; i-- {
			idx[i]++
			off += st[i]
			if idx[i] < shape[i] {
				break
			}
			off -= st[i] * idx[i]
			idx[i] = 0
		}
	}
	return out, nil
}

// Select gathers the entries idx along axis into a new tensor.
func (t *Tensor) Select(axis int, idx []int) (*Tensor, error) {
	if axis < 0 || axis >= len(t.Shape) {
		return nil, Mismatch("axis %d out of range for %d-d tensor", axis, len(t.Shape))
	}
	n := t.Shape[axis]
	for _, k := range idx {
		if k < 0 || k >= n {
			return nil, Bounds("index %d out of range [0,%d) on axis %d", k, n, axis)
		}
	}

	shape := append([]int(nil), t.Shape...)
	shape[axis] = len(idx)
	out := NewTensor(shape...)

	outer := numel(t.Shape[:axis])
	inner := numel(t.Shape[axis+1:])
	for o := 0; o < outer; o++ {
		for j, k := range idx {
			srcOff := (o*n + k) * inner
			dstOff := (o*len(idx) + j) * inner
			copy(out.Data[dstOff:dstOff+inner], t.Data[srcOff:srcOff+inner])
		}
	}
	return out, nil
}

// Narrow copies the contiguous range [start, start+length) along axis.
func (t *Tensor) Narrow(axis, start, length int) (*Tensor, error) {
	if axis < 0 || axis >= len(t.Shape) {
		return nil, Mismatch("axis %d out of range for %d-d tensor", axis, len(t.Shape))
	}
	if start < 0 || length < 0 || start+length > t.Shape[axis] {
		return nil, Bounds("range [%d,%d) exceeds axis %d of length %d", start, start+length, axis, t.Shape[axis])
	}
	idx := make([]int, length)
	for i := range idx {
		idx[i] = start + i
	}
	return t.Select(axis, idx)
}

// MaxAbsDiff returns the largest elementwise absolute difference between
// two tensors of the same shape, or +Inf when the shapes differ.
func MaxAbsDiff(a, b *Tensor) float64 {
	if !SameShape(a.Shape, b.Shape) {
		return math.Inf(1)
	}
	if len(a.Data) == 0 {
		return 0
	}
	return floats.Distance(a.Data, b.Data, math.Inf(1))
}

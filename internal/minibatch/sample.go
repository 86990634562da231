// Package minibatch draws random time-aligned subsequences from a batch of
// observed trajectories.
package minibatch

import (
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

// Source is the randomness Sample consumes. *rand.Rand satisfies it; each
// caller should own its Source so draws are reproducible and independent.
type Source interface {
	Perm(n int) []int
	Intn(n int) int
}

// Options limits the minibatch. Zero means unspecified: Nsub 0 keeps every
// sequence and Tsub 0 keeps the whole time range.
type Options struct {
	Nsub int
	Tsub int
}

// Sample returns the time points and observations of one minibatch drawn
// from t [T] and Y [N,T,...].
//
// With Nsub set, Nsub distinct sequences are kept, taken from the front of a
// fresh permutation of the N indices. With Tsub set, one offset t0 is drawn
// uniformly from [0, T-Tsub] and the window [t0, t0+Tsub) is cut from t and
// from every kept sequence. The permutation is drawn before the offset.
// Nsub = N and Tsub = T select the full batch without drawing. The results
// never alias t or Y.
func Sample(rng Source, t []float64, Y *dynamo.Tensor, opts Options) ([]float64, *dynamo.Tensor, error) {
	if Y.NDim() < 2 {
		return nil, nil, dynamo.Mismatch("observations need shape [N,T,...], got %v", Y.Shape)
	}
	n, T := Y.Dim(0), Y.Dim(1)
	if len(t) != T {
		return nil, nil, dynamo.Mismatch("time grid has %d points, observations have %d", len(t), T)
	}
	if opts.Nsub < 0 || opts.Nsub > n {
		return nil, nil, dynamo.Bounds("nsub=%d outside [0,%d]", opts.Nsub, n)
	}
	if opts.Tsub < 0 || opts.Tsub > T {
		return nil, nil, dynamo.Bounds("tsub=%d outside [0,%d]", opts.Tsub, T)
	}

	ys := Y
	if opts.Nsub > 0 && opts.Nsub < n {
		var err error
		ys, err = Y.Select(0, rng.Perm(n)[:opts.Nsub])
		if err != nil {
			return nil, nil, err
		}
	}

	t0, tsub := 0, T
	if opts.Tsub > 0 && opts.Tsub < T {
		t0, tsub = rng.Intn(T-opts.Tsub+1), opts.Tsub
	}

	window, err := ys.Narrow(1, t0, tsub)
	if err != nil {
		return nil, nil, err
	}

	ts := make([]float64, tsub)
	copy(ts, t[t0:t0+tsub])
	return ts, window, nil
}

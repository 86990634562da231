package odeint

import "github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"

// PerSample lifts L fields over [N,d] states into one field over [L,N,d]:
// slice l of the state is advanced by fields[l]. Slices are evaluated in
// parallel, so each field must be safe to call concurrently with the others.
func PerSample(fields ...dynamo.Field) dynamo.Field {
	return func(t float64, s *dynamo.Tensor) *dynamo.Tensor {
		if s.NDim() < 1 || s.Dim(0) != len(fields) {
			return nil
		}

		out := dynamo.NewTensor(s.Shape...)
		ok := make([]bool, len(fields))
		dynamo.ParallelFor(len(fields), 1, func(start, end int) {
			for l := start; l < end; l++ {
				in := s.Sub(l)
				dx := fields[l](t, in)
				if dx == nil || !dynamo.SameShape(dx.Shape, in.Shape) {
					continue
				}
				copy(out.Sub(l).Data, dx.Data)
				ok[l] = true
			}
		})

		for _, v := range ok {
			if !v {
				return nil
			}
		}
		return out
	}
}

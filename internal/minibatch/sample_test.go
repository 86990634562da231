package minibatch_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/minibatch"
)

// observations builds Y [n,T,d] with Y[i,k,j] = 100*i + 10*k + j so every
// entry identifies its own position.
func observations(n, T, d int) *dynamo.Tensor {
	y := dynamo.NewTensor(n, T, d)
	for i := 0; i < n; i++ {
		for k := 0; k < T; k++ {
			for j := 0; j < d; j++ {
				y.Set(float64(100*i+10*k+j), i, k, j)
			}
		}
	}
	return y
}

func timeGrid(T int) []float64 {
	ts := make([]float64, T)
	for i := range ts {
		ts[i] = float64(i)
	}
	return ts
}

// countingSource records the draws made through it.
type countingSource struct {
	*rand.Rand
	perms, ints int
}

func (c *countingSource) Perm(n int) []int { c.perms++; return c.Rand.Perm(n) }
func (c *countingSource) Intn(n int) int   { c.ints++; return c.Rand.Intn(n) }

var _ = Describe("Sample", func() {
	var (
		rng *rand.Rand
		ts  []float64
		y   *dynamo.Tensor
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
		ts = timeGrid(10)
		y = observations(5, 10, 3)
	})

	Context("with no limits", func() {
		It("returns the full grid and unmodified observations", func() {
			tsub, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tsub).To(Equal(ts))
			Expect(ysub.Shape).To(Equal(y.Shape))
			Expect(ysub.Data).To(Equal(y.Data))
		})

		It("treats Nsub=N and Tsub=T as the full batch", func() {
			tsub, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{Nsub: 5, Tsub: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(tsub).To(Equal(ts))
			Expect(ysub.Data).To(Equal(y.Data))
		})

		It("does not draw randomness", func() {
			src := &countingSource{Rand: rng}
			_, _, err := minibatch.Sample(src, ts, y, minibatch.Options{})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = minibatch.Sample(src, ts, y, minibatch.Options{Nsub: 5, Tsub: 10})
			Expect(err).NotTo(HaveOccurred())
			Expect(src.perms).To(BeZero())
			Expect(src.ints).To(BeZero())
		})

		It("does not alias the inputs", func() {
			tsub, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{})
			Expect(err).NotTo(HaveOccurred())
			tsub[0] = -1
			ysub.Data[0] = -1
			Expect(ts[0]).To(Equal(0.0))
			Expect(y.Data[0]).To(Equal(0.0))
		})
	})

	Context("with Tsub < T", func() {
		It("returns a contiguous window of length Tsub shared by every sequence", func() {
			for trial := 0; trial < 50; trial++ {
				tsub, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{Tsub: 4})
				Expect(err).NotTo(HaveOccurred())
				Expect(tsub).To(HaveLen(4))
				Expect(ysub.Shape).To(Equal([]int{5, 4, 3}))

				t0 := int(tsub[0])
				Expect(t0).To(BeNumerically(">=", 0))
				Expect(t0).To(BeNumerically("<=", 6))
				for k := range tsub {
					Expect(tsub[k]).To(Equal(float64(t0 + k)))
				}
				for i := 0; i < 5; i++ {
					for k := 0; k < 4; k++ {
						Expect(ysub.At(i, k, 2)).To(Equal(y.At(i, t0+k, 2)))
					}
				}
			}
		})

		It("reaches every valid offset", func() {
			seen := map[float64]bool{}
			for trial := 0; trial < 500; trial++ {
				tsub, _, err := minibatch.Sample(rng, ts, y, minibatch.Options{Tsub: 4})
				Expect(err).NotTo(HaveOccurred())
				seen[tsub[0]] = true
			}
			Expect(seen).To(HaveLen(7))
		})
	})

	Context("with Nsub < N", func() {
		It("keeps Nsub distinct sequences", func() {
			for trial := 0; trial < 50; trial++ {
				_, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{Nsub: 3})
				Expect(err).NotTo(HaveOccurred())
				Expect(ysub.Shape).To(Equal([]int{3, 10, 3}))

				picked := map[int]bool{}
				for i := 0; i < 3; i++ {
					src := int(ysub.At(i, 0, 0)) / 100
					Expect(src).To(BeNumerically("<", 5))
					Expect(picked).NotTo(HaveKey(src))
					picked[src] = true
				}
			}
		})

		It("draws the permutation before the offset", func() {
			a := rand.New(rand.NewSource(7))
			_, ysub, err := minibatch.Sample(a, ts, y, minibatch.Options{Nsub: 2, Tsub: 4})
			Expect(err).NotTo(HaveOccurred())

			b := rand.New(rand.NewSource(7))
			perm := b.Perm(5)
			t0 := b.Intn(7)
			Expect(ysub.At(0, 0, 0)).To(Equal(y.At(perm[0], t0, 0)))
			Expect(ysub.At(1, 0, 0)).To(Equal(y.At(perm[1], t0, 0)))
		})
	})

	It("matches the T=10, Nsub=2, Tsub=4 scenario", func() {
		tsub, ysub, err := minibatch.Sample(rng, ts, y, minibatch.Options{Nsub: 2, Tsub: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(tsub).To(HaveLen(4))
		Expect(ysub.Shape).To(Equal([]int{2, 4, 3}))

		t0 := int(tsub[0])
		i0, i1 := int(ysub.At(0, 0, 0)-10*tsub[0])/100, int(ysub.At(1, 0, 0)-10*tsub[0])/100
		Expect(i0).NotTo(Equal(i1))
		for n, idx := range []int{i0, i1} {
			for k := 0; k < 4; k++ {
				for j := 0; j < 3; j++ {
					Expect(ysub.At(n, k, j)).To(Equal(y.At(idx, t0+k, j)))
				}
			}
		}
	})

	It("is reproducible for a fixed seed", func() {
		opts := minibatch.Options{Nsub: 3, Tsub: 5}
		t1, y1, err := minibatch.Sample(rand.New(rand.NewSource(3)), ts, y, opts)
		Expect(err).NotTo(HaveOccurred())
		t2, y2, err := minibatch.Sample(rand.New(rand.NewSource(3)), ts, y, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(t1).To(Equal(t2))
		Expect(y1.Data).To(Equal(y2.Data))
	})

	It("keeps trailing dimensions of any rank", func() {
		y4 := dynamo.NewTensor(4, 10, 2, 3)
		_, ysub, err := minibatch.Sample(rng, ts, y4, minibatch.Options{Nsub: 1, Tsub: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(ysub.Shape).To(Equal([]int{1, 2, 2, 3}))
	})

	DescribeTable("rejects invalid requests",
		func(opts minibatch.Options, grid int, target error) {
			_, _, err := minibatch.Sample(rng, timeGrid(grid), y, opts)
			Expect(err).To(MatchError(target))
		},
		Entry("Nsub > N", minibatch.Options{Nsub: 6}, 10, dynamo.ErrParameterBounds),
		Entry("Tsub > T", minibatch.Options{Tsub: 11}, 10, dynamo.ErrParameterBounds),
		Entry("negative Nsub", minibatch.Options{Nsub: -1}, 10, dynamo.ErrParameterBounds),
		Entry("negative Tsub", minibatch.Options{Tsub: -2}, 10, dynamo.ErrParameterBounds),
		Entry("grid length differs from T", minibatch.Options{}, 9, dynamo.ErrDimensionMismatch),
	)

	It("rejects observations without a time axis", func() {
		_, _, err := minibatch.Sample(rng, ts, dynamo.NewTensor(10), minibatch.Options{})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})
})

package solver_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/solver"
)

func integrate(ig solver.Integrator) error {
	for ig.Status() == solver.Running {
		if err := ig.Step(); err != nil {
			return err
		}
	}
	return nil
}

var _ = Describe("RK45", func() {
	var factory solver.Factory

	BeforeEach(func() {
		factory = solver.NewRK45(solver.RK45Options{})
	})

	It("integrates exponential decay accurately", func() {
		decay := func(t float64, x []float64) ([]float64, error) {
			return []float64{-x[0]}, nil
		}
		ig := factory(decay, 0, []float64{1}, 1)
		Expect(integrate(ig)).To(Succeed())
		Expect(ig.State()[0]).To(BeNumerically("~", math.Exp(-1), 1e-8))
	})

	It("recovers sin(t) from its derivative", func() {
		cosine := func(t float64, x []float64) ([]float64, error) {
			return []float64{math.Cos(t)}, nil
		}
		ig := factory(cosine, 0, []float64{0}, math.Pi/2)
		Expect(integrate(ig)).To(Succeed())
		Expect(ig.State()[0]).To(BeNumerically("~", 1, 1e-8))
	})

	It("stops exactly on the boundary", func() {
		decay := func(t float64, x []float64) ([]float64, error) {
			return []float64{-x[0]}, nil
		}
		ig := factory(decay, 0, []float64{1}, 0.7)
		Expect(integrate(ig)).To(Succeed())
		Expect(ig.Time()).To(Equal(0.7))
		Expect(ig.Status()).To(Equal(solver.Finished))
	})

	It("is finished at construction when t0 reaches the boundary", func() {
		flat := func(t float64, x []float64) ([]float64, error) {
			return []float64{0}, nil
		}
		ig := factory(flat, 1, []float64{0}, 1)
		Expect(ig.Status()).To(Equal(solver.Finished))
		Expect(ig.Step()).To(MatchError(solver.ErrNotRunning))
	})

	It("interpolates within the last step via dense output", func() {
		decay := func(t float64, x []float64) ([]float64, error) {
			return []float64{-x[0]}, nil
		}
		ig := factory(decay, 0, []float64{1}, 10)
		Expect(ig.Step()).To(Succeed())

		dense := ig.DenseOutput()
		mid := ig.Time() / 2
		Expect(dense.At(mid)[0]).To(BeNumerically("~", math.Exp(-mid), 1e-6))
		Expect(dense.At(0)[0]).To(BeNumerically("~", 1, 1e-12))
		Expect(dense.At(ig.Time())[0]).To(BeNumerically("~", ig.State()[0], 1e-12))
	})

	It("honors MaxStep", func() {
		capped := solver.NewRK45(solver.RK45Options{MaxStep: 0.01})
		flat := func(t float64, x []float64) ([]float64, error) {
			return []float64{1}, nil
		}
		ig := capped(flat, 0, []float64{0}, 1)
		Expect(ig.Step()).To(Succeed())
		Expect(ig.Time()).To(BeNumerically("<=", 0.01+1e-12))
	})

	It("honors InitialStep when the error allows it", func() {
		seeded := solver.NewRK45(solver.RK45Options{InitialStep: 0.5})
		flat := func(t float64, x []float64) ([]float64, error) {
			return []float64{1}, nil
		}
		ig := seeded(flat, 0, []float64{0}, 1)
		Expect(ig.Step()).To(Succeed())
		Expect(ig.Time()).To(Equal(0.5))
	})

	It("propagates derivative errors and fails the integrator", func() {
		boom := errors.New("boom")
		failing := func(t float64, x []float64) ([]float64, error) {
			return nil, boom
		}
		ig := factory(failing, 0, []float64{1}, 1)
		Expect(ig.Step()).To(MatchError(boom))
		Expect(ig.Status()).To(Equal(solver.Failed))
		Expect(ig.Step()).To(MatchError(solver.ErrNotRunning))
	})
})

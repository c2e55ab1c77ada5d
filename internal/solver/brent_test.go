package solver_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/blocksim/internal/solver"
)

var _ = Describe("Brent", func() {
	var br solver.Brent

	BeforeEach(func() {
		br = solver.DefaultBrent()
	})

	It("finds the root of a linear function", func() {
		root, err := br.Find(func(x float64) float64 { return 2*x - 1 }, 0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", 0.5, br.Tol()))
	})

	It("finds the zero of cos between 1 and 2", func() {
		root, err := br.Find(math.Cos, 1, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", math.Pi/2, br.Tol()))
	})

	It("handles roots of functions with steep curvature", func() {
		f := func(x float64) float64 { return math.Expm1(5 * (x - 0.2)) }
		root, err := br.Find(f, -1, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(BeNumerically("~", 0.2, 1e-9))
	})

	It("returns an endpoint that is already a root", func() {
		f := func(x float64) float64 { return x - 1 }
		root, err := br.Find(f, 1, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(root).To(Equal(1.0))
	})

	It("rejects intervals that do not bracket a root", func() {
		f := func(x float64) float64 { return x*x + 1 }
		_, err := br.Find(f, -1, 1)
		Expect(err).To(MatchError(solver.ErrNoBracket))
	})

	It("falls back to the default tolerance for a zero value", func() {
		Expect(solver.Brent{}.Tol()).To(Equal(solver.DefaultXTol))
	})
})

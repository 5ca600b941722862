package modes

import (
	"math/cmplx"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/utils"
)

func testWaveVectors(t *testing.T, maxM int, wavelength, theta float64) (*fourier.Expansion, *WaveVectors) {
	ex, err := fourier.NewExpansion(maxM, 0, fourier.Circular)
	assert.NoError(t, err)
	kv := NewWaveVectors(ex, fourier.NewLattice1D(1.0), wavelength, theta, 0, 1)
	return ex, kv
}

func sortedGamma(g utils.CVector) []complex128 {
	s := append([]complex128{}, g.V...)
	sort.Slice(s, func(i, j int) bool {
		if real(s[i]) != real(s[j]) {
			return real(s[i]) < real(s[j])
		}
		return imag(s[i]) < imag(s[j])
	})
	return s
}

func TestHomogeneousModes(t *testing.T) {
	// Generic eigensolve on a uniform layer must reproduce the analytic
	// fast path: same propagation constants, invertible mode bases.
	{
		_, kv := testWaveVectors(t, 3, 0.8, 0.3)
		analytic, err := SolveHomogeneous(2.25, 1, kv)
		assert.NoError(t, err)

		uc, err := fourier.NewUniformCell(fourier.NewLattice1D(1.0), 64, 1, 2.25, 1)
		assert.NoError(t, err)
		ex2, _ := fourier.NewExpansion(3, 0, fourier.Circular)
		coef, err := fourier.Factorize(uc, ex2, fourier.Laurent)
		assert.NoError(t, err)
		coef.Uniform = false // force the generic eigensolver path
		generic, err := Solve(coef, kv, DefaultConfig())
		assert.NoError(t, err)

		ga, gg := sortedGamma(analytic.Gamma), sortedGamma(generic.Gamma)
		assert.Equal(t, len(ga), len(gg))
		for i := range ga {
			assert.InDelta(t, 0, cmplx.Abs(ga[i]-gg[i]), 1.e-8)
		}
		_, err = generic.W.Inverse()
		assert.NoError(t, err)
		_, err = generic.V.Inverse()
		assert.NoError(t, err)
	}
	// The analytic W is the identity
	{
		_, kv := testWaveVectors(t, 2, 0.8, 0)
		lm, err := SolveHomogeneous(4, 1, kv)
		assert.NoError(t, err)
		nt := kv.NumTerms()
		for i := 0; i < 2*nt; i++ {
			assert.Equal(t, complex128(1), lm.W.At(i, i))
		}
	}
}

func TestBranchRule(t *testing.T) {
	// All propagation constants must lie in the decaying branch
	// Re(gamma) >= 0, with Im(gamma) <= 0 on the imaginary axis, so that
	// exp(-k0*gamma*L) never grows and propagating modes run their phase
	// forward.
	check := func(lm *LayerModes) {
		for _, g := range lm.Gamma.V {
			assert.GreaterOrEqual(t, real(g), -1.e-12)
			if real(g) < 1.e-10 {
				assert.LessOrEqual(t, imag(g), 1.e-12)
			}
		}
	}
	// lossless: mix of propagating (imaginary gamma) and evanescent
	{
		_, kv := testWaveVectors(t, 5, 0.6, 0.2)
		lm, err := SolveHomogeneous(2.25, 1, kv)
		assert.NoError(t, err)
		check(lm)
	}
	// absorbing medium (positive-imaginary permittivity): every mode
	// decays while its phase still advances forward
	{
		_, kv := testWaveVectors(t, 3, 0.6, 0)
		lm, err := SolveHomogeneous(2.25+0.5i, 1, kv)
		assert.NoError(t, err)
		check(lm)
		nt := kv.NumTerms()
		for i, g := range lm.Gamma.V {
			assert.Greater(t, real(g), 0.0)
			kt2 := real(kv.KxD[i%nt] * kv.KxD[i%nt])
			if kt2 < 2.25 { // propagating were the medium lossless
				assert.Less(t, imag(g), 0.0)
			}
		}
	}
	// exactly grazing order: the dispersion zero is regularized instead
	// of failing, with a bounded 1/gamma
	{
		ex, err := fourier.NewExpansion(2, 0, fourier.Circular)
		assert.NoError(t, err)
		// order m = 2 satisfies |kt| = n exactly for lambda/period = 0.75
		kv := NewWaveVectors(ex, fourier.NewLattice1D(1.0), 0.75, 0, 0, 1)
		lm, err := SolveHomogeneous(2.25, 1, kv)
		assert.NoError(t, err)
		i2, found := ex.IndexOf(2, 0)
		assert.True(t, found)
		g := lm.Gamma.V[i2]
		assert.Greater(t, cmplx.Abs(g), 1.e-6)
		assert.Less(t, cmplx.Abs(g), 1.e-4)
		assert.Less(t, lm.V.MaxAbs(), 1.e6)
	}
}

func TestOperatorRelation(t *testing.T) {
	// The eigenpairs satisfy P*Q*W = W*diag(gamma^2) by construction.
	var (
		lat = fourier.NewLattice1D(1.0)
	)
	ex, _ := fourier.NewExpansion(3, 0, fourier.Circular)
	kv := NewWaveVectors(ex, lat, 0.75, 0.15, 0, 1)
	uc, err := fourier.NewPatternedCell(lat, 512, 1, 1)
	assert.NoError(t, err)
	uc.Paint(4+0i, fourier.Rectangle{Cx: 0.5, Cy: 0.5, Wx: 0.45, Wy: 2})
	coef, err := fourier.Factorize(uc, ex, fourier.LiInverse)
	assert.NoError(t, err)
	lm, err := Solve(coef, kv, DefaultConfig())
	assert.NoError(t, err)

	var (
		P      = assembleP(coef, kv)
		Q      = assembleQ(coef, kv)
		lhs    = P.Mul(Q).Mul(lm.W)
		gamma2 = lm.Gamma.Copy().Apply(func(g complex128) complex128 { return g * g })
		rhs    = lm.W.Mul(gamma2.ToDiagonal())
	)
	assert.InDelta(t, 0, lhs.Subtract(rhs).MaxAbs(), 1.e-8)
}

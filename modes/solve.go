package modes

import (
	"math/cmplx"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/utils"
)

// Config carries the numerical policy knobs of the per-layer eigensolver.
type Config struct {
	// DegeneracyTol is the relative clustering tolerance on eigenvalues
	// of the mode operator. Eigenvectors within a cluster are
	// re-orthonormalized rather than trusted in solver order.
	DegeneracyTol float64
}

func DefaultConfig() Config {
	return Config{DegeneracyTol: 1.e-10}
}

// woodTol bounds the dispersion residual below which a homogeneous-medium
// order counts as exactly grazing. The regularized gamma has magnitude
// sqrt(woodTol), so V entries stay around 1/sqrt(woodTol).
const woodTol = 1.e-10

// LayerModes is the solved eigenmode set of one layer: 2N propagation
// constants Gamma (square-root branch with Re >= 0, so every
// z-dependence exp(-k0*Gamma*z) is non-growing), the transverse E-field
// mode matrix W and the matched H-field mode matrix V. Forward and
// backward families share Gamma under this symmetric convention.
type LayerModes struct {
	Gamma utils.CVector
	W, V  utils.CMatrix
	NT    int // harmonic count; mode dimension is 2*NT
}

// Solve assembles the mode-coupling operator for one layer and solves
// its eigenproblem. The generalized problem reduces to the standard
// eigenproblem on Omega^2 = P*Q.
func Solve(coef *fourier.Coefficients, kv *WaveVectors, cfg Config) (lm *LayerModes, err error) {
	if coef.Uniform {
		return SolveHomogeneous(coef.EpsHomo, coef.MuHomo, kv)
	}
	var (
		P      = assembleP(coef, kv)
		Q      = assembleQ(coef, kv)
		Omega2 = P.Mul(Q)
	)
	lam2, W, err := Omega2.Eig()
	if err != nil {
		return
	}
	clusterOrthonormalize(lam2, W, cfg.DegeneracyTol)

	var (
		n     = lam2.Len()
		gamma = utils.NewCVector(n)
	)
	for i := 0; i < n; i++ {
		gamma.V[i] = branchSqrt(lam2.V[i])
		if cmplx.Abs(gamma.V[i]) < 1.e-12 {
			err = &utils.SingularOperatorError{Context: "zero propagation constant (grazing mode); adjust wavelength or truncation"}
			return
		}
	}
	invGamma := gamma.Copy().Apply(func(v complex128) complex128 { return 1 / v })
	V := Q.Mul(W).Mul(invGamma.ToDiagonal())
	lm = &LayerModes{
		Gamma: gamma,
		W:     W,
		V:     V,
		NT:    kv.NumTerms(),
	}
	return
}

// SolveHomogeneous is the analytic fast path for an unpatterned layer or
// half space: the mode basis is the identity and the propagation
// constants follow in closed form from the dispersion relation.
func SolveHomogeneous(eps, mu complex128, kv *WaveVectors) (lm *LayerModes, err error) {
	var (
		nt    = kv.NumTerms()
		n     = 2 * nt
		gamma = utils.NewCVector(n)
	)
	for i := 0; i < nt; i++ {
		lam2 := kv.KxD[i]*kv.KxD[i] + kv.KyD[i]*kv.KyD[i] - eps*mu
		// An exactly grazing order (Wood anomaly) makes 1/gamma blow up.
		// Nudge it onto the weakly absorbing side, which keeps V bounded
		// and leaves a vanishing flux in the regularized channel.
		if cmplx.Abs(lam2) < woodTol {
			lam2 = complex(0, -woodTol)
		}
		g := branchSqrt(lam2)
		gamma.V[i] = g
		gamma.V[i+nt] = g
	}
	// V = Q * diag(1/gamma) with the homogeneous Q assembled from
	// diagonal blocks.
	V := utils.NewCMatrix(n, n)
	for i := 0; i < nt; i++ {
		var (
			kx = kv.KxD[i]
			ky = kv.KyD[i]
			g  = gamma.V[i]
		)
		V.Set(i, i, kx*ky/(mu*g))
		V.Set(i, i+nt, (eps*mu-kx*kx)/(mu*g))
		V.Set(i+nt, i, (ky*ky-eps*mu)/(mu*g))
		V.Set(i+nt, i+nt, -ky*kx/(mu*g))
	}
	lm = &LayerModes{
		Gamma: gamma,
		W:     utils.NewCMatrixIdentity(n),
		V:     V,
		NT:    nt,
	}
	return
}

// branchSqrt is the fixed square-root branch shared by all layers:
// Re >= 0, ties resolved toward Im <= 0. The decaying root of a medium
// with positive-imaginary permittivity sits in the fourth quadrant, so
// the tie side is the one a vanishing material loss selects; the
// propagation factor exp(-k0*gamma*z) of a tied (propagating) mode then
// runs its phase with the positive out-of-plane wavevector. Expressed
// as an explicit sign flip so the convention is auditable in one place.
func branchSqrt(z complex128) complex128 {
	s := cmplx.Sqrt(z)
	if real(s) < 0 || (real(s) == 0 && imag(s) > 0) {
		s = -s
	}
	return s
}

func assembleP(coef *fourier.Coefficients, kv *WaveVectors) (P utils.CMatrix) {
	var (
		nt  = coef.NumTerms
		iez = coef.InvEpsZZ
		kxe = kv.Kx.Mul(iez)
		kye = kv.Ky.Mul(iez)
	)
	P = utils.NewCMatrix(2*nt, 2*nt)
	P.AssignSlice(0, 0, kxe.Mul(kv.Ky))
	P.AssignSlice(0, nt, coef.MuYY.Copy().Subtract(kxe.Mul(kv.Kx)))
	P.AssignSlice(nt, 0, kye.Mul(kv.Ky).Subtract(coef.MuXX))
	P.AssignSlice(nt, nt, kye.Mul(kv.Kx).Scale(-1))
	return
}

func assembleQ(coef *fourier.Coefficients, kv *WaveVectors) (Q utils.CMatrix) {
	var (
		nt  = coef.NumTerms
		imz = coef.InvMuZZ
		kxm = kv.Kx.Mul(imz)
		kym = kv.Ky.Mul(imz)
	)
	Q = utils.NewCMatrix(2*nt, 2*nt)
	Q.AssignSlice(0, 0, kxm.Mul(kv.Ky).Add(coef.EpsYX))
	Q.AssignSlice(0, nt, coef.EpsYY.Copy().Subtract(kxm.Mul(kv.Kx)))
	Q.AssignSlice(nt, 0, kym.Mul(kv.Ky).Subtract(coef.EpsXX))
	Q.AssignSlice(nt, nt, kym.Mul(kv.Kx).Scale(-1).Subtract(coef.EpsXY))
	return
}

// clusterOrthonormalize groups near-degenerate eigenvalues and applies
// modified Gram-Schmidt to each cluster's eigenvectors in place. Generic
// eigensolver output for (near-)repeated eigenvalues can mix directions
// enough to wreck the conditioning of W; this pass protects it.
func clusterOrthonormalize(lam2 utils.CVector, W utils.CMatrix, tol float64) {
	var (
		n       = lam2.Len()
		visited = make([]bool, n)
	)
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		cluster := []int{i}
		visited[i] = true
		scale := cmplx.Abs(lam2.V[i])
		if scale < 1 {
			scale = 1
		}
		for j := i + 1; j < n; j++ {
			if !visited[j] && cmplx.Abs(lam2.V[i]-lam2.V[j]) <= tol*scale {
				cluster = append(cluster, j)
				visited[j] = true
			}
		}
		if len(cluster) < 2 {
			continue
		}
		// Modified Gram-Schmidt over the cluster columns.
		basis := make([]utils.CVector, 0, len(cluster))
		for _, j := range cluster {
			v := W.Col(j)
			for _, b := range basis {
				v.Subtract(b.Copy().Scale(b.InnerProduct(v)))
			}
			if nrm := v.Norm(); nrm > 1.e-12 {
				v.Scale(complex(1/nrm, 0))
			}
			basis = append(basis, v)
			W.SetCol(j, v)
		}
	}
}

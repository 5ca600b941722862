package smatrix

import (
	"math/cmplx"

	"github.com/opticore/gorcwa/modes"
	"github.com/opticore/gorcwa/utils"
)

// The layer matrices below follow the gap-medium formulation: every
// segment matrix is expressed against a common free-space gap basis
// (Wg, Vg), which makes all segment matrices star-composable and keeps
// each one symmetric. The propagation factors X = exp(-k0*Gamma*L) are
// the only place thickness enters, and with the Re(Gamma) >= 0 branch
// every entry has magnitude <= 1. Growing exponentials never appear;
// this is what keeps the recursion stable for thick or strongly
// evanescent layers.

// PropagationFactors returns X = diag(exp(-k0*Gamma*L)).
func PropagationFactors(lm *modes.LayerModes, k0, thickness float64) utils.CMatrix {
	x := lm.Gamma.Copy().Apply(func(g complex128) complex128 {
		return cmplx.Exp(-g * complex(k0*thickness, 0))
	})
	return x.ToDiagonal()
}

// LayerMatrix builds the S-matrix of one finite-thickness layer
// embedded between gap-medium interfaces.
func LayerMatrix(lm *modes.LayerModes, gap *modes.LayerModes, k0, thickness float64, cfg Config) (S ScatteringMatrix, err error) {
	var (
		WiWg, ViVg utils.CMatrix
	)
	if WiWg, err = lm.W.Solve(gap.W); err != nil {
		return
	}
	if ViVg, err = lm.V.Solve(gap.V); err != nil {
		return
	}
	var (
		A = WiWg.Copy().Add(ViVg)
		B = WiWg.Copy().Subtract(ViVg)
		X = PropagationFactors(lm, k0, thickness)
	)
	if err = checkConditioning(A, cfg); err != nil {
		return
	}
	Ainv, err := A.Inverse()
	if err != nil {
		return
	}
	var (
		XB = X.Mul(B)
		// D = A - X*B*Ainv*X*B
		D = A.Copy().Subtract(XB.Mul(Ainv).Mul(XB))
	)
	if err = checkConditioning(D, cfg); err != nil {
		return
	}
	Dinv, err := D.Inverse()
	if err != nil {
		return
	}
	var (
		S11 = Dinv.Mul(XB.Mul(Ainv).Mul(X).Mul(A).Subtract(B))
		S12 = Dinv.Mul(X).Mul(A.Copy().Subtract(B.Mul(Ainv).Mul(B)))
	)
	S = ScatteringMatrix{
		S11: S11,
		S12: S12,
		S21: S12.Copy(),
		S22: S11.Copy(),
	}
	return
}

// ReflectionSide is the S-matrix of the interface between the
// semi-infinite incidence medium and the gap.
func ReflectionSide(ref *modes.LayerModes, gap *modes.LayerModes) (S ScatteringMatrix, err error) {
	A, B, Ainv, err := halfSpaceAB(ref, gap)
	if err != nil {
		return
	}
	S = ScatteringMatrix{
		S11: Ainv.Mul(B).Scale(-1),
		S12: Ainv.Copy().Scale(2),
		S21: A.Copy().Subtract(B.Mul(Ainv).Mul(B)).Scale(0.5),
		S22: B.Mul(Ainv),
	}
	return
}

// TransmissionSide is the S-matrix of the interface between the gap and
// the semi-infinite substrate medium.
func TransmissionSide(trm *modes.LayerModes, gap *modes.LayerModes) (S ScatteringMatrix, err error) {
	A, B, Ainv, err := halfSpaceAB(trm, gap)
	if err != nil {
		return
	}
	S = ScatteringMatrix{
		S11: B.Mul(Ainv),
		S12: A.Copy().Subtract(B.Mul(Ainv).Mul(B)).Scale(0.5),
		S21: Ainv.Copy().Scale(2),
		S22: Ainv.Mul(B).Scale(-1),
	}
	return
}

func halfSpaceAB(medium *modes.LayerModes, gap *modes.LayerModes) (A, B, Ainv utils.CMatrix, err error) {
	var (
		WgWm, VgVm utils.CMatrix
	)
	if WgWm, err = gap.W.Solve(medium.W); err != nil {
		return
	}
	if VgVm, err = gap.V.Solve(medium.V); err != nil {
		return
	}
	A = WgWm.Copy().Add(VgVm)
	B = WgWm.Copy().Subtract(VgVm)
	if Ainv, err = A.Inverse(); err != nil {
		return
	}
	return
}

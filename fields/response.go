package fields

import (
	"math/cmplx"

	"github.com/opticore/gorcwa/modes"
	"github.com/opticore/gorcwa/smatrix"
	"github.com/opticore/gorcwa/utils"
)

// OrderAmplitudes are the Cartesian field components of every retained
// diffraction order.
type OrderAmplitudes struct {
	X, Y, Z utils.CVector
}

// Response is the external scattering answer: per-order complex
// amplitudes, power-normalized efficiencies, and their totals.
// Evanescent orders carry zero efficiency by definition even though
// their amplitudes are nonzero.
type Response struct {
	R, T           OrderAmplitudes
	REff, TEff     []float64
	TotalR, TotalT float64

	// KzRef and KzTrm are the normalized out-of-plane wavevectors in
	// the two half spaces, retained for farfield and field queries.
	KzRef, KzTrm []complex128
	// CSrc is the incident mode coefficient vector.
	CSrc utils.CVector
	// IncX/Y/Z are the incident plane-wave field components, needed to
	// assemble the total ambient field.
	IncX, IncY, IncZ complex128
}

// ComputeResponse expands the global S-matrix answer into diffraction
// order amplitudes and efficiencies. epsRef/epsTrm are the relative
// permittivities of the semi-infinite incidence and substrate media.
func ComputeResponse(S smatrix.ScatteringMatrix, refModes, trmModes *modes.LayerModes,
	kv *modes.WaveVectors, src *Source, epsRef, epsTrm complex128) (resp *Response, err error) {
	var (
		nt = kv.NumTerms()
	)
	csrc, err := src.ModeCoefficients(refModes, kv)
	if err != nil {
		return
	}
	var (
		rmode = S.S11.MulVec(csrc)
		tmode = S.S21.MulVec(csrc)
		r     = refModes.W.MulVec(rmode)
		t     = trmModes.W.MulVec(tmode)
		kzRef = kv.KzHomogeneous(epsRef, 1)
		kzTrm = kv.KzHomogeneous(epsTrm, 1)
	)
	px, py, pz := src.Polarization()
	resp = &Response{
		R:     splitAmplitudes(r, kv, kzRef, -1),
		T:     splitAmplitudes(t, kv, kzTrm, +1),
		KzRef: kzRef,
		KzTrm: kzTrm,
		CSrc:  csrc,
		IncX:  px,
		IncY:  py,
		IncZ:  pz,
	}
	var (
		kzInc = src.incidentKz(cmplx.Sqrt(epsRef))
	)
	if kzInc <= 0 {
		err = &utils.UnsupportedConfigurationError{Msg: "grazing or inverted incidence: cos(theta) must be positive"}
		return
	}
	resp.REff = efficiencies(resp.R, kzRef, kzInc)
	resp.TEff = efficiencies(resp.T, kzTrm, kzInc)
	for i := 0; i < nt; i++ {
		resp.TotalR += resp.REff[i]
		resp.TotalT += resp.TEff[i]
	}
	return
}

// splitAmplitudes separates the stacked transverse vector into x/y
// components and recovers z from the divergence relation
// kx*Ex + ky*Ey + dir*kz*Ez = 0 of the homogeneous half space, with
// dir = -1 for the upward (reflected) family.
func splitAmplitudes(tv utils.CVector, kv *modes.WaveVectors, kz []complex128, dir float64) OrderAmplitudes {
	var (
		nt = kv.NumTerms()
		ax = utils.NewCVector(nt)
		ay = utils.NewCVector(nt)
		az = utils.NewCVector(nt)
	)
	for i := 0; i < nt; i++ {
		ax.V[i] = tv.V[i]
		ay.V[i] = tv.V[i+nt]
		if cmplx.Abs(kz[i]) < 1.e-12 {
			// grazing order: the wavevector lies in plane and the
			// divergence relation no longer constrains the z component
			az.V[i] = 0
			continue
		}
		az.V[i] = -(kv.KxD[i]*ax.V[i] + kv.KyD[i]*ay.V[i]) / (complex(dir, 0) * kz[i])
	}
	return OrderAmplitudes{X: ax, Y: ay, Z: az}
}

// efficiencies applies the power normalization Re(kz)/kzInc per order.
// Orders with no real longitudinal flux (evanescent) report exactly
// zero.
func efficiencies(a OrderAmplitudes, kz []complex128, kzInc float64) (eff []float64) {
	eff = make([]float64, a.X.Len())
	for i := range eff {
		flux := real(kz[i])
		if flux <= 0 {
			eff[i] = 0
			continue
		}
		var (
			m2 = sq(a.X.V[i]) + sq(a.Y.V[i]) + sq(a.Z.V[i])
		)
		eff[i] = m2 * flux / kzInc
	}
	return
}

func sq(v complex128) float64 {
	return real(v)*real(v) + imag(v)*imag(v)
}

// Propagating reports which orders carry power in a medium of the given
// permittivity: the in-plane wavevector magnitude must stay below the
// medium wavenumber.
func Propagating(kv *modes.WaveVectors, eps complex128) (mask []bool) {
	mask = make([]bool, kv.NumTerms())
	for i := range mask {
		kt2 := real(kv.KxD[i])*real(kv.KxD[i]) + real(kv.KyD[i])*real(kv.KyD[i])
		mask[i] = kt2 < real(eps)
	}
	return
}

package fields

import (
	"fmt"
	"math/cmplx"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/modes"
	"github.com/opticore/gorcwa/smatrix"
	"github.com/opticore/gorcwa/utils"
)

// LayerData is the retained per-layer state a field query needs.
type LayerData struct {
	Modes     *modes.LayerModes
	Coef      *fourier.Coefficients
	Thickness float64
	ZTop      float64 // cumulative depth of the layer's top interface
}

// FieldSolver reconstructs E/H anywhere in the stack from the retained
// partial S-matrices. z runs downward: z < 0 is the incidence half
// space, z > total thickness the substrate. The H fields returned are
// the normalized magnetic fields (-j*eta0*H) the eigenmode bases carry.
type FieldSolver struct {
	K0     float64
	Kv     *modes.WaveVectors
	Gap    *modes.LayerModes
	Layers []LayerData
	Parts  *smatrix.Partials // over [reflection side, layers..., transmission side]
	Resp   *Response
	Lat    fourier.Lattice

	// cached per-layer internal mode coefficients
	cPlus, cMinus []utils.CVector
}

func NewFieldSolver(k0 float64, kv *modes.WaveVectors, gap *modes.LayerModes,
	layers []LayerData, parts *smatrix.Partials, resp *Response, lat fourier.Lattice) *FieldSolver {
	return &FieldSolver{
		K0:     k0,
		Kv:     kv,
		Gap:    gap,
		Layers: layers,
		Parts:  parts,
		Resp:   resp,
		Lat:    lat,
		cPlus:  make([]utils.CVector, len(layers)),
		cMinus: make([]utils.CVector, len(layers)),
	}
}

func (fs *FieldSolver) TotalThickness() (d float64) {
	for _, l := range fs.Layers {
		d += l.Thickness
	}
	return
}

// gapAmplitudes solves the standing-wave amplitudes in the gap between
// operator prefix[i] and suffix[i+1] driven by the incident source.
func (fs *FieldSolver) gapAmplitudes(i int) (aPlus, aMinus utils.CVector, err error) {
	var (
		pre = fs.Parts.Prefix[i]
		suf = fs.Parts.Suffix[i+1]
		n   = pre.Dim()
		I   = utils.NewCMatrixIdentity(n)
		M   = I.Copy().Subtract(pre.S22.Mul(suf.S11))
	)
	rhs := pre.S21.MulVec(fs.Resp.CSrc)
	if aPlus, err = M.SolveVec(rhs); err != nil {
		return
	}
	aMinus = suf.S11.MulVec(aPlus)
	return
}

// layerCoefficients back-substitutes the mode amplitudes inside layer i.
// The forward set c+ is referenced at the top interface and the backward
// set c- at the bottom, so both propagate by decaying factors only.
func (fs *FieldSolver) layerCoefficients(i int) (cp, cm utils.CVector, err error) {
	if fs.cPlus[i].V != nil {
		return fs.cPlus[i], fs.cMinus[i], nil
	}
	var (
		lm         = fs.Layers[i].Modes
		WiWg, ViVg utils.CMatrix
	)
	if WiWg, err = lm.W.Solve(fs.Gap.W); err != nil {
		return
	}
	if ViVg, err = lm.V.Solve(fs.Gap.V); err != nil {
		return
	}
	var (
		A = WiWg.Copy().Add(ViVg)
		B = WiWg.Copy().Subtract(ViVg)
	)
	aPlus, aMinus, err := fs.gapAmplitudes(i) // gap above layer i
	if err != nil {
		return
	}
	bPlus, bMinus, err := fs.gapAmplitudes(i + 1) // gap below layer i
	if err != nil {
		return
	}
	cp = A.MulVec(aPlus).Add(B.MulVec(aMinus)).Scale(0.5)
	cm = B.MulVec(bPlus).Add(A.MulVec(bMinus)).Scale(0.5)
	fs.cPlus[i], fs.cMinus[i] = cp, cm
	return
}

// FourierAmplitudes returns the six field component harmonic vectors at
// depth z.
func (fs *FieldSolver) FourierAmplitudes(z float64) (ex, ey, ez, hx, hy, hz utils.CVector, err error) {
	var (
		nt = fs.Kv.NumTerms()
	)
	if z < 0 {
		return fs.halfSpaceAmplitudes(z, true)
	}
	if z >= fs.TotalThickness() {
		return fs.halfSpaceAmplitudes(z, false)
	}
	li := 0
	for li < len(fs.Layers)-1 && z >= fs.Layers[li].ZTop+fs.Layers[li].Thickness {
		li++
	}
	cp, cm, err := fs.layerCoefficients(li)
	if err != nil {
		return
	}
	var (
		ld    = fs.Layers[li]
		lm    = ld.Modes
		zl    = z - ld.ZTop
		decUp = utils.NewCVector(2 * nt)
		decDn = utils.NewCVector(2 * nt)
	)
	for i := 0; i < 2*nt; i++ {
		g := lm.Gamma.V[i]
		decUp.V[i] = cmplx.Exp(-g * complex(fs.K0*zl, 0))
		decDn.V[i] = cmplx.Exp(-g * complex(fs.K0*(ld.Thickness-zl), 0))
	}
	var (
		fwd = cp.Copy().ElMul(decUp)
		bwd = cm.Copy().ElMul(decDn)
		et  = lm.W.MulVec(fwd.Copy().Add(bwd))
		ht  = lm.V.MulVec(fwd.Subtract(bwd))
	)
	ex, ey = splitTransverse(et, nt)
	hx, hy = splitTransverse(ht, nt)
	ez = longitudinalE(ld.Coef.InvEpsZZ, fs.Kv, hx, hy)
	hz = longitudinalH(ld.Coef.InvMuZZ, fs.Kv, ex, ey)
	return
}

// halfSpaceAmplitudes evaluates the ambient (incident + reflected) or
// substrate (transmitted) expansion. Evanescent tails decay away from
// the stack.
func (fs *FieldSolver) halfSpaceAmplitudes(z float64, ambient bool) (ex, ey, ez, hx, hy, hz utils.CVector, err error) {
	var (
		nt = fs.Kv.NumTerms()
	)
	ex, ey, ez = utils.NewCVector(nt), utils.NewCVector(nt), utils.NewCVector(nt)
	hx, hy, hz = utils.NewCVector(nt), utils.NewCVector(nt), utils.NewCVector(nt)
	// h = -j * k x e per plane wave (normalized units, mu = 1), with
	// the longitudinal wavevector signed by the travel direction.
	accumulate := func(i int, kz, eix, eiy, eiz complex128) {
		kx, ky := fs.Kv.KxD[i], fs.Kv.KyD[i]
		ex.V[i] += eix
		ey.V[i] += eiy
		ez.V[i] += eiz
		hx.V[i] += -1i * (ky*eiz - kz*eiy)
		hy.V[i] += -1i * (kz*eix - kx*eiz)
		hz.V[i] += -1i * (kx*eiy - ky*eix)
	}
	if ambient {
		var (
			amp  = fs.Resp.R
			dist = -z
		)
		// The phase exp(+j k0 kz d) with d the travel distance from the
		// interface decays for Im(kz) >= 0 and advances the propagating
		// orders away from the stack.
		for i := 0; i < nt; i++ {
			ph := cmplx.Exp(complex(0, fs.K0*dist) * fs.Resp.KzRef[i])
			accumulate(i, -fs.Resp.KzRef[i], amp.X.V[i]*ph, amp.Y.V[i]*ph, amp.Z.V[i]*ph)
		}
		// incident plane wave, downward through the zero order
		if i0, found := fs.Kv.Ex.IndexOf(0, 0); found {
			kz := fs.Resp.KzRef[i0]
			ph := cmplx.Exp(complex(0, fs.K0*z) * kz)
			accumulate(i0, kz, fs.Resp.IncX*ph, fs.Resp.IncY*ph, fs.Resp.IncZ*ph)
		}
	} else {
		var (
			amp  = fs.Resp.T
			dist = z - fs.TotalThickness()
		)
		for i := 0; i < nt; i++ {
			ph := cmplx.Exp(complex(0, fs.K0*dist) * fs.Resp.KzTrm[i])
			accumulate(i, fs.Resp.KzTrm[i], amp.X.V[i]*ph, amp.Y.V[i]*ph, amp.Z.V[i]*ph)
		}
	}
	return
}

// FieldAt evaluates the physical-space fields at one point by direct
// summation over the retained orders.
func (fs *FieldSolver) FieldAt(x, y, z float64) (E, H [3]complex128, err error) {
	ex, ey, ez, hx, hy, hz, err := fs.FourierAmplitudes(z)
	if err != nil {
		return
	}
	for i := 0; i < fs.Kv.NumTerms(); i++ {
		ph := cmplx.Exp(complex(0, fs.K0) * (fs.Kv.KxD[i]*complex(x, 0) + fs.Kv.KyD[i]*complex(y, 0)))
		E[0] += ex.V[i] * ph
		E[1] += ey.V[i] * ph
		E[2] += ez.V[i] * ph
		H[0] += hx.V[i] * ph
		H[1] += hy.V[i] * ph
		H[2] += hz.V[i] * ph
	}
	return
}

// GridSlice expands a full (nx x ny) real-space map of the six field
// components over one unit cell at depth z via the inverse FFT.
func (fs *FieldSolver) GridSlice(z float64, nx, ny int) (E, H [3]utils.CMatrix, err error) {
	if nx < 2*fs.Kv.Ex.MaxM+1 || ny < 2*fs.Kv.Ex.MaxN+1 {
		err = &utils.InvalidGeometryError{Msg: fmt.Sprintf("output grid %dx%d cannot hold the retained orders", nx, ny)}
		return
	}
	ex, ey, ez, hx, hy, hz, err := fs.FourierAmplitudes(z)
	if err != nil {
		return
	}
	var (
		comps = [6]utils.CVector{ex, ey, ez, hx, hy, hz}
		i0, _ = fs.Kv.Ex.IndexOf(0, 0)
		kx0   = fs.Kv.KxD[i0]
		ky0   = fs.Kv.KyD[i0]
		grids [6]utils.CMatrix
	)
	for c, amp := range comps {
		bins := utils.NewCMatrix(ny, nx)
		for i, o := range fs.Kv.Ex.Orders {
			// Under the exp(+j m G.r) expansion order (m, n) lands
			// directly in its FFT bin.
			bi := ((o.M % nx) + nx) % nx
			bj := ((o.N % ny) + ny) % ny
			bins.Set(bj, bi, amp.V[i])
		}
		grids[c] = fourier.InverseFFT2(bins)
		// Bloch envelope over the cell
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				x, y := fs.Lat.Position(float64(i)/float64(nx), float64(j)/float64(ny))
				env := cmplx.Exp(complex(0, fs.K0) * (kx0*complex(x, 0) + ky0*complex(y, 0)))
				grids[c].Set(j, i, grids[c].At(j, i)*env)
			}
		}
	}
	E = [3]utils.CMatrix{grids[0], grids[1], grids[2]}
	H = [3]utils.CMatrix{grids[3], grids[4], grids[5]}
	return
}

func splitTransverse(tv utils.CVector, nt int) (x, y utils.CVector) {
	x, y = utils.NewCVector(nt), utils.NewCVector(nt)
	copy(x.V, tv.V[:nt])
	copy(y.V, tv.V[nt:])
	return
}

// longitudinalE recovers Ez = -j*inv(eps_zz)*(Kx*hy - Ky*hx).
func longitudinalE(invEpsZZ utils.CMatrix, kv *modes.WaveVectors, hx, hy utils.CVector) utils.CVector {
	v := utils.NewCVector(hx.Len())
	for i := range v.V {
		v.V[i] = kv.KxD[i]*hy.V[i] - kv.KyD[i]*hx.V[i]
	}
	return invEpsZZ.MulVec(v).Scale(-1i)
}

// longitudinalH recovers Hz = -j*inv(mu_zz)*(Kx*ey - Ky*ex).
func longitudinalH(invMuZZ utils.CMatrix, kv *modes.WaveVectors, ex, ey utils.CVector) utils.CVector {
	v := utils.NewCVector(ex.Len())
	for i := range v.V {
		v.V[i] = kv.KxD[i]*ey.V[i] - kv.KyD[i]*ex.V[i]
	}
	return invMuZZ.MulVec(v).Scale(-1i)
}

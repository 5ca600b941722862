package fourier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/opticore/gorcwa/utils"
)

// Rule selects the factorization applied to the in-plane permittivity
// couplings. The zz components always use the Laurent rule (the normal
// field component there is handled by the layer interfaces, not the
// in-plane expansion).
type Rule uint8

const (
	// Laurent is the plain convolution (direct) rule.
	Laurent Rule = iota
	// LiInverse applies Li's inverse rule per axis, correct for
	// discontinuities aligned with the coordinate axes.
	LiInverse
	// NormalVector blends direct and inverse rules by the local
	// interface normal, for non-axis-aligned patterns.
	NormalVector
)

var rule_names = []string{
	"Laurent (direct) rule",
	"Li inverse rule",
	"Normal-vector rule",
}

func (r Rule) String() string { return rule_names[r] }

// Coefficients holds the harmonic-basis matrices of one layer, ready for
// mode operator assembly. All matrices are NumTerms x NumTerms.
type Coefficients struct {
	EpsXX, EpsXY, EpsYX, EpsYY utils.CMatrix
	EpsZZ                      utils.CMatrix
	InvEpsZZ                   utils.CMatrix
	MuXX, MuYY                 utils.CMatrix
	InvMuZZ                    utils.CMatrix

	NumTerms int
	// Aliased flags a thin Nyquist margin: the grid resolves the
	// requested coefficient range but not twice over, so results may
	// carry aliasing error. The computation proceeds.
	Aliased bool
	// Uniform marks the homogeneous fast path.
	Uniform         bool
	EpsHomo, MuHomo complex128
}

// Factorize builds the Fourier-coefficient matrices for one unit cell.
// Fails with InvalidGeometry when the grid cannot resolve the requested
// harmonic range at all.
func Factorize(uc *UnitCell, ex *Expansion, rule Rule) (coef *Coefficients, err error) {
	var (
		nt = ex.NumTerms()
	)
	if aliasErr := checkSampling(uc, ex); aliasErr != nil {
		return nil, aliasErr
	}
	coef = &Coefficients{NumTerms: nt}
	coef.Aliased = thinNyquist(uc, ex)

	if eps, mu, ok := uc.Homogeneous(); ok {
		ident := utils.NewCMatrixIdentity(nt)
		coef.Uniform = true
		coef.EpsHomo, coef.MuHomo = eps, mu
		coef.EpsXX = ident.Copy().Scale(eps)
		coef.EpsYY = ident.Copy().Scale(eps)
		coef.EpsZZ = ident.Copy().Scale(eps)
		coef.EpsXY = utils.NewCMatrix(nt, nt)
		coef.EpsYX = utils.NewCMatrix(nt, nt)
		coef.InvEpsZZ = ident.Copy().Scale(1 / eps)
		coef.MuXX = ident.Copy().Scale(mu)
		coef.MuYY = ident.Copy().Scale(mu)
		coef.InvMuZZ = ident.Copy().Scale(1 / mu)
		return
	}

	coef.EpsZZ = convolutionMatrix(uc.EpsZZ, ex)
	if coef.InvEpsZZ, err = coef.EpsZZ.Inverse(); err != nil {
		return nil, &utils.SingularOperatorError{Context: "zz permittivity convolution matrix is singular"}
	}
	coef.MuXX = convolutionMatrix(uc.MuXX, ex)
	coef.MuYY = convolutionMatrix(uc.MuYY, ex)
	muZZ := convolutionMatrix(uc.MuZZ, ex)
	if coef.InvMuZZ, err = muZZ.Inverse(); err != nil {
		return nil, &utils.SingularOperatorError{Context: "zz permeability convolution matrix is singular"}
	}

	coef.EpsXY = utils.NewCMatrix(nt, nt)
	coef.EpsYX = utils.NewCMatrix(nt, nt)
	switch rule {
	case Laurent:
		coef.EpsXX = convolutionMatrix(uc.EpsXX, ex)
		coef.EpsYY = convolutionMatrix(uc.EpsYY, ex)
	case LiInverse:
		if coef.EpsXX, err = inverseRuleX(uc.EpsXX, ex); err != nil {
			return nil, err
		}
		if coef.EpsYY, err = inverseRuleY(uc.EpsYY, ex); err != nil {
			return nil, err
		}
	case NormalVector:
		if coef.EpsXX, coef.EpsXY, coef.EpsYX, coef.EpsYY, err = normalVectorRule(uc, ex); err != nil {
			return nil, err
		}
	default:
		return nil, &utils.UnsupportedConfigurationError{Msg: fmt.Sprintf("unknown factorization rule %d", rule)}
	}
	return
}

// checkSampling fails hard when the grid has fewer samples than retained
// harmonics along either axis.
func checkSampling(uc *UnitCell, ex *Expansion) error {
	if ex.MaxM > 0 && uc.Nx < 2*ex.MaxM+1 {
		return &utils.InvalidGeometryError{
			Msg: fmt.Sprintf("grid Nx = %d cannot resolve harmonic order %d (need at least %d samples)",
				uc.Nx, ex.MaxM, 2*ex.MaxM+1),
		}
	}
	if ex.MaxN > 0 && uc.Ny < 2*ex.MaxN+1 {
		return &utils.InvalidGeometryError{
			Msg: fmt.Sprintf("grid Ny = %d cannot resolve harmonic order %d (need at least %d samples)",
				uc.Ny, ex.MaxN, 2*ex.MaxN+1),
		}
	}
	return nil
}

// thinNyquist flags grids that resolve the coefficient differences
// (2*order) without margin.
func thinNyquist(uc *UnitCell, ex *Expansion) bool {
	if ex.MaxM > 0 && uc.Nx < 4*ex.MaxM+1 {
		return true
	}
	if ex.MaxN > 0 && uc.Ny < 4*ex.MaxN+1 {
		return true
	}
	return false
}

// convolutionMatrix is the Toeplitz-structured Laurent-rule matrix
// [[f]]_{pq} = f_hat(m_p - m_q, n_p - n_q).
func convolutionMatrix(grid utils.CMatrix, ex *Expansion) (R utils.CMatrix) {
	var (
		sp = NewSpectrum(grid)
		nt = ex.NumTerms()
	)
	R = utils.NewCMatrix(nt, nt)
	data := R.RawCMatrix().Data
	for p, op := range ex.Orders {
		for q, oq := range ex.Orders {
			data[p*nt+q] = sp.Coef(op.M-oq.M, op.N-oq.N)
		}
	}
	return
}

// inverseRuleX applies Li's inverse rule along x and the Laurent rule
// along y: per y-row, the Toeplitz matrix of 1/f is inverted, and the
// row-resolved inverse matrices are then Fourier-transformed along y.
func inverseRuleX(grid utils.CMatrix, ex *Expansion) (R utils.CMatrix, err error) {
	var (
		ny, nx = grid.Dims()
		data   = grid.RawCMatrix().Data
		nm     = 2*ex.MaxM + 1 // x-harmonic index range
		rowFFT = fourier.NewCmplxFFT(nx)
	)
	// Per-row 1D inverse-rule matrices.
	rows := make([]utils.CMatrix, ny)
	tmp := make([]complex128, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			tmp[i] = 1 / data[j*nx+i]
		}
		rowFFT.Coefficients(tmp, tmp)
		T := utils.NewCMatrix(nm, nm)
		dT := T.RawCMatrix().Data
		for a := 0; a < nm; a++ {
			for b := 0; b < nm; b++ {
				d := (a - b) % nx
				if d < 0 {
					d += nx
				}
				dT[a*nm+b] = tmp[d] / complex(float64(nx), 0)
			}
		}
		if rows[j], err = T.Inverse(); err != nil {
			return R, &utils.SingularOperatorError{Context: fmt.Sprintf("inverse-rule Toeplitz matrix singular at row %d", j)}
		}
	}
	// Fourier transform each matrix entry along y and assemble.
	var (
		colFFT = fourier.NewCmplxFFT(ny)
		nt     = ex.NumTerms()
		col    = make([]complex128, ny)
		spec   = make([][]complex128, nm*nm)
	)
	for a := 0; a < nm; a++ {
		for b := 0; b < nm; b++ {
			for j := 0; j < ny; j++ {
				col[j] = rows[j].At(a, b)
			}
			colFFT.Coefficients(col, col)
			entry := make([]complex128, ny)
			for j := range col {
				entry[j] = col[j] / complex(float64(ny), 0)
			}
			spec[a*nm+b] = entry
		}
	}
	R = utils.NewCMatrix(nt, nt)
	dR := R.RawCMatrix().Data
	for p, op := range ex.Orders {
		for q, oq := range ex.Orders {
			var (
				a = op.M + ex.MaxM
				b = oq.M + ex.MaxM
				d = (op.N - oq.N) % ny
			)
			if d < 0 {
				d += ny
			}
			dR[p*nt+q] = spec[a*nm+b][d]
		}
	}
	return
}

// inverseRuleY is the transpose construction of inverseRuleX: inverse
// rule along y, Laurent along x.
func inverseRuleY(grid utils.CMatrix, ex *Expansion) (R utils.CMatrix, err error) {
	var (
		ny, nx = grid.Dims()
		data   = grid.RawCMatrix().Data
		nn     = 2*ex.MaxN + 1
		colFFT = fourier.NewCmplxFFT(ny)
	)
	cols := make([]utils.CMatrix, nx)
	tmp := make([]complex128, ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			tmp[j] = 1 / data[j*nx+i]
		}
		colFFT.Coefficients(tmp, tmp)
		T := utils.NewCMatrix(nn, nn)
		dT := T.RawCMatrix().Data
		for a := 0; a < nn; a++ {
			for b := 0; b < nn; b++ {
				d := (a - b) % ny
				if d < 0 {
					d += ny
				}
				dT[a*nn+b] = tmp[d] / complex(float64(ny), 0)
			}
		}
		if cols[i], err = T.Inverse(); err != nil {
			return R, &utils.SingularOperatorError{Context: fmt.Sprintf("inverse-rule Toeplitz matrix singular at column %d", i)}
		}
	}
	var (
		rowFFT = fourier.NewCmplxFFT(nx)
		nt     = ex.NumTerms()
		row    = make([]complex128, nx)
		spec   = make([][]complex128, nn*nn)
	)
	for a := 0; a < nn; a++ {
		for b := 0; b < nn; b++ {
			for i := 0; i < nx; i++ {
				row[i] = cols[i].At(a, b)
			}
			rowFFT.Coefficients(row, row)
			entry := make([]complex128, nx)
			for i := range row {
				entry[i] = row[i] / complex(float64(nx), 0)
			}
			spec[a*nn+b] = entry
		}
	}
	R = utils.NewCMatrix(nt, nt)
	dR := R.RawCMatrix().Data
	for p, op := range ex.Orders {
		for q, oq := range ex.Orders {
			var (
				a = op.N + ex.MaxN
				b = oq.N + ex.MaxN
				d = (op.M - oq.M) % nx
			)
			if d < 0 {
				d += nx
			}
			dR[p*nt+q] = spec[a*nn+b][d]
		}
	}
	return
}

// normalVectorRule builds the tensor factorization
//
//	eps_hat = [[E - S(Nxx), -S(Nxy)], [-S(Nxy), E - S(Nyy)]]
//
// where E is the Laurent matrix, D = E - inv([[1/eps]]) is the
// direct/inverse-rule difference operator, Nxx, Nxy, Nyy are the
// convolution matrices of the interface normal-field products, and
// S(N) = (D*N + N*D)/2. D and N are Hermitian for lossless media but
// their product is not; the symmetrized blend keeps eps_hat Hermitian,
// which lossless energy conservation requires.
func normalVectorRule(uc *UnitCell, ex *Expansion) (xx, xy, yx, yy utils.CMatrix, err error) {
	var (
		E    = convolutionMatrix(uc.EpsXX, ex)
		invG utils.CMatrix
	)
	recip := uc.EpsXX.Copy().Apply(func(v complex128) complex128 { return 1 / v })
	if invG, err = convolutionMatrix(recip, ex).Inverse(); err != nil {
		err = &utils.SingularOperatorError{Context: "reciprocal permittivity convolution matrix is singular"}
		return
	}
	D := E.Copy().Subtract(invG)

	nxg, nyg := normalField(uc)
	nxx := nxg.Copy().Apply(func(v float64) float64 { return v * v })
	nyy := nyg.Copy().Apply(func(v float64) float64 { return v * v })
	nxy := nxg.Copy()
	{
		dA := nxy.RawMatrix().Data
		dB := nyg.RawMatrix().Data
		for i := range dA {
			dA[i] *= dB[i]
		}
	}
	var (
		Nxx = convolutionMatrix(nxx.ToComplex(), ex)
		Nyy = convolutionMatrix(nyy.ToComplex(), ex)
		Nxy = convolutionMatrix(nxy.ToComplex(), ex)
	)
	sym := func(N utils.CMatrix) utils.CMatrix {
		return D.Mul(N).Add(N.Mul(D)).Scale(0.5)
	}
	xx = E.Copy().Subtract(sym(Nxx))
	yy = E.Copy().Subtract(sym(Nyy))
	xy = sym(Nxy).Scale(-1)
	yx = xy.Copy()
	return
}

// normalField estimates the unit interface normal from the smoothed
// gradient of the permittivity magnitude. Samples with no appreciable
// gradient default to an x-directed normal; the difference operator D
// vanishes there, so the choice has no effect.
func normalField(uc *UnitCell) (nx, ny utils.Matrix) {
	var (
		h, w = uc.EpsXX.Dims()
		mag  = utils.NewMatrix(h, w)
		dM   = mag.RawMatrix().Data
		dE   = uc.EpsXX.RawCMatrix().Data
	)
	for i, v := range dE {
		dM[i] = math.Hypot(real(v), imag(v))
	}
	// Box smoothing to spread the interface over a few samples.
	for pass := 0; pass < 2; pass++ {
		sm := utils.NewMatrix(h, w)
		dS := sm.RawMatrix().Data
		for j := 0; j < h; j++ {
			for i := 0; i < w; i++ {
				var sum float64
				for dj := -1; dj <= 1; dj++ {
					for di := -1; di <= 1; di++ {
						jj := ((j+dj)%h + h) % h
						ii := ((i+di)%w + w) % w
						sum += dM[jj*w+ii]
					}
				}
				dS[j*w+i] = sum / 9
			}
		}
		mag, dM = sm, dS
	}
	nx = utils.NewMatrix(h, w)
	ny = utils.NewMatrix(h, w)
	var (
		dNx = nx.RawMatrix().Data
		dNy = ny.RawMatrix().Data
	)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			var (
				ip = (i + 1) % w
				im = ((i-1)%w + w) % w
				jp = (j + 1) % h
				jm = ((j-1)%h + h) % h
				gx = dM[j*w+ip] - dM[j*w+im]
				gy = dM[jp*w+i] - dM[jm*w+i]
				g  = math.Hypot(gx, gy)
			)
			if g < 1.e-12 {
				dNx[j*w+i], dNy[j*w+i] = 1, 0
				continue
			}
			dNx[j*w+i], dNy[j*w+i] = gx/g, gy/g
		}
	}
	return
}

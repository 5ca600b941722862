package fourier

import (
	"math"
	"math/cmplx"

	"github.com/james-bowman/sparse"
	"github.com/opticore/gorcwa/utils"
)

// UnitCell is the regularly sampled material map of one layer. Grids are
// stored as (Ny x Nx) complex matrices indexed [y][x], sampled at the
// fractional positions (i/Nx, j/Ny). Diagonal permittivity/permeability
// tensors are supported; the three components coincide for isotropic
// media.
type UnitCell struct {
	Lat    Lattice
	Nx, Ny int

	EpsXX, EpsYY, EpsZZ utils.CMatrix
	MuXX, MuYY, MuZZ    utils.CMatrix
}

func NewUniformCell(lat Lattice, nx, ny int, eps, mu complex128) (uc *UnitCell, err error) {
	if uc, err = NewPatternedCell(lat, nx, ny, eps); err != nil {
		return
	}
	uniform := func(val complex128) utils.CMatrix {
		return utils.NewCMatrix(ny, nx).Apply(func(complex128) complex128 { return val })
	}
	uc.MuXX, uc.MuYY, uc.MuZZ = uniform(mu), uniform(mu), uniform(mu)
	return
}

// NewPatternedCell starts from a uniform background permittivity; call
// Paint to add inclusions. Permeability defaults to unity.
func NewPatternedCell(lat Lattice, nx, ny int, background complex128) (uc *UnitCell, err error) {
	if nx < 1 || ny < 1 {
		err = &utils.InvalidGeometryError{Msg: "unit cell grid dimensions must be positive"}
		return
	}
	if real(background) == 0 && imag(background) == 0 {
		err = &utils.InvalidGeometryError{Msg: "zero permittivity is not physical"}
		return
	}
	uniform := func(val complex128) utils.CMatrix {
		return utils.NewCMatrix(ny, nx).Apply(func(complex128) complex128 { return val })
	}
	uc = &UnitCell{
		Lat:   lat,
		Nx:    nx,
		Ny:    ny,
		EpsXX: uniform(background),
		EpsYY: uniform(background),
		EpsZZ: uniform(background),
		MuXX:  uniform(1),
		MuYY:  uniform(1),
		MuZZ:  uniform(1),
	}
	return
}

// SetEpsTensor installs distinct diagonal permittivity components.
func (uc *UnitCell) SetEpsTensor(xx, yy, zz utils.CMatrix) {
	uc.EpsXX, uc.EpsYY, uc.EpsZZ = xx, yy, zz
}

// Inclusion is a parametric shape painted onto the cell, defined in the
// Cartesian frame of the lattice.
type Inclusion interface {
	Contains(x, y float64) bool
}

type Rectangle struct {
	Cx, Cy float64 // center
	Wx, Wy float64 // full widths
	Angle  float64 // rotation, radians
}

func (r Rectangle) Contains(x, y float64) bool {
	var (
		dx = x - r.Cx
		dy = y - r.Cy
		c  = math.Cos(r.Angle)
		s  = math.Sin(r.Angle)
	)
	lx := c*dx + s*dy
	ly := -s*dx + c*dy
	return math.Abs(lx) <= r.Wx/2 && math.Abs(ly) <= r.Wy/2
}

type Disc struct {
	Cx, Cy float64
	R      float64
}

func (d Disc) Contains(x, y float64) bool {
	var (
		dx = x - d.Cx
		dy = y - d.Cy
	)
	return dx*dx+dy*dy <= d.R*d.R
}

type Ellipse struct {
	Cx, Cy float64
	Rx, Ry float64
	Angle  float64
}

func (e Ellipse) Contains(x, y float64) bool {
	var (
		dx = x - e.Cx
		dy = y - e.Cy
		c  = math.Cos(e.Angle)
		s  = math.Sin(e.Angle)
	)
	lx := (c*dx + s*dy) / e.Rx
	ly := (-s*dx + c*dy) / e.Ry
	return lx*lx+ly*ly <= 1
}

// Paint rasterizes the inclusions at the given permittivity. The covered
// samples are accumulated in a sparse DOK mask first, so overlapping
// shapes resolve to a single assignment per sample, then flushed onto
// the dense grids.
func (uc *UnitCell) Paint(eps complex128, shapes ...Inclusion) {
	var (
		mask = sparse.NewDOK(uc.Ny, uc.Nx)
	)
	for j := 0; j < uc.Ny; j++ {
		for i := 0; i < uc.Nx; i++ {
			var (
				u = float64(i) / float64(uc.Nx)
				v = float64(j) / float64(uc.Ny)
			)
			if uc.covered(u, v, shapes) {
				mask.Set(j, i, 1)
			}
		}
	}
	mask.ToCSR().DoNonZero(func(j, i int, _ float64) {
		uc.EpsXX.Set(j, i, eps)
		uc.EpsYY.Set(j, i, eps)
		uc.EpsZZ.Set(j, i, eps)
	})
}

// covered tests the sample and its periodic images so shapes may cross
// the cell boundary.
func (uc *UnitCell) covered(u, v float64, shapes []Inclusion) bool {
	for du := -1.0; du <= 1.0; du++ {
		for dv := -1.0; dv <= 1.0; dv++ {
			x, y := uc.Lat.Position(u+du, v+dv)
			for _, s := range shapes {
				if s.Contains(x, y) {
					return true
				}
			}
		}
	}
	return false
}

// Homogeneous reports whether every grid is uniform, returning the
// common permittivity and permeability when it is.
func (uc *UnitCell) Homogeneous() (eps, mu complex128, ok bool) {
	var (
		uniform = func(m utils.CMatrix) (complex128, bool) {
			data := m.RawCMatrix().Data
			v0 := data[0]
			for _, val := range data {
				if cmplx.Abs(val-v0) > 1.e-14*(1+cmplx.Abs(v0)) {
					return 0, false
				}
			}
			return v0, true
		}
	)
	exx, ok1 := uniform(uc.EpsXX)
	eyy, ok2 := uniform(uc.EpsYY)
	ezz, ok3 := uniform(uc.EpsZZ)
	mxx, ok4 := uniform(uc.MuXX)
	myy, ok5 := uniform(uc.MuYY)
	mzz, ok6 := uniform(uc.MuZZ)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return 0, 0, false
	}
	if cmplx.Abs(exx-eyy) > 1.e-14 || cmplx.Abs(exx-ezz) > 1.e-14 ||
		cmplx.Abs(mxx-myy) > 1.e-14 || cmplx.Abs(mxx-mzz) > 1.e-14 {
		return 0, 0, false
	}
	return exx, mxx, true
}

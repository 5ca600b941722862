package fourier

import (
	"math"

	"github.com/opticore/gorcwa/utils"
)

// Lattice holds the primitive vectors U, V of the periodic unit cell.
type Lattice struct {
	Ux, Uy float64
	Vx, Vy float64
}

// NewLattice1D is the degenerate 2D lattice of a 1D grating with the
// given period along x. The y period is a dummy unit vector; a 1D
// computation retains only n = 0 harmonics along it.
func NewLattice1D(period float64) Lattice {
	return Lattice{Ux: period, Uy: 0, Vx: 0, Vy: 1}
}

func NewLattice(ux, uy, vx, vy float64) (l Lattice, err error) {
	l = Lattice{Ux: ux, Uy: uy, Vx: vx, Vy: vy}
	if math.Abs(l.Area()) < 1.e-300 {
		err = &utils.InvalidGeometryError{Msg: "degenerate lattice: primitive vectors are collinear"}
	}
	return
}

func (l Lattice) Area() float64 {
	return l.Ux*l.Vy - l.Uy*l.Vx
}

// Reciprocal returns the reciprocal lattice vectors Gu, Gv satisfying
// Gu.U = Gv.V = 2*pi and Gu.V = Gv.U = 0.
func (l Lattice) Reciprocal() (gux, guy, gvx, gvy float64) {
	var (
		f = 2 * math.Pi / l.Area()
	)
	gux, guy = f*l.Vy, -f*l.Vx
	gvx, gvy = -f*l.Uy, f*l.Ux
	return
}

// Position maps fractional cell coordinates (u, v) in [0,1) to Cartesian.
func (l Lattice) Position(u, v float64) (x, y float64) {
	x = u*l.Ux + v*l.Vx
	y = u*l.Uy + v*l.Vy
	return
}

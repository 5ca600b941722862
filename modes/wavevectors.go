package modes

import (
	"math"
	"math/cmplx"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/utils"
)

// WaveVectors holds the normalized in-plane Bloch wavevector components
// for every retained harmonic: kx(m,n) = kx0 + (m Gu + n Gv).x / k0,
// all divided by the free-space wavenumber k0. They are shared by every
// layer of one evaluation.
type WaveVectors struct {
	KxD, KyD []complex128 // diagonals
	Kx, Ky   utils.CMatrix
	K0       float64
	Ex       *fourier.Expansion
}

// NewWaveVectors builds the harmonic wavevector grids for a plane wave
// incident from a medium of refractive index nInc at polar angle theta
// and azimuthal angle phi (radians).
func NewWaveVectors(ex *fourier.Expansion, lat fourier.Lattice, wavelength, theta, phi float64, nInc complex128) (kv *WaveVectors) {
	var (
		k0       = 2 * math.Pi / wavelength
		nt       = ex.NumTerms()
		sinTheta = complex(math.Sin(theta), 0)
		kx0      = nInc * sinTheta * complex(math.Cos(phi), 0)
		ky0      = nInc * sinTheta * complex(math.Sin(phi), 0)
	)
	gux, guy, gvx, gvy := lat.Reciprocal()
	kv = &WaveVectors{
		KxD: make([]complex128, nt),
		KyD: make([]complex128, nt),
		K0:  k0,
		Ex:  ex,
	}
	for i, o := range ex.Orders {
		m, n := float64(o.M), float64(o.N)
		kv.KxD[i] = kx0 + complex((m*gux+n*gvx)/k0, 0)
		kv.KyD[i] = ky0 + complex((m*guy+n*gvy)/k0, 0)
	}
	kv.Kx = utils.NewCMatrixDiagonal(kv.KxD)
	kv.Ky = utils.NewCMatrixDiagonal(kv.KyD)
	kv.Kx.SetReadOnly("Kx")
	kv.Ky.SetReadOnly("Ky")
	return
}

// KzHomogeneous returns the normalized out-of-plane wavevectors in a
// homogeneous medium, branch-selected so that Im(kz) >= 0 (decaying away
// from the stack) with propagating modes on the positive real axis.
func (kv *WaveVectors) KzHomogeneous(eps, mu complex128) (kz []complex128) {
	kz = make([]complex128, len(kv.KxD))
	for i := range kz {
		v := cmplx.Sqrt(eps*mu - kv.KxD[i]*kv.KxD[i] - kv.KyD[i]*kv.KyD[i])
		if imag(v) < 0 || (imag(v) == 0 && real(v) < 0) {
			v = -v
		}
		kz[i] = v
	}
	return
}

// NumTerms is the harmonic count N; mode vectors have length 2N.
func (kv *WaveVectors) NumTerms() int { return len(kv.KxD) }

package fields

import (
	"math"

	"github.com/opticore/gorcwa/modes"
	"github.com/opticore/gorcwa/utils"
)

// Source is the incident plane-wave specification: polar/azimuthal
// incidence angles in radians and the complex TE/TM polarization
// amplitudes.
type Source struct {
	Theta, Phi float64
	PTE, PTM   complex128
}

// Polarization returns the Cartesian polarization vector, normalized to
// unit magnitude. The TE unit vector is y-directed at normal incidence.
func (s *Source) Polarization() (px, py, pz complex128) {
	var (
		st, ct = math.Sin(s.Theta), math.Cos(s.Theta)
		sp, cp = math.Sin(s.Phi), math.Cos(s.Phi)
	)
	var teX, teY, teZ float64
	if st < 1.e-12 {
		teX, teY, teZ = 0, 1, 0
	} else {
		teX, teY, teZ = -sp, cp, 0
	}
	// TM = TE x khat, khat the unit propagation direction.
	var (
		kx, ky, kz = st * cp, st * sp, ct
		tmX        = teY*kz - teZ*ky
		tmY        = teZ*kx - teX*kz
		tmZ        = teX*ky - teY*kx
	)
	px = s.PTE*complex(teX, 0) + s.PTM*complex(tmX, 0)
	py = s.PTE*complex(teY, 0) + s.PTM*complex(tmY, 0)
	pz = s.PTE*complex(teZ, 0) + s.PTM*complex(tmZ, 0)
	norm := math.Sqrt(real(px)*real(px) + imag(px)*imag(px) +
		real(py)*real(py) + imag(py)*imag(py) +
		real(pz)*real(pz) + imag(pz)*imag(pz))
	if norm < 1.e-300 {
		return 0, 0, 0
	}
	inv := complex(1/norm, 0)
	return px * inv, py * inv, pz * inv
}

// ModeCoefficients projects the incident transverse field onto the
// reflection-side eigenmode basis: c_src = Wref^-1 * e_src, with e_src
// the delta excitation at the zero diffraction order.
func (s *Source) ModeCoefficients(refModes *modes.LayerModes, kv *modes.WaveVectors) (c utils.CVector, err error) {
	var (
		nt     = kv.NumTerms()
		esrc   = utils.NewCVector(2 * nt)
		px, py complex128
	)
	px, py, _ = s.Polarization()
	i0, found := kv.Ex.IndexOf(0, 0)
	if !found {
		panic("expansion does not contain the zero order")
	}
	esrc.V[i0] = px
	esrc.V[i0+nt] = py
	c, err = refModes.W.SolveVec(esrc)
	return
}

// incidentKz is the normalized longitudinal wavevector of the incident
// wave, the reference flux for efficiency normalization.
func (s *Source) incidentKz(nRef complex128) float64 {
	kz := nRef * complex(math.Cos(s.Theta), 0)
	return real(kz)
}

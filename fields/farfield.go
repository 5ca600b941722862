package fields

import (
	"math"

	"github.com/opticore/gorcwa/modes"
)

// FarfieldAngles maps every retained order to its propagation direction
// in a homogeneous half space of refractive index n. Polar is measured
// from the surface normal, azimuth from the x axis in the surface
// plane. Evanescent orders are pinned to the horizon (polar = pi/2).
func FarfieldAngles(kv *modes.WaveVectors, n float64) (polar, azimuth []float64) {
	var (
		nt = kv.NumTerms()
	)
	polar = make([]float64, nt)
	azimuth = make([]float64, nt)
	for i := 0; i < nt; i++ {
		var (
			kx = real(kv.KxD[i])
			ky = real(kv.KyD[i])
			st = math.Sqrt(kx*kx+ky*ky) / n
		)
		if st >= 1 {
			polar[i] = math.Pi / 2
		} else {
			polar[i] = math.Asin(st)
		}
		azimuth[i] = math.Atan2(ky, kx)
	}
	return
}

// SolidAngleWeights returns the per-order weight d(cos polar) used when
// integrating an angular response; horizon-pinned orders weigh zero.
func SolidAngleWeights(polar []float64) (w []float64) {
	w = make([]float64, len(polar))
	for i, p := range polar {
		w[i] = math.Cos(p)
	}
	return
}

package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/smatrix"
)

var testYAML = `
Title: "Lamellar grating"
Wavelength: 0.64
ThetaDeg: 15
PhiDeg: 0
PTE: 1
Period: 1.0
MaxM: 7
Truncation: circular
Rule: li
Strategy: tree
AmbientIndex: 1.0
SubstrateIndex: 1.5
GridNx: 512
Layers:
  - Thickness: 0.5
    Eps: [1.0]
    Inclusions:
      - Shape: rectangle
        Eps: [6.25]
        Cx: 0.5
        Cy: 0.5
        Wx: 0.45
        Wy: 2.0
  - Thickness: 0.1
    Eps: [2.25]
`

func TestParse(t *testing.T) {
	var ip InputParametersRCWA
	assert.NoError(t, ip.Parse([]byte(testYAML)))
	assert.Equal(t, "Lamellar grating", ip.Title)
	assert.Equal(t, 0.64, ip.Wavelength)
	assert.Equal(t, 7, ip.MaxM)
	assert.Len(t, ip.Layers, 2)
	assert.Len(t, ip.Layers[0].Inclusions, 1)
	// GridNy defaults when omitted
	assert.Equal(t, 1, ip.GridNy)

	wls, err := ip.Wavelengths()
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.64}, wls)

	st, err := ip.BuildStack()
	assert.NoError(t, err)
	assert.Len(t, st.Layers, 2)
	assert.Equal(t, complex128(1.5), st.NSub)
	// second layer is uniform
	eps, _, ok := st.Layers[1].Cell.Homogeneous()
	assert.True(t, ok)
	assert.Equal(t, complex128(2.25), eps)

	cfg, err := ip.BuildConfig()
	assert.NoError(t, err)
	assert.Equal(t, fourier.LiInverse, cfg.Rule)
	assert.Equal(t, smatrix.PairwiseTree, cfg.Strategy)
	assert.InDelta(t, 15*3.14159265358979/180, cfg.Theta, 1.e-10)
	assert.Equal(t, complex128(1), cfg.PTE)
}

func TestParseErrors(t *testing.T) {
	// sweep triple must be well formed
	{
		var ip InputParametersRCWA
		assert.NoError(t, ip.Parse([]byte("WavelengthSweep: [0.5, 0.7]")))
		_, err := ip.Wavelengths()
		assert.Error(t, err)
	}
	// a lattice is required
	{
		var ip InputParametersRCWA
		assert.NoError(t, ip.Parse([]byte("Wavelength: 0.6")))
		_, err := ip.BuildStack()
		assert.Error(t, err)
	}
	// unknown factorization rule
	{
		var ip InputParametersRCWA
		assert.NoError(t, ip.Parse([]byte("Rule: magic")))
		_, err := ip.BuildConfig()
		assert.Error(t, err)
	}
	// sweep expansion
	{
		var ip InputParametersRCWA
		assert.NoError(t, ip.Parse([]byte("WavelengthSweep: [0.5, 0.7, 5]")))
		wls, err := ip.Wavelengths()
		assert.NoError(t, err)
		assert.Len(t, wls, 5)
		assert.InDelta(t, 0.5, wls[0], 1.e-12)
		assert.InDelta(t, 0.7, wls[4], 1.e-12)
		assert.InDelta(t, 0.55, wls[1], 1.e-12)
	}
}

package solver

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldReconstruction(t *testing.T) {
	st := uniformSlabStack(t, 1.5, 1.3)
	cfg := DefaultConfig()
	cfg.Wavelength = 0.6
	cfg.Theta = 0.2
	cfg.MaxM = 2
	cfg.RetainFields = true
	sol, err := st.Solve(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, sol.Fields)
	fsv := sol.Fields
	assert.InDelta(t, 0.25, fsv.TotalThickness(), 1.e-14)

	var (
		eps = 1.e-9
	)
	// Tangential E is continuous across the top interface
	{
		exA, eyA, _, _, _, _, err := fsv.FourierAmplitudes(-eps)
		assert.NoError(t, err)
		exL, eyL, _, _, _, _, err := fsv.FourierAmplitudes(+eps)
		assert.NoError(t, err)
		assert.InDelta(t, 0, exA.Subtract(exL).MaxAbs(), 1.e-6)
		assert.InDelta(t, 0, eyA.Subtract(eyL).MaxAbs(), 1.e-6)
	}
	// ... and across the bottom interface
	{
		exL, eyL, _, _, _, _, err := fsv.FourierAmplitudes(0.25 - eps)
		assert.NoError(t, err)
		exS, eyS, _, _, _, _, err := fsv.FourierAmplitudes(0.25 + eps)
		assert.NoError(t, err)
		assert.InDelta(t, 0, exL.Subtract(exS).MaxAbs(), 1.e-6)
		assert.InDelta(t, 0, eyL.Subtract(eyS).MaxAbs(), 1.e-6)
	}
	// Tangential H is continuous as well (no surface currents)
	{
		_, _, _, hxA, hyA, _, err := fsv.FourierAmplitudes(-eps)
		assert.NoError(t, err)
		_, _, _, hxL, hyL, _, err := fsv.FourierAmplitudes(+eps)
		assert.NoError(t, err)
		assert.InDelta(t, 0, hxA.Subtract(hxL).MaxAbs(), 1.e-6)
		assert.InDelta(t, 0, hyA.Subtract(hyL).MaxAbs(), 1.e-6)
	}
	// Substrate amplitudes at the bottom interface are the transmitted
	// orders
	{
		ex, _, _, _, _, _, err := fsv.FourierAmplitudes(0.25 + eps)
		assert.NoError(t, err)
		for i := 0; i < sol.Kv.NumTerms(); i++ {
			assert.InDelta(t, 0, cmplx.Abs(ex.V[i]-sol.Resp.T.X.V[i]), 1.e-6)
		}
	}
	// Point query and grid slice agree at a sample point
	{
		E, _, err := fsv.FieldAt(0, 0, 0.1)
		assert.NoError(t, err)
		gridE, _, err := fsv.GridSlice(0.1, 16, 1)
		assert.NoError(t, err)
		_, nx := gridE[0].Dims()
		assert.Equal(t, 16, nx)
		assert.InDelta(t, 0, cmplx.Abs(gridE[0].At(0, 0)-E[0]), 1.e-9)
		assert.InDelta(t, 0, cmplx.Abs(gridE[1].At(0, 0)-E[1]), 1.e-9)
	}
}

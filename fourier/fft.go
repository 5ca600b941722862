package fourier

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/opticore/gorcwa/utils"
)

// fft2InPlace runs a 2D complex DFT as row then column passes. The
// forward transform is unnormalized; Spectrum and InverseFFT2 apply the
// 1/(Nx*Ny) normalization where it belongs.
func fft2InPlace(a utils.CMatrix, forward bool) {
	var (
		ny, nx = a.Dims()
		data   = a.RawCMatrix().Data
		rowFFT = fourier.NewCmplxFFT(nx)
		colFFT = fourier.NewCmplxFFT(ny)
	)
	// rows
	tmp := make([]complex128, nx)
	for j := 0; j < ny; j++ {
		copy(tmp, data[j*nx:(j+1)*nx])
		if forward {
			rowFFT.Coefficients(tmp, tmp)
		} else {
			rowFFT.Sequence(tmp, tmp)
		}
		copy(data[j*nx:(j+1)*nx], tmp)
	}
	// cols
	col := make([]complex128, ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			col[j] = data[j*nx+i]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for j := 0; j < ny; j++ {
			data[j*nx+i] = col[j]
		}
	}
}

// Spectrum holds the normalized 2D Fourier coefficients of a cell grid,
// addressable by signed harmonic index.
type Spectrum struct {
	F      utils.CMatrix
	Nx, Ny int
}

func NewSpectrum(grid utils.CMatrix) *Spectrum {
	var (
		ny, nx = grid.Dims()
		F      = grid.Copy()
	)
	fft2InPlace(F, true)
	F.Scale(complex(1/float64(nx*ny), 0))
	return &Spectrum{F: F, Nx: nx, Ny: ny}
}

// Coef returns the coefficient of exp(+i(m*Gu + n*Gv).r), with signed
// indices wrapped into the FFT bins.
func (sp *Spectrum) Coef(m, n int) complex128 {
	var (
		i = ((m % sp.Nx) + sp.Nx) % sp.Nx
		j = ((n % sp.Ny) + sp.Ny) % sp.Ny
	)
	return sp.F.At(j, i)
}

// InverseFFT2 maps harmonic-binned coefficients back to a spatial grid.
func InverseFFT2(coef utils.CMatrix) (grid utils.CMatrix) {
	grid = coef.Copy()
	fft2InPlace(grid, false)
	return
}

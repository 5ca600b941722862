package utils

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// CMatrix is the complex analog of the chainable dense Matrix wrapper.
// All matrices created here are tightly packed (stride == nc), which the
// raw-data methods rely on.
type CMatrix struct {
	M        *mat.CDense
	readOnly bool
	name     string
}

func NewCMatrix(nr, nc int, dataO ...[]complex128) (R CMatrix) {
	var m *mat.CDense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewCMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewCDense(nr, nc, dataO[0])
	} else {
		m = mat.NewCDense(nr, nc, make([]complex128, nr*nc))
	}
	R = CMatrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

func NewCMatrixIdentity(n int) (R CMatrix) {
	R = NewCMatrix(n, n)
	data := R.RawCMatrix().Data
	for i := 0; i < n; i++ {
		data[i*(n+1)] = 1
	}
	return
}

// NewCMatrixDiagonal builds a square matrix with d along the diagonal.
func NewCMatrixDiagonal(d []complex128) (R CMatrix) {
	var (
		n = len(d)
	)
	R = NewCMatrix(n, n)
	data := R.RawCMatrix().Data
	for i, val := range d {
		data[i*(n+1)] = val
	}
	return
}

// Dims and At minimally satisfy the mat.CMatrix interface.
func (m CMatrix) Dims() (r, c int)              { return m.M.Dims() }
func (m CMatrix) At(i, j int) complex128        { return m.M.At(i, j) }
func (m CMatrix) H() mat.CMatrix                { return m.M.H() }
func (m CMatrix) T() mat.CMatrix                { return m.M.T() }
func (m CMatrix) RawCMatrix() cblas128.General  { return m.M.RawCMatrix() }
func (m CMatrix) IsSquare() bool                { nr, nc := m.Dims(); return nr == nc }

// Chainable methods (extended)
func (m *CMatrix) SetReadOnly(name ...string) CMatrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m *CMatrix) SetWritable() CMatrix {
	m.readOnly = false
	return *m
}

func (m CMatrix) Copy() (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
		dataR  = make([]complex128, nr*nc)
	)
	copy(dataR, data)
	R = NewCMatrix(nr, nc, dataR)
	return
}

func (m CMatrix) Transpose() (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	R = NewCMatrix(nc, nr)
	dataR := R.RawCMatrix().Data
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			dataR[j*nr+i] = data[i*nc+j]
		}
	}
	return
}

func (m CMatrix) ConjTranspose() (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	R = NewCMatrix(nc, nr)
	dataR := R.RawCMatrix().Data
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			dataR[j*nr+i] = cmplx.Conj(data[i*nc+j])
		}
	}
	return
}

func (m CMatrix) Mul(A CMatrix) (R CMatrix) { // Does not change receiver
	var (
		nrM, ncM = m.M.Dims()
		nrA, ncA = A.M.Dims()
	)
	if ncM != nrA {
		panic(fmt.Errorf("dimension mismatch in Mul: %v,%v x %v,%v", nrM, ncM, nrA, ncA))
	}
	R = NewCMatrix(nrM, ncA)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.RawCMatrix(), A.RawCMatrix(), 0, R.RawCMatrix())
	return R
}

// MulVec applies the matrix to a vector.
func (m CMatrix) MulVec(v CVector) (R CVector) {
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	if nc != v.Len() {
		panic(fmt.Errorf("dimension mismatch in MulVec: nc = %v, len(v) = %v", nc, v.Len()))
	}
	R = NewCVector(nr)
	for i := 0; i < nr; i++ {
		var sum complex128
		row := data[i*nc : (i+1)*nc]
		for j, val := range row {
			sum += val * v.V[j]
		}
		R.V[i] = sum
	}
	return
}

func (m CMatrix) Add(A CMatrix) CMatrix { // Changes receiver
	var (
		data  = m.RawCMatrix().Data
		dataA = A.RawCMatrix().Data
	)
	m.checkWritable()
	m.checkSameDims(A, "Add")
	for i, val := range dataA {
		data[i] += val
	}
	return m
}

func (m CMatrix) Subtract(A CMatrix) CMatrix { // Changes receiver
	var (
		data  = m.RawCMatrix().Data
		dataA = A.RawCMatrix().Data
	)
	m.checkWritable()
	m.checkSameDims(A, "Subtract")
	for i, val := range dataA {
		data[i] -= val
	}
	return m
}

func (m CMatrix) Scale(a complex128) CMatrix { // Changes receiver
	var (
		data = m.RawCMatrix().Data
	)
	m.checkWritable()
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m CMatrix) ElMul(A CMatrix) CMatrix { // Changes receiver
	var (
		data  = m.RawCMatrix().Data
		dataA = A.RawCMatrix().Data
	)
	m.checkWritable()
	m.checkSameDims(A, "ElMul")
	for i, val := range dataA {
		data[i] *= val
	}
	return m
}

func (m CMatrix) Apply(f func(complex128) complex128) CMatrix { // Changes receiver
	var (
		data = m.RawCMatrix().Data
	)
	m.checkWritable()
	for i, val := range data {
		data[i] = f(val)
	}
	return m
}

func (m CMatrix) Set(i, j int, val complex128) CMatrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m CMatrix) Slice(I, K, J, L int) (R CMatrix) { // Does not change receiver
	var (
		nrR    = K - I
		ncR    = L - J
		_, nc  = m.Dims()
		data   = m.RawCMatrix().Data
		dataR  = make([]complex128, nrR*ncR)
	)
	for i := I; i < K; i++ {
		for j := J; j < L; j++ {
			dataR[(i-I)*ncR+(j-J)] = data[i*nc+j]
		}
	}
	R = NewCMatrix(nrR, ncR, dataR)
	return
}

// AssignSlice copies A into the receiver with its top-left corner at (I, J).
func (m CMatrix) AssignSlice(I, J int, A CMatrix) CMatrix { // Changes receiver
	var (
		nrA, ncA = A.Dims()
		nr, nc   = m.Dims()
		data     = m.RawCMatrix().Data
		dataA    = A.RawCMatrix().Data
	)
	m.checkWritable()
	if I+nrA > nr || J+ncA > nc {
		panic(fmt.Errorf("assignment out of bounds: corner %v,%v, block %v,%v into %v,%v", I, J, nrA, ncA, nr, nc))
	}
	for i := 0; i < nrA; i++ {
		for j := 0; j < ncA; j++ {
			data[(I+i)*nc+(J+j)] = dataA[i*ncA+j]
		}
	}
	return m
}

func (m CMatrix) Col(j int) (R CVector) {
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	R = NewCVector(nr)
	for i := 0; i < nr; i++ {
		R.V[i] = data[i*nc+j]
	}
	return
}

func (m CMatrix) Row(i int) (R CVector) {
	var (
		_, nc = m.Dims()
		data  = m.RawCMatrix().Data
	)
	R = NewCVector(nc)
	copy(R.V, data[i*nc:(i+1)*nc])
	return
}

func (m CMatrix) SetCol(j int, v CVector) CMatrix { // Changes receiver
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	m.checkWritable()
	if v.Len() != nr {
		panic(fmt.Errorf("dimension mismatch in SetCol: nr = %v, len(v) = %v", nr, v.Len()))
	}
	for i := 0; i < nr; i++ {
		data[i*nc+j] = v.V[i]
	}
	return m
}

func (m CMatrix) MaxAbs() (max float64) {
	var (
		data = m.RawCMatrix().Data
	)
	for _, val := range data {
		if a := cmplx.Abs(val); a > max {
			max = a
		}
	}
	return
}

// IsDiagonal reports whether all off-diagonal entries are below tol.
func (m CMatrix) IsDiagonal(tol float64) bool {
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if i != j && cmplx.Abs(data[i*nc+j]) > tol {
				return false
			}
		}
	}
	return true
}

// Real extracts the real parts into a real Matrix.
func (m CMatrix) Real() (R Matrix) {
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	R = NewMatrix(nr, nc)
	dataR := R.RawMatrix().Data
	for i, val := range data {
		dataR[i] = real(val)
	}
	return
}

// Imag extracts the imaginary parts into a real Matrix.
func (m CMatrix) Imag() (R Matrix) {
	var (
		nr, nc = m.Dims()
		data   = m.RawCMatrix().Data
	)
	R = NewMatrix(nr, nc)
	dataR := R.RawMatrix().Data
	for i, val := range data {
		dataR[i] = imag(val)
	}
	return
}

// FrobeniusNorm is used by the property tests to compare matrices.
func (m CMatrix) FrobeniusNorm() float64 {
	var (
		data = m.RawCMatrix().Data
		sum  float64
	)
	for _, val := range data {
		sum += real(val)*real(val) + imag(val)*imag(val)
	}
	return math.Sqrt(sum)
}

func (m CMatrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m CMatrix) checkSameDims(A CMatrix, op string) {
	nr, nc := m.Dims()
	nrA, ncA := A.Dims()
	if nr != nrA || nc != ncA {
		panic(fmt.Errorf("dimension mismatch in %s: %v,%v vs %v,%v", op, nr, nc, nrA, ncA))
	}
}

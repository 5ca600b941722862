package utils

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// The complex linear algebra here runs through the standard real
// embedding: the system (A + iB)(x + iy) = c + id is equivalent to
//
//	[ A  -B ] [x]   [c]
//	[ B   A ] [y] = [d]
//
// which lets the solves use the same lapack64 Getrf/Getrs path the real
// Matrix type uses.

// realEmbed builds the 2n x 2n real matrix [[A,-B],[B,A]] from m = A + iB.
func (m CMatrix) realEmbed() *mat.Dense {
	var (
		n    = m.mustSquare()
		data = m.RawCMatrix().Data
		E    = mat.NewDense(2*n, 2*n, nil)
		dE   = E.RawMatrix().Data
		ld   = 2 * n
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b := real(data[i*n+j]), imag(data[i*n+j])
			dE[i*ld+j] = a
			dE[i*ld+j+n] = -b
			dE[(i+n)*ld+j] = b
			dE[(i+n)*ld+j+n] = a
		}
	}
	return E
}

func (m CMatrix) mustSquare() int {
	nr, nc := m.Dims()
	if nr != nc {
		panic("operation requires a square matrix")
	}
	return nr
}

// factorize runs the pivoted LU on the real embedding. The returned
// condition estimate is the U-diagonal ratio, the same cheap bound the
// real toolkit uses.
func (m CMatrix) factorize() (lu *mat.Dense, ipiv []int, cond float64, err error) {
	var (
		n = m.mustSquare()
	)
	lu = m.realEmbed()
	ipiv = make([]int, 2*n)
	if ok := lapack64.Getrf(lu.RawMatrix(), ipiv); !ok {
		err = &SingularOperatorError{Context: "LU factorization found a zero pivot"}
		return
	}
	var (
		dLU     = lu.RawMatrix().Data
		ld      = 2 * n
		minDiag = math.Inf(1)
		maxDiag float64
	)
	for i := 0; i < 2*n; i++ {
		d := math.Abs(dLU[i*ld+i])
		if d > maxDiag {
			maxDiag = d
		}
		if d < minDiag {
			minDiag = d
		}
	}
	if minDiag < 1.e-300 {
		cond = math.Inf(1)
	} else {
		cond = maxDiag / minDiag
	}
	return
}

// ConditionEstimate returns the U-diagonal ratio condition bound.
func (m CMatrix) ConditionEstimate() (cond float64, err error) {
	_, _, cond, err = m.factorize()
	return
}

// Solve returns X satisfying m*X = B.
func (m CMatrix) Solve(B CMatrix) (R CMatrix, err error) {
	var (
		n        = m.mustSquare()
		nrB, ncB = B.Dims()
	)
	if nrB != n {
		panic("dimension mismatch in Solve")
	}
	lu, ipiv, _, err := m.factorize()
	if err != nil {
		return
	}
	// Stack the real and imaginary parts of B into a 2n x ncB RHS.
	var (
		rhs   = mat.NewDense(2*n, ncB, nil)
		dRHS  = rhs.RawMatrix().Data
		dataB = B.RawCMatrix().Data
	)
	for i := 0; i < n; i++ {
		for j := 0; j < ncB; j++ {
			dRHS[i*ncB+j] = real(dataB[i*ncB+j])
			dRHS[(i+n)*ncB+j] = imag(dataB[i*ncB+j])
		}
	}
	lapack64.Getrs(blas.NoTrans, lu.RawMatrix(), rhs.RawMatrix(), ipiv)
	R = NewCMatrix(n, ncB)
	dataR := R.RawCMatrix().Data
	for i := 0; i < n; i++ {
		for j := 0; j < ncB; j++ {
			dataR[i*ncB+j] = complex(dRHS[i*ncB+j], dRHS[(i+n)*ncB+j])
		}
	}
	return
}

// SolveVec returns x satisfying m*x = b.
func (m CMatrix) SolveVec(b CVector) (R CVector, err error) {
	var (
		n = m.mustSquare()
	)
	B := NewCMatrix(n, 1, append([]complex128{}, b.V...))
	X, err := m.Solve(B)
	if err != nil {
		return
	}
	R = X.Col(0)
	return
}

func (m CMatrix) Inverse() (R CMatrix, err error) {
	var (
		n = m.mustSquare()
	)
	R, err = m.Solve(NewCMatrixIdentity(n))
	return
}

package utils

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCMatrix(t *testing.T) {
	// Construction and identity
	{
		I := NewCMatrixIdentity(3)
		assert.True(t, I.IsSquare())
		assert.True(t, I.IsDiagonal(0))
		assert.Equal(t, complex128(1), I.At(2, 2))
		assert.Equal(t, complex128(0), I.At(0, 2))
	}
	// Mul against a hand computation
	{
		A := NewCMatrix(2, 2, []complex128{
			1, 2i,
			3, 4,
		})
		B := NewCMatrix(2, 2, []complex128{
			0, 1,
			1, 0,
		})
		C := A.Mul(B)
		assert.Equal(t, complex128(2i), C.At(0, 0))
		assert.Equal(t, complex128(1), C.At(0, 1))
		assert.Equal(t, complex128(4), C.At(1, 0))
		assert.Equal(t, complex128(3), C.At(1, 1))
		// Mul does not change the receiver
		assert.Equal(t, complex128(1), A.At(0, 0))
	}
	// Rectangular Mul and inner-dimension checking
	{
		A := NewCMatrix(2, 3, []complex128{
			1, 0, 1i,
			0, 2, 0,
		})
		B := NewCMatrix(3, 1, []complex128{
			1,
			1i,
			2,
		})
		C := A.Mul(B)
		nr, nc := C.Dims()
		assert.Equal(t, 2, nr)
		assert.Equal(t, 1, nc)
		assert.Equal(t, complex128(1+2i), C.At(0, 0))
		assert.Equal(t, complex128(2i), C.At(1, 0))
		assert.Panics(t, func() { B.Mul(A.Transpose()) })
	}
	// Transpose and conjugate transpose
	{
		A := NewCMatrix(2, 2, []complex128{
			1, 2 + 1i,
			3, 4,
		})
		assert.Equal(t, complex128(2+1i), A.Transpose().At(1, 0))
		assert.Equal(t, complex128(2-1i), A.ConjTranspose().At(1, 0))
	}
	// Chained mutators
	{
		A := NewCMatrixIdentity(2)
		A.Scale(2).Add(NewCMatrixIdentity(2))
		assert.Equal(t, complex128(3), A.At(0, 0))
		assert.Equal(t, complex128(3), A.At(1, 1))
	}
	// Read-only protection
	{
		A := NewCMatrixIdentity(2)
		A.SetReadOnly("frozen")
		assert.Panics(t, func() { A.Scale(2) })
		A.SetWritable()
		assert.NotPanics(t, func() { A.Scale(2) })
	}
	// Slice / AssignSlice round trip
	{
		A := NewCMatrix(3, 3, []complex128{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		})
		S := A.Slice(1, 3, 1, 3)
		assert.Equal(t, complex128(5), S.At(0, 0))
		assert.Equal(t, complex128(9), S.At(1, 1))
		B := NewCMatrix(3, 3)
		B.AssignSlice(1, 1, S)
		assert.Equal(t, complex128(5), B.At(1, 1))
		assert.Equal(t, complex128(0), B.At(0, 0))
	}
	// MulVec
	{
		A := NewCMatrix(2, 2, []complex128{
			1, 1i,
			0, 2,
		})
		v := NewCVector(2, []complex128{1, 1})
		r := A.MulVec(v)
		assert.Equal(t, complex128(1+1i), r.V[0])
		assert.Equal(t, complex128(2), r.V[1])
	}
}

func TestLinearSolve(t *testing.T) {
	// 2x2 complex solve checked by residual
	{
		A := NewCMatrix(2, 2, []complex128{
			2, 1i,
			-1i, 3,
		})
		b := NewCVector(2, []complex128{1, 2 + 1i})
		x, err := A.SolveVec(b)
		assert.NoError(t, err)
		r := A.MulVec(x).Subtract(b)
		assert.InDelta(t, 0, r.MaxAbs(), 1.e-12)
	}
	// Inverse reproduces the identity
	{
		A := NewCMatrix(3, 3, []complex128{
			4, 1, 1i,
			0, 3 - 1i, 1,
			1, 0, 2,
		})
		Ainv, err := A.Inverse()
		assert.NoError(t, err)
		P := A.Mul(Ainv)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := complex128(0)
				if i == j {
					want = 1
				}
				assert.InDelta(t, 0, cmplx.Abs(P.At(i, j)-want), 1.e-12)
			}
		}
	}
	// Singular matrix reports the error instead of garbage
	{
		A := NewCMatrix(2, 2, []complex128{
			1, 2,
			2, 4,
		})
		_, err := A.Inverse()
		assert.Error(t, err)
	}
	// Condition estimate: identity is perfectly conditioned, a nearly
	// dependent pair is not
	{
		cond, err := NewCMatrixIdentity(4).ConditionEstimate()
		assert.NoError(t, err)
		assert.InDelta(t, 1, cond, 1.e-12)
		B := NewCMatrix(2, 2, []complex128{
			1, 1,
			1, 1 + 1e-10,
		})
		condB, err := B.ConditionEstimate()
		assert.NoError(t, err)
		assert.Greater(t, condB, 1.e8)
	}
}

func TestEig(t *testing.T) {
	residual := func(A CMatrix, lam complex128, v CVector) float64 {
		return A.MulVec(v).Subtract(v.Copy().Scale(lam)).MaxAbs()
	}
	// Diagonal complex matrix returns its diagonal
	{
		A := NewCMatrixDiagonal([]complex128{2 + 1i, -3, 1i})
		values, vectors, err := A.Eig()
		assert.NoError(t, err)
		assert.Equal(t, 3, values.Len())
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0, residual(A, values.V[i], vectors.Col(i)), 1.e-10)
		}
	}
	// Rotation generator: eigenvalues +/- i
	{
		A := NewCMatrix(2, 2, []complex128{
			0, 1,
			-1, 0,
		})
		values, vectors, err := A.Eig()
		assert.NoError(t, err)
		for i := 0; i < 2; i++ {
			assert.InDelta(t, 1, cmplx.Abs(values.V[i]), 1.e-12)
			assert.InDelta(t, 0, residual(A, values.V[i], vectors.Col(i)), 1.e-10)
		}
	}
	// Repeated eigenvalue: the identity must still yield a full basis
	{
		A := NewCMatrixIdentity(3)
		values, vectors, err := A.Eig()
		assert.NoError(t, err)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0, cmplx.Abs(values.V[i]-1), 1.e-12)
		}
		// the recovered basis must be invertible
		_, err = vectors.Inverse()
		assert.NoError(t, err)
	}
	// Dense nonsymmetric complex matrix: check all pairs by residual
	{
		A := NewCMatrix(3, 3, []complex128{
			1 + 1i, 2, 0,
			0, 3, 1i,
			1, 0, -2 + 1i,
		})
		values, vectors, err := A.Eig()
		assert.NoError(t, err)
		assert.Equal(t, 3, values.Len())
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0, residual(A, values.V[i], vectors.Col(i)), 1.e-8)
		}
	}
}

package utils

import (
	"fmt"
	"math"
	"math/cmplx"
)

// CVector is a dense complex vector. gonum's mat package has no complex
// vector type, so this carries the raw storage directly.
type CVector struct {
	V []complex128
}

func NewCVector(N int, dataO ...[]complex128) (R CVector) {
	if len(dataO) != 0 {
		if len(dataO[0]) != N {
			err := fmt.Errorf("mismatch in allocation: NewCVector N = %v, len(data[0]) = %v\n", N, len(dataO[0]))
			panic(err)
		}
		R = CVector{dataO[0]}
	} else {
		R = CVector{make([]complex128, N)}
	}
	return
}

func (v CVector) Len() int              { return len(v.V) }
func (v CVector) AtVec(i int) complex128 { return v.V[i] }

func (v CVector) Copy() (R CVector) {
	R = NewCVector(v.Len())
	copy(R.V, v.V)
	return
}

// Chainable methods
func (v CVector) Set(i int, val complex128) CVector {
	v.V[i] = val
	return v
}

func (v CVector) Scale(a complex128) CVector {
	for i := range v.V {
		v.V[i] *= a
	}
	return v
}

func (v CVector) Add(a CVector) CVector {
	if v.Len() != a.Len() {
		panic(fmt.Errorf("dimension mismatch in Add: %v vs %v", v.Len(), a.Len()))
	}
	for i, val := range a.V {
		v.V[i] += val
	}
	return v
}

func (v CVector) Subtract(a CVector) CVector {
	if v.Len() != a.Len() {
		panic(fmt.Errorf("dimension mismatch in Subtract: %v vs %v", v.Len(), a.Len()))
	}
	for i, val := range a.V {
		v.V[i] -= val
	}
	return v
}

func (v CVector) ElMul(a CVector) CVector {
	if v.Len() != a.Len() {
		panic(fmt.Errorf("dimension mismatch in ElMul: %v vs %v", v.Len(), a.Len()))
	}
	for i, val := range a.V {
		v.V[i] *= val
	}
	return v
}

func (v CVector) Apply(f func(complex128) complex128) CVector {
	for i, val := range v.V {
		v.V[i] = f(val)
	}
	return v
}

// InnerProduct is the Hermitian inner product <v, a>.
func (v CVector) InnerProduct(a CVector) (sum complex128) {
	if v.Len() != a.Len() {
		panic(fmt.Errorf("dimension mismatch in InnerProduct: %v vs %v", v.Len(), a.Len()))
	}
	for i, val := range v.V {
		sum += cmplx.Conj(val) * a.V[i]
	}
	return
}

func (v CVector) Norm() float64 {
	var sum float64
	for _, val := range v.V {
		sum += real(val)*real(val) + imag(val)*imag(val)
	}
	return math.Sqrt(sum)
}

func (v CVector) MaxAbs() (max float64) {
	for _, val := range v.V {
		if a := cmplx.Abs(val); a > max {
			max = a
		}
	}
	return
}

// ToDiagonal expands the vector into a square diagonal matrix.
func (v CVector) ToDiagonal() CMatrix {
	return NewCMatrixDiagonal(v.V)
}

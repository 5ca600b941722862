package utils

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Eig computes the eigenvalues and right eigenvectors of a general
// complex square matrix.
//
// The matrix C = A + iB is embedded in the real matrix M = [[A,-B],[B,A]],
// whose spectrum is the union of the spectra of C and of conj(C). For an
// eigenvector u = [u1; u2] of M, the projection v = u1 + i*u2 satisfies
// C v = lambda v and vanishes identically for the conjugate-family
// eigenvectors, which is how the C eigenpairs are recovered from the real
// decomposition. Duplicates arising from real eigenvalues of M (whose 2D
// real eigenspaces project onto a single complex direction) are rejected
// by Gram-Schmidt against previously accepted vectors of equal eigenvalue.
func (m CMatrix) Eig() (values CVector, vectors CMatrix, err error) {
	var (
		n = m.mustSquare()
	)
	var eig mat.Eigen
	if ok := eig.Factorize(m.realEmbed(), mat.EigenRight); !ok {
		err = &SingularOperatorError{Context: "eigendecomposition failed to converge"}
		return
	}
	var (
		lam2n = eig.Values(nil)
		ev    mat.CDense
	)
	eig.VectorsTo(&ev)

	var (
		accepted  []CVector
		accValues []complex128
	)
	for j := 0; j < 2*n && len(accepted) < n; j++ {
		v := NewCVector(n)
		for i := 0; i < n; i++ {
			v.V[i] = ev.At(i, j) + 1i*ev.At(i+n, j)
		}
		norm := v.Norm()
		if norm < 1.e-8 {
			// Conjugate-family column, annihilated by the projection.
			continue
		}
		v.Scale(complex(1/norm, 0))
		// Reject projections that duplicate an accepted eigenvector of
		// the same eigenvalue.
		scale := cmplx.Abs(lam2n[j])
		if scale < 1 {
			scale = 1
		}
		dup := false
		for k, w := range accepted {
			if cmplx.Abs(accValues[k]-lam2n[j]) > 1.e-9*scale {
				continue
			}
			v.Subtract(w.Copy().Scale(w.InnerProduct(v)))
			if v.Norm() < 1.e-6 {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		v.Scale(complex(1/v.Norm(), 0))
		accepted = append(accepted, v)
		accValues = append(accValues, lam2n[j])
	}
	if len(accepted) != n {
		err = &SingularOperatorError{Context: "eigenvector recovery produced a defective basis"}
		return
	}
	values = NewCVector(n, accValues)
	vectors = NewCMatrix(n, n)
	for j, v := range accepted {
		vectors.SetCol(j, v)
	}
	return
}

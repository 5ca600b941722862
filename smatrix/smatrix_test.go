package smatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opticore/gorcwa/utils"
)

// testSM builds a deterministic, well-conditioned scattering matrix:
// weak reflections, near-identity transmission.
func testSM(n int, seed complex128) ScatteringMatrix {
	var (
		S11 = utils.NewCMatrix(n, n)
		S12 = utils.NewCMatrixIdentity(n)
		S21 = utils.NewCMatrixIdentity(n)
		S22 = utils.NewCMatrix(n, n)
	)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := seed * complex(float64(i+1), float64(j)-0.5) * 0.02
			S11.Set(i, j, v)
			S22.Set(i, j, -v*0.7)
			if i != j {
				S12.Set(i, j, v*0.3)
				S21.Set(i, j, -v*0.2)
			}
		}
	}
	return ScatteringMatrix{S11: S11, S12: S12, S21: S21, S22: S22}
}

func assertSMEqual(t *testing.T, A, B ScatteringMatrix, tol float64) {
	assert.InDelta(t, 0, A.S11.Copy().Subtract(B.S11).MaxAbs(), tol)
	assert.InDelta(t, 0, A.S12.Copy().Subtract(B.S12).MaxAbs(), tol)
	assert.InDelta(t, 0, A.S21.Copy().Subtract(B.S21).MaxAbs(), tol)
	assert.InDelta(t, 0, A.S22.Copy().Subtract(B.S22).MaxAbs(), tol)
}

func TestStar(t *testing.T) {
	var (
		cfg = DefaultConfig()
		n   = 4
	)
	// Identity is neutral on both sides
	{
		A := testSM(n, 1+0.5i)
		I := Identity(n)
		L, err := Star(I, A, cfg)
		assert.NoError(t, err)
		assertSMEqual(t, L, A, 1.e-13)
		R, err := Star(A, I, cfg)
		assert.NoError(t, err)
		assertSMEqual(t, R, A, 1.e-13)
	}
	// Associativity: (A*B)*C = A*(B*C)
	{
		A := testSM(n, 1+0.5i)
		B := testSM(n, 0.3-1i)
		C := testSM(n, -0.8+0.2i)
		AB, err := Star(A, B, cfg)
		assert.NoError(t, err)
		left, err := Star(AB, C, cfg)
		assert.NoError(t, err)
		BC, err := Star(B, C, cfg)
		assert.NoError(t, err)
		right, err := Star(A, BC, cfg)
		assert.NoError(t, err)
		assertSMEqual(t, left, right, 1.e-12)
	}
	// Conditioning guard trips on a resonant pair
	{
		A := testSM(n, 1)
		// one near-unit round-trip channel drives the interaction
		// matrix towards singularity
		d := make([]complex128, n)
		d[0] = 1 - 1e-14
		A.S22 = utils.NewCMatrixDiagonal(d)
		B := testSM(n, 1)
		B.S11 = utils.NewCMatrixIdentity(n)
		tight := cfg
		tight.ConditionLimit = 1.e6
		_, err := Star(A, B, tight)
		assert.Error(t, err)
		assert.IsType(t, &utils.NumericalInstabilityError{}, err)
	}
}

func TestFold(t *testing.T) {
	var (
		cfg = DefaultConfig()
		n   = 3
		ops = []ScatteringMatrix{
			testSM(n, 1+0.5i),
			testSM(n, 0.3-1i),
			testSM(n, -0.8+0.2i),
			testSM(n, 0.1+0.9i),
			testSM(n, -0.4-0.6i),
		}
	)
	// Sequential and pairwise-tree folds agree (associativity in bulk)
	{
		seq, err := Fold(ops, cfg)
		assert.NoError(t, err)
		treeCfg := cfg
		treeCfg.Strategy = PairwiseTree
		tree, err := Fold(ops, treeCfg)
		assert.NoError(t, err)
		assertSMEqual(t, seq, tree, 1.e-12)
	}
	// Partials: prefix of the full sequence is the global matrix, and
	// prefix[i] * suffix[i+1] reproduces it for every split point
	{
		full, parts, err := FoldPartials(ops, cfg)
		assert.NoError(t, err)
		direct, err := Fold(ops, cfg)
		assert.NoError(t, err)
		assertSMEqual(t, full, direct, 1.e-12)
		for i := 0; i+1 < len(ops); i++ {
			glued, err := Star(parts.Prefix[i], parts.Suffix[i+1], cfg)
			assert.NoError(t, err)
			assertSMEqual(t, glued, full, 1.e-12)
		}
	}
	// Single-operator fold is the operator itself
	{
		one, err := Fold(ops[:1], cfg)
		assert.NoError(t, err)
		assertSMEqual(t, one, ops[0], 0)
	}
}

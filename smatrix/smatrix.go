package smatrix

import (
	"github.com/opticore/gorcwa/utils"
)

// ScatteringMatrix relates incoming to outgoing mode amplitudes across
// an interface or a stack segment:
//
//	[c1-]   [S11 S12] [c1+]
//	[c2+] = [S21 S22] [c2-]
//
// with c1 on the incidence side and c2 on the transmission side.
type ScatteringMatrix struct {
	S11, S12, S21, S22 utils.CMatrix
}

// Identity is the neutral element of the star product: full transmission,
// no reflection.
func Identity(n int) ScatteringMatrix {
	return ScatteringMatrix{
		S11: utils.NewCMatrix(n, n),
		S12: utils.NewCMatrixIdentity(n),
		S21: utils.NewCMatrixIdentity(n),
		S22: utils.NewCMatrix(n, n),
	}
}

// Dim returns the mode dimension (2N).
func (s ScatteringMatrix) Dim() int {
	n, _ := s.S11.Dims()
	return n
}

// Config carries the recursion policy.
type Config struct {
	// ConditionLimit is the threshold on the LU condition estimate of
	// the star-product interaction matrix; beyond it the merge fails
	// with NumericalInstability instead of returning garbage.
	ConditionLimit float64
	Strategy       Strategy
}

func DefaultConfig() Config {
	return Config{
		ConditionLimit: 1.e12,
		Strategy:       Sequential,
	}
}

// Strategy selects how the associative fold over the operator sequence
// is evaluated.
type Strategy uint8

const (
	// Sequential merges layers one at a time, top to bottom.
	Sequential Strategy = iota
	// PairwiseTree merges adjacent pairs recursively. The star product
	// is associative, so the grouping is free to choose; the tree form
	// exposes parallelism for deep stacks.
	PairwiseTree
)

var strategy_names = []string{
	"Sequential fold",
	"Pairwise-tree fold",
}

func (s Strategy) String() string { return strategy_names[s] }

// Star is the Redheffer star product A*B for two segments in series,
// A on the incidence side.
func Star(A, B ScatteringMatrix, cfg Config) (R ScatteringMatrix, err error) {
	var (
		n = A.Dim()
		I = utils.NewCMatrixIdentity(n)
	)
	// DA = (I - S11B*S22A)^-1, DB = (I - S22A*S11B)^-1
	MA := I.Copy().Subtract(B.S11.Mul(A.S22))
	MB := I.Copy().Subtract(A.S22.Mul(B.S11))
	if err = checkConditioning(MA, cfg); err != nil {
		return
	}
	DA, err := MA.Inverse()
	if err != nil {
		return
	}
	DB, err := MB.Inverse()
	if err != nil {
		return
	}
	R = ScatteringMatrix{
		S11: A.S11.Copy().Add(A.S12.Mul(DA).Mul(B.S11).Mul(A.S21)),
		S12: A.S12.Mul(DA).Mul(B.S12),
		S21: B.S21.Mul(DB).Mul(A.S21),
		S22: B.S22.Copy().Add(B.S21.Mul(DB).Mul(A.S22).Mul(B.S12)),
	}
	return
}

func checkConditioning(M utils.CMatrix, cfg Config) error {
	if cfg.ConditionLimit <= 0 {
		return nil
	}
	cond, err := M.ConditionEstimate()
	if err != nil {
		return err
	}
	if cond > cfg.ConditionLimit {
		return &utils.NumericalInstabilityError{
			Context:   "star-product interaction matrix ill-conditioned; increase truncation order or revisit the geometry",
			Condition: cond,
		}
	}
	return nil
}

// Fold composes the operator sequence into one matrix. The sequence
// runs from the incidence side to the transmission side.
func Fold(ops []ScatteringMatrix, cfg Config) (R ScatteringMatrix, err error) {
	if len(ops) == 0 {
		panic("Fold requires at least one operator")
	}
	switch cfg.Strategy {
	case PairwiseTree:
		return foldTree(ops, cfg)
	default:
		return foldSequential(ops, cfg)
	}
}

func foldSequential(ops []ScatteringMatrix, cfg Config) (R ScatteringMatrix, err error) {
	R = ops[0]
	for _, op := range ops[1:] {
		if R, err = Star(R, op, cfg); err != nil {
			return
		}
	}
	return
}

func foldTree(ops []ScatteringMatrix, cfg Config) (R ScatteringMatrix, err error) {
	for len(ops) > 1 {
		next := make([]ScatteringMatrix, 0, (len(ops)+1)/2)
		for i := 0; i+1 < len(ops); i += 2 {
			var merged ScatteringMatrix
			if merged, err = Star(ops[i], ops[i+1], cfg); err != nil {
				return
			}
			next = append(next, merged)
		}
		if len(ops)%2 == 1 {
			next = append(next, ops[len(ops)-1])
		}
		ops = next
	}
	R = ops[0]
	return
}

// FoldPartials returns the global matrix together with the cumulative
// prefix and suffix compositions needed for internal field
// reconstruction: Prefix[i] composes ops[0..i], Suffix[i] composes
// ops[i..len-1]. Partial retention forces the sequential strategy.
type Partials struct {
	Prefix []ScatteringMatrix
	Suffix []ScatteringMatrix
}

func FoldPartials(ops []ScatteringMatrix, cfg Config) (R ScatteringMatrix, parts *Partials, err error) {
	if len(ops) == 0 {
		panic("FoldPartials requires at least one operator")
	}
	parts = &Partials{
		Prefix: make([]ScatteringMatrix, len(ops)),
		Suffix: make([]ScatteringMatrix, len(ops)),
	}
	parts.Prefix[0] = ops[0]
	for i := 1; i < len(ops); i++ {
		if parts.Prefix[i], err = Star(parts.Prefix[i-1], ops[i], cfg); err != nil {
			return
		}
	}
	parts.Suffix[len(ops)-1] = ops[len(ops)-1]
	for i := len(ops) - 2; i >= 0; i-- {
		if parts.Suffix[i], err = Star(ops[i], parts.Suffix[i+1], cfg); err != nil {
			return
		}
	}
	R = parts.Prefix[len(ops)-1]
	return
}

package fourier

import (
	"sort"

	"github.com/opticore/gorcwa/utils"
)

type TruncationShape uint8

const (
	Rectangular TruncationShape = iota
	Circular
)

var truncation_names = []string{
	"Rectangular",
	"Circular",
}

func (ts TruncationShape) String() string { return truncation_names[ts] }

// Order is a single retained harmonic of the Bloch expansion.
type Order struct {
	M, N int
}

// Expansion is the truncated harmonic set shared by every layer of a
// computation. The ordering rule (ascending |order|, zero order first)
// is part of the contract: amplitude vectors everywhere in the engine
// are indexed by it.
type Expansion struct {
	Orders     []Order
	MaxM, MaxN int
	Shape      TruncationShape
}

func NewExpansion(maxM, maxN int, shape TruncationShape) (ex *Expansion, err error) {
	if maxM < 0 || maxN < 0 {
		err = &utils.InvalidGeometryError{Msg: "harmonic truncation orders must be non-negative"}
		return
	}
	var (
		orders []Order
		rr     = maxM * maxM
	)
	if maxN > maxM {
		rr = maxN * maxN
	}
	for m := -maxM; m <= maxM; m++ {
		for n := -maxN; n <= maxN; n++ {
			if shape == Circular && m*m+n*n > rr {
				continue
			}
			orders = append(orders, Order{M: m, N: n})
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		oi, oj := orders[i], orders[j]
		ri, rj := oi.M*oi.M+oi.N*oi.N, oj.M*oj.M+oj.N*oj.N
		if ri != rj {
			return ri < rj
		}
		if oi.M != oj.M {
			return oi.M < oj.M
		}
		return oi.N < oj.N
	})
	ex = &Expansion{
		Orders: orders,
		MaxM:   maxM,
		MaxN:   maxN,
		Shape:  shape,
	}
	return
}

func (ex *Expansion) NumTerms() int { return len(ex.Orders) }

// IndexOf returns the position of order (m, n) in the expansion.
func (ex *Expansion) IndexOf(m, n int) (ind int, found bool) {
	for i, o := range ex.Orders {
		if o.M == m && o.N == n {
			return i, true
		}
	}
	return -1, false
}

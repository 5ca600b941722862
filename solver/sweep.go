package solver

import (
	"sync"

	"github.com/opticore/gorcwa/utils"
)

// SweepPoint is one evaluation of a batch sweep.
type SweepPoint struct {
	Wavelength float64
	Theta      float64
	TotalR     float64
	TotalT     float64
	Err        error
}

// SweepWavelengths evaluates the stack at every wavelength, partitioned
// across goroutines. The stack and config are shared read-only; each
// worker writes only its own output slots.
func (st *Stack) SweepWavelengths(cfg Config, wavelengths []float64) (pts []SweepPoint) {
	pts = make([]SweepPoint, len(wavelengths))
	st.sweep(cfg, len(wavelengths), func(i int) {
		c := cfg
		c.Wavelength = wavelengths[i]
		c.RetainFields = false
		pts[i] = evaluate(st, c)
	})
	return
}

// SweepAngles evaluates the stack over a polar-angle scan at fixed
// wavelength.
func (st *Stack) SweepAngles(cfg Config, thetas []float64) (pts []SweepPoint) {
	pts = make([]SweepPoint, len(thetas))
	st.sweep(cfg, len(thetas), func(i int) {
		c := cfg
		c.Theta = thetas[i]
		c.RetainFields = false
		pts[i] = evaluate(st, c)
	})
	return
}

func evaluate(st *Stack, cfg Config) (pt SweepPoint) {
	pt.Wavelength = cfg.Wavelength
	pt.Theta = cfg.Theta
	sol, err := st.Solve(cfg)
	if err != nil {
		pt.Err = err
		return
	}
	pt.TotalR = sol.Resp.TotalR
	pt.TotalT = sol.Resp.TotalT
	return
}

func (st *Stack) sweep(cfg Config, n int, eval func(i int)) {
	if n == 0 {
		return
	}
	degree := cfg.ParallelDegree
	if degree <= 0 || degree > n {
		degree = n
	}
	var (
		pm = utils.NewPartitionMap(degree, n)
		wg sync.WaitGroup
	)
	for b := 0; b < degree; b++ {
		wg.Add(1)
		go func(bucket int) {
			defer wg.Done()
			lo, hi := pm.GetBucketRange(bucket)
			for i := lo; i < hi; i++ {
				eval(i)
			}
		}(b)
	}
	wg.Wait()
}

// ConvergencePoint records the response at one truncation order.
type ConvergencePoint struct {
	MaxOrder       int
	NumTerms       int
	TotalR, TotalT float64
	Err            error
}

// ConvergenceScan re-solves the structure over increasing truncation
// orders so the stabilization trend of the totals can be inspected. The
// points are independent evaluations and run in parallel like a sweep.
func (st *Stack) ConvergenceScan(cfg Config, orders []int) (pts []ConvergencePoint) {
	pts = make([]ConvergencePoint, len(orders))
	st.sweep(cfg, len(orders), func(i int) {
		c := cfg
		c.MaxM = orders[i]
		if cfg.MaxN > 0 {
			c.MaxN = orders[i]
		}
		c.RetainFields = false
		pts[i].MaxOrder = orders[i]
		sol, err := st.Solve(c)
		if err != nil {
			pts[i].Err = err
			return
		}
		pts[i].NumTerms = sol.Ex.NumTerms()
		pts[i].TotalR = sol.Resp.TotalR
		pts[i].TotalT = sol.Resp.TotalT
	})
	return
}

package solver

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/opticore/gorcwa/fields"
	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/modes"
	"github.com/opticore/gorcwa/smatrix"
	"github.com/opticore/gorcwa/utils"
)

// Layer pairs one unit-cell cross section with its thickness. Layers are
// treated as immutable once handed to Solve; per-evaluation state lives
// in the solution, so one Stack can serve concurrent sweeps.
type Layer struct {
	Cell      *fourier.UnitCell
	Thickness float64
}

// Stack is the full structure: ordered layers between two semi-infinite
// homogeneous half spaces given by refractive index.
type Stack struct {
	Lat    fourier.Lattice
	Layers []Layer
	NInc   complex128
	NSub   complex128
}

// Config collects every knob of one evaluation.
type Config struct {
	Wavelength float64
	Theta, Phi float64 // radians
	PTE, PTM   complex128

	MaxM, MaxN int
	Shape      fourier.TruncationShape
	Rule       fourier.Rule

	Strategy       smatrix.Strategy
	ConditionLimit float64
	DegeneracyTol  float64

	// RetainFields keeps the partial S-matrices and per-layer modes so
	// the solution can answer internal field queries. Costs memory
	// linear in the layer count.
	RetainFields bool

	// ParallelDegree bounds the worker count for per-layer eigensolves
	// and sweeps. Zero means one worker per item.
	ParallelDegree int
}

func DefaultConfig() Config {
	return Config{
		PTE:            1,
		Shape:          fourier.Circular,
		Rule:           fourier.LiInverse,
		Strategy:       smatrix.Sequential,
		ConditionLimit: 1.e12,
		DegeneracyTol:  modes.DefaultConfig().DegeneracyTol,
	}
}

// Solution is the outcome of one Solve call.
type Solution struct {
	Wavelength float64
	Ex         *fourier.Expansion
	Kv         *modes.WaveVectors
	Global     smatrix.ScatteringMatrix
	Resp       *fields.Response

	// Fields is non-nil when RetainFields was set.
	Fields *fields.FieldSolver

	// Aliased is set when any layer's sampling grid left a thin Nyquist
	// margin for the requested orders.
	Aliased bool
}

// solvedLayer is the per-evaluation state of one layer.
type solvedLayer struct {
	coef *fourier.Coefficients
	lm   *modes.LayerModes
	S    smatrix.ScatteringMatrix
	err  error
}

// Solve runs the full pipeline: factorize every layer, solve the layer
// eigenproblems in parallel, fold the S-matrix sequence and expand the
// external response.
func (st *Stack) Solve(cfg Config) (sol *Solution, err error) {
	if err = st.validate(cfg); err != nil {
		return
	}
	var (
		ex *fourier.Expansion
		k0 = 2 * math.Pi / cfg.Wavelength
	)
	if ex, err = fourier.NewExpansion(cfg.MaxM, cfg.MaxN, cfg.Shape); err != nil {
		return
	}
	var (
		kv     = modes.NewWaveVectors(ex, st.Lat, cfg.Wavelength, cfg.Theta, cfg.Phi, st.NInc)
		epsRef = st.NInc * st.NInc
		epsTrm = st.NSub * st.NSub
	)
	gap, err := modes.SolveHomogeneous(1, 1, kv)
	if err != nil {
		return
	}
	refModes, err := modes.SolveHomogeneous(epsRef, 1, kv)
	if err != nil {
		return
	}
	trmModes, err := modes.SolveHomogeneous(epsTrm, 1, kv)
	if err != nil {
		return
	}

	solved := st.solveLayers(ex, kv, gap, k0, cfg)
	for _, sl := range solved {
		if sl.err != nil {
			err = sl.err
			return
		}
	}

	var (
		smCfg = smatrix.Config{ConditionLimit: cfg.ConditionLimit, Strategy: cfg.Strategy}
		ops   = make([]smatrix.ScatteringMatrix, 0, len(st.Layers)+2)
	)
	Sref, err := smatrix.ReflectionSide(refModes, gap)
	if err != nil {
		return
	}
	Strm, err := smatrix.TransmissionSide(trmModes, gap)
	if err != nil {
		return
	}
	ops = append(ops, Sref)
	for _, sl := range solved {
		ops = append(ops, sl.S)
	}
	ops = append(ops, Strm)

	var (
		S     smatrix.ScatteringMatrix
		parts *smatrix.Partials
	)
	if cfg.RetainFields {
		S, parts, err = smatrix.FoldPartials(ops, smCfg)
	} else {
		S, err = smatrix.Fold(ops, smCfg)
	}
	if err != nil {
		return
	}

	src := &fields.Source{Theta: cfg.Theta, Phi: cfg.Phi, PTE: cfg.PTE, PTM: cfg.PTM}
	resp, err := fields.ComputeResponse(S, refModes, trmModes, kv, src, epsRef, epsTrm)
	if err != nil {
		return
	}

	sol = &Solution{
		Wavelength: cfg.Wavelength,
		Ex:         ex,
		Kv:         kv,
		Global:     S,
		Resp:       resp,
	}
	for _, sl := range solved {
		sol.Aliased = sol.Aliased || sl.coef.Aliased
	}
	if cfg.RetainFields {
		var (
			ld   = make([]fields.LayerData, len(st.Layers))
			zTop float64
		)
		for i, sl := range solved {
			ld[i] = fields.LayerData{
				Modes:     sl.lm,
				Coef:      sl.coef,
				Thickness: st.Layers[i].Thickness,
				ZTop:      zTop,
			}
			zTop += st.Layers[i].Thickness
		}
		sol.Fields = fields.NewFieldSolver(k0, kv, gap, ld, parts, resp, st.Lat)
	}
	return
}

// solveLayers factorizes and eigensolves every layer concurrently. The
// layers are independent, so a plain fan-out with a bounded worker pool
// suffices.
func (st *Stack) solveLayers(ex *fourier.Expansion, kv *modes.WaveVectors,
	gap *modes.LayerModes, k0 float64, cfg Config) (solved []solvedLayer) {
	var (
		nl = len(st.Layers)
		wg sync.WaitGroup
	)
	solved = make([]solvedLayer, nl)
	degree := cfg.ParallelDegree
	if degree <= 0 || degree > nl {
		degree = nl
	}
	pm := utils.NewPartitionMap(degree, nl)
	mCfg := modes.Config{DegeneracyTol: cfg.DegeneracyTol}
	smCfg := smatrix.Config{ConditionLimit: cfg.ConditionLimit, Strategy: cfg.Strategy}
	for b := 0; b < degree; b++ {
		wg.Add(1)
		go func(bucket int) {
			defer wg.Done()
			lo, hi := pm.GetBucketRange(bucket)
			for i := lo; i < hi; i++ {
				solved[i] = st.solveLayer(i, ex, kv, gap, k0, mCfg, smCfg, cfg.Rule)
			}
		}(b)
	}
	wg.Wait()
	return
}

func (st *Stack) solveLayer(i int, ex *fourier.Expansion, kv *modes.WaveVectors,
	gap *modes.LayerModes, k0 float64, mCfg modes.Config, smCfg smatrix.Config,
	rule fourier.Rule) (sl solvedLayer) {
	if sl.coef, sl.err = fourier.Factorize(st.Layers[i].Cell, ex, rule); sl.err != nil {
		return
	}
	if sl.lm, sl.err = modes.Solve(sl.coef, kv, mCfg); sl.err != nil {
		return
	}
	sl.S, sl.err = smatrix.LayerMatrix(sl.lm, gap, k0, st.Layers[i].Thickness, smCfg)
	return
}

func (st *Stack) validate(cfg Config) error {
	if cfg.Wavelength <= 0 {
		return &utils.InvalidGeometryError{Msg: fmt.Sprintf("wavelength must be positive, got %g", cfg.Wavelength)}
	}
	if len(st.Layers) == 0 {
		return &utils.InvalidGeometryError{Msg: "stack has no layers"}
	}
	for i, l := range st.Layers {
		if l.Thickness < 0 {
			return &utils.InvalidGeometryError{Msg: fmt.Sprintf("layer %d thickness is negative", i)}
		}
		if l.Cell == nil {
			return &utils.InvalidGeometryError{Msg: fmt.Sprintf("layer %d has no unit cell", i)}
		}
	}
	if cmplx.Abs(st.NInc) == 0 || cmplx.Abs(st.NSub) == 0 {
		return &utils.InvalidGeometryError{Msg: "half-space refractive indices must be nonzero"}
	}
	if math.Abs(cfg.Theta) >= math.Pi/2 {
		return &utils.UnsupportedConfigurationError{Msg: "incidence angle must lie strictly inside the upper half space"}
	}
	return nil
}

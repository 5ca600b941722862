package InputParameters

import (
	"fmt"
	"math"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/opticore/gorcwa/fourier"
	"github.com/opticore/gorcwa/smatrix"
	"github.com/opticore/gorcwa/solver"
)

// Parameters obtained from the YAML input file
type InputParametersRCWA struct {
	Title           string      `yaml:"Title"`
	Wavelength      float64     `yaml:"Wavelength"`
	WavelengthSweep []float64   `yaml:"WavelengthSweep"` // [start, stop, count]
	ThetaDeg        float64     `yaml:"ThetaDeg"`
	PhiDeg          float64     `yaml:"PhiDeg"`
	PTE             float64     `yaml:"PTE"`
	PTM             float64     `yaml:"PTM"`
	Period          float64     `yaml:"Period"` // 1D shortcut; overrides Lattice
	Lattice         []float64   `yaml:"Lattice"` // [ux, uy, vx, vy]
	MaxM            int         `yaml:"MaxM"`
	MaxN            int         `yaml:"MaxN"`
	Truncation      string      `yaml:"Truncation"`
	Rule            string      `yaml:"Rule"`
	Strategy        string      `yaml:"Strategy"`
	AmbientIndex    float64     `yaml:"AmbientIndex"`
	SubstrateIndex  float64     `yaml:"SubstrateIndex"`
	GridNx          int         `yaml:"GridNx"`
	GridNy          int         `yaml:"GridNy"`
	ConditionLimit  float64     `yaml:"ConditionLimit"`
	DegeneracyTol   float64     `yaml:"DegeneracyTol"`
	Layers          []LayerSpec `yaml:"Layers"`
}

type LayerSpec struct {
	Thickness  float64         `yaml:"Thickness"`
	Eps        []float64       `yaml:"Eps"` // [re] or [re, im]
	Inclusions []InclusionSpec `yaml:"Inclusions"`
}

type InclusionSpec struct {
	Shape string    `yaml:"Shape"` // rectangle, disc, ellipse
	Eps   []float64 `yaml:"Eps"`
	Cx    float64   `yaml:"Cx"` // center, fractional unit-cell coordinates
	Cy    float64   `yaml:"Cy"`
	Wx    float64   `yaml:"Wx"` // rectangle/ellipse extents
	Wy    float64   `yaml:"Wy"`
	R     float64   `yaml:"R"` // disc radius
}

func (ip *InputParametersRCWA) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	if ip.GridNx == 0 {
		ip.GridNx = 256
	}
	if ip.GridNy == 0 {
		ip.GridNy = 1
	}
	if ip.PTE == 0 && ip.PTM == 0 {
		ip.PTE = 1
	}
	return nil
}

func (ip *InputParametersRCWA) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= Wavelength\n", ip.Wavelength)
	fmt.Printf("%8.3f\t\t= Theta [deg]\n", ip.ThetaDeg)
	fmt.Printf("%8.3f\t\t= Phi [deg]\n", ip.PhiDeg)
	fmt.Printf("%8.3f %8.3f\t= PTE / PTM\n", ip.PTE, ip.PTM)
	fmt.Printf("[%d x %d]\t\t\t= Truncation Order\n", ip.MaxM, ip.MaxN)
	fmt.Printf("[%s]\t\t= Factorization Rule\n", ip.Rule)
	fmt.Printf("[%s]\t\t= Fold Strategy\n", ip.Strategy)
	fmt.Printf("%8.5f / %8.5f\t= Ambient / Substrate index\n", ip.AmbientIndex, ip.SubstrateIndex)
	for i, l := range ip.Layers {
		fmt.Printf("Layer[%d]: thickness %g, eps %v, %d inclusion(s)\n",
			i, l.Thickness, l.Eps, len(l.Inclusions))
	}
}

// Wavelengths expands the sweep triple into the evaluation points, or
// returns the single wavelength.
func (ip *InputParametersRCWA) Wavelengths() (wl []float64, err error) {
	if len(ip.WavelengthSweep) == 0 {
		if ip.Wavelength <= 0 {
			err = fmt.Errorf("no Wavelength or WavelengthSweep given")
			return
		}
		return []float64{ip.Wavelength}, nil
	}
	if len(ip.WavelengthSweep) != 3 {
		err = fmt.Errorf("WavelengthSweep must be [start, stop, count], got %v", ip.WavelengthSweep)
		return
	}
	var (
		start = ip.WavelengthSweep[0]
		stop  = ip.WavelengthSweep[1]
		count = int(ip.WavelengthSweep[2])
	)
	if count < 2 || start <= 0 || stop <= start {
		err = fmt.Errorf("degenerate WavelengthSweep %v", ip.WavelengthSweep)
		return
	}
	wl = make([]float64, count)
	for i := range wl {
		wl[i] = start + (stop-start)*float64(i)/float64(count-1)
	}
	return
}

// BuildStack assembles the solver geometry from the parsed description.
func (ip *InputParametersRCWA) BuildStack() (st *solver.Stack, err error) {
	var (
		lat fourier.Lattice
	)
	switch {
	case ip.Period > 0:
		lat = fourier.NewLattice1D(ip.Period)
	case len(ip.Lattice) == 4:
		if lat, err = fourier.NewLattice(ip.Lattice[0], ip.Lattice[1], ip.Lattice[2], ip.Lattice[3]); err != nil {
			return
		}
	default:
		err = fmt.Errorf("either Period or a 4-element Lattice is required")
		return
	}
	st = &solver.Stack{
		Lat:  lat,
		NInc: complex(ip.AmbientIndex, 0),
		NSub: complex(ip.SubstrateIndex, 0),
	}
	if st.NInc == 0 {
		st.NInc = 1
	}
	if st.NSub == 0 {
		st.NSub = 1
	}
	for i, ls := range ip.Layers {
		var cell *fourier.UnitCell
		bg := epsFromPair(ls.Eps)
		if len(ls.Inclusions) == 0 {
			if cell, err = fourier.NewUniformCell(lat, ip.GridNx, ip.GridNy, bg, 1); err != nil {
				return
			}
		} else {
			if cell, err = fourier.NewPatternedCell(lat, ip.GridNx, ip.GridNy, bg); err != nil {
				return
			}
			for _, inc := range ls.Inclusions {
				var shape fourier.Inclusion
				if shape, err = inc.build(); err != nil {
					err = fmt.Errorf("layer %d: %w", i, err)
					return
				}
				cell.Paint(epsFromPair(inc.Eps), shape)
			}
		}
		st.Layers = append(st.Layers, solver.Layer{Cell: cell, Thickness: ls.Thickness})
	}
	return
}

// BuildConfig translates the scalar knobs into a solver configuration.
func (ip *InputParametersRCWA) BuildConfig() (cfg solver.Config, err error) {
	cfg = solver.DefaultConfig()
	cfg.Wavelength = ip.Wavelength
	cfg.Theta = ip.ThetaDeg * math.Pi / 180
	cfg.Phi = ip.PhiDeg * math.Pi / 180
	cfg.PTE = complex(ip.PTE, 0)
	cfg.PTM = complex(ip.PTM, 0)
	cfg.MaxM, cfg.MaxN = ip.MaxM, ip.MaxN
	if ip.ConditionLimit > 0 {
		cfg.ConditionLimit = ip.ConditionLimit
	}
	if ip.DegeneracyTol > 0 {
		cfg.DegeneracyTol = ip.DegeneracyTol
	}
	switch strings.ToLower(ip.Truncation) {
	case "", "circular":
		cfg.Shape = fourier.Circular
	case "rectangular":
		cfg.Shape = fourier.Rectangular
	default:
		err = fmt.Errorf("unknown Truncation %q", ip.Truncation)
		return
	}
	switch strings.ToLower(ip.Rule) {
	case "", "li", "liinverse":
		cfg.Rule = fourier.LiInverse
	case "laurent":
		cfg.Rule = fourier.Laurent
	case "normalvector", "nv":
		cfg.Rule = fourier.NormalVector
	default:
		err = fmt.Errorf("unknown Rule %q", ip.Rule)
		return
	}
	switch strings.ToLower(ip.Strategy) {
	case "", "sequential":
		cfg.Strategy = smatrix.Sequential
	case "tree", "pairwisetree":
		cfg.Strategy = smatrix.PairwiseTree
	default:
		err = fmt.Errorf("unknown Strategy %q", ip.Strategy)
		return
	}
	return
}

func (inc *InclusionSpec) build() (s fourier.Inclusion, err error) {
	switch strings.ToLower(inc.Shape) {
	case "rectangle", "rect":
		s = fourier.Rectangle{Cx: inc.Cx, Cy: inc.Cy, Wx: inc.Wx, Wy: inc.Wy}
	case "disc", "circle":
		s = fourier.Disc{Cx: inc.Cx, Cy: inc.Cy, R: inc.R}
	case "ellipse":
		s = fourier.Ellipse{Cx: inc.Cx, Cy: inc.Cy, Rx: inc.Wx / 2, Ry: inc.Wy / 2}
	default:
		err = fmt.Errorf("unknown inclusion Shape %q", inc.Shape)
	}
	return
}

func epsFromPair(p []float64) complex128 {
	switch len(p) {
	case 0:
		return 1
	case 1:
		return complex(p[0], 0)
	default:
		return complex(p[0], p[1])
	}
}

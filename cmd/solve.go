/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opticore/gorcwa/InputParameters"
	"github.com/opticore/gorcwa/solver"
)

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve plane-wave scattering from a periodic multilayer stack",
	Long: `
Runs one simulation (or a wavelength sweep) described by a YAML input file
and prints the per-order diffraction efficiencies,

gorcwa solve -f structure.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		fname, _ := cmd.Flags().GetString("file")
		parallel, _ := cmd.Flags().GetInt("parallel")
		verbose, _ := cmd.Flags().GetBool("verbose")
		ip, st, cfg := loadSimulation(fname)
		cfg.ParallelDegree = parallel
		if verbose {
			ip.Print()
		}
		wls, err := ip.Wavelengths()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if len(wls) == 1 {
			cfg.Wavelength = wls[0]
			runSingle(st, cfg)
			return
		}
		runSweep(st, cfg, wls)
	},
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("file", "f", "", "YAML simulation description (required)")
	SolveCmd.Flags().IntP("parallel", "p", 0, "worker count for layer solves and sweeps, 0 = unbounded")
	SolveCmd.Flags().BoolP("verbose", "v", false, "echo the parsed input parameters")
	_ = SolveCmd.MarkFlagRequired("file")
}

func loadSimulation(fname string) (ip *InputParameters.InputParametersRCWA, st *solver.Stack, cfg solver.Config) {
	data, err := os.ReadFile(fname)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	ip = &InputParameters.InputParametersRCWA{}
	if err = ip.Parse(data); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if st, err = ip.BuildStack(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if cfg, err = ip.BuildConfig(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return
}

func runSingle(st *solver.Stack, cfg solver.Config) {
	sol, err := st.Solve(cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if sol.Aliased {
		fmt.Println("warning: sampling grid leaves a thin Nyquist margin, results may alias")
	}
	fmt.Printf("wavelength %g, %d harmonics retained\n", sol.Wavelength, sol.Ex.NumTerms())
	fmt.Printf("%6s %6s %12s %12s\n", "m", "n", "R", "T")
	for i, o := range sol.Ex.Orders {
		r, t := sol.Resp.REff[i], sol.Resp.TEff[i]
		if r == 0 && t == 0 {
			continue
		}
		fmt.Printf("%6d %6d %12.8f %12.8f\n", o.M, o.N, r, t)
	}
	fmt.Printf("TotalR = %10.8f, TotalT = %10.8f, R+T = %10.8f\n",
		sol.Resp.TotalR, sol.Resp.TotalT, sol.Resp.TotalR+sol.Resp.TotalT)
}

func runSweep(st *solver.Stack, cfg solver.Config, wls []float64) {
	pts := st.SweepWavelengths(cfg, wls)
	fmt.Printf("%12s %12s %12s\n", "wavelength", "TotalR", "TotalT")
	for _, pt := range pts {
		if pt.Err != nil {
			fmt.Printf("%12.6f failed: %s\n", pt.Wavelength, pt.Err)
			continue
		}
		fmt.Printf("%12.6f %12.8f %12.8f\n", pt.Wavelength, pt.TotalR, pt.TotalT)
	}
}

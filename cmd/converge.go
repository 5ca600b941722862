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
	"math"

	"github.com/spf13/cobra"
)

// ConvergeCmd represents the converge command
var ConvergeCmd = &cobra.Command{
	Use:   "converge",
	Short: "Scan truncation orders and print the stabilization trend",
	Long: `
Re-solves one structure over increasing truncation orders so the
convergence of the reflection/transmission totals can be judged,

gorcwa converge -f structure.yaml --min 1 --max 15`,
	Run: func(cmd *cobra.Command, args []string) {
		fname, _ := cmd.Flags().GetString("file")
		min, _ := cmd.Flags().GetInt("min")
		max, _ := cmd.Flags().GetInt("max")
		step, _ := cmd.Flags().GetInt("step")
		parallel, _ := cmd.Flags().GetInt("parallel")
		_, st, cfg := loadSimulation(fname)
		cfg.ParallelDegree = parallel
		var orders []int
		for m := min; m <= max; m += step {
			orders = append(orders, m)
		}
		pts := st.ConvergenceScan(cfg, orders)
		fmt.Printf("%8s %8s %12s %12s %12s\n", "order", "terms", "TotalR", "TotalT", "delta")
		prev := math.NaN()
		for _, pt := range pts {
			if pt.Err != nil {
				fmt.Printf("%8d failed: %s\n", pt.MaxOrder, pt.Err)
				continue
			}
			delta := math.Abs(pt.TotalR - prev)
			if math.IsNaN(prev) {
				fmt.Printf("%8d %8d %12.8f %12.8f %12s\n", pt.MaxOrder, pt.NumTerms, pt.TotalR, pt.TotalT, "-")
			} else {
				fmt.Printf("%8d %8d %12.8f %12.8f %12.2e\n", pt.MaxOrder, pt.NumTerms, pt.TotalR, pt.TotalT, delta)
			}
			prev = pt.TotalR
		}
	},
}

func init() {
	rootCmd.AddCommand(ConvergeCmd)
	ConvergeCmd.Flags().StringP("file", "f", "", "YAML simulation description (required)")
	ConvergeCmd.Flags().Int("min", 1, "smallest truncation order")
	ConvergeCmd.Flags().Int("max", 15, "largest truncation order")
	ConvergeCmd.Flags().Int("step", 2, "order increment")
	ConvergeCmd.Flags().IntP("parallel", "p", 0, "worker count, 0 = unbounded")
	_ = ConvergeCmd.MarkFlagRequired("file")
}

/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

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
	"context"
	"io"
	"log"
	"os"

	"github.com/rotblauer/fixd/geo/synth"
	"github.com/rotblauer/fixd/stream"
	"github.com/spf13/cobra"
)

var (
	optSimScenario string
	optSimCount    int
	optSimSeed     int64
	optSimNoise    float64
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Write a synthetic raw track as NDJSON",
	Long: `Writes a deterministic synthetic track of raw fixes to stdout, one JSON fix per line.

Scenarios:

  stationary  jitter around a point, with a wandering compass
  walk        a straight line at walking pace
  turn        a bearing sweep across north

Example:

  fixd simulate --scenario turn --count 60 | fixd smooth
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		cfg := synth.DefaultConfig()
		cfg.Seed = optSimSeed
		cfg.Noise = optSimNoise
		if err := runSimulate(context.Background(), os.Stdout, optSimScenario, optSimCount, cfg); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	defaults := synth.DefaultConfig()
	pFlags := simulateCmd.PersistentFlags()
	pFlags.StringVar(&optSimScenario, "scenario", "walk", "Scenario (stationary, walk, turn)")
	pFlags.IntVar(&optSimCount, "count", 60, "Number of fixes")
	pFlags.Int64Var(&optSimSeed, "seed", defaults.Seed, "Random seed")
	pFlags.Float64Var(&optSimNoise, "noise", defaults.Noise, "Position noise standard deviation, meters")
}

func runSimulate(ctx context.Context, out io.Writer, scenario string, count int, cfg synth.Config) error {
	raws, err := synth.Scenario(scenario, cfg, count)
	if err != nil {
		return err
	}
	return stream.WriteNDJSON(out, stream.Slice(ctx, raws))
}

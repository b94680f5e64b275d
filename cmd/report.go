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
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rotblauer/fixd/geo/locfilter"
	"github.com/rotblauer/fixd/geo/refkalman"
	"github.com/rotblauer/fixd/params"
	"github.com/rotblauer/fixd/report"
	"github.com/rotblauer/fixd/trackz"
	"github.com/rotblauer/fixd/types/fix"
	"github.com/spf13/cobra"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Summarize how well a raw track is smoothed",
	Long: `Reads a raw track (from the file, which may be gzipped, or stdin) as one device, runs it through the
location filter and a reference Kalman filter, and prints step, path and place
statistics for each, with a histogram of filter statuses.

Example:

  fixd simulate --scenario stationary --count 300 | fixd report
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		cfg, err := filterConfig()
		if err != nil {
			log.Fatalln(err)
		}
		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := trackz.Open(args[0])
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			in = f
		}
		if err := runReport(in, os.Stdout, cfg); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(in io.Reader, out io.Writer, cfg *params.LocationFilterConfig) error {
	var raws []fix.RawFix
	if err := fix.NewDecoder().Scan(in, func(raw fix.RawFix) error {
		raws = append(raws, raw)
		return nil
	}); err != nil {
		return err
	}
	if len(raws) == 0 {
		return fmt.Errorf("no fixes")
	}
	f, err := locfilter.New(cfg)
	if err != nil {
		return err
	}
	smoothed := make([]fix.SmoothedFix, 0, len(raws))
	for _, raw := range raws {
		smoothed = append(smoothed, f.Update(raw))
	}
	summary := report.Summarize(raws, smoothed, refkalman.Track(raws))
	_, err = fmt.Fprint(out, summary.String())
	return err
}

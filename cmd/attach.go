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
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/common"
	"github.com/rotblauer/ortomap/metrics/influxdb"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"time"
)

var optAttachMaps []string
var optAttachTimeout time.Duration

// attachCmd represents the attach command
var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach capabilities overlays once and print the maps",
	Long: `Runs the capabilities flows of every map (or those named with --map),
then prints each map's layers and a table of results.

Exits 1 if any flow failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := setDefaultSlog(cmd, args)
		atlas, mapsConfig := loadAtlas(c)

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()
		if optAttachTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, optAttachTimeout)
			defer cancel()
		}

		want := map[string]bool{}
		for _, name := range optAttachMaps {
			if _, ok := mapsConfig.Map(name); !ok {
				slog.Error("No such map", "map", name)
				os.Exit(1)
			}
			want[name] = true
		}
		var reqs []attach.Request
		for _, req := range attach.RequestsFor(atlas, mapsConfig) {
			if len(want) == 0 || want[req.Map] {
				reqs = append(reqs, req)
			}
		}

		attacher := attach.NewAttacher(atlas, proj.Default, wmts.NewFetcher(c.Fetch))
		results := attacher.AttachAll(ctx, reqs...)

		out := cmd.OutOrStdout()
		for _, m := range atlas.Maps() {
			if len(want) == 0 || want[m.Name] {
				renderMapTable(out, m)
			}
		}
		renderResultsTable(out, results)

		if c.Influx.Enabled() {
			if err := influxdb.ExportAttachResults(context.Background(), c.Influx, results); err != nil {
				slog.Error("Failed to export attach results", "error", err)
			}
		}
		for _, res := range results {
			if !res.OK() {
				if logCloser != nil {
					_ = logCloser.Close()
				}
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)

	flags := attachCmd.Flags()
	flags.StringSliceVar(&optAttachMaps, "map", nil, "only attach overlays of these maps")
	flags.DurationVar(&optAttachTimeout, "timeout", 2*time.Minute, "overall deadline, 0 for none")
}

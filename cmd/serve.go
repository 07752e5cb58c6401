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
	"github.com/rotblauer/ortomap/daemon/webd"
	"github.com/rotblauer/ortomap/metrics/influxdb"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"time"
)

var optHTTPAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map webserver",
	Long: `Serves the maps on an OpenLayers page, then attaches each map's
capabilities overlays in the background. Overlays appear on open pages
as they are attached.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := setDefaultSlog(cmd, args)
		c.Web.Address = optHTTPAddr
		atlas, mapsConfig := loadAtlas(c)

		server, err := webd.NewWebDaemon(c.Web, atlas, proj.Default)
		if err != nil {
			log.Fatalln(err)
		}
		attacher := attach.NewAttacher(atlas, proj.Default, wmts.NewFetcher(c.Fetch))
		server.WatchResults(attacher)
		if err := server.Start(); err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		go func() {
			results := attacher.AttachAll(ctx, attach.RequestsFor(atlas, mapsConfig)...)
			failed := 0
			for _, res := range results {
				if !res.OK() {
					failed++
				}
			}
			slog.Info("Attached capabilities overlays", "total", len(results), "failed", failed)
			if c.Influx.Enabled() {
				if err := influxdb.ExportAttachResults(ctx, c.Influx, results); err != nil {
					slog.Error("Failed to export attach results", "error", err)
				}
			}
		}()

		<-ctx.Done()
		slog.Info("Interrupted, stopping")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := server.Stop(stopCtx); err != nil {
			slog.Error("Failed to stop web daemon", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&optHTTPAddr, "address", params.DefaultWebListenerConfig().Address, "HTTP address to listen on")
}

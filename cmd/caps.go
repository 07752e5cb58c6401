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
	"encoding/json"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/ortomap/common"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
	"github.com/spf13/cobra"
	"log"
)

var optCapsConfig wmts.Config
var optCapsLonLat []float64
var optCapsZoom int

// capsCmd represents the caps command
var capsCmd = &cobra.Command{
	Use:   "caps <service-url>",
	Short: "Inspect a WMTS GetCapabilities document",
	Long: `Fetches the capabilities of a WMTS service and prints its layers and
tile matrix sets.

With --layer, prints the source options derived for that layer instead.
With --layer, --lonlat and --zoom, also prints the url of the tile
containing that point.

Examples:

  ortomap caps https://mapy.geoportal.gov.pl/wss/service/PZGIK/ORTO/WMTS/StandardResolution
  ortomap caps --layer ORTOFOTOMAPA --projection EPSG:3857 --lonlat 21.01,52.23 --zoom 3 \
    https://mapy.geoportal.gov.pl/wss/service/PZGIK/ORTO/WMTS/StandardResolution`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := setDefaultSlog(cmd, args)
		// Custom projections, eg. EPSG:2180, come from the maps table.
		loadAtlas(c)

		ctx, cancel := common.InterruptContext(context.Background())
		defer cancel()

		caps, err := wmts.NewFetcher(c.Fetch).FetchCapabilities(ctx, args[0])
		if err != nil {
			log.Fatalln(err)
		}
		out := cmd.OutOrStdout()
		if optCapsConfig.Layer == "" {
			renderCapabilitiesTables(out, caps)
			return
		}

		opts, err := wmts.OptionsFromCapabilities(caps, optCapsConfig, proj.Default)
		if err != nil {
			log.Fatalln(err)
		}
		j, err := json.MarshalIndent(opts, "", "  ")
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Fprintln(out, string(j))

		if len(optCapsLonLat) == 0 {
			return
		}
		if len(optCapsLonLat) != 2 {
			log.Fatalln("--lonlat wants lon,lat")
		}
		if optCapsZoom < 0 || optCapsZoom >= opts.TileGrid.Levels() {
			log.Fatalf("--zoom %d out of range, grid has %d levels", optCapsZoom, opts.TileGrid.Levels())
		}
		pt, err := proj.FromLonLat(orb.Point{optCapsLonLat[0], optCapsLonLat[1]}, opts.Projection)
		if err != nil {
			log.Fatalln(err)
		}
		col, row, err := opts.TileGrid.TileCoord(pt, optCapsZoom)
		if err != nil {
			log.Fatalln(err)
		}
		u, err := opts.TileURL(optCapsZoom, col, row)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Fprintln(out, u)
	},
}

func init() {
	rootCmd.AddCommand(capsCmd)

	flags := capsCmd.Flags()
	flags.StringVar(&optCapsConfig.Layer, "layer", "", "layer identifier to derive source options for")
	flags.StringVar(&optCapsConfig.Projection, "projection", "", "preferred projection, eg. EPSG:2180")
	flags.StringVar(&optCapsConfig.MatrixSet, "matrix-set", "", "preferred tile matrix set")
	flags.StringVar(&optCapsConfig.Format, "format", "", "image format, eg. image/jpeg")
	flags.StringVar(&optCapsConfig.Style, "style", "", "style identifier or title")
	flags.Float64SliceVar(&optCapsLonLat, "lonlat", nil, "lon,lat of a point to print the tile url for")
	flags.IntVar(&optCapsZoom, "zoom", 0, "zoom level for --lonlat")
}

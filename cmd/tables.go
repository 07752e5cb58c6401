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
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/rotblauer/ortomap/wmts"
	"io"
	"strings"
	"time"
)

func newTable(w io.Writer, title string, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row(header))
	return t
}

func renderMapTable(w io.Writer, m *geomap.Map) {
	t := newTable(w, fmt.Sprintf("%s (%s, target %s)", m.Name, m.View.Projection, m.Target),
		"#", "id", "title", "source", "opacity", "z-index", "visible")
	for i, l := range m.Layers() {
		z := "-"
		if l.ZIndex != nil {
			z = fmt.Sprint(*l.ZIndex)
		}
		source := ""
		if l.Source != nil {
			source = l.Source.Type()
		}
		if ws, ok := l.Source.(geomap.WMTSSource); ok && ws.Options != nil {
			source = fmt.Sprintf("wmts %s/%s", ws.Options.Layer, ws.Options.MatrixSet)
		}
		t.AppendRow(table.Row{i, l.ID, l.Title, source, l.Opacity, z, l.Visible})
	}
	t.Render()
}

func renderResultsTable(w io.Writer, results []attach.Result) {
	t := newTable(w, "attach results",
		"map", "layer", "ok", "kind", "index", "size", "elapsed", "error")
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		t.AppendRow(table.Row{
			res.Request.Map, res.Request.Layer, res.OK(), res.Kind, res.Index,
			humanize.Bytes(uint64(res.Bytes)), res.Duration.Round(time.Millisecond), errText,
		})
	}
	t.Render()
}

func renderCapabilitiesTables(w io.Writer, caps *wmts.Capabilities) {
	title := "layers"
	if caps.ServiceIdentification != nil && caps.ServiceIdentification.Title != "" {
		title = caps.ServiceIdentification.Title
	}
	t := newTable(w, title, "identifier", "title", "formats", "styles", "matrix sets")
	for _, l := range caps.Contents.Layers {
		var styles, sets []string
		for _, s := range l.Styles {
			styles = append(styles, s.Identifier)
		}
		for _, link := range l.TileMatrixSetLinks {
			sets = append(sets, link.TileMatrixSet)
		}
		t.AppendRow(table.Row{
			l.Identifier, l.Title, strings.Join(l.Formats, "\n"),
			strings.Join(styles, "\n"), strings.Join(sets, "\n"),
		})
	}
	t.Render()

	t = newTable(w, "tile matrix sets", "identifier", "crs", "levels", "tile size")
	for _, set := range caps.Contents.TileMatrixSets {
		size := "-"
		if len(set.TileMatrices) > 0 {
			size = fmt.Sprintf("%dx%d", set.TileMatrices[0].TileWidth, set.TileMatrices[0].TileHeight)
		}
		t.AppendRow(table.Row{set.Identifier, set.SupportedCRS, len(set.TileMatrices), size})
	}
	t.Render()
}

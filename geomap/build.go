package geomap

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
)

// Build registers the configured projections with reg and constructs every
// map of cfg from its static layer tables.
//
// A nil Atlas means the returned errors are fatal. Otherwise they are
// warnings about static tile grids that do not line up; those layers
// are built as configured.
func Build(cfg *params.MapsConfig, reg *proj.Registry) (*Atlas, []error) {
	if reg == nil {
		reg = proj.Default
	}
	if cfg == nil {
		return nil, []error{params.ErrNoMaps}
	}
	if err := cfg.Validate(); err != nil {
		return nil, []error{err}
	}
	for _, p := range cfg.Projections {
		if _, err := reg.Register(p.Code, p.Def); err != nil {
			return nil, []error{err}
		}
		if len(p.Extent) == 4 {
			if err := reg.SetExtent(p.Code, boundOf(p.Extent)); err != nil {
				return nil, []error{err}
			}
		}
	}

	atlas := NewAtlas()
	var warnings []error
	for _, def := range cfg.Maps {
		m, warns, err := buildMap(def, reg)
		if err != nil {
			return nil, []error{err}
		}
		warnings = append(warnings, warns...)
		if err := atlas.Add(m); err != nil {
			return nil, []error{err}
		}
	}
	return atlas, warnings
}

func buildMap(def params.MapDef, reg *proj.Registry) (*Map, []error, error) {
	p, err := reg.Get(def.View.Projection)
	if err != nil {
		return nil, nil, fmt.Errorf("map %s: %w", def.Name, err)
	}
	lonlat := orb.Point{def.View.CenterLonLat[0], def.View.CenterLonLat[1]}
	center, err := reg.FromLonLat(lonlat, p.Code)
	if err != nil {
		return nil, nil, fmt.Errorf("map %s: %w", def.Name, err)
	}

	m := NewMap(def.Name, def.Target, View{Projection: p.Code, Center: center, Zoom: def.View.Zoom})
	m.CenterLonLat = lonlat

	var warnings []error
	for i, ld := range def.Layers {
		l, err := buildLayer(ld, reg)
		if err != nil {
			if errors.Is(err, wmts.ErrGridMismatch) {
				warnings = append(warnings, fmt.Errorf("map %s layer #%d %s: %w", def.Name, i, ld.Title, err))
			} else {
				return nil, nil, fmt.Errorf("map %s layer #%d %s: %w", def.Name, i, ld.Title, err)
			}
		}
		m.appendLayer(l)
	}
	return m, warnings, nil
}

// buildLayer returns the layer even alongside an ErrGridMismatch error.
func buildLayer(def params.LayerDef, reg *proj.Registry) (*Layer, error) {
	var opts []LayerOption
	if def.Title != "" {
		opts = append(opts, WithTitle(def.Title))
	}
	if def.Opacity != nil {
		opts = append(opts, WithOpacity(*def.Opacity))
	}
	if def.ZIndex != nil {
		opts = append(opts, WithZIndex(*def.ZIndex))
	}
	if def.Visible != nil {
		opts = append(opts, WithVisible(*def.Visible))
	}
	if len(def.Extent) == 4 {
		opts = append(opts, WithExtent(boundOf(def.Extent)))
	}

	switch def.Type {
	case params.LayerTypeOSM:
		src := NewOSMSource()
		if def.OSM != nil {
			if def.OSM.URL != "" {
				src.URL = def.OSM.URL
			}
			if def.OSM.MaxZoom > 0 {
				src.MaxZoom = def.OSM.MaxZoom
			}
		}
		return NewTileLayer(src, opts...), nil
	case params.LayerTypeWMTS:
		so, err := staticSourceOptions(def.WMTS, reg)
		if so == nil {
			return nil, err
		}
		return NewTileLayer(WMTSSource{Options: so}, opts...), err
	}
	return nil, fmt.Errorf("unknown layer type %q", def.Type)
}

// staticSourceOptions builds WMTS options from a literal grid instead of
// a capabilities document. Options are returned alongside a grid
// validation error.
func staticSourceOptions(def *params.WMTSDef, reg *proj.Registry) (*wmts.SourceOptions, error) {
	p, err := reg.Get(def.Projection)
	if err != nil {
		return nil, err
	}
	grid := &wmts.TileGrid{
		Resolutions: def.TileGrid.Resolutions,
		MatrixIDs:   def.TileGrid.MatrixIDs,
	}
	switch {
	case len(def.TileGrid.Origin) == 2:
		grid.Origin = &orb.Point{def.TileGrid.Origin[0], def.TileGrid.Origin[1]}
	case def.TileGrid.OriginTopLeftOf != "":
		of, err := reg.Get(def.TileGrid.OriginTopLeftOf)
		if err != nil {
			return nil, err
		}
		ext, ok := of.Extent()
		if !ok {
			return nil, fmt.Errorf("%s has no extent to take an origin from", of.Code)
		}
		tl := proj.TopLeft(ext)
		grid.Origin = &tl
	}
	size := def.TileGrid.TileSize
	if size == 0 {
		size = def.TileSize
	}
	if size > 0 {
		grid.TileSize = wmts.TileSize{size, size}
	}

	so := &wmts.SourceOptions{
		URLs:            []string{def.URL},
		Layer:           def.Layer,
		MatrixSet:       def.MatrixSet,
		Format:          def.Format,
		Style:           def.Style,
		Projection:      p.Code,
		RequestEncoding: wmts.EncodingKVP,
		TileGrid:        grid,
	}
	return so, grid.Validate()
}

func boundOf(e []float64) orb.Bound {
	return orb.Bound{Min: orb.Point{e[0], e[1]}, Max: orb.Point{e[2], e[3]}}
}

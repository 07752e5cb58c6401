package wmts

import (
	"fmt"
	"github.com/paulmach/orb"
	"github.com/rotblauer/ortomap/proj"
	"sort"
	"strings"
)

// RequestEncoding is how tile requests are encoded.
type RequestEncoding string

const (
	EncodingKVP  RequestEncoding = "KVP"
	EncodingREST RequestEncoding = "REST"
)

// metersPerPixel is the standardized rendering pixel size of 0.28mm.
const metersPerPixel = 0.28e-3

// Config selects what OptionsFromCapabilities derives.
// Only Layer is required.
type Config struct {
	Layer           string
	MatrixSet       string
	Projection      string
	Format          string
	Style           string
	RequestEncoding RequestEncoding
	Dimensions      map[string]string
}

// SourceOptions is everything a client needs to request the tiles of one layer.
type SourceOptions struct {
	URLs            []string          `json:"urls"`
	Layer           string            `json:"layer"`
	MatrixSet       string            `json:"matrixSet"`
	Format          string            `json:"format"`
	Style           string            `json:"style"`
	Projection      string            `json:"projection"`
	RequestEncoding RequestEncoding   `json:"requestEncoding"`
	TileGrid        *TileGrid         `json:"tileGrid"`
	Dimensions      map[string]string `json:"dimensions,omitempty"`
	WrapX           bool              `json:"wrapX"`
}

// OptionsFromCapabilities derives tile source options for cfg.Layer.
// The registry must know the CRS of the chosen matrix set, or cfg.Projection.
func OptionsFromCapabilities(caps *Capabilities, cfg Config, reg *proj.Registry) (*SourceOptions, error) {
	if caps == nil || caps.Contents == nil {
		return nil, parseErrorf("no contents")
	}
	if reg == nil {
		reg = proj.Default
	}
	l, ok := caps.Layer(cfg.Layer)
	if !ok {
		return nil, &LayerNotFoundError{Layer: cfg.Layer, Available: caps.LayerIDs()}
	}
	if len(l.TileMatrixSetLinks) == 0 {
		return nil, parseErrorf("layer %s has no tile matrix set link", l.Identifier)
	}

	var wantProj *proj.Projection
	if cfg.Projection != "" {
		p, err := reg.Get(cfg.Projection)
		if err != nil {
			return nil, err
		}
		wantProj = p
	}
	link := selectLink(caps, l, cfg, wantProj, reg)

	set, ok := caps.TileMatrixSet(link.TileMatrixSet)
	if !ok {
		return nil, parseErrorf("tile matrix set %s not found", link.TileMatrixSet)
	}

	format := cfg.Format
	if format == "" && len(l.Formats) > 0 {
		format = l.Formats[0]
	}

	style := selectStyle(l, cfg.Style)

	dims := map[string]string{}
	for _, d := range l.Dimensions {
		dims[d.Identifier] = d.Default
	}
	for k, v := range cfg.Dimensions {
		if _, declared := dims[k]; declared {
			dims[k] = v
		}
	}
	if len(dims) == 0 {
		dims = nil
	}

	// The grid is in the matrix set's CRS, axis order included. The requested
	// projection only names it when the two are equivalent.
	setProj, err := reg.Get(set.SupportedCRS)
	if err != nil {
		return nil, fmt.Errorf("matrix set %s: %w", set.Identifier, err)
	}
	p := setProj
	if wantProj != nil && proj.Equivalent(wantProj, setProj) {
		p = wantProj
	}

	var extent *orb.Bound
	wrapX := false
	if l.WGS84BoundingBox != nil {
		bb := l.WGS84BoundingBox.Bound()
		wrapX = bb.Min[0] == -180 && bb.Max[0] == 180
		e, err := reg.TransformExtent(bb, proj.EPSG4326, p.Code)
		if err != nil {
			return nil, err
		}
		extent = &e
		if pe, ok := p.Extent(); ok && !containsBound(pe, e) {
			extent = nil
		}
	}

	grid, err := gridFromMatrixSet(set, link.Limits, setProj, extent)
	if err != nil {
		return nil, err
	}

	opts := &SourceOptions{
		Layer:      l.Identifier,
		MatrixSet:  set.Identifier,
		Format:     format,
		Style:      style,
		Projection: p.Code,
		TileGrid:   grid,
		Dimensions: dims,
		WrapX:      wrapX,
	}
	opts.URLs, opts.RequestEncoding, opts.Format = tileURLs(caps, l, cfg.RequestEncoding, format)
	if len(opts.URLs) == 0 {
		return nil, parseErrorf("layer %s has no tile url", l.Identifier)
	}
	return opts, nil
}

// selectLink picks the link whose matrix set CRS matches the wanted projection,
// then the one named by cfg.MatrixSet, then the first.
func selectLink(caps *Capabilities, l *Layer, cfg Config, want *proj.Projection, reg *proj.Registry) TileMatrixSetLink {
	if want != nil {
		for _, link := range l.TileMatrixSetLinks {
			set, ok := caps.TileMatrixSet(link.TileMatrixSet)
			if !ok {
				continue
			}
			if p, err := reg.Get(set.SupportedCRS); err == nil && proj.Equivalent(p, want) {
				return link
			}
		}
	}
	if cfg.MatrixSet != "" {
		for _, link := range l.TileMatrixSetLinks {
			if link.TileMatrixSet == cfg.MatrixSet {
				return link
			}
		}
	}
	return l.TileMatrixSetLinks[0]
}

func selectStyle(l *Layer, want string) string {
	if len(l.Styles) == 0 {
		return want
	}
	for _, s := range l.Styles {
		if want != "" && (s.Identifier == want || s.Title == want) {
			return s.Identifier
		}
	}
	if want == "" {
		for _, s := range l.Styles {
			if s.IsDefault {
				return s.Identifier
			}
		}
	}
	return l.Styles[0].Identifier
}

func gridFromMatrixSet(set *TileMatrixSet, limits []TileMatrixLimits, p *proj.Projection, extent *orb.Bound) (*TileGrid, error) {
	matrices := make([]TileMatrix, len(set.TileMatrices))
	copy(matrices, set.TileMatrices)
	sort.SliceStable(matrices, func(i, j int) bool {
		return matrices[i].ScaleDenominator > matrices[j].ScaleDenominator
	})

	byMatrix := map[string]TileMatrixLimits{}
	for _, lim := range limits {
		byMatrix[lim.TileMatrix] = lim
	}

	mpu := p.MetersPerUnit()
	if mpu == 0 {
		return nil, parseErrorf("projection %s has no units", p.Code)
	}
	swap := p.NorthingFirst()

	g := &TileGrid{Extent: extent}
	for _, m := range matrices {
		var rng *TileRange
		if len(limits) > 0 {
			lim, ok := byMatrix[m.Identifier]
			if !ok {
				lim, ok = byMatrix[set.Identifier+":"+m.Identifier]
			}
			if !ok {
				continue
			}
			rng = &TileRange{
				MinCol: lim.MinTileCol, MaxCol: lim.MaxTileCol,
				MinRow: lim.MinTileRow, MaxRow: lim.MaxTileRow,
			}
		}
		origin := orb.Point{m.TopLeftCorner[0], m.TopLeftCorner[1]}
		if swap {
			origin = orb.Point{m.TopLeftCorner[1], m.TopLeftCorner[0]}
		}
		g.MatrixIDs = append(g.MatrixIDs, m.Identifier)
		g.Resolutions = append(g.Resolutions, m.ScaleDenominator*metersPerPixel/mpu)
		g.Origins = append(g.Origins, origin)
		g.TileSizes = append(g.TileSizes, TileSize{m.TileWidth, m.TileHeight})
		g.Sizes = append(g.Sizes, [2]int{m.MatrixWidth, m.MatrixHeight})
		g.Ranges = append(g.Ranges, rng)
	}
	if len(g.MatrixIDs) == 0 {
		return nil, parseErrorf("matrix set %s has no usable tile matrix", set.Identifier)
	}
	if len(limits) == 0 {
		g.Ranges = nil
	}
	return g, nil
}

// tileURLs prefers KVP GetTile endpoints and falls back to REST templates,
// in which case the format is the one of the template.
func tileURLs(caps *Capabilities, l *Layer, want RequestEncoding, format string) ([]string, RequestEncoding, string) {
	enc := RequestEncoding(strings.ToUpper(string(want)))
	var urls []string
	if op, ok := caps.OperationsMetadata.Operation("GetTile"); ok {
		for _, get := range op.Gets {
			allowed := get.Encodings()
			if enc == "" && len(allowed) > 0 {
				enc = allowed[0]
			}
			if enc != EncodingKVP {
				break
			}
			for _, a := range allowed {
				if a == EncodingKVP && get.Href != "" {
					urls = append(urls, get.Href)
					break
				}
			}
		}
	}
	if len(urls) > 0 {
		return urls, EncodingKVP, format
	}
	for _, r := range l.ResourceURLs {
		if r.ResourceType == "tile" {
			format = r.Format
			urls = append(urls, r.Template)
		}
	}
	return urls, EncodingREST, format
}

func containsBound(outer, inner orb.Bound) bool {
	return outer.Min[0] <= inner.Min[0] && outer.Min[1] <= inner.Min[1] &&
		outer.Max[0] >= inner.Max[0] && outer.Max[1] >= inner.Max[1]
}

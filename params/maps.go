package params

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"os"
)

// defaultMapsYAML holds the maps served when no maps file is configured.
//
//go:embed maps.yaml
var defaultMapsYAML []byte

const (
	LayerTypeOSM  = "osm"
	LayerTypeWMTS = "wmts"
)

// MapsConfig is the static table of projections, maps, layers and
// capabilities-driven overlays.
type MapsConfig struct {
	Projections []ProjectionDef `yaml:"projections"`
	Maps        []MapDef        `yaml:"maps"`
}

// ProjectionDef is a custom CRS given as a proj string.
type ProjectionDef struct {
	Code   string    `yaml:"code"`
	Def    string    `yaml:"def"`
	Extent []float64 `yaml:"extent,omitempty"`
}

type MapDef struct {
	Name     string       `yaml:"name"`
	Target   string       `yaml:"target"`
	View     ViewDef      `yaml:"view"`
	Layers   []LayerDef   `yaml:"layers"`
	Overlays []OverlayDef `yaml:"overlays,omitempty"`
}

type ViewDef struct {
	Projection string `yaml:"projection"`
	// CenterLonLat is converted into the view projection.
	CenterLonLat []float64 `yaml:"center_lonlat"`
	Zoom         float64   `yaml:"zoom"`
}

type LayerDef struct {
	Title   string    `yaml:"title,omitempty"`
	Type    string    `yaml:"type"`
	Opacity *float64  `yaml:"opacity,omitempty"`
	ZIndex  *int      `yaml:"z_index,omitempty"`
	Visible *bool     `yaml:"visible,omitempty"`
	Extent  []float64 `yaml:"extent,omitempty"`
	OSM     *OSMDef   `yaml:"osm,omitempty"`
	WMTS    *WMTSDef  `yaml:"wmts,omitempty"`
}

type OSMDef struct {
	URL     string `yaml:"url,omitempty"`
	MaxZoom int    `yaml:"max_zoom,omitempty"`
}

type WMTSDef struct {
	URL        string      `yaml:"url"`
	Layer      string      `yaml:"layer"`
	MatrixSet  string      `yaml:"matrix_set"`
	Format     string      `yaml:"format"`
	Projection string      `yaml:"projection"`
	Style      string      `yaml:"style,omitempty"`
	TileSize   int         `yaml:"tile_size,omitempty"`
	TileGrid   TileGridDef `yaml:"tile_grid"`
}

type TileGridDef struct {
	Origin []float64 `yaml:"origin,omitempty"`
	// OriginTopLeftOf takes the origin from the top left corner
	// of the named projection's extent.
	OriginTopLeftOf string    `yaml:"origin_top_left_of,omitempty"`
	MatrixIDs       []string  `yaml:"matrix_ids"`
	Resolutions     []float64 `yaml:"resolutions"`
	TileSize        int       `yaml:"tile_size,omitempty"`
}

// OverlayDef is a layer derived at runtime from a WMTS capabilities document.
type OverlayDef struct {
	CapabilitiesURL string `yaml:"capabilities_url"`
	Layer           string `yaml:"layer"`
	Projection      string `yaml:"projection,omitempty"`
	MatrixSet       string `yaml:"matrix_set,omitempty"`
	Format          string `yaml:"format,omitempty"`
	Style           string `yaml:"style,omitempty"`
	// Opacity defaults to 1 when unset.
	Opacity *float64 `yaml:"opacity,omitempty"`
}

var ErrNoMaps = errors.New("no maps defined")

// DecodeMapsConfig decodes a maps table. Unknown keys are an error,
// a typo in a table should not silently drop a layer.
func DecodeMapsConfig(r io.Reader) (*MapsConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	cfg := &MapsConfig{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode maps config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultMapsConfig() *MapsConfig {
	cfg, err := DecodeMapsConfig(bytes.NewReader(defaultMapsYAML))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadMapsConfig reads the maps table at path, or the embedded default if path is empty.
func LoadMapsConfig(path string) (*MapsConfig, error) {
	if path == "" {
		return DefaultMapsConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeMapsConfig(f)
}

func (c *MapsConfig) Validate() error {
	if len(c.Maps) == 0 {
		return ErrNoMaps
	}
	seen := map[string]bool{}
	for i, m := range c.Maps {
		if m.Name == "" {
			return fmt.Errorf("map #%d: missing name", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("map %q: duplicate name", m.Name)
		}
		seen[m.Name] = true
		if m.View.Projection == "" {
			return fmt.Errorf("map %q: missing view projection", m.Name)
		}
		if len(m.View.CenterLonLat) != 2 {
			return fmt.Errorf("map %q: center_lonlat wants 2 values, got %d", m.Name, len(m.View.CenterLonLat))
		}
		for j, l := range m.Layers {
			switch l.Type {
			case LayerTypeOSM:
			case LayerTypeWMTS:
				if l.WMTS == nil {
					return fmt.Errorf("map %q layer #%d: wmts layer without wmts block", m.Name, j)
				}
			default:
				return fmt.Errorf("map %q layer #%d: unknown type %q", m.Name, j, l.Type)
			}
			if len(l.Extent) != 0 && len(l.Extent) != 4 {
				return fmt.Errorf("map %q layer #%d: extent wants 4 values", m.Name, j)
			}
		}
		for j, o := range m.Overlays {
			if o.CapabilitiesURL == "" || o.Layer == "" {
				return fmt.Errorf("map %q overlay #%d: capabilities_url and layer are required", m.Name, j)
			}
			if o.Opacity != nil && (*o.Opacity < 0 || *o.Opacity > 1) {
				return fmt.Errorf("map %q overlay #%d: opacity %v out of [0, 1]", m.Name, j, *o.Opacity)
			}
		}
	}
	return nil
}

// Map returns the named map definition.
func (c *MapsConfig) Map(name string) (MapDef, bool) {
	for _, m := range c.Maps {
		if m.Name == name {
			return m, true
		}
	}
	return MapDef{}, false
}

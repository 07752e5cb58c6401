package geomap

import (
	"encoding/json"
	"github.com/paulmach/orb"
	"github.com/rotblauer/ortomap/wmts"
)

const (
	DefaultOSMURL         = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultOSMAttribution = `&#169; <a href="https://www.openstreetmap.org/copyright" target="_blank">OpenStreetMap</a> contributors.`
	DefaultOSMMaxZoom     = 19
)

// Source is where a tile layer gets its tiles.
type Source interface {
	Type() string
}

type OSMSource struct {
	URL          string   `json:"url"`
	Attributions []string `json:"attributions,omitempty"`
	MaxZoom      int      `json:"maxZoom"`
}

func (OSMSource) Type() string { return "osm" }

// NewOSMSource returns the public OpenStreetMap tile source.
func NewOSMSource() OSMSource {
	return OSMSource{
		URL:          DefaultOSMURL,
		Attributions: []string{DefaultOSMAttribution},
		MaxZoom:      DefaultOSMMaxZoom,
	}
}

type WMTSSource struct {
	Options *wmts.SourceOptions `json:"options"`
}

func (WMTSSource) Type() string { return "wmts" }

// Layer is a tiled layer. A nil ZIndex renders in sequence order.
type Layer struct {
	ID      string
	Title   string
	Source  Source
	Opacity float64
	ZIndex  *int
	Extent  *orb.Bound
	Visible bool
}

type LayerOption func(*Layer)

func WithTitle(title string) LayerOption {
	return func(l *Layer) { l.Title = title }
}

func WithOpacity(opacity float64) LayerOption {
	return func(l *Layer) { l.Opacity = opacity }
}

func WithZIndex(z int) LayerOption {
	return func(l *Layer) { l.ZIndex = &z }
}

// WithExtent limits rendering to extent, in the map projection.
// The bound is kept as given, even when min exceeds max.
func WithExtent(extent orb.Bound) LayerOption {
	return func(l *Layer) { l.Extent = &extent }
}

func WithVisible(visible bool) LayerOption {
	return func(l *Layer) { l.Visible = visible }
}

// NewTileLayer returns a visible, opaque layer of source.
func NewTileLayer(source Source, opts ...LayerOption) *Layer {
	l := &Layer{
		Source:  source,
		Opacity: 1,
		Visible: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) zIndex() int {
	if l.ZIndex == nil {
		return 0
	}
	return *l.ZIndex
}

type layerJSON struct {
	ID         string      `json:"id"`
	Title      string      `json:"title,omitempty"`
	SourceType string      `json:"sourceType"`
	Source     Source      `json:"source"`
	Opacity    float64     `json:"opacity"`
	ZIndex     *int        `json:"zIndex,omitempty"`
	Extent     *[4]float64 `json:"extent,omitempty"`
	Visible    bool        `json:"visible"`
}

func (l *Layer) MarshalJSON() ([]byte, error) {
	out := layerJSON{
		ID:      l.ID,
		Title:   l.Title,
		Opacity: l.Opacity,
		ZIndex:  l.ZIndex,
		Extent:  wmts.ExtentArray(l.Extent),
		Visible: l.Visible,
	}
	if l.Source != nil {
		out.SourceType = l.Source.Type()
		out.Source = l.Source
	}
	return json.Marshal(out)
}

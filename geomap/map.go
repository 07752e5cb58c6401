package geomap

import (
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"github.com/paulmach/orb"
	"sort"
	"sync"
)

// View is the initial viewport. Center is in the view projection.
type View struct {
	Projection string
	Center     orb.Point
	Zoom       float64
}

// LayerEvent is sent when a layer is appended to a map after construction.
type LayerEvent struct {
	Map    string `json:"map"`
	Target string `json:"target"`
	Index  int    `json:"index"`
	Layer  *Layer `json:"layer"`
}

// Map is a named map bound to a render target. It owns its layer sequence;
// layers are only ever appended.
type Map struct {
	Name   string
	Target string
	View   View

	// CenterLonLat is the configured center, kept for clients that
	// cannot project.
	CenterLonLat orb.Point

	mu     sync.RWMutex
	layers []*Layer
	feed   *event.FeedOf[LayerEvent]
}

func NewMap(name, target string, view View, layers ...*Layer) *Map {
	m := &Map{Name: name, Target: target, View: view}
	for _, l := range layers {
		m.appendLayer(l)
	}
	return m
}

func (m *Map) appendLayer(l *Layer) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.layers)
	if l.ID == "" {
		l.ID = fmt.Sprintf("%s/%d", m.Name, idx)
	}
	m.layers = append(m.layers, l)
	return idx
}

// AddLayer appends l to the layer sequence and announces it on the
// map's feed, if it belongs to an atlas. It returns the layer index.
func (m *Map) AddLayer(l *Layer) int {
	idx := m.appendLayer(l)
	m.mu.RLock()
	feed := m.feed
	m.mu.RUnlock()
	if feed != nil {
		feed.Send(LayerEvent{Map: m.Name, Target: m.Target, Index: idx, Layer: l})
	}
	return idx
}

// Layers returns the layers in sequence order.
func (m *Map) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

func (m *Map) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// RenderOrder returns the layers bottom to top: by z-index, which
// defaults to 0, then by sequence.
func (m *Map) RenderOrder() []*Layer {
	out := m.Layers()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].zIndex() < out[j].zIndex()
	})
	return out
}

type ViewSnapshot struct {
	Projection   string    `json:"projection"`
	Center       orb.Point `json:"center"`
	CenterLonLat orb.Point `json:"centerLonLat"`
	Zoom         float64   `json:"zoom"`
}

// Snapshot is the JSON form of a map.
type Snapshot struct {
	Name   string       `json:"name"`
	Target string       `json:"target"`
	View   ViewSnapshot `json:"view"`
	Layers []*Layer     `json:"layers"`
}

func (m *Map) Snapshot() Snapshot {
	return Snapshot{
		Name:   m.Name,
		Target: m.Target,
		View: ViewSnapshot{
			Projection:   m.View.Projection,
			Center:       m.View.Center,
			CenterLonLat: m.CenterLonLat,
			Zoom:         m.View.Zoom,
		},
		Layers: m.Layers(),
	}
}

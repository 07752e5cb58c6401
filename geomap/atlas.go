package geomap

import (
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"sync"
)

// Atlas is the ordered set of maps served together.
// All its maps announce appended layers on one feed.
type Atlas struct {
	mu     sync.RWMutex
	maps   []*Map
	byName map[string]*Map
	feed   event.FeedOf[LayerEvent]
}

func NewAtlas() *Atlas {
	return &Atlas{byName: map[string]*Map{}}
}

// Add adds m. Map names are unique; render targets need not be.
func (a *Atlas) Add(m *Map) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byName[m.Name]; ok {
		return fmt.Errorf("map %q already in atlas", m.Name)
	}
	m.mu.Lock()
	m.feed = &a.feed
	m.mu.Unlock()
	a.maps = append(a.maps, m)
	a.byName[m.Name] = m
	return nil
}

func (a *Atlas) Map(name string) (*Map, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.byName[name]
	return m, ok
}

// Maps returns the maps in the order they were added.
func (a *Atlas) Maps() []*Map {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Map, len(a.maps))
	copy(out, a.maps)
	return out
}

func (a *Atlas) Names() []string {
	maps := a.Maps()
	names := make([]string, len(maps))
	for i, m := range maps {
		names[i] = m.Name
	}
	return names
}

// Targets returns the distinct render targets in first-use order.
func (a *Atlas) Targets() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range a.Maps() {
		if !seen[m.Target] {
			seen[m.Target] = true
			out = append(out, m.Target)
		}
	}
	return out
}

// DuplicateTargets returns the render targets bound by more than one map,
// with the names of those maps. Such maps draw into the same container.
func (a *Atlas) DuplicateTargets() map[string][]string {
	byTarget := map[string][]string{}
	for _, m := range a.Maps() {
		byTarget[m.Target] = append(byTarget[m.Target], m.Name)
	}
	dups := map[string][]string{}
	for t, names := range byTarget {
		if len(names) > 1 {
			dups[t] = names
		}
	}
	return dups
}

// SubscribeLayerEvents delivers every layer appended to any map of the atlas.
// Sends block until all subscribers have received, so ch must be drained.
func (a *Atlas) SubscribeLayerEvents(ch chan<- LayerEvent) event.Subscription {
	return a.feed.Subscribe(ch)
}

func (a *Atlas) Snapshot() []Snapshot {
	maps := a.Maps()
	out := make([]Snapshot, len(maps))
	for i, m := range maps {
		out[i] = m.Snapshot()
	}
	return out
}

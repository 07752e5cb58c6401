// Package attach fetches WMTS capabilities documents and appends the layer
// they describe to a map, one independent flow per request.
package attach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
	"log/slog"
	"sync"
	"time"
)

// Request asks for Layer of the service at CapabilitiesURL to be added to Map.
type Request struct {
	Map             string  `json:"map"`
	CapabilitiesURL string  `json:"capabilitiesUrl"`
	Layer           string  `json:"layer"`
	Projection      string  `json:"projection,omitempty"`
	MatrixSet       string  `json:"matrixSet,omitempty"`
	Format          string  `json:"format,omitempty"`
	Style           string  `json:"style,omitempty"`
	Opacity         float64 `json:"opacity"`
}

// Result is the outcome of one flow. Err is nil and Kind is FailureNone
// exactly when the layer was appended.
type Result struct {
	Request  Request             `json:"request"`
	Options  *wmts.SourceOptions `json:"options,omitempty"`
	Index    int                 `json:"index"`
	Bytes    int                 `json:"bytes"`
	Started  time.Time           `json:"started"`
	Duration time.Duration       `json:"duration"`
	Kind     wmts.FailureKind    `json:"kind"`
	Err      error               `json:"-"`
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{plain: plain(r), OK: r.OK()}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// CapabilitiesFetcher returns the capabilities document body at a service url.
type CapabilitiesFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

var ErrNoSuchMap = errors.New("no such map")

type Attacher struct {
	atlas   *geomap.Atlas
	reg     *proj.Registry
	fetcher CapabilitiesFetcher
	results event.FeedOf[Result]
	logger  *slog.Logger
}

func NewAttacher(atlas *geomap.Atlas, reg *proj.Registry, fetcher CapabilitiesFetcher) *Attacher {
	if reg == nil {
		reg = proj.Default
	}
	if fetcher == nil {
		fetcher = wmts.NewFetcher(params.DefaultFetchConfig())
	}
	return &Attacher{
		atlas:   atlas,
		reg:     reg,
		fetcher: fetcher,
		logger:  slog.With("flow", "attach"),
	}
}

// SubscribeResults delivers every Result. Sends block until all
// subscribers have received, so ch must be drained.
func (a *Attacher) SubscribeResults(ch chan<- Result) event.Subscription {
	return a.results.Subscribe(ch)
}

// Attach runs one flow: fetch, parse, derive options, append the layer.
// On failure nothing is appended.
func (a *Attacher) Attach(ctx context.Context, req Request) Result {
	res := Result{Request: req, Index: -1, Started: time.Now()}
	res.Err = a.attach(ctx, req, &res)
	res.Duration = time.Since(res.Started)
	res.Kind = wmts.KindOf(res.Err)

	log := a.logger.With("map", req.Map, "layer", req.Layer)
	if res.Err != nil {
		log.Error("Failed to attach capabilities layer", "kind", res.Kind, "error", res.Err)
	} else {
		log.Info("Attached capabilities layer", "index", res.Index,
			"matrixSet", res.Options.MatrixSet, "elapsed", res.Duration.Round(time.Millisecond))
	}
	a.results.Send(res)
	return res
}

func (a *Attacher) attach(ctx context.Context, req Request, res *Result) error {
	m, ok := a.atlas.Map(req.Map)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchMap, req.Map)
	}
	body, err := a.fetcher.Fetch(ctx, req.CapabilitiesURL)
	if err != nil {
		return err
	}
	res.Bytes = len(body)
	caps, err := wmts.ParseCapabilities(bytes.NewReader(body))
	if err != nil {
		return err
	}
	opts, err := wmts.OptionsFromCapabilities(caps, wmts.Config{
		Layer:      req.Layer,
		MatrixSet:  req.MatrixSet,
		Projection: req.Projection,
		Format:     req.Format,
		Style:      req.Style,
	}, a.reg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &wmts.NetworkError{URL: req.CapabilitiesURL, Err: err}
	}
	res.Options = opts
	layer := geomap.NewTileLayer(geomap.WMTSSource{Options: opts},
		geomap.WithTitle(req.Layer),
		geomap.WithOpacity(req.Opacity),
	)
	res.Index = m.AddLayer(layer)
	return nil
}

// Start runs Attach in its own goroutine. The channel receives
// exactly one Result and is then closed.
func (a *Attacher) Start(ctx context.Context, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- a.Attach(ctx, req)
	}()
	return ch
}

// AttachAll runs every request concurrently. Results are in request order.
func (a *Attacher) AttachAll(ctx context.Context, reqs ...Request) []Result {
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = a.Attach(ctx, req)
		}(i, req)
	}
	wg.Wait()
	return results
}

// RequestsFor lists the overlays of cfg as requests, in map order.
// Maps missing from atlas are skipped.
func RequestsFor(atlas *geomap.Atlas, cfg *params.MapsConfig) []Request {
	var reqs []Request
	for _, m := range cfg.Maps {
		if _, ok := atlas.Map(m.Name); !ok {
			continue
		}
		for _, o := range m.Overlays {
			opacity := 1.0
			if o.Opacity != nil {
				opacity = *o.Opacity
			}
			reqs = append(reqs, Request{
				Map:             m.Name,
				CapabilitiesURL: o.CapabilitiesURL,
				Layer:           o.Layer,
				Projection:      o.Projection,
				MatrixSet:       o.MatrixSet,
				Format:          o.Format,
				Style:           o.Style,
				Opacity:         opacity,
			})
		}
	}
	return reqs
}

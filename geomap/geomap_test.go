package geomap

import (
	"encoding/json"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"github.com/rotblauer/ortomap/wmts"
	"github.com/tidwall/gjson"
	"strings"
	"testing"
	"time"
)

func buildDefault(t *testing.T) *Atlas {
	t.Helper()
	atlas, warnings := Build(params.DefaultMapsConfig(), proj.NewRegistry())
	if atlas == nil {
		t.Fatalf("build failed: %v", warnings)
	}
	// The published EPSG:3857 grid lists 25 matrix ids for 23 resolutions.
	if len(warnings) != 1 {
		t.Fatalf("warnings got=%v, want 1", warnings)
	}
	if !errors.Is(warnings[0], wmts.ErrGridMismatch) {
		t.Fatalf("warning got=%v, want ErrGridMismatch", warnings[0])
	}
	return atlas
}

func TestBuild_default(t *testing.T) {
	atlas := buildDefault(t)

	if diff := cmp.Diff([]string{"overview", "orto-3857", "orto-2180"}, atlas.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"map", "map1"}, atlas.Targets()); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}
	wantDups := map[string][]string{"map1": {"orto-3857", "orto-2180"}}
	if diff := cmp.Diff(wantDups, atlas.DuplicateTargets()); diff != "" {
		t.Errorf("duplicate targets (-want +got):\n%s", diff)
	}

	counts := map[string]int{"overview": 4, "orto-3857": 1, "orto-2180": 1}
	for name, want := range counts {
		m, ok := atlas.Map(name)
		if !ok {
			t.Fatalf("no map %s", name)
		}
		if got := m.LayerCount(); got != want {
			t.Errorf("%s layers got=%d, want=%d", name, got, want)
		}
	}

	m, _ := atlas.Map("orto-3857")
	if m.View.Projection != proj.EPSG3857 || m.View.Zoom != 5 {
		t.Errorf("view got=%+v", m.View)
	}
	wantCenter := orb.Point{2226389.8158654715, 6800125.454397307}
	if diff := cmp.Diff(wantCenter, m.View.Center, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("center (-want +got):\n%s", diff)
	}
	if _, ok := m.Layers()[0].Source.(OSMSource); !ok {
		t.Errorf("first layer source got=%T, want OSMSource", m.Layers()[0].Source)
	}

	overview, _ := atlas.Map("overview")
	if overview.View.Projection != "EPSG:2180" || overview.View.Zoom != 5.75 {
		t.Errorf("overview view got=%+v", overview.View)
	}
	if c := overview.View.Center; c[0] < 499999 || c[0] > 500001 {
		t.Errorf("overview center got=%v, want easting 500000 on the central meridian", c)
	}
}

func TestBuild_overviewLayers(t *testing.T) {
	atlas := buildDefault(t)
	m, _ := atlas.Map("overview")
	layers := m.Layers()

	bdot := layers[1]
	if bdot.Title != "BDOT10k" || bdot.ZIndex == nil || *bdot.ZIndex != 1000 {
		t.Errorf("bdot got=%+v", bdot)
	}
	// Kept as published, min greater than max.
	wantExtent := orb.Bound{Min: orb.Point{850000, 850000}, Max: orb.Point{100000, 100000}}
	if bdot.Extent == nil || *bdot.Extent != wantExtent {
		t.Errorf("bdot extent got=%v", bdot.Extent)
	}
	so := bdot.Source.(WMTSSource).Options
	if so.Format != "image/jpeg" || so.MatrixSet != "EPSG:2180" || so.Style != "default" {
		t.Errorf("bdot options got=%+v", so)
	}
	if so.TileGrid.TileSizeAt(0) != (wmts.TileSize{512, 512}) {
		t.Errorf("bdot tile size got=%v", so.TileGrid.TileSizeAt(0))
	}
	if len(so.TileGrid.MatrixIDs) != 13 || so.TileGrid.MatrixIDs[12] != "EPSG:2180:12" {
		t.Errorf("bdot ids got=%v", so.TileGrid.MatrixIDs)
	}

	orto2180 := layers[2].Source.(WMTSSource).Options
	if err := orto2180.TileGrid.Validate(); err != nil {
		t.Error(err)
	}
	if *orto2180.TileGrid.Origin != (orb.Point{850000, 100000}) {
		t.Errorf("orto 2180 origin got=%v", *orto2180.TileGrid.Origin)
	}
	u, err := orto2180.TileURL(3, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(u, "TILEMATRIX=2180%3A3&") || !strings.Contains(u, "LAYER=ORTOFOTOMAPA&") {
		t.Errorf("tile url got=%s", u)
	}

	orto3857 := layers[3].Source.(WMTSSource).Options
	g := orto3857.TileGrid
	if len(g.MatrixIDs) != 25 || len(g.Resolutions) != 23 {
		t.Errorf("ids=%d resolutions=%d, want 25 and 23", len(g.MatrixIDs), len(g.Resolutions))
	}
	wantOrigin := orb.Point{-20037508.342789244, 20037508.342789244}
	if diff := cmp.Diff(wantOrigin, *g.Origin, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("origin (-want +got):\n%s", diff)
	}

	var titles []string
	for _, l := range m.RenderOrder() {
		titles = append(titles, l.Title)
	}
	want := []string{"OpenStreetMap", "Ortofotomapa (EPSG:2180)", "BDOT10k", "Ortofotomapa (EPSG:3857)"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("render order (-want +got):\n%s", diff)
	}
}

func TestBuild_fatal(t *testing.T) {
	cfg := &params.MapsConfig{Maps: []params.MapDef{{
		Name:   "m",
		Target: "map",
		View:   params.ViewDef{Projection: "EPSG:2180", CenterLonLat: []float64{19, 52}},
	}}}
	// EPSG:2180 is not registered.
	atlas, errs := Build(cfg, proj.NewRegistry())
	if atlas != nil {
		t.Fatal("want no atlas")
	}
	if len(errs) != 1 || !errors.Is(errs[0], proj.ErrUnknown) {
		t.Errorf("errs got=%v", errs)
	}

	cfg.Projections = []params.ProjectionDef{{Code: "EPSG:2180", Def: "+proj=lcc +lat_1=49 +ellps=GRS80"}}
	if atlas, errs = Build(cfg, proj.NewRegistry()); atlas != nil || !errors.Is(errs[0], proj.ErrUnsupported) {
		t.Errorf("got atlas=%v errs=%v", atlas, errs)
	}

	if atlas, _ = Build(&params.MapsConfig{}, nil); atlas != nil {
		t.Error("want no atlas for an empty table")
	}
}

func TestMap_AddLayer(t *testing.T) {
	atlas := buildDefault(t)
	events := make(chan LayerEvent, 1)
	sub := atlas.SubscribeLayerEvents(events)
	defer sub.Unsubscribe()

	m, _ := atlas.Map("orto-2180")
	before := m.LayerCount()
	idx := m.AddLayer(NewTileLayer(NewOSMSource(), WithTitle("overlay"), WithOpacity(0.5)))
	if idx != before || m.LayerCount() != before+1 {
		t.Fatalf("index got=%d count=%d, want %d and %d", idx, m.LayerCount(), before, before+1)
	}

	select {
	case ev := <-events:
		if ev.Map != "orto-2180" || ev.Target != "map1" || ev.Index != idx || ev.Layer.Title != "overlay" {
			t.Errorf("event got=%+v", ev)
		}
		if ev.Layer.ID != "orto-2180/1" {
			t.Errorf("layer id got=%q", ev.Layer.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no layer event")
	}

	// The sibling map on the same target is untouched.
	other, _ := atlas.Map("orto-3857")
	if other.LayerCount() != 1 {
		t.Errorf("orto-3857 layers got=%d", other.LayerCount())
	}

	// Maps outside an atlas have no feed.
	lone := NewMap("lone", "x", View{Projection: proj.EPSG3857})
	lone.AddLayer(NewTileLayer(NewOSMSource()))
	if lone.LayerCount() != 1 {
		t.Error("lone map did not take the layer")
	}
}

func TestMap_RenderOrder(t *testing.T) {
	m := NewMap("m", "map", View{},
		NewTileLayer(NewOSMSource(), WithTitle("a")),
		NewTileLayer(NewOSMSource(), WithTitle("b"), WithZIndex(10)),
		NewTileLayer(NewOSMSource(), WithTitle("c")),
		NewTileLayer(NewOSMSource(), WithTitle("d"), WithZIndex(-1)),
	)
	var got []string
	for _, l := range m.RenderOrder() {
		got = append(got, l.Title)
	}
	if diff := cmp.Diff([]string{"d", "a", "c", "b"}, got); diff != "" {
		t.Errorf("render order (-want +got):\n%s", diff)
	}
	// The sequence itself is unchanged.
	if m.Layers()[0].Title != "a" || m.Layers()[3].Title != "d" {
		t.Error("layers reordered")
	}
}

func TestAtlas_Add_duplicateName(t *testing.T) {
	a := NewAtlas()
	if err := a.Add(NewMap("m", "map", View{})); err != nil {
		t.Fatal(err)
	}
	if err := a.Add(NewMap("m", "other", View{})); err == nil {
		t.Error("expected error for a duplicate map name")
	}
}

func TestSnapshot_JSON(t *testing.T) {
	atlas := buildDefault(t)
	b, err := json.Marshal(atlas.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if got := gjson.Get(s, "#").Int(); got != 3 {
		t.Fatalf("maps got=%d", got)
	}
	if got := gjson.Get(s, "0.view.projection").String(); got != "EPSG:2180" {
		t.Errorf("projection got=%q", got)
	}
	if got := gjson.Get(s, "0.view.centerLonLat").Raw; got != "[19,52]" {
		t.Errorf("center lonlat got=%s", got)
	}
	if got := gjson.Get(s, "0.layers.1.sourceType").String(); got != "wmts" {
		t.Errorf("source type got=%q", got)
	}
	if got := gjson.Get(s, "0.layers.1.extent").Raw; got != "[850000,850000,100000,100000]" {
		t.Errorf("extent got=%s", got)
	}
	if got := gjson.Get(s, "0.layers.1.source.options.tileGrid.matrixIds.#").Int(); got != 13 {
		t.Errorf("matrix ids got=%d", got)
	}
	if got := gjson.Get(s, "0.layers.0.source.url").String(); got != DefaultOSMURL {
		t.Errorf("osm url got=%q", got)
	}
	if gjson.Get(s, "1.layers.0.zIndex").Exists() {
		t.Error("zIndex set on a layer without one")
	}
}

func TestBuild_layerOptions(t *testing.T) {
	hidden, faint := false, 0.3
	cfg := &params.MapsConfig{Maps: []params.MapDef{{
		Name:   "m",
		Target: "map",
		View:   params.ViewDef{Projection: "EPSG:3857", CenterLonLat: []float64{19, 52}, Zoom: 4},
		Layers: []params.LayerDef{
			{Title: "base", Type: params.LayerTypeOSM},
			{Title: "hidden", Type: params.LayerTypeOSM, Visible: &hidden, Opacity: &faint},
		},
	}}}
	atlas, errs := Build(cfg, proj.NewRegistry())
	if atlas == nil || len(errs) != 0 {
		t.Fatalf("build got atlas=%v errs=%v", atlas, errs)
	}
	m, _ := atlas.Map("m")
	layers := m.Layers()
	if !layers[0].Visible || layers[0].Opacity != 1 {
		t.Errorf("base got=%+v", layers[0])
	}
	if layers[1].Visible || layers[1].Opacity != faint {
		t.Errorf("hidden got=%+v", layers[1])
	}
}

package webd

import (
	"context"
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/common"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/tidwall/gjson"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serve(t *testing.T, d *WebDaemon, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	w := httptest.NewRecorder()
	d.NewRouter().ServeHTTP(w, req)
	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, body
}

func TestWebDaemon_ping(t *testing.T) {
	req := httptest.NewRequest("GET", "http://ortomap.local/ping", nil)
	w := httptest.NewRecorder()
	pingPong(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("status code not 200")
	}
	if string(body) != "pong" {
		t.Errorf("body is not pong: %s", string(body))
	}
}

func TestWebDaemon_statusReport(t *testing.T) {
	d := newTestWebDaemon(t)
	d.recordResult(attach.Result{Request: attach.Request{Map: "orto-2180", Layer: "ORTOFOTOMAPA"}, Index: 1})
	d.recordResult(attach.Result{Request: attach.Request{Map: "orto-3857", Layer: "ORTOFOTOMAPA"}, Index: 1})

	resp, body := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/status", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type got=%q", ct)
	}
	if gjson.GetBytes(body, "uptime").String() == "" {
		t.Fatal("uptime is empty")
	}
	if got := gjson.GetBytes(body, "maps").Int(); got != 3 {
		t.Errorf("maps got=%d, want=3", got)
	}
	if got := gjson.GetBytes(body, "results.#").Int(); got != 2 {
		t.Fatalf("results got=%d, want=2", got)
	}
	if got := gjson.GetBytes(body, "results.0.request.map").String(); got != "orto-2180" {
		t.Errorf("first result map got=%s", got)
	}
	if !gjson.GetBytes(body, "results.0.ok").Bool() {
		t.Error("result not ok")
	}
	if got := gjson.GetBytes(body, "recent.#").Int(); got != 2 {
		t.Errorf("recent got=%d, want=2", got)
	}
}

func TestWebDaemon_maps(t *testing.T) {
	d := newTestWebDaemon(t)
	resp, body := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/maps", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got=%d", resp.StatusCode)
	}
	names := gjson.GetBytes(body, "#.name").Array()
	want := []string{"overview", "orto-3857", "orto-2180"}
	if len(names) != len(want) {
		t.Fatalf("maps got=%v", names)
	}
	for i, n := range names {
		if n.String() != want[i] {
			t.Errorf("map %d got=%s, want=%s", i, n, want[i])
		}
	}
	if got := gjson.GetBytes(body, "0.layers.#").Int(); got != 4 {
		t.Errorf("overview layers got=%d, want=4", got)
	}
	if got := gjson.GetBytes(body, "1.view.projection").String(); got != "EPSG:3857" {
		t.Errorf("projection got=%s", got)
	}
}

func TestWebDaemon_mapETag(t *testing.T) {
	d := newTestWebDaemon(t)

	resp, body := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/maps/orto-2180", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got=%d", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("no etag")
	}
	if got := gjson.GetBytes(body, "target").String(); got != "map1" {
		t.Errorf("target got=%s", got)
	}
	if got := gjson.GetBytes(body, "layers.0.sourceType").String(); got != "osm" {
		t.Errorf("source type got=%s", got)
	}
	if d.renderCache.Len() != 1 {
		t.Errorf("render cache len got=%d, want=1", d.renderCache.Len())
	}

	req := httptest.NewRequest("GET", "http://ortomap.local/maps/orto-2180", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = serve(t, d, req)
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional status got=%d, want=304", resp.StatusCode)
	}

	m, _ := d.atlas.Map("orto-2180")
	m.AddLayer(geomap.NewTileLayer(geomap.NewOSMSource(), geomap.WithTitle("second")))

	req = httptest.NewRequest("GET", "http://ortomap.local/maps/orto-2180", nil)
	req.Header.Set("If-None-Match", etag)
	resp, body = serve(t, d, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after append got=%d, want=200", resp.StatusCode)
	}
	if resp.Header.Get("ETag") == etag {
		t.Error("etag unchanged after append")
	}
	if got := gjson.GetBytes(body, "layers.1.title").String(); got != "second" {
		t.Errorf("appended title got=%s", got)
	}
}

func TestWebDaemon_mapNotFound(t *testing.T) {
	d := newTestWebDaemon(t)
	resp, _ := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/maps/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status got=%d, want=404", resp.StatusCode)
	}
}

func TestWebDaemon_projections(t *testing.T) {
	d := newTestWebDaemon(t)
	_, body := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/projections", nil))
	def := gjson.GetBytes(body, `definitions.EPSG:2180`).String()
	if !strings.Contains(def, "+proj=tmerc") {
		t.Errorf("EPSG:2180 definition got=%q", def)
	}
	var codes []string
	for _, c := range gjson.GetBytes(body, "codes").Array() {
		codes = append(codes, c.String())
	}
	for _, want := range []string{"EPSG:2180", "EPSG:3857", "EPSG:4326"} {
		found := false
		for _, c := range codes {
			found = found || c == want
		}
		if !found {
			t.Errorf("codes %v missing %s", codes, want)
		}
	}
}

func TestWebDaemon_index(t *testing.T) {
	d := newTestWebDaemon(t)
	resp, body := serve(t, d, httptest.NewRequest("GET", "http://ortomap.local/", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status got=%d", resp.StatusCode)
	}
	page := string(body)
	for _, target := range []string{"map", "map1"} {
		if n := strings.Count(page, `id="`+target+`"`); n != 1 {
			t.Errorf("target %s containers got=%d, want=1", target, n)
		}
	}
	if !strings.Contains(page, "ol@v"+d.Config.OpenLayersVersion) {
		t.Error("page does not load openlayers")
	}
	if !strings.Contains(page, "EPSG:2180") {
		t.Error("page does not register EPSG:2180")
	}
}

func TestWebDaemon_watchResults(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()

	d := newTestWebDaemon(t)
	a := attach.NewAttacher(d.atlas, d.reg, nil)
	d.WatchResults(a)

	res := a.Attach(context.Background(), attach.Request{Map: "nope", Layer: "ORTOFOTOMAPA"})
	if res.OK() {
		t.Fatal("attach to unknown map succeeded")
	}
	deadline := time.After(5 * time.Second)
	for d.recent.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("result not recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}
	item := d.results.Get("nope/ORTOFOTOMAPA")
	if item == nil {
		t.Fatal("result not cached")
	}
	if item.Value().OK() {
		t.Error("cached result ok")
	}
}

func TestWebDaemon_startStop(t *testing.T) {
	d := newTestWebDaemon(t)
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Get("http://" + d.Addr().String() + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("body got=%s", body)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing cors header")
	}
}

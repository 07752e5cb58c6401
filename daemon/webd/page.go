package webd

import (
	"html/template"
)

type pageData struct {
	Title       string
	OLVersion   string
	Proj4       string
	Targets     []string
	Definitions map[string]string
}

var headerTemplate = `
{{ define "header" }}
<head>
    <meta charset="utf-8">
    <title>{{ .Title }}</title>
    <script src="https://cdn.jsdelivr.net/npm/ol@v{{ .OLVersion }}/dist/ol.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/proj4@{{ .Proj4 }}/dist/proj4.js"></script>
    <link href="https://cdn.jsdelivr.net/npm/ol@v{{ .OLVersion }}/ol.css" rel="stylesheet">
</head>
{{ end }}
`

var baseTemplate = `
{{- define "base" }}
{{- range .Targets }}
<div class="map_container">
    <div class="map_item" id="{{ . }}"></div>
</div>
{{- end }}
<script type="text/javascript">
    "use strict";
    const definitions = {{ .Definitions }};
    for (const [code, def] of Object.entries(definitions)) {
        proj4.defs(code, def);
    }
    ol.proj.proj4.register(proj4);

    const maps = {};

    function tileSource(layer) {
        const src = layer.source;
        if (layer.sourceType === "osm") {
            return new ol.source.OSM({url: src.url, attributions: src.attributions, maxZoom: src.maxZoom});
        }
        const o = src.options;
        const g = o.tileGrid;
        const grid = new ol.tilegrid.WMTS({
            origin: g.origin || undefined,
            origins: g.origins || undefined,
            resolutions: g.resolutions,
            matrixIds: g.matrixIds,
            tileSize: g.tileSize || undefined,
            tileSizes: g.tileSizes || undefined,
            extent: g.extent || undefined,
        });
        return new ol.source.WMTS({
            urls: o.urls,
            layer: o.layer,
            matrixSet: o.matrixSet,
            format: o.format,
            style: o.style,
            projection: o.projection,
            requestEncoding: o.requestEncoding,
            dimensions: o.dimensions || {},
            wrapX: o.wrapX,
            tileGrid: grid,
        });
    }

    function tileLayer(layer) {
        const opts = {
            source: tileSource(layer),
            opacity: layer.opacity,
            visible: layer.visible,
        };
        if (layer.zIndex !== undefined) {
            opts.zIndex = layer.zIndex;
        }
        if (layer.extent) {
            opts.extent = layer.extent;
        }
        return new ol.layer.Tile(opts);
    }

    function buildMap(snap) {
        if (maps[snap.name]) {
            return;
        }
        maps[snap.name] = new ol.Map({
            target: snap.target,
            layers: (snap.layers || []).map(tileLayer),
            view: new ol.View({
                projection: snap.view.projection,
                center: snap.view.center,
                zoom: snap.view.zoom,
            }),
        });
    }

    function connect() {
        const scheme = window.location.protocol === "https:" ? "wss://" : "ws://";
        const ws = new WebSocket(scheme + window.location.host + "/socket");
        ws.onmessage = function (ev) {
            const msg = JSON.parse(ev.data);
            switch (msg.action) {
            case "maps":
                msg.data.forEach(buildMap);
                break;
            case "layer":
                const m = maps[msg.data.map];
                if (m) {
                    m.addLayer(tileLayer(msg.data.layer));
                }
                break;
            case "result":
                if (!msg.data.ok) {
                    console.warn("attach failed", msg.data.request, msg.data.error);
                }
                break;
            }
        };
        ws.onclose = function () {
            setTimeout(connect, 3000);
        };
    }
    connect();
</script>
{{ end }}
`

var htmlTemplate = `{{- define "page" }}<!DOCTYPE html>
<html>
    {{- template "header" . }}
<body>
    {{- template "base" . }}
<style>
    .map_container {margin-top:30px; display: flex;justify-content: center;align-items: center;}
    .map_item {margin: auto; width: 90vw; height: 80vh;}
</style>
</body>
</html>
{{ end }}
`

var pageTemplate = template.Must(template.New("ortomap").Parse(headerTemplate + baseTemplate + htmlTemplate))

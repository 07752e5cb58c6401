package webd

import (
	"encoding/json"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/params"
	"net/http"
	"sort"
	"time"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Maps      int                     `json:"maps"`

	// Results is the latest result per map and layer, sorted by key.
	Results []attach.Result `json:"results"`
	Recent  []attach.Result `json:"recent"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
		Maps:      len(s.atlas.Names()),
		Results:   []attach.Result{},
		Recent:    s.recent.Get(),
	}
	items := s.results.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if item := items[k]; item != nil && !item.IsExpired() {
			st.Results = append(st.Results, item.Value())
		}
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(j)
	if err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

func (s *WebDaemon) handleMaps(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.atlas.Snapshot())
}

// handleMap writes one map. The body is keyed by a fingerprint of the map
// state, which doubles as the ETag.
func (s *WebDaemon) handleMap(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	m, ok := s.atlas.Map(name)
	if !ok {
		http.Error(w, fmt.Sprintf("no map %q", name), http.StatusNotFound)
		return
	}
	snap := m.Snapshot()
	hash, err := hashstructure.Hash(snap, hashstructure.FormatV2, nil)
	if err != nil {
		s.logger.Error("Failed to hash map", "map", name, "error", err)
		http.Error(w, "Failed to hash map", http.StatusInternalServerError)
		return
	}
	etag := fmt.Sprintf(`"%x"`, hash)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	body, ok := s.renderCache.Get(hash)
	if !ok {
		body, err = json.Marshal(snap)
		if err != nil {
			s.logger.Error("Failed to marshal map", "map", name, "error", err)
			http.Error(w, "Failed to marshal map", http.StatusInternalServerError)
			return
		}
		s.renderCache.Add(hash, body)
	}
	_, _ = w.Write(body)
}

type projectionsResponse struct {
	Codes       []string          `json:"codes"`
	Definitions map[string]string `json:"definitions"`
}

func (s *WebDaemon) handleProjections(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, projectionsResponse{
		Codes:       s.reg.Codes(),
		Definitions: s.reg.Definitions(),
	})
}

func (s *WebDaemon) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       "ortomap",
		OLVersion:   s.Config.OpenLayersVersion,
		Proj4:       s.Config.Proj4Version,
		Targets:     s.atlas.Targets(),
		Definitions: s.reg.Definitions(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.ExecuteTemplate(w, "page", data); err != nil {
		s.logger.Error("Failed to render page", "error", err)
	}
}

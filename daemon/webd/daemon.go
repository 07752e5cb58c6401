package webd

import (
	"context"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/common"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

// recentResults is how many attach results the status report lists.
const recentResults = 32

// WebDaemon serves an atlas to an OpenLayers page, and pushes layers
// attached at runtime to connected websocket clients.
type WebDaemon struct {
	Config *params.WebDaemonConfig

	atlas          *geomap.Atlas
	reg            *proj.Registry
	logger         *slog.Logger
	melodyInstance *melody.Melody
	started        time.Time

	// results holds the latest attach result per map and layer.
	results *ttlcache.Cache[string, attach.Result]
	recent  *common.RingBuffer[attach.Result]

	// renderCache holds encoded map bodies by fingerprint.
	renderCache *lru.Cache[uint64, []byte]

	server   *http.Server
	listener net.Listener

	subsMu sync.Mutex
	subs   []event.Subscription
	quit   chan struct{}
	done   chan struct{}
}

func NewWebDaemon(config *params.WebDaemonConfig, atlas *geomap.Atlas, reg *proj.Registry) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	if atlas == nil {
		return nil, errors.New("web daemon needs an atlas")
	}
	if reg == nil {
		reg = proj.Default
	}
	size := config.RenderCacheSize
	if size < 1 {
		size = 1
	}
	renderCache, err := lru.New[uint64, []byte](size)
	if err != nil {
		return nil, err
	}
	s := &WebDaemon{
		Config:      config,
		atlas:       atlas,
		reg:         reg,
		logger:      slog.With("d", "web"),
		started:     time.Now(),
		results:     ttlcache.New[string, attach.Result](ttlcache.WithTTL[string, attach.Result](config.ResultTTL)),
		recent:      common.NewRingBuffer[attach.Result](recentResults),
		renderCache: renderCache,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	s.initMelody()
	return s, nil
}

// WatchResults records and broadcasts the results of a's flows.
func (s *WebDaemon) WatchResults(a *attach.Attacher) {
	results := make(chan attach.Result)
	sub := a.SubscribeResults(results)
	s.track(sub)
	go func() {
		for {
			select {
			case res := <-results:
				s.recordResult(res)
				s.broadcast(websocketActionResult, res)
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Attach result subscription failed", "error", err)
				}
				return
			case <-s.quit:
				return
			}
		}
	}()
}

func (s *WebDaemon) track(sub event.Subscription) {
	s.subsMu.Lock()
	s.subs = append(s.subs, sub)
	s.subsMu.Unlock()
}

func resultKey(req attach.Request) string {
	return req.Map + "/" + req.Layer
}

func (s *WebDaemon) recordResult(res attach.Result) {
	s.results.Set(resultKey(res.Request), res, ttlcache.DefaultTTL)
	s.recent.Add(res)
}

// Start listens on the configured address and serves in the background.
// It returns once the listener is open.
func (s *WebDaemon) Start() error {
	lc := s.Config.ListenerConfig
	if lc.IsUnix() {
		_ = os.Remove(lc.Address)
	}
	listener, err := net.Listen(lc.Network, lc.Address)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", lc.Network, lc.Address, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.results.Start()
	s.logger.Info("Web daemon listening", slog.Group("listen", "network", lc.Network, "address", listener.Addr().String()))
	go func() {
		defer close(s.done)
		err := s.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web daemon serve error", "error", err)
		}
	}()
	return nil
}

// Addr is the listening address, once started.
func (s *WebDaemon) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes websocket sessions, shuts the server down and waits for it.
func (s *WebDaemon) Stop(ctx context.Context) error {
	select {
	case <-s.quit:
		return nil
	default:
		close(s.quit)
	}
	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.subsMu.Unlock()

	if err := s.melodyInstance.Close(); err != nil {
		s.logger.Warn("Failed to close websocket sessions", "error", err)
	}
	if s.server == nil {
		return nil
	}
	s.results.Stop()
	err := s.server.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("Web daemon stopped")
	return err
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	router.Path("/").HandlerFunc(s.handleIndex).Methods(http.MethodGet)
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.melodyInstance.HandleRequest(w, r); err != nil {
			s.logger.Warn("Websocket upgrade failed", "error", err)
		}
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/maps").HandlerFunc(s.handleMaps).Methods(http.MethodGet)
	apiJSONRoutes.Path("/maps/{name}").HandlerFunc(s.handleMap).Methods(http.MethodGet)
	apiJSONRoutes.Path("/projections").HandlerFunc(s.handleProjections).Methods(http.MethodGet)

	return router
}

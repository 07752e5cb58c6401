package webd

import (
	"context"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"testing"
	"time"
)

// newTestWebDaemon creates a WebDaemon over the default maps for testing purposes.
// It is stopped on test cleanup.
func newTestWebDaemon(t *testing.T) *WebDaemon {
	t.Helper()
	reg := proj.NewRegistry()
	atlas, warnings := geomap.Build(params.DefaultMapsConfig(), reg)
	if atlas == nil {
		t.Fatal(warnings)
	}
	config := params.DefaultTestWebDaemonConfig()
	config.Address = "127.0.0.1:0"
	daemon, err := NewWebDaemon(config, atlas, reg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := daemon.Stop(ctx); err != nil {
			t.Error(err)
		}
	})
	return daemon
}

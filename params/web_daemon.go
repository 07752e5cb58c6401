package params

import "time"

type WebDaemonConfig struct {
	ListenerConfig

	// ResultTTL is how long attach results stay in the status report.
	ResultTTL time.Duration

	// RenderCacheSize is the number of encoded map bodies kept.
	RenderCacheSize int

	// OpenLayersVersion pins the CDN assets used by the map page.
	OpenLayersVersion string
	Proj4Version      string
}

func DefaultWebListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:3000",
	}
}

func DefaultWebDaemonConfig() *WebDaemonConfig {
	return &WebDaemonConfig{
		ListenerConfig:    DefaultWebListenerConfig(),
		ResultTTL:         24 * time.Hour,
		RenderCacheSize:   64,
		OpenLayersVersion: "9.2.4",
		Proj4Version:      "2.11.0",
	}
}

func DefaultTestWebDaemonConfig() *WebDaemonConfig {
	d := DefaultWebDaemonConfig()
	d.ListenerConfig = ListenerConfig{
		Network: "tcp",
		Address: "localhost:3333",
	}
	d.ResultTTL = time.Minute
	return d
}

package params

import (
	"log/slog"
	"os"
	"time"
)

type AppConfig struct {
	// MapsFile is a YAML file with map definitions.
	// Empty means the embedded defaults (maps.yaml).
	MapsFile string

	Fetch  FetchConfig
	Log    LogConfig
	Influx InfluxConfig
	Web    *WebDaemonConfig
}

func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Fetch:  DefaultFetchConfig(),
		Log:    DefaultLogConfig(),
		Influx: DefaultInfluxConfig(),
		Web:    DefaultWebDaemonConfig(),
	}
}

// FetchConfig configures capabilities document requests.
type FetchConfig struct {
	// Timeout bounds a whole request, body included.
	// Zero means no timeout other than the caller's context.
	Timeout time.Duration

	UserAgent string

	// MaxBodyBytes caps the capabilities document size.
	// Real geoportal documents are a few hundred KB.
	MaxBodyBytes int64
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:      30 * time.Second,
		UserAgent:    "ortomap/0.1 (+https://github.com/rotblauer/ortomap)",
		MaxBodyBytes: 16 << 20,
	}
}

type LogConfig struct {
	Level slog.Level

	// Format is "text" or "json".
	Format string

	// File, if set, receives logs instead of stderr.
	// It is rotated at MaxSizeMB.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      slog.LevelInfo,
		Format:     "text",
		MaxSizeMB:  50,
		MaxBackups: 3,
	}
}

// InfluxConfig enables attach result export when URL is set.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func DefaultInfluxConfig() InfluxConfig {
	return InfluxConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
}

func (c InfluxConfig) Enabled() bool {
	return c.URL != "" && c.Bucket != ""
}

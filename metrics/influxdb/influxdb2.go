package influxdb

import (
	"context"
	"errors"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/ortomap/attach"
	"github.com/rotblauer/ortomap/params"
	"time"
)

const MeasurementAttach = "wmts_attach"

var ErrNotConfigured = errors.New("influxdb not configured")

// AttachResultPoint is the point written for one attach flow.
func AttachResultPoint(res attach.Result) *write.Point {
	return influxdb2.NewPointWithMeasurement(MeasurementAttach).
		SetTime(res.Started).
		AddTag("map", res.Request.Map).
		AddTag("layer", res.Request.Layer).
		AddTag("kind", res.Kind.String()).
		AddField("ok", res.OK()).
		AddField("duration_ms", res.Duration.Milliseconds()).
		AddField("bytes", res.Bytes)
}

// ExportAttachResults writes one point per result to InfluxDB.
// It returns ErrNotConfigured, and writes nothing, without a URL and bucket.
func ExportAttachResults(ctx context.Context, config params.InfluxConfig, results []attach.Result) error {
	if !config.Enabled() {
		return ErrNotConfigured
	}
	if len(results) == 0 {
		return nil
	}
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	defer client.Close()

	points := make([]*write.Point, 0, len(results))
	for _, res := range results {
		points = append(points, AttachResultPoint(res))
	}
	return client.WriteAPIBlocking(config.Org, config.Bucket).WritePoint(ctx, points...)
}

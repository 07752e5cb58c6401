package wmts

import (
	"bytes"
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/ortomap/params"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Fetcher requests capabilities documents. Documents are never cached:
// every call is a new request.
type Fetcher struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
	logger       *slog.Logger
}

func NewFetcher(config params.FetchConfig) *Fetcher {
	return &Fetcher{
		Client:       &http.Client{Timeout: config.Timeout},
		UserAgent:    config.UserAgent,
		MaxBodyBytes: config.MaxBodyBytes,
		logger:       slog.With("wmts", "fetch"),
	}
}

// Fetch requests the capabilities document at base, a service url
// with or without the GetCapabilities parameters, and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, base string) ([]byte, error) {
	target, err := CapabilitiesURL(base)
	if err != nil {
		return nil, &NetworkError{URL: base, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	res, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, res.Body, 4<<10)
		return nil, &HTTPStatusError{URL: target, StatusCode: res.StatusCode, Status: res.Status}
	}

	var body io.Reader = res.Body
	if f.MaxBodyBytes > 0 {
		body = io.LimitReader(res.Body, f.MaxBodyBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{URL: target, Err: err}
	}
	if f.MaxBodyBytes > 0 && int64(len(b)) > f.MaxBodyBytes {
		return nil, parseErrorf("document larger than %s", humanize.Bytes(uint64(f.MaxBodyBytes)))
	}
	f.log().Debug("Fetched capabilities", "url", target,
		"size", humanize.Bytes(uint64(len(b))), "elapsed", time.Since(start).Round(time.Millisecond))
	return b, nil
}

// FetchCapabilities fetches and parses the capabilities document at base.
func (f *Fetcher) FetchCapabilities(ctx context.Context, base string) (*Capabilities, error) {
	b, err := f.Fetch(ctx, base)
	if err != nil {
		return nil, err
	}
	caps, err := ParseCapabilities(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	return caps, nil
}

func (f *Fetcher) log() *slog.Logger {
	if f.logger == nil {
		return slog.Default()
	}
	return f.logger
}

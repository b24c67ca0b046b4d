package frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultMaxROMBytes caps a fetched ROM.
const DefaultMaxROMBytes = 8 << 20

// ErrROMTooLarge reports a ROM over the configured size limit.
var ErrROMTooLarge = errors.New("frames: rom exceeds size limit")

// Fetcher loads a ROM from an http(s) URL, a file:// URL or a bare path.
type Fetcher struct {
	Source   string
	Client   *http.Client
	MaxBytes int64
}

// Fetch blocks until the whole ROM has been read.
func (f Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if f.Source == "" {
		return nil, errors.New("frames: no rom source configured")
	}
	u, err := url.Parse(f.Source)
	if err != nil {
		return nil, fmt.Errorf("frames: parse rom source: %w", err)
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		body, err = f.get(ctx, u.String())
	case "file":
		body, err = os.Open(u.Path)
	case "":
		body, err = os.Open(f.Source)
	default:
		err = fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("frames: fetch %s: %w", f.Source, err)
	}
	defer body.Close()

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxROMBytes
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("frames: read %s: %w", f.Source, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrROMTooLarge, limit)
	}
	return data, nil
}

func (f Fetcher) get(ctx context.Context, target string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

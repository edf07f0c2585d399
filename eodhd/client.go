package eodhd

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// errNotFound is returned by jwget on a 404.
var errNotFound = errors.New("not found")

// diskCache is an http.RoundTripper that keeps successful responses on disk
// for the rest of the day.
type diskCache struct {
	base http.RoundTripper
	dir  string
	now  func() time.Time
	log  zerolog.Logger
}

// RoundTrip implements the http.RoundTripper interface.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// the day is part of the key, so entries expire at midnight UTC.
	day := c.now().UTC().Format(time.DateOnly)
	key := fmt.Sprintf("%s %s %s", day, req.Method, req.URL.String())
	key = fmt.Sprintf("eodhd-%x", sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("eodhd request")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed (ignored)")
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores a response on disk.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into data.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("cannot http GET %v%v: %w", resp.Request.URL.Host, resp.Request.URL.Path, errNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

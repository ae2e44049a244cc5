package archives

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/util"
)

// ManifestName is the file below an HTTP archive base URL that lists its
// entries as a JSON array of paths
const ManifestName = "manifest.json"

// HTTPArchive serves entries over HTTP GET relative to a base URL
type HTTPArchive struct {
	base    *url.URL
	headers map[string]string
	client  *http.Client
	index   *Index
}

// OpenHTTP fetches the manifest below baseURL and indexes it
func OpenHTTP(ctx context.Context, baseURL string, opts Options) (*HTTPArchive, error) {
	logger := util.GetLogger("HTTPArchive")

	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("open http archive: %w", err)
	}

	a := &HTTPArchive{
		base:    base,
		headers: opts.Headers,
		client:  &http.Client{Timeout: opts.Timeout},
	}

	body, err := a.get(ctx, ManifestName)
	if err != nil {
		return nil, fmt.Errorf("open http archive manifest: %w", err)
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("parse http archive manifest: %w", err)
	}
	a.index = NewIndex(names)

	logger.Debug().Str("url", base.String()).Int("files", a.index.Len()).Msg("Opened http archive")
	return a, nil
}

// parseBaseURL validates an http(s) base URL and gives it a trailing slash
// so entry names resolve below it
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty base URL")
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return nil, err
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	if base.User != nil {
		return nil, fmt.Errorf("user info not allowed in %q", raw)
	}
	return base, nil
}

func (a *HTTPArchive) newRequest(ctx context.Context, name string) (*http.Request, error) {
	ref := &url.URL{Path: name}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (a *HTTPArchive) get(ctx context.Context, name string) ([]byte, error) {
	req, err := a.newRequest(ctx, name)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, resmgr.ErrFileNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: unexpected status %s", name, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (a *HTTPArchive) Fetch(ctx context.Context, p string) ([]byte, error) {
	name, ok := a.index.Resolve(p)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
	}
	return a.get(ctx, name)
}

func (a *HTTPArchive) List(mask string) ([]string, error) {
	return a.index.List(mask), nil
}

func (a *HTTPArchive) Hash(p string) uint64 {
	return HashPath(p)
}

func (a *HTTPArchive) HashToString(hash uint64) (string, bool) {
	return a.index.HashToString(hash)
}

func (a *HTTPArchive) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ resmgr.Archive = (*HTTPArchive)(nil)

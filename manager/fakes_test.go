package manager

import (
	"context"
	"fmt"
	"hash/fnv"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/config"
	"github.com/stretchr/testify/require"
)

// memArchive is an in-memory archive that counts fetches and can hold them
// until released.
type memArchive struct {
	mu      sync.Mutex
	files   map[string][]byte
	order   []string
	fetches map[string]int

	gate    chan struct{} // When set, Fetch blocks until closed or ctx is done
	started chan string   // When set, receives each path as its fetch begins
}

func newMemArchive(entries ...string) *memArchive {
	a := &memArchive{
		files:   make(map[string][]byte),
		fetches: make(map[string]int),
	}
	for _, p := range entries {
		a.put(p, []byte("data:"+p))
	}
	return a
}

func (a *memArchive) put(p string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.files[p]; !ok {
		a.order = append(a.order, p)
	}
	a.files[p] = data
}

func (a *memArchive) hold() {
	a.gate = make(chan struct{})
	a.started = make(chan string, 16)
}

func (a *memArchive) release() {
	close(a.gate)
}

func (a *memArchive) fetchCount(p string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[p]
}

func (a *memArchive) Fetch(ctx context.Context, p string) ([]byte, error) {
	a.mu.Lock()
	a.fetches[p]++
	a.mu.Unlock()

	if a.started != nil {
		a.started <- p
	}
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.files[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrFileNotFound)
	}
	return data, nil
}

func (a *memArchive) List(mask string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, p := range a.order {
		if ok, _ := path.Match(strings.ToLower(mask), strings.ToLower(p)); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (a *memArchive) Hash(p string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(p)))
	return h.Sum64()
}

func (a *memArchive) HashToString(hash uint64) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.order {
		if a.Hash(p) == hash {
			return p, true
		}
	}
	return "", false
}

func (a *memArchive) Close() error { return nil }

// countingDecoder returns the data as a string and fails on "corrupt" content
type countingDecoder struct {
	mu      sync.Mutex
	decodes map[string]int
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{decodes: make(map[string]int)}
}

func (d *countingDecoder) Decode(p string, data []byte) (any, error) {
	d.mu.Lock()
	d.decodes[p]++
	d.mu.Unlock()
	if string(data) == "corrupt" {
		return nil, fmt.Errorf("%s: %w", p, resmgr.ErrDecodeFailure)
	}
	return string(data), nil
}

func (d *countingDecoder) count(p string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decodes[p]
}

// newStartedManager returns a running Manager stopped on test cleanup
func newStartedManager(t *testing.T, archive resmgr.Archive, decoder resmgr.Decoder) *Manager {
	t.Helper()
	m := New(config.NewDefaultConfig(), archive, decoder, nil)
	m.Start()
	t.Cleanup(m.Stop)
	require.True(t, m.Running())
	return m
}

// Package manager implements the asynchronous file and resource loading
// pipeline.
//
// Two worker goroutines run per Manager: the file loader turns queued paths
// into raw bytes through a [resmgr.Archive], and the resource loader turns
// completed Files into decoded Resources through a [resmgr.Decoder]. Both
// stages are memoized: FileCache deduplicates raw loads per path, and
// ResourceCache keeps decoded results (including failures) until they are
// dirtied or the cache is invalidated.
package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/config"
	"github.com/brettbedarf/resmgr/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

type Manager struct {
	archive resmgr.Archive
	decoder resmgr.Decoder
	prefix  string // archive-scheme prefix stripped from requested paths
	metrics *Metrics

	files         *FileCache
	resources     *ResourceCache
	fileQueue     *workQueue[*File]
	resourceQueue *workQueue[*ResourcePromise]

	abandonedFiles     atomic.Int64
	abandonedResources atomic.Int64

	mu      sync.Mutex // Serializes Start/Stop and protects the fields below
	running bool
	cancel  context.CancelFunc
	workers *errgroup.Group
}

// Stats is a point in time snapshot of a Manager
type Stats struct {
	Running            bool
	Files              int // FileCache entries, including in-flight loads
	Resources          int // ResourceCache entries, including cached failures
	PendingFiles       int
	PendingResources   int
	AbandonedFiles     int64 // Total Files dropped at shutdown
	AbandonedResources int64 // Total promises dropped at shutdown
}

// New creates a stopped Manager. Call [Manager.Start] before loading.
// cfg may be nil for defaults; reg may be nil to skip metric registration.
func New(cfg *config.Config, archive resmgr.Archive, decoder resmgr.Decoder, reg prometheus.Registerer) *Manager {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Manager{
		archive:       archive,
		decoder:       decoder,
		prefix:        cfg.PathPrefix,
		metrics:       NewMetrics(reg),
		files:         newFileCache(),
		resources:     newResourceCache(),
		fileQueue:     newWorkQueue[*File](),
		resourceQueue: newWorkQueue[*ResourcePromise](),
	}
}

// Start spawns both worker loops. Calling Start on a running Manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	logger := util.GetLogger("Manager.Start")

	m.fileQueue.reopen()
	m.resourceQueue.reopen()

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.fileLoop(ctx)
		return nil
	})
	g.Go(func() error {
		m.resourceLoop(ctx)
		return nil
	})

	m.cancel = cancel
	m.workers = g
	m.running = true
	logger.Info().Msg("Resource manager started")
}

// Stop shuts both worker loops down and waits for them to exit.
// Work that was queued but not started is abandoned: its Files fail with
// [resmgr.ErrShutdownAbandoned] and its promises resolve to nil, so no caller
// stays blocked. Calling Stop on a stopped Manager is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	logger := util.GetLogger("Manager.Stop")

	// Closing the queues first means nothing new is accepted and both loops
	// exit at their next pop; cancel interrupts an in-progress fetch or wait.
	files := m.fileQueue.close()
	promises := m.resourceQueue.close()
	m.cancel()
	_ = m.workers.Wait()
	m.running = false

	m.abandonFiles(files)
	m.abandonPromises(promises)
	if len(files) > 0 {
		logger.Debug().Int("files", len(files)).Msg("Resource manager stopped with files left to load")
	}
	if len(promises) > 0 {
		logger.Debug().Int("resources", len(promises)).Msg("Resource manager stopped with resources left to load")
	}
	m.metrics.setQueueDepth(fileLabel, 0)
	m.metrics.setQueueDepth(resourceLabel, 0)
	logger.Info().Msg("Resource manager stopped")
}

// Running reports whether the worker loops are active
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) abandonFiles(files []*File) {
	for _, f := range files {
		m.files.remove(f.Path, f)
		f.complete(nil, fmt.Errorf("%s: %w", f.Path, resmgr.ErrShutdownAbandoned))
	}
	m.abandonedFiles.Add(int64(len(files)))
	m.metrics.recordAbandoned(fileLabel, len(files))
	m.metrics.setEntries(fileLabel, m.files.Len())
}

func (m *Manager) abandonPromises(promises []*ResourcePromise) {
	for _, p := range promises {
		p.resolve(nil)
	}
	m.abandonedResources.Add(int64(len(promises)))
	m.metrics.recordAbandoned(resourceLabel, len(promises))
}

func (m *Manager) normalize(path string) string {
	return NormalizePath(path, m.prefix)
}

// LoadFileAsync returns the File for path without blocking.
// A cached File (loaded or still in flight) is returned as is; otherwise a
// new File is queued for the file loader. On a stopped Manager the returned
// File has already failed with [resmgr.ErrNotRunning].
func (m *Manager) LoadFileAsync(path string) *File {
	return m.loadFileAsync(m.normalize(path))
}

func (m *Manager) loadFileAsync(key string) *File {
	logger := util.GetLogger("Manager.LoadFileAsync")

	f, hit, queued := m.files.acquire(key,
		func() *File { return newFile(key, m.archive.Hash(key)) },
		func(f *File) bool {
			if !m.fileQueue.push(f) {
				return false
			}
			m.metrics.setQueueDepth(fileLabel, m.fileQueue.len())
			return true
		})
	if hit {
		m.metrics.recordHit(fileLabel)
		return f
	}

	m.metrics.recordMiss(fileLabel)
	if !queued {
		f.complete(nil, fmt.Errorf("%s: %w", key, resmgr.ErrNotRunning))
		logger.Warn().Str("path", key).Msg("File requested while stopped")
		return f
	}
	m.metrics.setEntries(fileLabel, m.files.Len())
	logger.Debug().Str("path", key).Str("id", f.ID).Msg("Cache miss on file load")
	return f
}

// LoadFile returns the File for path once it has completed.
// The same handle is returned on success and failure; check
// [File.HasLoadError].
func (m *Manager) LoadFile(path string) *File {
	return m.loadFileAsync(m.normalize(path)).Wait()
}

// LoadResourceAsync returns a promise for the decoded Resource at path.
//
// The raw bytes are resolved first and this call blocks until they are
// available; only the decode runs asynchronously. A clean cached entry,
// including a cached failure, resolves the promise immediately. A dirty or
// missing entry queues a decode.
func (m *Manager) LoadResourceAsync(path string) *ResourcePromise {
	return m.loadResourceAsync(m.normalize(path))
}

func (m *Manager) loadResourceAsync(key string) *ResourcePromise {
	logger := util.GetLogger("Manager.LoadResourceAsync")

	f := m.loadFileAsync(key).Wait()
	p := newPromise(f)

	res, hit, queued := m.resources.lookupOrEnqueue(key, func() bool {
		if !m.resourceQueue.push(p) {
			return false
		}
		m.metrics.setQueueDepth(resourceLabel, m.resourceQueue.len())
		return true
	})
	switch {
	case hit:
		m.metrics.recordHit(resourceLabel)
		p.resolve(res)
	case !queued:
		m.metrics.recordMiss(resourceLabel)
		logger.Warn().Str("path", key).Msg("Resource requested while stopped")
		p.resolve(nil)
	default:
		m.metrics.recordMiss(resourceLabel)
		logger.Debug().Str("path", key).Str("id", p.ID).Msg("Cache miss on resource load")
	}
	return p
}

// LoadResource returns the decoded Resource at path, blocking until it is
// available. Returns nil if the file could not be read or decoded.
func (m *Manager) LoadResource(path string) *Resource {
	return m.LoadResourceAsync(path).Wait()
}

// CacheDirectoryAsync requests every resource matching mask and returns the
// promises in archive list order without waiting on them.
func (m *Manager) CacheDirectoryAsync(mask string) ([]*ResourcePromise, error) {
	logger := util.GetLogger("Manager.CacheDirectoryAsync")

	paths, err := m.List(mask)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("mask", mask).Int("matches", len(paths)).Msg("Caching directory")

	// Queue every raw fetch up front so the file loader works through them
	// while the decodes are being requested one by one.
	keys := make([]string, len(paths))
	for i, p := range paths {
		keys[i] = m.normalize(p)
		m.loadFileAsync(keys[i])
	}

	promises := make([]*ResourcePromise, 0, len(keys))
	for _, key := range keys {
		promises = append(promises, m.loadResourceAsync(key))
	}
	return promises, nil
}

// CacheDirectory loads every resource matching mask and returns them in
// archive list order. Entries that failed to load are nil.
func (m *Manager) CacheDirectory(mask string) ([]*Resource, error) {
	promises, err := m.CacheDirectoryAsync(mask)
	if err != nil {
		return nil, err
	}
	return waitAll(promises), nil
}

// DirtyDirectory behaves like [Manager.CacheDirectory] and then marks every
// returned Resource dirty, so the next request for each path decodes again.
func (m *Manager) DirtyDirectory(mask string) ([]*Resource, error) {
	promises, err := m.CacheDirectoryAsync(mask)
	if err != nil {
		return nil, err
	}
	resources := waitAll(promises)
	for _, res := range resources {
		if res != nil {
			res.MarkDirty()
		}
	}
	return resources, nil
}

func waitAll(promises []*ResourcePromise) []*Resource {
	resources := make([]*Resource, len(promises))
	for i, p := range promises {
		resources[i] = p.Wait()
	}
	return resources
}

// List snapshots the archive paths matching mask. An empty mask lists
// everything.
func (m *Manager) List(mask string) ([]string, error) {
	key := m.normalize(mask)
	if key == "" {
		key = "*"
	}
	paths, err := m.archive.List(key)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", mask, err)
	}
	return paths, nil
}

// InvalidateResourceCache drops every decoded Resource, including cached
// failures. Holders of existing Resources are unaffected.
func (m *Manager) InvalidateResourceCache() {
	logger := util.GetLogger("Manager.InvalidateResourceCache")
	n := m.resources.clear()
	m.metrics.setEntries(resourceLabel, 0)
	logger.Debug().Int("entries", n).Msg("Resource cache invalidated")
}

// MarkDirty flags the cached Resource at path so the next request decodes it
// again. Returns false if no Resource is cached for path.
func (m *Manager) MarkDirty(path string) bool {
	return m.resources.markDirty(m.normalize(path))
}

// InvalidateFile drops the cached File at path so the next request fetches
// it from the archive again. Returns false if nothing was cached.
func (m *Manager) InvalidateFile(path string) bool {
	ok := m.files.Delete(m.normalize(path))
	m.metrics.setEntries(fileLabel, m.files.Len())
	return ok
}

// Reload makes the next request for path fetch and decode it again.
// A cached decode failure for path is dropped. Used when the archive content
// behind path changed.
func (m *Manager) Reload(path string) {
	logger := util.GetLogger("Manager.Reload")
	key := m.normalize(path)
	fileDropped := m.files.Delete(key)
	invalidated := m.resources.invalidate(key)
	m.metrics.setEntries(fileLabel, m.files.Len())
	m.metrics.setEntries(resourceLabel, m.resources.Len())
	logger.Debug().Str("path", key).Bool("file", fileDropped).Bool("resource", invalidated).Msg("Reload requested")
}

// HashToString resolves an archive path hash; "" if unknown
func (m *Manager) HashToString(hash uint64) string {
	p, _ := m.archive.HashToString(hash)
	return p
}

// Stats returns a snapshot of cache sizes and queue depths
func (m *Manager) Stats() Stats {
	return Stats{
		Running:            m.Running(),
		Files:              m.files.Len(),
		Resources:          m.resources.Len(),
		PendingFiles:       m.fileQueue.len(),
		PendingResources:   m.resourceQueue.len(),
		AbandonedFiles:     m.abandonedFiles.Load(),
		AbandonedResources: m.abandonedResources.Load(),
	}
}

package manager

import (
	"context"

	"github.com/brettbedarf/resmgr/internal/util"
)

// fileLoop drains the file queue in arrival order until the queue is closed.
// Items still queued at that point are left for Stop to abandon.
func (m *Manager) fileLoop(ctx context.Context) {
	logger := util.GetLogger("Manager.FileLoader")
	logger.Info().Msg("File loader started")

	for {
		f, ok := m.fileQueue.pop()
		if !ok {
			break
		}
		m.metrics.setQueueDepth(fileLabel, m.fileQueue.len())
		m.fetchFile(ctx, f)
	}

	logger.Info().Msg("File loader stopped")
}

// fetchFile reads f from the archive without holding any manager lock and
// publishes the outcome. Failed files are dropped from the cache before the
// waiters are released so a retry always refetches.
func (m *Manager) fetchFile(ctx context.Context, f *File) {
	logger := util.GetLogger("Manager.FileLoader")
	logger.Debug().Str("path", f.Path).Str("id", f.ID).Msg("Loading file")

	data, err := m.archive.Fetch(ctx, f.Path)
	m.metrics.recordLoad(fileLabel, err)
	if err != nil {
		m.files.remove(f.Path, f)
		m.metrics.setEntries(fileLabel, m.files.Len())
		f.complete(nil, err)
		logger.Error().Err(err).Str("path", f.Path).Msg("File load failed")
		return
	}

	f.complete(data, nil)
	logger.Trace().Str("path", f.Path).Int("size", len(data)).Msg("Loaded file")
}

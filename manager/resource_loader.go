package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/brettbedarf/resmgr"
	"github.com/brettbedarf/resmgr/internal/util"
)

// resourceLoop drains the resource queue in arrival order until the queue is
// closed. Each promise waits for its File before decoding; that wait is cut
// short by shutdown, which abandons the promise.
func (m *Manager) resourceLoop(ctx context.Context) {
	logger := util.GetLogger("Manager.ResourceLoader")
	logger.Info().Msg("Resource loader started")

	for {
		p, ok := m.resourceQueue.pop()
		if !ok {
			break
		}
		m.metrics.setQueueDepth(resourceLabel, m.resourceQueue.len())

		select {
		case <-p.File.Done():
		case <-ctx.Done():
			logger.Debug().Str("path", p.File.Path).Str("id", p.ID).Msg("Shutdown while awaiting file")
			m.abandonPromises([]*ResourcePromise{p})
			continue
		}

		m.decodeResource(p)
	}

	logger.Info().Msg("Resource loader stopped")
}

// decodeResource decodes the promise's completed File and publishes the
// outcome. Failures are cached as nil entries.
func (m *Manager) decodeResource(p *ResourcePromise) {
	logger := util.GetLogger("Manager.ResourceLoader")
	f := p.File

	var res *Resource
	var err error
	if f.HasLoadError() {
		err = fmt.Errorf("%s: file unavailable: %w: %w", f.Path, f.Err(), resmgr.ErrDecodeFailure)
	} else {
		logger.Debug().Str("path", f.Path).Str("id", p.ID).Msg("Loading resource")
		start := time.Now()
		var payload any
		payload, err = m.decoder.Decode(f.Path, f.Data())
		m.metrics.observeDecode(time.Since(start))
		if err == nil {
			res = &Resource{File: f, Payload: payload}
		}
	}
	m.metrics.recordLoad(resourceLabel, err)

	if err != nil {
		logger.Error().Err(err).Str("path", f.Path).Msg("Resource load failed")
	} else {
		logger.Trace().Str("path", f.Path).Msg("Loaded resource")
	}

	m.resources.store(f.Path, res)
	m.metrics.setEntries(resourceLabel, m.resources.Len())
	p.resolve(res)
}

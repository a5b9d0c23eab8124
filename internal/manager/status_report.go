package manager

import (
	"time"

	"llamadesk/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	s := Snapshot{Action: m.action, LastError: m.lastErr}
	m.mu.Unlock()
	m.resMu.RLock()
	s.ModelPath = m.modelPath
	s.Loaded = m.model != nil && m.vocab != nil && m.session != nil
	s.LoadedAt = m.loadedAt
	m.resMu.RUnlock()
	return s
}

// Status builds the response for /status. Window visibility is filled in by
// the caller, which owns the window.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	now := time.Now()
	return types.StatusResponse{
		Action:          string(s.Action),
		ModelPath:       s.ModelPath,
		Loaded:          s.Loaded,
		LastError:       s.LastError,
		UptimeSeconds:   int64(now.Sub(m.startTime) / time.Second),
		ServerTimeUnix:  now.Unix(),
		LoadsTotal:      m.loadsTotal.Load(),
		InferencesTotal: m.inferencesTotal.Load(),
		Threads:         m.threads,
	}
}

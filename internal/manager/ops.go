package manager

import (
	"context"

	"github.com/google/uuid"
)

// StartLoad kicks off an async model load and returns an operation ID. The
// ID is the RunID of the progress events the load emits; callers can poll
// Snapshot() to observe the action returning to WaitingForTask. done, if
// non-nil, receives the result.
func (m *Manager) StartLoad(path string, done func(error)) string {
	op := uuid.NewString()
	go func() {
		// Detached: the load outlives the request that started it and is
		// stopped only by RequestCancel.
		err := m.loadModel(context.Background(), op, path)
		if done != nil {
			done(err)
		}
	}()
	return op
}

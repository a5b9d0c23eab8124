package manager

import "fmt"

// transition moves the action along an edge of the state machine.
// Caller must hold m.mu. An illegal edge is a programming error.
func (m *Manager) transition(to Action) {
	if !CanTransition(m.action, to) {
		panic(fmt.Sprintf("manager: illegal transition %s -> %s", m.action, to))
	}
	m.log.Debug().Str("from", string(m.action)).Str("to", string(to)).Msg("action transition")
	m.action = to
	setActionGauge(to)
}

// beginLoad moves to LoadingModel unless inference is running or another
// load is already in progress.
func (m *Manager) beginLoad() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.action {
	case ActionRunningInference:
		return invalidStateError{msg: "cannot load model while inference is running", action: m.action}
	case ActionLoadingModel:
		return invalidStateError{msg: "cannot load model while another model is loading", action: m.action}
	}
	m.transition(ActionLoadingModel)
	return nil
}

// beginInference moves to RunningInference. Only allowed from WaitingForTask.
// The cancel flag is cleared in the same critical section as the transition.
func (m *Manager) beginInference() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.action != ActionWaitingForTask {
		return invalidStateError{msg: "inference cannot run now: " + string(m.action), action: m.action}
	}
	m.cancel.reset()
	m.transition(ActionRunningInference)
	return nil
}

// finishTask returns to WaitingForTask and records the outcome.
func (m *Manager) finishTask(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.lastErr = err.Error()
	} else {
		m.lastErr = ""
	}
	m.transition(ActionWaitingForTask)
}

// Action returns the current lifecycle action.
func (m *Manager) Action() Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.action
}

package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns the session state of the application: the lifecycle action,
// the loaded model/vocabulary/session triple and the cancellation scope.
// Exactly one guarded operation (load or inference) runs at a time; the
// action state machine, not the handle lock, is what enforces this.
type Manager struct {
	mu      sync.Mutex
	action  Action
	lastErr string

	// Handle triple, replaced only by the load pipeline.
	resMu     sync.RWMutex
	model     Model
	vocab     Vocabulary
	session   Session
	modelPath string
	loadedAt  time.Time
	closed    bool

	cancel canceller

	pubMu     sync.RWMutex
	publisher EventPublisher
	log       zerolog.Logger

	engine        Engine
	contextTokens int
	repeatLastN   int
	threads       int

	startTime       time.Time
	loadsTotal      atomic.Uint64
	inferencesTotal atomic.Uint64
}

// New constructs a Manager around engine with package defaults.
func New(engine Engine) *Manager {
	return NewWithConfig(ManagerConfig{Engine: engine})
}

// Ready reports whether a model, vocabulary and session are installed.
func (m *Manager) Ready() bool {
	m.resMu.RLock()
	defer m.resMu.RUnlock()
	return m.model != nil && m.vocab != nil && m.session != nil
}

// SetEventPublisher installs the sink for UI events.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.pubMu.Lock()
	m.publisher = p
	m.pubMu.Unlock()
}

// SetLogger installs a structured logger.
func (m *Manager) SetLogger(l zerolog.Logger) {
	m.log = l.With().Str("component", "manager").Logger()
}

// Threads returns the worker thread count passed to the engine.
func (m *Manager) Threads() int { return m.threads }

func (m *Manager) publish(e Event) {
	m.pubMu.RLock()
	p := m.publisher
	m.pubMu.RUnlock()
	p.Publish(e)
}

// Close cancels any in-flight operation and releases the installed handles.
// It waits for a running inference to release the handles first. A load that
// completes after Close releases its handles instead of installing them.
func (m *Manager) Close() error {
	m.cancel.request()
	m.resMu.Lock()
	m.closed = true
	sess, model := m.session, m.model
	m.session, m.model, m.vocab = nil, nil, nil
	m.modelPath = ""
	m.resMu.Unlock()
	var firstErr error
	if sess != nil {
		if err := sess.Close(); err != nil {
			firstErr = err
		}
	}
	if model != nil {
		if err := model.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LlamaBuilt reports whether the binary includes the in-process llama engine.
func LlamaBuilt() bool { return llamaBuilt }

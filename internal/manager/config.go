package manager

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultContextTokens = 512
	defaultRepeatLastN   = 64
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	// Engine performs model loading and token generation. Defaults to the
	// llama.cpp adapter (a stub unless built with -tags=llama).
	Engine Engine
	// ContextTokens is the context window passed to every load.
	ContextTokens int
	// RepeatLastN is the repetition window of the session created after a load.
	RepeatLastN int
	// Publisher receives load progress and token events. Defaults to a no-op.
	Publisher EventPublisher
	// Logger defaults to zerolog.Nop().
	Logger *zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		action:        ActionIdle,
		engine:        cfg.Engine,
		publisher:     cfg.Publisher,
		contextTokens: cfg.ContextTokens,
		repeatLastN:   cfg.RepeatLastN,
		log:           zerolog.Nop(),
	}
	// Apply defaults if unset
	if m.contextTokens <= 0 {
		m.contextTokens = defaultContextTokens
	}
	if m.repeatLastN <= 0 {
		m.repeatLastN = defaultRepeatLastN
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	if m.engine == nil {
		m.engine = NewLlamaEngine()
	}
	m.threads = threadCount(runtime.NumCPU())
	m.startTime = time.Now()
	setActionGauge(m.action)
	return m
}

package manager

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"llamadesk/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeEngine is an in-memory engine. Feed walks the prompt word by word and
// calls the checkpoint after each word; Generate emits tokens in order.
type fakeEngine struct {
	mu       sync.Mutex
	loads    int
	lastReq  LoadRequest
	models   []*fakeModel
	genCalls int

	progress   []LoadProgress
	loadErr    error
	sessionErr error
	// blockLoad, if set, holds Load until it is closed or ctx is done.
	blockLoad chan struct{}
	// holdLoad, if set, holds Load until it is closed and ignores ctx.
	holdLoad chan struct{}

	tokens []string
	genErr error
	// feedHook runs before the checkpoint of word i.
	feedHook func(i int)
	// genGate, if set, holds Generate after the first token.
	genGate chan struct{}
}

func newFakeEngine(tokens ...string) *fakeEngine {
	return &fakeEngine{tokens: tokens}
}

func (e *fakeEngine) Load(ctx context.Context, req LoadRequest, onProgress func(LoadProgress)) (Model, Vocabulary, error) {
	e.mu.Lock()
	e.loads++
	e.lastReq = req
	progress, loadErr, block, hold := e.progress, e.loadErr, e.blockLoad, e.holdLoad
	e.mu.Unlock()

	for _, p := range progress {
		onProgress(p)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if hold != nil {
		<-hold
	}
	if loadErr != nil {
		return nil, nil, loadErr
	}
	md := &fakeModel{engine: e, path: req.Path}
	e.mu.Lock()
	e.models = append(e.models, md)
	e.mu.Unlock()
	return md, fakeVocab{}, nil
}

func (e *fakeEngine) setLoadErr(err error) {
	e.mu.Lock()
	e.loadErr = err
	e.mu.Unlock()
}

func (e *fakeEngine) model(i int) *fakeModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.models[i]
}

func (e *fakeEngine) generateCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.genCalls
}

type fakeModel struct {
	engine *fakeEngine
	path   string
	closed atomic.Bool

	mu       sync.Mutex
	sessions []*fakeSession
}

func (m *fakeModel) StartSession(repeatLastN int) (Session, error) {
	if m.engine.sessionErr != nil {
		return nil, m.engine.sessionErr
	}
	s := &fakeSession{model: m, repeatLastN: repeatLastN}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s, nil
}

func (m *fakeModel) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *fakeModel) session(i int) *fakeSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[i]
}

type fakeVocab struct{}

func (fakeVocab) Tokenize(text string) ([]int32, error) {
	words := strings.Fields(text)
	out := make([]int32, len(words))
	for i := range words {
		out[i] = int32(i)
	}
	return out, nil
}

type fakeSession struct {
	model       *fakeModel
	repeatLastN int
	closed      atomic.Bool

	mu         sync.Mutex
	fed        []string
	params     []EngineParams
	genPrompts []string
	maxTokens  []int
}

func (s *fakeSession) Model() Model { return s.model }

func (s *fakeSession) Feed(ctx context.Context, prompt string, params EngineParams, checkpoint func() error) error {
	s.mu.Lock()
	s.fed = append(s.fed, prompt)
	s.params = append(s.params, params)
	s.mu.Unlock()
	hook := s.model.engine.feedHook
	for i := range strings.Fields(prompt) {
		if hook != nil {
			hook(i)
		}
		if err := checkpoint(); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSession) Generate(ctx context.Context, prompt string, params EngineParams, maxTokens int, rng *rand.Rand, onOutput func(OutputToken) error) error {
	e := s.model.engine
	e.mu.Lock()
	e.genCalls++
	tokens, genErr, gate := e.tokens, e.genErr, e.genGate
	e.mu.Unlock()
	s.mu.Lock()
	s.genPrompts = append(s.genPrompts, prompt)
	s.maxTokens = append(s.maxTokens, maxTokens)
	s.mu.Unlock()

	if rng == nil {
		return errFakeNoRNG
	}
	if genErr != nil {
		return genErr
	}
	// The fake ignores maxTokens so the manager's own limit is exercised.
	for i, tok := range tokens {
		if i == 1 && gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
			}
		}
		if err := onOutput(OutputToken{Kind: OutputText, Text: tok}); err != nil {
			return err
		}
	}
	return onOutput(OutputToken{Kind: OutputEndOfText})
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSession) fedPrompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fed...)
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFakeNoRNG = fakeError("generate called without rng")

// newLoadedManager returns a manager with a model loaded from "/models/a.bin".
func newLoadedManager(t *testing.T, e *fakeEngine) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m := NewWithConfig(ManagerConfig{Engine: e, Publisher: pub})
	if err := m.LoadModel(context.Background(), "/models/a.bin"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	return m, pub
}

func tokensOf(evts []Event) []string {
	var out []string
	for _, e := range evts {
		if p, ok := e.Payload.(types.OnInferenceTokenPayload); ok {
			out = append(out, p.Token)
		}
	}
	return out
}

// waitForAction polls until m reaches want.
func waitForAction(t *testing.T, m *Manager, want Action) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for m.Action() != want {
		if time.Now().After(deadline) {
			t.Fatalf("action=%s, want %s", m.Action(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

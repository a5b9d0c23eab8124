//go:build llama

package manager

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"llamadesk/internal/common/fsutil"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

// llamaEngine loads models in-process through go-llama.cpp.
type llamaEngine struct{}

func NewLlamaEngine() Engine { return &llamaEngine{} }

// llamaModel owns the loaded model. go-llama.cpp keeps the weights and the
// evaluation context in one handle, so the vocabulary shares it too.
type llamaModel struct {
	mu sync.Mutex
	l  *llama.LLama
}

type llamaVocabulary struct{ m *llamaModel }

// llamaSession buffers the fed prompt: go-llama.cpp has no incremental
// evaluation, so the prompt is evaluated together with generation.
type llamaSession struct {
	model       *llamaModel
	repeatLastN int
	pending     strings.Builder
}

func (e *llamaEngine) Load(ctx context.Context, req LoadRequest, onProgress func(LoadProgress)) (Model, Vocabulary, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, nil, errors.New("model path is empty")
	}
	size, err := fsutil.StatModelFile(req.Path)
	if err != nil {
		return nil, nil, err
	}
	// The binding loads all tensors in a single call; report start and end.
	onProgress(LoadProgress{Kind: ProgressPartLoading, CurrentPart: 1, TotalParts: 1})
	onProgress(LoadProgress{Kind: ProgressPartTensorLoaded, CurrentTensor: 0, TensorCount: 1})
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	l, err := llama.New(req.Path, llama.SetContext(req.ContextTokens))
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		l.Free()
		return nil, nil, err
	}
	onProgress(LoadProgress{Kind: ProgressPartTensorLoaded, CurrentTensor: 1, TensorCount: 1})
	onProgress(LoadProgress{Kind: ProgressPartLoaded, Bytes: size, TensorCount: 1})
	m := &llamaModel{l: l}
	return m, llamaVocabulary{m: m}, nil
}

func (m *llamaModel) StartSession(repeatLastN int) (Session, error) {
	return &llamaSession{model: m, repeatLastN: repeatLastN}, nil
}

func (m *llamaModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.l != nil {
		m.l.Free()
		m.l = nil
	}
	return nil
}

func (v llamaVocabulary) Tokenize(text string) ([]int32, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if v.m.l == nil {
		return nil, errors.New("llama model not initialized")
	}
	_, toks, err := v.m.l.TokenizeString(text)
	return toks, err
}

func (s *llamaSession) Model() Model { return s.model }

func (s *llamaSession) Feed(ctx context.Context, prompt string, params EngineParams, checkpoint func() error) error {
	if err := checkpoint(); err != nil {
		return err
	}
	s.pending.WriteString(prompt)
	return checkpoint()
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, params EngineParams, maxTokens int, rng *rand.Rand, onOutput func(OutputToken) error) error {
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	if s.model.l == nil {
		return errors.New("llama model not initialized")
	}
	text := s.pending.String() + prompt
	s.pending.Reset()

	// Bridge token streaming to onOutput and respect cancellation
	var cbErr error
	s.model.l.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			cbErr = ctx.Err()
			return false
		default:
		}
		if err := onOutput(OutputToken{Kind: OutputText, Text: tok}); err != nil {
			cbErr = err
			return false
		}
		return true
	})
	defer s.model.l.SetTokenCallback(nil)

	po := mapParamsToPredictOptions(params, s.repeatLastN, maxTokens, rng)
	if _, err := s.model.l.Predict(text, po...); err != nil {
		if cbErr != nil {
			return cbErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if cbErr != nil {
		return cbErr
	}
	return onOutput(OutputToken{Kind: OutputEndOfText})
}

func (s *llamaSession) Close() error {
	s.pending.Reset()
	return nil
}

// helpers
func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// mapParamsToPredictOptions converts engine params into go-llama.cpp options.
func mapParamsToPredictOptions(params EngineParams, repeatLastN, maxTokens int, rng *rand.Rand) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetThreads(max(1, params.Threads)),
		llama.SetBatch(zn(params.BatchSize, llama.DefaultOptions.Batch)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
		llama.SetRepeat(zn(repeatLastN, llama.DefaultOptions.Repeat)),
		llama.SetSeed(int(rng.Int31())),
	}
	if maxTokens > 0 {
		po = append(po, llama.SetTokens(maxTokens))
	}
	return po
}

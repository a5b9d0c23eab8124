package manager

import (
	"context"
	"fmt"
	"math/rand"
)

// Engine abstracts the model runtime used by the Manager.
// Concrete implementations (e.g., llama.cpp) should satisfy this interface.
type Engine interface {
	// Load reads the model at req.Path. onProgress is called synchronously for each
	// loading stage. Implementations should return when ctx is canceled if they can.
	Load(ctx context.Context, req LoadRequest, onProgress func(LoadProgress)) (Model, Vocabulary, error)
}

// LoadRequest carries the fixed loading configuration.
type LoadRequest struct {
	Path          string
	ContextTokens int
}

// Model is a loaded, immutable model artifact.
type Model interface {
	// StartSession creates a generation context bound to this model.
	StartSession(repeatLastN int) (Session, error)
	// Close releases resources associated with the model.
	Close() error
}

// Vocabulary maps text to tokens for the model it was loaded with.
type Vocabulary interface {
	Tokenize(text string) ([]int32, error)
}

// Session is a mutable generation context. It keeps token history across calls.
type Session interface {
	// Model returns the model the session was started from.
	Model() Model
	// Feed evaluates prompt into the session. checkpoint is invoked between
	// prompt chunks; a non-nil return aborts feeding with that error.
	Feed(ctx context.Context, prompt string, params EngineParams, checkpoint func() error) error
	// Generate samples new tokens after an optional continuation prompt, calling
	// onOutput for each unit. A non-nil return from onOutput stops generation and
	// is returned. maxTokens <= 0 means no limit.
	Generate(ctx context.Context, prompt string, params EngineParams, maxTokens int, rng *rand.Rand, onOutput func(OutputToken) error) error
	// Close releases any resources associated with the session.
	Close() error
}

// EngineParams captures generation parameters passed to the engine.
type EngineParams struct {
	Threads       int
	BatchSize     int
	TopK          int
	TopP          float32
	RepeatPenalty float32
	Temperature   float32
	RepeatLastN   int
}

// OutputKind distinguishes generated tokens from stream markers.
type OutputKind int

const (
	OutputText OutputKind = iota
	OutputEndOfText
)

// OutputToken is one unit produced by Generate.
type OutputToken struct {
	Kind OutputKind
	Text string
}

// LoadProgressKind enumerates the loading stages an engine may report.
type LoadProgressKind int

const (
	ProgressHyperparametersLoaded LoadProgressKind = iota
	ProgressBadToken
	ProgressContextSize
	ProgressMemorySize
	ProgressPartTensorLoaded
	ProgressPartLoading
	ProgressPartLoaded
)

// LoadProgress is a structured loading event. Only the fields relevant to Kind are set.
type LoadProgress struct {
	Kind LoadProgressKind

	Hyperparameters string // ProgressHyperparametersLoaded
	TokenIndex      int    // ProgressBadToken
	Bytes           int64  // ProgressContextSize, ProgressMemorySize, ProgressPartLoaded
	MemCount        int    // ProgressMemorySize
	CurrentTensor   int    // ProgressPartTensorLoaded
	TensorCount     int    // ProgressPartTensorLoaded, ProgressPartLoaded
	CurrentPart     int    // ProgressPartLoading
	TotalParts      int    // ProgressPartLoading
}

// Message renders the event for logs and the UI.
func (p LoadProgress) Message() string {
	switch p.Kind {
	case ProgressHyperparametersLoaded:
		return fmt.Sprintf("hyperparameters loaded: %s", p.Hyperparameters)
	case ProgressBadToken:
		return fmt.Sprintf("bad token at index: %d", p.TokenIndex)
	case ProgressContextSize:
		return fmt.Sprintf("context size: %d bytes", p.Bytes)
	case ProgressMemorySize:
		return fmt.Sprintf("memory size loaded: %d bytes, %d mems", p.Bytes, p.MemCount)
	case ProgressPartTensorLoaded:
		return fmt.Sprintf("tensor loaded: %d / %d", p.CurrentTensor, p.TensorCount)
	case ProgressPartLoading:
		return fmt.Sprintf("loading part: %d / %d", p.CurrentPart, p.TotalParts)
	case ProgressPartLoaded:
		return fmt.Sprintf("loaded part: %d x %d", p.Bytes, p.TensorCount)
	default:
		return "unknown load progress"
	}
}

// Percent returns floor(current/count*100) clamped to [0, 100].
// ok is false for kinds that carry no fractional progress.
func (p LoadProgress) Percent() (pct int8, ok bool) {
	if p.Kind != ProgressPartTensorLoaded || p.TensorCount <= 0 {
		return 0, false
	}
	v := p.CurrentTensor * 100 / p.TensorCount
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return int8(v), true
}

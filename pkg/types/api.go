package types

import (
	"encoding/json"
	"errors"
)

// InferenceParameters are the sampling settings the front-end sends with every
// run_inference command.
type InferenceParameters struct {
	// Size of the recent-token window used for the repetition penalty.
	// example: 64
	RepeatLastN int `json:"repeat_last_n" example:"64"`
	// Maximum number of tokens to generate; null means until the model stops.
	// example: 128
	MaxTokenCount *int `json:"max_token_count" example:"128"`
	// Number of prompt tokens evaluated per batch.
	// example: 8
	BatchSize int `json:"batch_size" example:"8"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k" example:"40"`
	// Nucleus sampling probability.
	// example: 0.95
	TopP float32 `json:"top_p" example:"0.95"`
	// Penalty applied to tokens inside the repetition window.
	// example: 1.3
	RepeatPenalty float32 `json:"repeat_penalty" example:"1.3"`
	// Sampling temperature (higher = more random).
	// example: 0.8
	Temperature float32 `json:"temp" example:"0.8"`
}

// DefaultInferenceParameters returns the starting values used by the chat UI.
func DefaultInferenceParameters() InferenceParameters {
	return InferenceParameters{
		RepeatLastN:   64,
		MaxTokenCount: nil,
		BatchSize:     8,
		TopK:          40,
		TopP:          0.95,
		RepeatPenalty: 1.3,
		Temperature:   0.8,
	}
}

// UnmarshalJSON accepts "temperature" as an alias of "temp".
func (p *InferenceParameters) UnmarshalJSON(b []byte) error {
	type plain InferenceParameters
	aux := struct {
		*plain
		Temperature *float32 `json:"temperature"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Temperature != nil {
		p.Temperature = *aux.Temperature
	}
	return nil
}

// TokenLimit returns the token limit and whether one was set. A set limit of
// 0 means no token is generated.
func (p InferenceParameters) TokenLimit() (n int, limited bool) {
	if p.MaxTokenCount == nil {
		return 0, false
	}
	return *p.MaxTokenCount, true
}

// Validate rejects values the engine cannot honour.
func (p InferenceParameters) Validate() error {
	if p.MaxTokenCount != nil && *p.MaxTokenCount < 0 {
		return errors.New("max_token_count must not be negative")
	}
	return nil
}

// LoadModelRequest is the body of POST /models/load.
type LoadModelRequest struct {
	// Path to the model file on disk.
	// example: /home/user/models/ggml-alpaca-7b-q4.bin
	Path string `json:"path" example:"/home/user/models/ggml-alpaca-7b-q4.bin"`
}

// RunInferenceRequest is the body of POST /inference.
type RunInferenceRequest struct {
	// Raw user instruction; the server wraps it in the instruction template.
	// example: Summarize the plot of Hamlet.
	Prompt string `json:"prompt" example:"Summarize the plot of Hamlet."`
	// Sampling parameters. Omitted fields fall back to the UI defaults.
	Params *InferenceParameters `json:"params,omitempty"`
}

// UnmarshalJSON seeds Params with DefaultInferenceParameters so a partial
// params object only overrides the fields it names.
func (r *RunInferenceRequest) UnmarshalJSON(b []byte) error {
	type plain RunInferenceRequest
	defaults := DefaultInferenceParameters()
	aux := plain{Params: &defaults}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = RunInferenceRequest(aux)
	return nil
}

// OnInferenceTokenPayload is sent to the front-end for each generated token.
type OnInferenceTokenPayload struct {
	// The token that was generated. This is not the full response, only the token.
	Token string `json:"token"`
}

// OnModelLoadProgressPayload is sent to the front-end while a model loads.
type OnModelLoadProgressPayload struct {
	// Percentage in [0, 100].
	Progress int8   `json:"progress"`
	Message  string `json:"message"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Model files found in the models directory.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: inference cannot run now
	Error string `json:"error" example:"inference cannot run now"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
	// Error class: invalid_state, resource_unavailable, cancelled, engine_failure.
	// example: invalid_state
	Kind string `json:"kind,omitempty" example:"invalid_state"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Current lifecycle action.
	// example: waiting_for_task
	Action string `json:"action" example:"waiting_for_task"`
	// Path of the currently loaded model, if any.
	ModelPath string `json:"model_path,omitempty"`
	// Whether a model, vocabulary and session are all installed.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// Whether the main window has been shown.
	// example: true
	WindowVisible bool `json:"window_visible" example:"true"`
	// Last load or inference error (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Total number of successful model loads.
	// example: 2
	LoadsTotal uint64 `json:"loads_total" example:"2"`
	// Total number of inference runs started.
	// example: 12
	InferencesTotal uint64 `json:"inferences_total" example:"12"`
	// Worker threads passed to the engine.
	// example: 6
	Threads int `json:"threads" example:"6"`
}

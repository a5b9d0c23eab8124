// Package manager coordinates the model lifecycle and inference for the
// desktop front-end. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: the Action state machine and Snapshot.
//   - lifecycle.go: guarded transitions (load, inference, finish).
//   - cancel.go: the cancellation channel and RequestCancel.
//   - load.go: load pipeline, progress events, handle installation.
//   - infer.go: inference pipeline (feed, generate, token events).
//   - errors.go: error types and helpers (IsInvalidState, IsCancelled, ...).
//   - events.go: Event and EventPublisher.
//   - ops.go: async load (StartLoad).
//   - status_report.go: Snapshot and the /status payload.
//   - helpers.go: thread count, parameter conversion, RNG seeding.
//   - metrics.go: Prometheus gauges and counters for actions and runs.
//
// Action transitions:
//
//	Idle ──load──▶ LoadingModel ──▶ WaitingForTask ──run──▶ RunningInference
//	                    ▲                 │  ▲                     │
//	                    └──────load───────┘  └─────────────────────┘
//
// Build tags and runtimes:
//
//   - In-process llama: uses the go-llama.cpp engine. Enabled with `-tags=llama`.
//     Files: adapter_llama.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub exists when the tag is not set: adapter_llama_stub.go.
//
// External packages should use public methods only (New/NewWithConfig,
// LoadModel, RunInference, RequestCancel, Snapshot, Status).
package manager

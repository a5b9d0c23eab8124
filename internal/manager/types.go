package manager

import "time"

// Action is the single coarse-grained state describing what the manager is doing.
type Action string

const (
	ActionIdle             Action = "idle"
	ActionLoadingModel     Action = "loading_model"
	ActionWaitingForTask   Action = "waiting_for_task"
	ActionRunningInference Action = "running_inference"
)

// allowedTransitions lists every legal edge of the action state machine.
var allowedTransitions = map[Action][]Action{
	ActionIdle:             {ActionLoadingModel},
	ActionLoadingModel:     {ActionWaitingForTask},
	ActionWaitingForTask:   {ActionLoadingModel, ActionRunningInference},
	ActionRunningInference: {ActionWaitingForTask},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Action) bool {
	for _, a := range allowedTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	Action    Action
	ModelPath string
	Loaded    bool
	LastError string
	LoadedAt  time.Time
}

package manager

import (
	"context"
	"testing"
)

func TestStatus_ReflectsLifecycle(t *testing.T) {
	m := New(newFakeEngine("a"))
	st := m.Status()
	if st.Action != string(ActionIdle) || st.Loaded || st.LoadsTotal != 0 {
		t.Fatalf("unexpected initial status: %+v", st)
	}
	if err := m.LoadModel(context.Background(), "/models/a.bin"); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if err := m.RunInference(context.Background(), "hi", defaultParams()); err != nil {
		t.Fatalf("RunInference: %v", err)
	}
	// rejected runs are not counted
	m.action = ActionLoadingModel
	_ = m.RunInference(context.Background(), "hi", defaultParams())
	m.action = ActionWaitingForTask

	st = m.Status()
	if st.Action != string(ActionWaitingForTask) || !st.Loaded || st.ModelPath != "/models/a.bin" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.LoadsTotal != 1 || st.InferencesTotal != 1 {
		t.Fatalf("counters: loads=%d inferences=%d", st.LoadsTotal, st.InferencesTotal)
	}
	if st.Threads != m.Threads() || st.ServerTimeUnix == 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestMemoryPublisher_Named(t *testing.T) {
	p := NewMemoryPublisher()
	p.Publish(Event{Name: EventModelLoadProgress})
	p.Publish(Event{Name: EventInferenceToken, RunID: "1"})
	p.Publish(Event{Name: EventInferenceToken, RunID: "2"})
	got := p.Named(EventInferenceToken)
	if len(got) != 2 || got[0].RunID != "1" || got[1].RunID != "2" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if len(p.Events()) != 3 {
		t.Fatalf("events=%d", len(p.Events()))
	}
}

package shell

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestHeadlessWindow_ShowIsIdempotent(t *testing.T) {
	w := NewHeadlessWindow(zerolog.Nop())
	if w.Visible() {
		t.Fatalf("window should start hidden")
	}
	for i := 0; i < 3; i++ {
		if err := w.Show(); err != nil {
			t.Fatalf("Show: %v", err)
		}
	}
	if !w.Visible() {
		t.Fatalf("window should be visible after Show")
	}
}

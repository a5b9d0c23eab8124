package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"llamadesk/internal/app"
	"llamadesk/internal/common/fsutil"
	"llamadesk/internal/events"
	"llamadesk/internal/httpapi"
	"llamadesk/internal/manager"
	"llamadesk/internal/registry"
)

// createTempModelsDir creates a temporary directory populated with small model files
// and returns the directory path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("ggml"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// fileEngine "loads" any existing file and generates the configured words.
// When gate is set, generation waits on it (or cancellation) after the first word.
type fileEngine struct {
	words []string
	gate  chan struct{}
}

func (e *fileEngine) Load(ctx context.Context, req manager.LoadRequest, onProgress func(manager.LoadProgress)) (manager.Model, manager.Vocabulary, error) {
	if _, err := fsutil.StatModelFile(req.Path); err != nil {
		return nil, nil, err
	}
	for i := 0; i <= 4; i++ {
		onProgress(manager.LoadProgress{Kind: manager.ProgressPartTensorLoaded, CurrentTensor: i, TensorCount: 4})
	}
	md := &fileModel{engine: e}
	return md, fileVocab{}, nil
}

type fileModel struct{ engine *fileEngine }

func (m *fileModel) StartSession(int) (manager.Session, error) { return &fileSession{model: m}, nil }
func (m *fileModel) Close() error                               { return nil }

type fileVocab struct{}

func (fileVocab) Tokenize(text string) ([]int32, error) { return make([]int32, len(strings.Fields(text))), nil }

type fileSession struct{ model *fileModel }

func (s *fileSession) Model() manager.Model { return s.model }

func (s *fileSession) Feed(ctx context.Context, prompt string, p manager.EngineParams, checkpoint func() error) error {
	for range strings.Fields(prompt) {
		if err := checkpoint(); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileSession) Generate(ctx context.Context, prompt string, p manager.EngineParams, maxTokens int, rng *rand.Rand, onOutput func(manager.OutputToken) error) error {
	for i, w := range s.model.engine.words {
		if i == 1 && s.model.engine.gate != nil {
			select {
			case <-s.model.engine.gate:
			case <-ctx.Done():
			}
		}
		if err := onOutput(manager.OutputToken{Kind: manager.OutputText, Text: w}); err != nil {
			return err
		}
	}
	return onOutput(manager.OutputToken{Kind: manager.OutputEndOfText})
}

func (s *fileSession) Close() error { return nil }

// newServerForDir wires the full stack over a models directory.
func newServerForDir(t *testing.T, dir string, engine manager.Engine) (*httptest.Server, *app.App) {
	t.Helper()
	w, err := registry.NewWatcher(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	a := app.New(app.Options{
		Manager: manager.New(engine),
		Broker:  events.NewBroker(64),
		Models:  w,
		Logger:  zerolog.Nop(),
	})
	srv := httptest.NewServer(httpapi.NewMux(a))
	t.Cleanup(func() {
		_ = a.Close()
		srv.Close()
	})
	return srv, a
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

// sseFrame is one parsed server-sent event.
type sseFrame struct {
	Event string
	ID    string
	Data  string
}

// openEvents subscribes to /events and returns a frame reader.
func openEvents(t *testing.T, base string) func() sseFrame {
	t.Helper()
	resp, err := http.Get(base + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	br := bufio.NewReader(resp.Body)
	return func() sseFrame {
		t.Helper()
		var f sseFrame
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				t.Fatalf("read event: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				if f.Event != "" {
					return f
				}
			case strings.HasPrefix(line, "event: "):
				f.Event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "id: "):
				f.ID = strings.TrimPrefix(line, "id: ")
			case strings.HasPrefix(line, "data: "):
				f.Data = strings.TrimPrefix(line, "data: ")
			}
		}
	}
}

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamadesk/internal/common/fsutil"
	"llamadesk/pkg/types"
)

// DefaultExtensions are the model file suffixes offered in the model picker:
// legacy ggml checkpoints (.bin) and GGUF files.
var DefaultExtensions = []string{".bin", ".gguf"}

// Scanner lists model files in a directory.
type Scanner struct {
	exts []string
}

// NewScanner returns a scanner matching the given extensions (case-insensitive).
// With no extensions it uses DefaultExtensions.
func NewScanner(exts ...string) *Scanner {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	s := &Scanner{}
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s.exts = append(s.exts, e)
	}
	return s
}

// Matches reports whether name has one of the scanner's extensions.
func (s *Scanner) Matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan builds a sorted registry from matching files in dir.
// ID is the full filename; Name drops the extension; Path is absolute.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() || !s.Matches(e.Name()) {
			continue
		}
		name := e.Name()
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			Path:      filepath.Join(abs, name),
			SizeBytes: size,
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir with the default extensions.
func LoadDir(dir string) ([]types.Model, error) {
	return NewScanner().Scan(dir)
}

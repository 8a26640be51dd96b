package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pikia/internal/core/ports/driven"
	"github.com/custodia-labs/pikia/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves detector prompts from <dir>/<name>.txt.
//
// The directory is seeded with the defaults on first use. A file is re-read
// when its modification time changes, so edits apply to a running watch.
// Missing, empty or broken files fall back to the built-in default.
type PromptStore struct {
	dir string

	mu      sync.Mutex
	seeded  bool
	seedErr error
	cache   map[string]promptFile
}

type promptFile struct {
	text    string
	modTime time.Time
}

// defaultPrompts are used when user files don't exist and seed new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptDetectSystem: `You are an object detector. You find every distinct physical object in a photo and report a tight bounding box for each one.
Use short lowercase English nouns as labels (e.g. "cat", "car", "person"). Report each instance separately.
Respond with JSON only, no prose and no code fences.`,

	driven.PromptDetectImage: `The image is %d pixels wide and %d pixels high.
Return {"objects": [{"label": "<noun>", "box": [x1, y1, x2, y2]}]} where x1,y1 is the top-left and x2,y2 the bottom-right corner in pixels.
Return {"objects": []} if nothing is recognisable.`,
}

// requiredPlaceholders counts the verbs each template must keep.
var requiredPlaceholders = map[string]int{
	driven.PromptDetectImage: 2,
}

// validPrompt reports whether an edited template can still be rendered.
func validPrompt(name, text string) bool {
	return text != "" && strings.Count(text, "%d") >= requiredPlaceholders[name]
}

// NewPromptStore creates a prompt store rooted at dir, or ~/.pikia/prompts
// when dir is empty. Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".pikia", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]promptFile)}, nil
}

// Load returns the named template.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		s.seedErr = s.seed()
		s.seeded = true
		if s.seedErr != nil {
			logger.Warn("Prompt directory unavailable, using built-in prompts: %v", s.seedErr)
		}
	}
	if s.seedErr != nil {
		return def, nil
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		delete(s.cache, name)
		return def, nil
	}
	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading prompt %s: %v", path, err)
		return def, nil
	}
	text := strings.TrimSpace(string(data))
	if !validPrompt(name, text) {
		logger.Warn("Prompt %s is empty or lost its %%d placeholders, using the default", path)
		text = def
	}
	s.cache[name] = promptFile{text: text, modTime: info.ModTime()}
	return text, nil
}

// Reload forgets every cached prompt.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]promptFile)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed creates the directory and writes every default that has no file yet.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	files := map[string]string{"README.md": promptReadme}
	for name, text := range defaultPrompts {
		files[name+".txt"] = text
	}
	for file, text := range files {
		path := filepath.Join(s.dir, file)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", file, err)
		}
		if err := os.WriteFile(path, []byte(text), 0600); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
	}
	return nil
}

const promptReadme = `# Pikia Prompts

These prompts drive the vision detector (detector.provider = "vision").

## Files

- ` + "`detect_system.txt`" + ` - System prompt describing the detection task
- ` + "`detect_image.txt`" + ` - Sent with every image; takes the image width and height

## Customisation

Edit a file to change what the model is asked for. Delete it to restore the
default on the next run.

The reply must stay a JSON object with an "objects" array of
{"label", "box": [x1, y1, x2, y2]} entries in pixel coordinates.
`

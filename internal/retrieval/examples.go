package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// Example is one curated prompt/result pair shown to the model as a community
// example.
type Example struct {
	ID     string   `yaml:"id"`
	Title  string   `yaml:"title"`
	Prompt string   `yaml:"prompt"`
	Result string   `yaml:"result"`
	Tags   []string `yaml:"tags,omitempty"`
}

type exampleFile struct {
	Examples []Example `yaml:"examples"`
}

// Document converts the example into a community corpus document.
func (e Example) Document() Document {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(e.Prompt))
	if r := strings.TrimSpace(e.Result); r != "" {
		b.WriteString("\n=> ")
		b.WriteString(r)
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, "\ntags: %s", strings.Join(e.Tags, ", "))
	}
	return Document{
		ID:         SourceCommunity + ":" + e.ID,
		SourceType: SourceCommunity,
		Title:      e.Title,
		Text:       b.String(),
		Priority:   PriorityCommunity,
	}
}

// ExampleDir serves community examples from *.yaml files in a directory and
// reloads them when the directory changes.
type ExampleDir struct {
	mu      sync.RWMutex
	dir     string
	docs    []Document
	watcher *fsnotify.Watcher
	dirty   bool
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExampleDir creates a loader for dir. Nothing is read until Load or Start.
func NewExampleDir(dir string) *ExampleDir {
	return &ExampleDir{dir: dir}
}

// Documents returns a copy of the currently loaded examples.
func (e *ExampleDir) Documents() []Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Document, len(e.docs))
	copy(out, e.docs)
	return out
}

// Load reads every example file. A missing directory yields no examples; a
// malformed file is skipped and reported in the returned error while the
// remaining files still load.
func (e *ExampleDir) Load() error {
	paths, err := e.files()
	if err != nil {
		return err
	}

	var docs []Document
	var errs []string
	for _, p := range paths {
		fileDocs, err := readExampleFile(p)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		docs = append(docs, fileDocs...)
	}

	e.mu.Lock()
	e.docs = docs
	e.mu.Unlock()
	logging.Retrieval("loaded %d community examples from %s", len(docs), e.dir)

	if len(errs) > 0 {
		return fmt.Errorf("example files: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (e *ExampleDir) files() ([]string, error) {
	entries, err := os.ReadDir(e.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read example dir: %w", err)
	}
	var paths []string
	for _, ent := range entries {
		if ent.IsDir() || !isExampleFile(ent.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(e.dir, ent.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isExampleFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func readExampleFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f exampleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs := make([]Document, 0, len(f.Examples))
	for i, ex := range f.Examples {
		if strings.TrimSpace(ex.Prompt) == "" {
			continue
		}
		if ex.ID == "" {
			ex.ID = fmt.Sprintf("%s-%d", base, i+1)
		}
		if ex.Title == "" {
			ex.Title = ex.ID
		}
		docs = append(docs, ex.Document())
	}
	return docs, nil
}

// Start loads the examples and begins watching the directory. It returns
// immediately; call Stop to release the watcher.
func (e *ExampleDir) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if err := e.Load(); err != nil {
		logging.RetrievalWarn("initial example load: %v", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(e.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", e.dir, err)
	}

	e.mu.Lock()
	e.watcher = w
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	go e.run(ctx)
	return nil
}

// Stop ends watching and waits for the watch loop to exit.
func (e *ExampleDir) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stopCh, doneCh, w := e.stopCh, e.doneCh, e.watcher
	e.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := w.Close(); err != nil {
		logging.RetrievalWarn("close example watcher: %v", err)
	}
}

// run batches bursts of file events into one reload per tick.
func (e *ExampleDir) run(ctx context.Context) {
	defer close(e.doneCh)

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case ev, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if !isExampleFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logging.RetrievalDebug("example file event %s on %s", ev.Op, ev.Name)
			e.mu.Lock()
			e.dirty = true
			e.mu.Unlock()
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			logging.RetrievalWarn("example watcher: %v", err)
		case <-tick.C:
			e.mu.Lock()
			dirty := e.dirty
			e.dirty = false
			e.mu.Unlock()
			if dirty {
				if err := e.Load(); err != nil {
					logging.RetrievalWarn("reload examples: %v", err)
				}
			}
		}
	}
}

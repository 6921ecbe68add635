package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/docup/pkg/models"
	"gopkg.in/yaml.v3"
)

// PageStore maps documentation names to knowledge-base page IDs. It is read
// throughout a run and mutated only by explicit registration.
type PageStore interface {
	// ResolvePageID looks name up, exactly first and then ignoring case.
	ResolvePageID(name string) (string, bool)
	RegisterPageID(name, pageID string) error
	RemovePage(name string) error
	List() []models.PageEntry

	// Seed adds entries that are not already registered without persisting
	// them. Used for pages declared in .docup.yaml.
	Seed(pages map[string]string)

	Load() error
	Save() error
}

// pageFile is the on-disk layout of pages.yaml.
type pageFile struct {
	Version string             `yaml:"version"`
	Pages   []models.PageEntry `yaml:"pages"`
}

// fileStamp identifies one version of pages.yaml on disk.
type fileStamp struct {
	modTime time.Time
	size    int64
	exists  bool
}

func (a fileStamp) equal(b fileStamp) bool {
	return a.exists == b.exists && a.size == b.size && a.modTime.Equal(b.modTime)
}

// filePageStore keeps pages.yaml as the source of truth for registered pages.
// Another docup process (the CLI next to a running MCP server) may change
// the file at any time, so mutations re-read it under the file lock and
// reads reload it when its stamp changes.
type filePageStore struct {
	path string
	now  func() time.Time

	mu    sync.RWMutex
	pages map[string]models.PageEntry
	// persisted marks the names read from or written to pages.yaml.
	persisted map[string]bool
	// seeds holds the config-declared pages; they show through wherever the
	// file has no entry of the same name.
	seeds map[string]string
	stamp fileStamp
}

// NewPageStore creates a PageStore backed by a YAML file at path.
func NewPageStore(path string) PageStore {
	return &filePageStore{
		path:      path,
		now:       time.Now,
		pages:     make(map[string]models.PageEntry),
		persisted: make(map[string]bool),
		seeds:     make(map[string]string),
	}
}

// Load reads pages.yaml. A missing file leaves only the seeded pages.
func (s *filePageStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

func (s *filePageStore) statFile() (fileStamp, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileStamp{}, nil
		}
		return fileStamp{}, fmt.Errorf("reading page registry %s: %w", s.path, err)
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size(), exists: true}, nil
}

// reloadLocked replaces the registered entries with the file's contents.
func (s *filePageStore) reloadLocked() error {
	stamp, err := s.statFile()
	if err != nil {
		return err
	}

	var f pageFile
	if stamp.exists {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("reading page registry %s: %w", s.path, err)
			}
			stamp = fileStamp{}
		} else if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parsing page registry %s: %w", s.path, err)
		}
	}

	pages := make(map[string]models.PageEntry, len(s.seeds)+len(f.Pages))
	persisted := make(map[string]bool, len(f.Pages))
	for name, id := range s.seeds {
		pages[name] = models.PageEntry{Name: name, PageID: id}
	}
	for _, p := range f.Pages {
		if p.Name == "" || p.PageID == "" {
			continue
		}
		pages[p.Name] = p
		persisted[p.Name] = true
	}
	s.pages = pages
	s.persisted = persisted
	s.stamp = stamp
	return nil
}

// refresh reloads the registry if pages.yaml changed since it was last read
// or written. A failed reload keeps the current entries.
func (s *filePageStore) refresh() {
	stamp, err := s.statFile()
	if err != nil {
		return
	}
	s.mu.RLock()
	current := s.stamp.equal(stamp)
	s.mu.RUnlock()
	if current {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.reloadLocked()
}

// Save rewrites pages.yaml from its current contents, sorted by name. Every
// mutation already persists itself.
func (s *filePageStore) Save() error {
	return s.update(nil)
}

// update takes the file lock, merges in whatever another process wrote,
// applies change and writes the result back.
func (s *filePageStore) update(change func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating page registry directory: %w", err)
	}

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("locking page registry: %w", err)
	}
	defer func() { _ = unlock() }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadLocked(); err != nil {
		return err
	}
	if change != nil {
		if err := change(); err != nil {
			return err
		}
	}

	f := pageFile{Version: "1.0", Pages: s.persistedLocked()}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshalling page registry: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing page registry %s: %w", s.path, err)
	}
	if stamp, err := s.statFile(); err == nil {
		s.stamp = stamp
	}
	return nil
}

func (s *filePageStore) persistedLocked() []models.PageEntry {
	out := make([]models.PageEntry, 0, len(s.persisted))
	for name := range s.persisted {
		out = append(out, s.pages[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *filePageStore) ResolvePageID(name string) (string, bool) {
	s.refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.pages[name]; ok {
		return p.PageID, true
	}
	// Config keys reach us lowercased, so fall back to a case-insensitive
	// match. Ties go to the smallest name for determinism.
	var match *models.PageEntry
	for n, p := range s.pages {
		if strings.EqualFold(n, name) && (match == nil || n < match.Name) {
			p := p
			match = &p
		}
	}
	if match == nil {
		return "", false
	}
	return match.PageID, true
}

// RegisterPageID records name -> pageID, replacing any previous mapping, and
// persists the registry.
func (s *filePageStore) RegisterPageID(name, pageID string) error {
	if name == "" {
		return fmt.Errorf("page name must not be empty")
	}
	if pageID == "" {
		return fmt.Errorf("page ID for %q must not be empty", name)
	}

	return s.update(func() error {
		s.pages[name] = models.PageEntry{Name: name, PageID: pageID, Registered: s.now().UTC()}
		s.persisted[name] = true
		return nil
	})
}

// RemovePage deletes a page and persists the registry. Removing a seeded
// page hides it for the rest of the process.
func (s *filePageStore) RemovePage(name string) error {
	return s.update(func() error {
		if _, ok := s.pages[name]; !ok {
			return fmt.Errorf("page %q is not registered", name)
		}
		delete(s.pages, name)
		delete(s.persisted, name)
		delete(s.seeds, name)
		return nil
	})
}

// List returns all known pages sorted by name, seeded ones included.
func (s *filePageStore) List() []models.PageEntry {
	s.refresh()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PageEntry, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *filePageStore) Seed(pages map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, id := range pages {
		if name == "" || id == "" {
			continue
		}
		s.seeds[name] = id
		if _, exists := s.pages[name]; exists {
			continue
		}
		s.pages[name] = models.PageEntry{Name: name, PageID: id}
	}
}

// Package prompts loads versioned prompt templates from disk and renders
// them with named variables.
//
// Files live at <dir>/<operation>/<version>.{yaml|yml|json}, each a mapping
// of role (system/user/assistant) to a text/template body. Bodies are parsed
// and their placeholder names collected at load time so that deployment
// mistakes fail on first access rather than mid-request.
package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

// VersionLatest is the fallback version tag tried when a pinned version has
// no file.
const VersionLatest = "latest"

var extensions = []string{".yaml", ".yml", ".json"}

var placeholderPattern = regexp.MustCompile(`\{\{[^}]*?\.([A-Za-z_][A-Za-z0-9_]*)`)

type cacheKey struct {
	operation string
	role      string
	version   string
}

type entry struct {
	tmpl *template.Template
	vars []string
}

// FileStore is a PromptStore backed by a directory of template files.
// Loaded templates are cached for the process lifetime; the cache is safe
// for concurrent population (a miss race causes at worst a redundant read).
type FileStore struct {
	dir string

	mu    sync.RWMutex
	cache map[cacheKey]*entry
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:   dir,
		cache: make(map[cacheKey]*entry),
	}
}

// Get returns the rendered prompt for (operation, role, version).
// Resolution order: exact version file, then "latest", then
// TemplateNotFoundError. A role absent from the file renders empty, matching
// the file format's optional role keys.
func (s *FileStore) Get(operation, role, version string, vars map[string]any) (string, error) {
	key := cacheKey{operation: operation, role: role, version: version}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.load(operation, version)
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		for r, e := range loaded {
			s.cache[cacheKey{operation: operation, role: r, version: version}] = e
		}
		if _, present := loaded[role]; !present {
			s.cache[key] = nil
		}
		cached = s.cache[key]
		s.mu.Unlock()
	}

	if cached == nil {
		return "", nil
	}
	return render(operation, cached, vars)
}

// load reads and parses the prompt file for (operation, version), falling
// back to "latest" when a pinned version is missing.
func (s *FileStore) load(operation, version string) (map[string]*entry, error) {
	for _, ext := range extensions {
		path := filepath.Join(s.dir, operation, version+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var roles map[string]string
		if ext == ".json" {
			err = json.Unmarshal(data, &roles)
		} else {
			err = yaml.Unmarshal(data, &roles)
		}
		if err != nil {
			return nil, fmt.Errorf("parse prompt file %s: %w", path, err)
		}
		return compile(operation, version, roles)
	}

	if version != VersionLatest {
		return s.load(operation, VersionLatest)
	}
	return nil, &domain.TemplateNotFoundError{Operation: operation, Version: version}
}

func compile(operation, version string, roles map[string]string) (map[string]*entry, error) {
	compiled := make(map[string]*entry, len(roles))
	for role, body := range roles {
		tmpl, err := template.New(operation + "/" + role).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %s/%s@%s: %w", operation, role, version, err)
		}
		compiled[role] = &entry{tmpl: tmpl, vars: placeholderNames(body)}
	}
	return compiled, nil
}

func render(operation string, e *entry, vars map[string]any) (string, error) {
	for _, name := range e.vars {
		if _, ok := vars[name]; !ok {
			return "", &domain.MissingVariableError{Operation: operation, Variable: name}
		}
	}
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", operation, err)
	}
	return buf.String(), nil
}

func placeholderNames(body string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		name := match[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// ListOperations returns the operation directories under the store root.
func (s *FileStore) ListOperations() ([]string, error) {
	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ops []string
	for _, d := range dirs {
		if d.IsDir() {
			ops = append(ops, d.Name())
		}
	}
	sort.Strings(ops)
	return ops, nil
}

// ListVersions returns the version tags available for an operation, newest
// first.
func (s *FileStore) ListVersions(operation string) ([]string, error) {
	files, err := os.ReadDir(filepath.Join(s.dir, operation))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var versions []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := filepath.Ext(f.Name())
		for _, known := range extensions {
			if ext == known {
				versions = append(versions, f.Name()[:len(f.Name())-len(ext)])
				break
			}
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// ClearCache drops every cached template. Used for test isolation.
func (s *FileStore) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[cacheKey]*entry)
	s.mu.Unlock()
}

var _ ports.PromptStore = (*FileStore)(nil)

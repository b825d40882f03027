// Package projectreg manages the per-user registry of known CQS
// projects (spec §6's `project` command: register/remove/list),
// persisted to `~/.config/cqs/projects.toml` alongside config.toml.
package projectreg

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/cqs-dev/cqs/internal/config"
	"github.com/cqs-dev/cqs/internal/cqserrors"
)

// Project is one registered project.
type Project struct {
	ID           string    `toml:"id"`
	Name         string    `toml:"name"`
	Path         string    `toml:"path"`
	RegisteredAt time.Time `toml:"registered_at"`
}

type registryFile struct {
	Project []Project `toml:"project"`
}

// Registry is a thread-safe, disk-backed set of registered projects.
type Registry struct {
	path string

	mu     sync.RWMutex
	byID   map[string]Project
	byPath map[string]string // canonical path -> id
}

// Open loads the registry from the default per-user location
// (~/.config/cqs/projects.toml), creating an empty one in memory if the
// file doesn't exist yet. Nothing is written to disk until a mutating
// call (Register/Remove) succeeds.
func Open() (*Registry, error) {
	return OpenAt(filepath.Join(config.GetUserConfigDir(), "projects.toml"))
}

// OpenAt loads the registry from an explicit path, used by tests to
// avoid touching the real per-user config directory.
func OpenAt(path string) (*Registry, error) {
	r := &Registry{
		path:   path,
		byID:   make(map[string]Project),
		byPath: make(map[string]string),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cqserrors.Wrap(cqserrors.KindIO, "read projects registry", err)
	}
	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return cqserrors.Wrap(cqserrors.KindParse, "parse projects registry", err)
	}
	for _, p := range file.Project {
		r.byID[p.ID] = p
		r.byPath[p.Path] = p.ID
	}
	return nil
}

// save must be called with r.mu held.
func (r *Registry) save() error {
	projects := make([]Project, 0, len(r.byID))
	for _, p := range r.byID {
		projects = append(projects, p)
	}
	data, err := toml.Marshal(registryFile{Project: projects})
	if err != nil {
		return cqserrors.Wrap(cqserrors.KindParse, "marshal projects registry", err)
	}
	return config.AtomicWriteFile(r.path, data, 0o600)
}

// Register adds a project at path under name, assigning it a new UUID.
// Re-registering an already-registered path returns the existing entry
// unchanged (idempotent, mirroring spec's register/remove/list being
// safe to call repeatedly from scripts).
func (r *Registry) Register(name, path string) (Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, cqserrors.Wrap(cqserrors.KindValidation, "resolve project path", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Project{}, cqserrors.Wrap(cqserrors.KindValidation, "stat project path", err)
	}
	if !info.IsDir() {
		return Project{}, cqserrors.New(cqserrors.KindValidation, "project path is not a directory").WithDetail("path", abs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byPath[abs]; ok {
		return r.byID[id], nil
	}

	p := Project{
		ID:           "proj:" + uuid.NewString(),
		Name:         name,
		Path:         abs,
		RegisteredAt: time.Now().UTC(),
	}
	r.byID[p.ID] = p
	r.byPath[abs] = p.ID

	if err := r.save(); err != nil {
		delete(r.byID, p.ID)
		delete(r.byPath, abs)
		return Project{}, err
	}
	return p, nil
}

// Remove deletes the project with the given id. A missing id is a
// no-op, matching the registry's other idempotent mutations.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byPath, p.Path)

	if err := r.save(); err != nil {
		r.byID[id] = p
		r.byPath[p.Path] = id
		return err
	}
	return nil
}

// List returns every registered project, ordered by registration time.
func (r *Registry) List() []Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Project, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sortByRegisteredAt(out)
	return out
}

// FindByPath looks up a project by its canonical filesystem path.
func (r *Registry) FindByPath(path string) (Project, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPath[abs]
	if !ok {
		return Project{}, false
	}
	return r.byID[id], true
}

func sortByRegisteredAt(projects []Project) {
	for i := 1; i < len(projects); i++ {
		for j := i; j > 0 && projects[j].RegisteredAt.Before(projects[j-1].RegisteredAt); j-- {
			projects[j], projects[j-1] = projects[j-1], projects[j]
		}
	}
}

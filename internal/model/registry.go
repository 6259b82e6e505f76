package model

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Loader imports one asset file. Implementations live at the image/mesh
// import boundary (see GLTFLoader).
type Loader interface {
	Load(path string) (*Model, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (*Model, error)

func (f LoaderFunc) Load(path string) (*Model, error) { return f(path) }

// Registry owns one Model per distinct asset path and maps scene model ids
// onto them. Models are retained for the whole scene: a reference count of
// zero does not unload anything, Close does.
type Registry struct {
	loader Loader
	byPath map[string]*Model
	byID   map[string]*Model
	log    *zap.Logger
}

func NewRegistry(loader Loader, log *zap.Logger) *Registry {
	return &Registry{
		loader: loader,
		byPath: make(map[string]*Model, 16),
		byID:   make(map[string]*Model, 16),
		log:    log,
	}
}

// LoadModelFromFile returns the model for path, importing it on first use.
func (r *Registry) LoadModelFromFile(path string) (*Model, error) {
	key := filepath.Clean(path)
	if m, ok := r.byPath[key]; ok {
		return m, nil
	}
	m, err := r.loader.Load(key)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", key, err)
	}
	if m.Path == "" {
		m.Path = key
	}
	r.byPath[key] = m
	r.log.Debug("model loaded",
		zap.String("path", key),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("vertices", m.VertexCount()))
	return m, nil
}

// Register loads path and binds it to a scene model id.
func (r *Registry) Register(id, path string) (*Model, error) {
	if _, dup := r.byID[id]; dup {
		return nil, fmt.Errorf("model id %q registered twice", id)
	}
	m, err := r.LoadModelFromFile(path)
	if err != nil {
		return nil, err
	}
	r.byID[id] = m
	return m, nil
}

// Model resolves a scene model id.
func (r *Registry) Model(id string) (*Model, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Count returns the number of distinct assets loaded.
func (r *Registry) Count() int {
	return len(r.byPath)
}

// Close drops every model. Models still referenced by entities are reported;
// the scene must be torn down first.
func (r *Registry) Close() {
	for path, m := range r.byPath {
		if m.References() > 0 {
			r.log.Warn("model released with live references",
				zap.String("path", path), zap.Int("refs", m.References()))
		}
	}
	r.byPath = make(map[string]*Model)
	r.byID = make(map[string]*Model)
}

package depot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"filedepot/internal/storage"
)

// Area is a named storage category. Every area is backed by its own
// directory (or key prefix) and owns the files stored there.
type Area struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultAreas are the categories served when no others are configured.
var DefaultAreas = []Area{
	{Name: "files", Description: "General uploads"},
	{Name: "forms", Description: "Signed forms and signatures"},
	{Name: "avatars", Description: "Profile pictures"},
}

// areaState pairs an area with the lock that serializes name resolution and
// the write that claims the name.
type areaState struct {
	Area
	mu sync.Mutex
}

// Registry resolves area names.
type Registry struct {
	order []*areaState
	index map[string]*areaState
}

// NewRegistry builds a registry from areas. Names must be valid flat
// filenames, must not start with a dot and must be unique.
func NewRegistry(areas []Area) (*Registry, error) {
	reg := &Registry{
		order: make([]*areaState, 0, len(areas)),
		index: make(map[string]*areaState, len(areas)),
	}

	for _, a := range areas {
		if err := storage.ValidateName(a.Name); err != nil {
			return nil, fmt.Errorf("area %q: %w", a.Name, err)
		}
		// Dot names are kept for the depot's own directories, StagingDirName
		// among them.
		if strings.HasPrefix(a.Name, ".") {
			return nil, fmt.Errorf("area %q: %w: names starting with a dot are reserved", a.Name, ErrInvalidName)
		}
		if _, dup := reg.index[a.Name]; dup {
			return nil, fmt.Errorf("area %q registered twice", a.Name)
		}
		st := &areaState{Area: a}
		reg.order = append(reg.order, st)
		reg.index[a.Name] = st
	}

	return reg, nil
}

// Lookup returns the area registered under name.
func (r *Registry) Lookup(name string) (Area, bool) {
	st, ok := r.index[name]
	if !ok {
		return Area{}, false
	}
	return st.Area, true
}

// Areas returns the registered areas in registration order.
func (r *Registry) Areas() []Area {
	areas := make([]Area, 0, len(r.order))
	for _, st := range r.order {
		areas = append(areas, st.Area)
	}
	return areas
}

func (r *Registry) state(name string) (*areaState, error) {
	st, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArea, name)
	}
	return st, nil
}

// Bootstrap makes sure every area exists in engine. It is safe to run on
// every start; existing files are never touched.
func (r *Registry) Bootstrap(ctx context.Context, engine storage.StorageEngine) error {
	for _, st := range r.order {
		if err := engine.EnsureArea(ctx, st.Name); err != nil {
			return fmt.Errorf("bootstrap area %q: %w", st.Name, err)
		}
		slog.Debug("Storage area ready", "area", st.Name)
	}
	return nil
}

// Package section mounts and tears down per-container storefront sections.
// A failing constructor affects only its own container.
package section

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Container is a page region hosting one section instance.
type Container interface {
	ID() string
	Type() string
	// Payload is the pre-parsed JSON embedded in the container, if any.
	Payload() []byte
}

// Instance is a mounted section. Close must detach everything the section
// attached to its container.
type Instance interface {
	Close() error
}

// Selecter is implemented by sections reacting to editor selection.
type Selecter interface {
	OnSelect()
}

// Deselecter is implemented by sections reacting to editor deselection.
type Deselecter interface {
	OnDeselect()
}

// Constructor builds a section for a container.
type Constructor func(ctx context.Context, c Container) (Instance, error)

var (
	ErrUnknownType = errors.New("section: no constructor registered for type")
	ErrNotMounted  = errors.New("section: container not mounted")
)

// Registry maps section types to constructors and tracks live instances by
// container id.
type Registry struct {
	logger *zap.Logger

	mu           sync.Mutex
	constructors map[string]Constructor
	instances    map[string]Instance
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:       logger,
		constructors: make(map[string]Constructor),
		instances:    make(map[string]Instance),
	}
}

// Register binds a constructor to a section type, replacing any previous one.
func (r *Registry) Register(kind string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[kind] = ctor
}

// Load mounts a section into c. A container that is already mounted is
// unloaded first. Constructor panics are recovered and returned as errors.
func (r *Registry) Load(ctx context.Context, c Container) error {
	r.mu.Lock()
	ctor, ok := r.constructors[c.Type()]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type())
	}

	if err := r.Unload(c.ID()); err != nil && !errors.Is(err, ErrNotMounted) {
		r.logger.Warn("section teardown failed", zap.String("container", c.ID()), zap.Error(err))
	}

	inst, err := construct(ctx, ctor, c)
	if err != nil {
		r.logger.Error("section construction failed",
			zap.String("container", c.ID()),
			zap.String("type", c.Type()),
			zap.Error(err))
		return fmt.Errorf("section %s: %w", c.ID(), err)
	}

	r.mu.Lock()
	r.instances[c.ID()] = inst
	r.mu.Unlock()
	r.logger.Debug("section mounted", zap.String("container", c.ID()), zap.String("type", c.Type()))
	return nil
}

// LoadAll mounts every container, continuing past failures. It returns the
// joined construction errors.
func (r *Registry) LoadAll(ctx context.Context, containers []Container) error {
	var errs []error
	for _, c := range containers {
		if err := r.Load(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unload tears down the section mounted in container id.
func (r *Registry) Unload(id string) error {
	r.mu.Lock()
	inst, ok := r.instances[id]
	delete(r.instances, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotMounted
	}
	return inst.Close()
}

// Select forwards an editor selection to the mounted section, if it cares.
func (r *Registry) Select(id string) error {
	inst, err := r.instance(id)
	if err != nil {
		return err
	}
	if s, ok := inst.(Selecter); ok {
		s.OnSelect()
	}
	return nil
}

// Deselect forwards an editor deselection to the mounted section, if it cares.
func (r *Registry) Deselect(id string) error {
	inst, err := r.instance(id)
	if err != nil {
		return err
	}
	if s, ok := inst.(Deselecter); ok {
		s.OnDeselect()
	}
	return nil
}

// Instance returns the section mounted in container id.
func (r *Registry) Instance(id string) (Instance, bool) {
	inst, err := r.instance(id)
	return inst, err == nil
}

// Mounted lists mounted container ids in sorted order.
func (r *Registry) Mounted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close unloads every mounted section.
func (r *Registry) Close() error {
	var errs []error
	for _, id := range r.Mounted() {
		if err := r.Unload(id); err != nil && !errors.Is(err, ErrNotMounted) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) instance(id string) (Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok {
		return nil, ErrNotMounted
	}
	return inst, nil
}

func construct(ctx context.Context, ctor Constructor, c Container) (inst Instance, err error) {
	defer func() {
		if p := recover(); p != nil {
			inst = nil
			err = fmt.Errorf("constructor panic: %v", p)
		}
	}()
	inst, err = ctor(ctx, c)
	if err == nil && inst == nil {
		err = errors.New("constructor returned no instance")
	}
	return inst, err
}

package link

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/samvad-hq/lnk/pkg/logging"
)

// Wrapper is any client object the registry hands out (API dispatcher, database, queue).
type Wrapper any

// Factory validates an entry's options and constructs the wrapper for it.
type Factory interface {
	// Section reports which config section entries of this factory may appear in.
	Section() string
	Validate(e Entry) error
	Build(ctx context.Context, e Entry, log Logger) (Wrapper, error)
}

// BuildFunc constructs a wrapper from decoded options.
type BuildFunc[C any] func(ctx context.Context, name string, opts C, log Logger) (Wrapper, error)

var validate = validator.New(validator.WithRequiredStructEnabled())

type typedFactory[C any] struct {
	section string
	build   BuildFunc[C]
}

// NewFactory returns a Factory that decodes entry params into C and validates
// them with `validate` struct tags before calling build.
func NewFactory[C any](section string, build BuildFunc[C]) Factory {
	return typedFactory[C]{section: section, build: build}
}

func (f typedFactory[C]) Section() string { return f.section }

func (f typedFactory[C]) Validate(e Entry) error {
	_, err := f.decode(e)
	return err
}

func (f typedFactory[C]) Build(ctx context.Context, e Entry, log Logger) (Wrapper, error) {
	opts, err := f.decode(e)
	if err != nil {
		return nil, err
	}
	w, err := f.build(ctx, e.Name, opts, logging.Ensure(log))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", e.Key(), err)
	}
	return w, nil
}

func (f typedFactory[C]) decode(e Entry) (C, error) {
	var opts C
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return opts, fmt.Errorf("%s: create decoder: %w", e.Key(), err)
	}
	if err := dec.Decode(e.Params); err != nil {
		return opts, fmt.Errorf("%s: decode %s options: %w", e.Key(), e.Wrapper, err)
	}
	if err := validate.Struct(opts); err != nil {
		return opts, fmt.Errorf("%s: invalid %s options: %w", e.Key(), e.Wrapper, err)
	}
	return opts, nil
}

// Registry maps wrapper tags (and their aliases) to factories.
type Registry interface {
	Register(tag string, f Factory, aliases ...string)
	FactoryFor(tag string) (Factory, string, error)
	Tags() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Register associates a factory with a tag. Aliases resolve to the same factory.
func (r *registry) Register(tag string, f Factory, aliases ...string) {
	if tag = normalizeTag(tag); tag == "" || f == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = f
	for _, a := range aliases {
		if a = normalizeTag(a); a != "" && a != tag {
			r.aliases[a] = tag
		}
	}
}

// FactoryFor resolves tag (case-insensitive, alias-aware) and returns the
// factory with its canonical tag.
func (r *registry) FactoryFor(tag string) (Factory, string, error) {
	key := normalizeTag(tag)
	if key == "" {
		return nil, "", fmt.Errorf("wrapper tag is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	f, ok := r.factories[key]
	if !ok {
		return nil, "", fmt.Errorf("no wrapper registered for %q", tag)
	}
	return f, key, nil
}

// Tags lists canonical tags in sorted order.
func (r *registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

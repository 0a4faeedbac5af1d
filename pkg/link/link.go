package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/samvad-hq/lnk/pkg/dbs"
	"github.com/samvad-hq/lnk/pkg/logging"
	"github.com/samvad-hq/lnk/pkg/queues"
	"github.com/samvad-hq/lnk/pkg/wrappers"
)

// Link resolves logical names to wrappers, building each one on first use
// and caching it until Close.
type Link struct {
	cfg *Config
	reg Registry
	log Logger

	mu      sync.Mutex
	cache   map[string]Wrapper
	pending map[string]*sync.Mutex
}

// New returns a Link over an already validated config.
func New(cfg *Config, reg Registry, log Logger) *Link {
	return &Link{
		cfg:     cfg,
		reg:     reg,
		log:     logging.Ensure(log),
		cache:   make(map[string]Wrapper),
		pending: make(map[string]*sync.Mutex),
	}
}

// Open loads the connectors file at path against the default registry.
func Open(path string, log Logger) (*Link, error) {
	reg := DefaultRegistry()
	cfg, err := LoadFile(path, reg)
	if err != nil {
		return nil, err
	}
	return New(cfg, reg, log), nil
}

// Config exposes the loaded entries.
func (l *Link) Config() *Config { return l.cfg }

// Get returns the wrapper for section/name, building it on first use.
// Concurrent callers for the same name share a single build.
func (l *Link) Get(ctx context.Context, section, name string) (Wrapper, error) {
	entry, ok := l.cfg.Lookup(section, name)
	if !ok {
		return nil, fmt.Errorf("no %s entry named %q", section, name)
	}
	if !entry.Enabled {
		return nil, fmt.Errorf("%s is disabled", entry.Key())
	}
	key := entry.Key()

	l.mu.Lock()
	if w, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return w, nil
	}
	buildMu, ok := l.pending[key]
	if !ok {
		buildMu = &sync.Mutex{}
		l.pending[key] = buildMu
	}
	l.mu.Unlock()

	buildMu.Lock()
	defer buildMu.Unlock()

	l.mu.Lock()
	if w, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return w, nil
	}
	l.mu.Unlock()

	factory, _, err := l.reg.FactoryFor(entry.Wrapper)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	w, err := factory.Build(ctx, entry, l.log)
	if err != nil {
		l.log.ErrorObj("wrapper build failed", "link_build_error", map[string]any{
			"entry":   key,
			"wrapper": entry.Wrapper,
			"error":   err.Error(),
		})
		return nil, err
	}

	l.mu.Lock()
	l.cache[key] = w
	l.mu.Unlock()

	l.log.InfoObj("wrapper ready", "link_wrapper", map[string]any{
		"entry":   key,
		"wrapper": entry.Wrapper,
	})
	return w, nil
}

// API returns the request dispatcher declared under apis/name.
func (l *Link) API(ctx context.Context, name string) (*wrappers.RequestWrapper, error) {
	w, err := l.Get(ctx, SectionAPIs, name)
	if err != nil {
		return nil, err
	}
	api, ok := w.(*wrappers.RequestWrapper)
	if !ok {
		return nil, fmt.Errorf("apis/%s is a %T, not an API wrapper", name, w)
	}
	return api, nil
}

// DB returns the database wrapper declared under dbs/name.
func (l *Link) DB(ctx context.Context, name string) (dbs.DB, error) {
	w, err := l.Get(ctx, SectionDBs, name)
	if err != nil {
		return nil, err
	}
	db, ok := w.(dbs.DB)
	if !ok {
		return nil, fmt.Errorf("dbs/%s is a %T, not a database wrapper", name, w)
	}
	return db, nil
}

// Queue returns the queue wrapper declared under queues/name.
func (l *Link) Queue(ctx context.Context, name string) (queues.Queue, error) {
	w, err := l.Get(ctx, SectionQueues, name)
	if err != nil {
		return nil, err
	}
	q, ok := w.(queues.Queue)
	if !ok {
		return nil, fmt.Errorf("queues/%s is a %T, not a queue wrapper", name, w)
	}
	return q, nil
}

// Names lists enabled entry names in section.
func (l *Link) Names(section string) []string {
	var out []string
	for _, e := range l.cfg.Enabled() {
		if e.Section == section {
			out = append(out, e.Name)
		}
	}
	return out
}

// Entries lists every enabled entry.
func (l *Link) Entries() []Entry {
	return l.cfg.Enabled()
}

// Close closes every cached wrapper that holds resources and empties the cache.
func (l *Link) Close() error {
	l.mu.Lock()
	cached := l.cache
	l.cache = make(map[string]Wrapper)
	l.pending = make(map[string]*sync.Mutex)
	l.mu.Unlock()

	var errs []error
	for key, w := range cached {
		c, ok := w.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

package config

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mohae/deepcopy"
	"github.com/muir/nflex"
	"github.com/pkg/errors"

	"github.com/devicelab/harness/framework"
)

// DefLoader resolves a configuration name to its definition.  The XML and
// source readers use it to satisfy includes; caching and cycle detection
// are the loader's responsibility, not the parsers'.
type DefLoader interface {
	LoadConfigDef(name string) (*ConfigurationDef, error)
}

// CachingLoader resolves configuration names against (1) a bundled
// filesystem under "config/<name>.<ext>" and (2) the literal filesystem
// path, parses XML or YAML/JSON by extension, caches the result, and fails
// fast on include cycles.  Loaded definitions are handed out as deep copies
// so callers can merge and mutate them without corrupting the cache.
type CachingLoader struct {
	roles   RoleTable
	bundled fs.FS
	logger  framework.Logger

	mu    sync.Mutex
	cache map[string]*ConfigurationDef
}

// LoaderOptArg is a functional argument for NewCachingLoader.
type LoaderOptArg func(*CachingLoader)

// WithBundledConfigs makes names resolvable against an embedded or other
// fs.FS before the real filesystem is tried.
func WithBundledConfigs(fsys fs.FS) LoaderOptArg {
	return func(l *CachingLoader) {
		l.bundled = fsys
	}
}

// WithLoaderLogger directs parse warnings to a logger.
func WithLoaderLogger(logger framework.Logger) LoaderOptArg {
	return func(l *CachingLoader) {
		l.logger = logger
	}
}

func NewCachingLoader(roles RoleTable, opts ...LoaderOptArg) *CachingLoader {
	l := &CachingLoader{
		roles: roles,
		cache: make(map[string]*ConfigurationDef),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var bundledExtensions = []string{".xml", ".yaml", ".yml", ".json"}

// LoadConfigDef resolves, parses, and caches one named configuration.
// Loads are safe to run concurrently: the include chain used for cycle
// detection belongs to a single top-level load, not to the loader.
func (l *CachingLoader) LoadConfigDef(name string) (*ConfigurationDef, error) {
	return (&loadSession{loader: l}).LoadConfigDef(name)
}

// loadSession is the DefLoader the parsers see while resolving includes:
// it carries the chain of names being loaded by one top-level load.
type loadSession struct {
	loader *CachingLoader
	chain  []string
}

func (s *loadSession) LoadConfigDef(name string) (*ConfigurationDef, error) {
	l := s.loader
	l.mu.Lock()
	if def, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return deepcopy.Copy(def).(*ConfigurationDef), nil
	}
	l.mu.Unlock()

	for _, loading := range s.chain {
		if loading == name {
			chain := append(append([]string(nil), s.chain...), name)
			return nil, ConfigurationError(errors.Errorf(
				"circular include: %s", strings.Join(chain, " -> ")))
		}
	}
	s.chain = append(s.chain, name)
	def, err := l.load(name, s)
	s.chain = s.chain[:len(s.chain)-1]
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = def
	l.mu.Unlock()
	return deepcopy.Copy(def).(*ConfigurationDef), nil
}

func (l *CachingLoader) load(name string, includes DefLoader) (*ConfigurationDef, error) {
	if l.bundled != nil {
		for _, ext := range bundledExtensions {
			bundledPath := path.Join("config", name+ext)
			data, err := fs.ReadFile(l.bundled, bundledPath)
			if err != nil {
				continue
			}
			return l.parse(name, bundledPath, data, includes)
		}
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, ConfigurationError(errors.Errorf(
			"configuration %q not found: not bundled and not a readable file", name))
	}
	return l.parse(name, name, data, includes)
}

func (l *CachingLoader) parse(name, filename string, data []byte, includes DefLoader) (*ConfigurationDef, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		source, err := nflex.UnmarshalYAML(data)
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s", filename))
		}
		return ParseConfigSource(l.roles, name, source, includes)
	case ".json":
		source, err := nflex.UnmarshalJSON(data)
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s", filename))
		}
		return ParseConfigSource(l.roles, name, source, includes)
	default:
		var opts []ParseOptArg
		if l.logger != nil {
			opts = append(opts, WithParseLogger(l.logger))
		}
		return ParseConfigXML(l.roles, name, bytes.NewReader(data), includes, opts...)
	}
}

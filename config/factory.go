package config

import (
	"sort"

	"github.com/muir/nject"
	"github.com/pkg/errors"
)

// Factory constructs one fresh instance of a registered class.  It replaces
// instantiate-by-class-name-string: every class a configuration may name
// is registered up front as a constructor closure.
type Factory func() interface{}

// FactoryRegistry maps class names to constructors, populated at startup
// and then read-only while configurations are created.
type FactoryRegistry struct {
	factories map[string]Factory
}

func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{factories: make(map[string]Factory)}
}

// Register adds a class.  Registering the same name twice is a programming
// error.
func (r *FactoryRegistry) Register(className string, factory Factory) error {
	if factory == nil {
		return ProgrammerError(errors.Errorf("nil factory for class %q", className))
	}
	if _, ok := r.factories[className]; ok {
		return ProgrammerError(errors.Errorf("class %q is already registered", className))
	}
	r.factories[className] = factory
	return nil
}

// MustRegister is Register for startup-time tables where a duplicate is a
// bug worth panicking over.
func (r *FactoryRegistry) MustRegister(className string, factory Factory) {
	if err := r.Register(className, factory); err != nil {
		panic(err)
	}
}

func (r *FactoryRegistry) Lookup(className string) (Factory, bool) {
	f, ok := r.factories[className]
	return f, ok
}

// Names returns the registered class names, sorted.
func (r *FactoryRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate is a subset of the Validate provided by
// https://github.com/go-playground/validator, allowing other
// implementations to be provided if desired.
type Validate interface {
	Struct(s interface{}) error
	// StructPartial will only be called with a single Field
	StructPartial(s interface{}, fields ...string) error
}

type createConfig struct {
	validator      Validate
	onCreate       func(*Configuration) error
	deferMandatory bool
}

// CreateOptArg is a functional argument for ConfigurationDef.CreateConfiguration.
type CreateOptArg func(*createConfig) error

// WithValidator runs every instantiated object through v after its options
// are bound.
func WithValidator(v Validate) CreateOptArg {
	return func(c *createConfig) error {
		c.validator = v
		return nil
	}
}

// DeferMandatoryCheck skips mandatory-option validation during
// CreateConfiguration.  Callers that will apply more option sources (the
// command line, injected values) afterwards use this and then call
// Configuration.ValidateMandatoryOptions once all sources are in.
func DeferMandatoryCheck() CreateOptArg {
	return func(c *createConfig) error {
		c.deferMandatory = true
		return nil
	}
}

// OnCreate registers a callback chain invoked with the finished
// Configuration just before CreateConfiguration returns.
func OnCreate(chain ...interface{}) CreateOptArg {
	return func(c *createConfig) error {
		return nject.Sequence("default-error-responder",
			nject.Provide("default-error", func() nject.TerminalError {
				return nil
			})).Append("on-create", chain...).Bind(&c.onCreate, nil)
	}
}

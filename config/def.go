package config

import (
	"fmt"
	"strings"

	"github.com/AlekSi/pointer"
	"github.com/pkg/errors"
)

// OptionDef is one recorded option assignment.  Key is non-nil only for
// map-valued options.
type OptionDef struct {
	Name  string
	Key   *string
	Value string
}

// ConfigurationDef is the declarative record a configuration document (or
// programmatic builder) produces: an ordered set of role → class-name
// bindings plus an ordered list of option assignments.  It is a mutable
// template; converting it into a runnable object graph happens in
// CreateConfiguration.
type ConfigurationDef struct {
	Name        string
	Description string
	Objects     map[string][]string // role name → ordered class names
	RoleOrder   []string            // roles in first-seen order
	Options     []OptionDef
}

func NewConfigurationDef(name string) *ConfigurationDef {
	return &ConfigurationDef{
		Name:    name,
		Objects: make(map[string][]string),
	}
}

// AddObjectDef appends className under typeName and returns the 1-based
// position of the class within that role.  The XML reader uses the returned
// index to build the "class#N" namespace qualifier for options nested
// inside the object's element.
func (d *ConfigurationDef) AddObjectDef(typeName, className string) int {
	if _, ok := d.Objects[typeName]; !ok {
		d.RoleOrder = append(d.RoleOrder, typeName)
	}
	d.Objects[typeName] = append(d.Objects[typeName], className)
	return len(d.Objects[typeName])
}

// AddOptionDef records an option assignment.  Order matters: assignments
// replay in list order, so a later scalar assignment overrides an earlier
// one.
func (d *ConfigurationDef) AddOptionDef(name, value string) {
	d.Options = append(d.Options, OptionDef{Name: name, Value: value})
}

// AddKeyedOptionDef records a map-option assignment.
func (d *ConfigurationDef) AddKeyedOptionDef(name, key, value string) {
	d.Options = append(d.Options, OptionDef{Name: name, Key: pointer.ToString(key), Value: value})
}

// Include merges a fully-loaded definition into this one: the included
// objects and options are appended after those already recorded.  Because
// option application replays in order, the including document's later
// assignments win over the fragment's for scalar options.
func (d *ConfigurationDef) Include(other *ConfigurationDef) {
	for _, typeName := range other.RoleOrder {
		for _, className := range other.Objects[typeName] {
			d.AddObjectDef(typeName, className)
		}
	}
	d.Options = append(d.Options, other.Options...)
}

// CreateConfiguration instantiates every recorded class through the factory
// registry, in order, then applies every recorded option assignment over
// the full object set, validates mandatory options, and runs any validator
// and OnCreate hooks.
func (d *ConfigurationDef) CreateConfiguration(factories *FactoryRegistry, roles RoleTable, opts ...CreateOptArg) (*Configuration, error) {
	var cc createConfig
	for _, opt := range opts {
		if err := opt(&cc); err != nil {
			return nil, err
		}
	}

	cfg := newConfiguration(d.Name, d.Description, roles)
	var qualified []QualifiedObject
	var failures []string
	for _, typeName := range d.RoleOrder {
		classes := d.Objects[typeName]
		role, builtin := roles.Lookup(typeName)
		if builtin && !role.Multi && len(classes) > 1 {
			return nil, ConfigurationError(errors.Errorf(
				"role %q accepts a single object but %d are configured", typeName, len(classes)))
		}
		for i, className := range classes {
			factory, ok := factories.Lookup(className)
			if !ok {
				failures = append(failures, fmt.Sprintf(
					"no class %q registered (role %q)", className, typeName))
				continue
			}
			object := factory()
			if object == nil {
				failures = append(failures, fmt.Sprintf(
					"class %q produced nil (role %q)", className, typeName))
				continue
			}
			if builtin {
				if err := checkRoleType(role, object); err != nil {
					return nil, err
				}
			}
			cfg.addObject(typeName, className, object)
			qualified = append(qualified, QualifiedObject{
				Qualifier: fmt.Sprintf("%s#%d", className, i+1),
				Object:    object,
			})
		}
	}
	if len(failures) > 0 {
		return nil, ConfigurationError(errors.Errorf(
			"could not instantiate configuration %q: %s", d.Name, strings.Join(failures, "; ")))
	}

	setter, err := NewQualifiedOptionSetter(qualified)
	if err != nil {
		return nil, errors.Wrapf(err, "configuration %q", d.Name)
	}
	for _, o := range d.Options {
		if o.Key != nil {
			err = setter.SetKeyedOptionValue(o.Name, pointer.GetString(o.Key), o.Value)
		} else {
			err = setter.SetOptionValue(o.Name, o.Value)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "configuration %q", d.Name)
		}
	}
	cfg.setter = setter
	if !cc.deferMandatory {
		if err := setter.ValidateMandatoryOptions(); err != nil {
			return nil, errors.Wrapf(err, "configuration %q", d.Name)
		}
	}

	if cc.validator != nil {
		for _, qo := range qualified {
			if err := cc.validator.Struct(qo.Object); err != nil {
				return nil, ValidationError(errors.Wrapf(err, "configuration %q", d.Name))
			}
		}
	}
	if cc.onCreate != nil {
		if err := cc.onCreate(cfg); err != nil {
			return nil, errors.Wrapf(err, "configuration %q", d.Name)
		}
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/muir/nflex"
	"github.com/pkg/errors"
)

// ParseConfigSource reads a configuration definition from a YAML or JSON
// document through an nflex source.  The document shape is:
//
//	description: flash and run smoke tests
//	include:
//	  - base-fragment
//	objects:
//	  - type: test
//	    class: stub-test
//	    options:
//	      test-name: smoke
//	options:
//	  - name: test-tag
//	    value: nightly
//	  - name: property
//	    key: ro.build.type
//	    value: userdebug
//
// Sections are processed in a fixed order (includes, then objects, then
// top-level options) so a document's own option assignments override
// anything its includes recorded.
func ParseConfigSource(roles RoleTable, name string, source nflex.Source, loader DefLoader) (*ConfigurationDef, error) {
	def := NewConfigurationDef(name)
	if source.Exists("description") {
		desc, err := source.GetString("description")
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s: description", name))
		}
		def.Description = desc
	}

	if source.Exists("include") {
		n, err := source.Len("include")
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s: include", name))
		}
		for i := 0; i < n; i++ {
			ref, err := source.GetString("include", strconv.Itoa(i))
			if err != nil {
				return nil, ConfigurationError(errors.Wrapf(err, "parse %s: include[%d]", name, i))
			}
			if loader == nil {
				return nil, ConfigurationError(errors.Errorf(
					"parse %s: include %q found but no loader is available", name, ref))
			}
			sub, err := loader.LoadConfigDef(ref)
			if err != nil {
				return nil, errors.Wrapf(err, "parse %s: include %q", name, ref)
			}
			def.Include(sub)
		}
	}

	if source.Exists("objects") {
		n, err := source.Len("objects")
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s: objects", name))
		}
		for i := 0; i < n; i++ {
			if err := parseSourceObject(def, source.Recurse("objects", strconv.Itoa(i)), name, i); err != nil {
				return nil, err
			}
		}
	}

	if source.Exists("options") {
		n, err := source.Len("options")
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s: options", name))
		}
		for i := 0; i < n; i++ {
			rec := source.Recurse("options", strconv.Itoa(i))
			optName, err := stringAt(rec, "name")
			if err != nil {
				return nil, ConfigurationError(errors.Wrapf(err, "parse %s: options[%d]", name, i))
			}
			value, err := stringAt(rec, "value")
			if err != nil {
				return nil, ConfigurationError(errors.Wrapf(err, "parse %s: option %q", name, optName))
			}
			if rec.Exists("key") {
				key, err := stringAt(rec, "key")
				if err != nil {
					return nil, ConfigurationError(errors.Wrapf(err, "parse %s: option %q key", name, optName))
				}
				def.AddKeyedOptionDef(optName, key, value)
			} else {
				def.AddOptionDef(optName, value)
			}
		}
	}
	return def, nil
}

func parseSourceObject(def *ConfigurationDef, rec nflex.Source, name string, i int) error {
	if rec == nil {
		return ConfigurationError(errors.Errorf("parse %s: objects[%d] is not a map", name, i))
	}
	typeName, err := stringAt(rec, "type")
	if err != nil {
		return ConfigurationError(errors.Wrapf(err, "parse %s: objects[%d] type", name, i))
	}
	className, err := stringAt(rec, "class")
	if err != nil {
		return ConfigurationError(errors.Wrapf(err, "parse %s: objects[%d] class", name, i))
	}
	count := def.AddObjectDef(typeName, className)
	qualifier := fmt.Sprintf("%s#%d", className, count)
	if !rec.Exists("options") {
		return nil
	}
	keys, err := rec.Keys("options")
	if err != nil {
		return ConfigurationError(errors.Wrapf(err, "parse %s: objects[%d] options", name, i))
	}
	sort.Strings(keys)
	for _, k := range keys {
		value, err := stringAt(rec, "options", k)
		if err != nil {
			return ConfigurationError(errors.Wrapf(err, "parse %s: option %q on %s", name, k, qualifier))
		}
		def.AddOptionDef(qualifier+":"+k, value)
	}
	return nil
}

// stringAt reads a leaf value as its string form regardless of how the
// document typed it (YAML will happily call "1" an int).
func stringAt(source nflex.Source, keys ...string) (string, error) {
	switch source.Type(keys...) {
	case nflex.String:
		return source.GetString(keys...)
	case nflex.Int:
		i, err := source.GetInt(keys...)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	case nflex.Float:
		f, err := source.GetFloat(keys...)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case nflex.Bool:
		b, err := source.GetBool(keys...)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case nflex.Undefined:
		return "", errors.Errorf("missing required field %q", keys[len(keys)-1])
	default:
		return "", errors.Errorf("field %q is not a scalar", keys[len(keys)-1])
	}
}

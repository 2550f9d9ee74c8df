package config

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/devicelab/harness/framework"
)

// ParseOptArg is a functional argument for ParseConfigXML.
type ParseOptArg func(*xmlParser)

// WithParseLogger directs parse warnings (unrecognized tags) to a logger.
// Without it they are dropped.
func WithParseLogger(logger framework.Logger) ParseOptArg {
	return func(p *xmlParser) {
		p.logger = logger
	}
}

type xmlParser struct {
	roles  RoleTable
	def    *ConfigurationDef
	loader DefLoader
	logger framework.Logger

	sawRoot    bool
	namespace  string // "", "invocation", or "global"; first built-in wins
	currentObj string // "class#N" qualifier while inside an object element
}

// ParseConfigXML reads one configuration document into a ConfigurationDef.
//
// Grammar:
//
//	<configuration description="...">
//	  <option name="N" key="K" value="V" />
//	  <object type="T" class="C"> <option .../> </object>
//	  <build_provider class="C" />          (any built-in role name)
//	  <include name="fragment" />
//	</configuration>
//
// Options nested inside an object element are namespaced to that object as
// "class#N:name".  Includes resolve through the loader; a nil loader makes
// any include an error.  Unrecognized elements are skipped with a warning.
func ParseConfigXML(roles RoleTable, name string, r io.Reader, loader DefLoader, opts ...ParseOptArg) (*ConfigurationDef, error) {
	p := &xmlParser{
		roles:  roles,
		def:    NewConfigurationDef(name),
		loader: loader,
	}
	for _, opt := range opts {
		opt(p)
	}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "parse %s", name))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.startElement(dec, t); err != nil {
				return nil, errors.Wrapf(err, "parse %s", name)
			}
		case xml.EndElement:
			p.endElement(t)
		}
	}
	if !p.sawRoot {
		return nil, ConfigurationError(errors.Errorf(
			"parse %s: no <configuration> root element", name))
	}
	return p.def, nil
}

func (p *xmlParser) startElement(dec *xml.Decoder, se xml.StartElement) error {
	tag := se.Name.Local
	if !p.sawRoot {
		if tag != "configuration" {
			return ConfigurationError(errors.Errorf(
				"root element must be <configuration>, found <%s>", tag))
		}
		p.sawRoot = true
		p.def.Description = attr(se, "description")
		return nil
	}
	switch tag {
	case "configuration":
		return ConfigurationError(errors.New("nested <configuration> element"))
	case "option":
		return p.option(se)
	case "object":
		typeName, err := requiredAttr(se, "type")
		if err != nil {
			return err
		}
		className, err := requiredAttr(se, "class")
		if err != nil {
			return err
		}
		return p.openObject(typeName, className)
	case "include":
		ref, err := requiredAttr(se, "name")
		if err != nil {
			return err
		}
		if p.loader == nil {
			return ConfigurationError(errors.Errorf(
				"<include name=%q> found but no loader is available", ref))
		}
		sub, err := p.loader.LoadConfigDef(ref)
		if err != nil {
			return errors.Wrapf(err, "include %q", ref)
		}
		p.def.Include(sub)
		return nil
	default:
		if role, ok := p.roles.Lookup(tag); ok {
			className, err := requiredAttr(se, "class")
			if err != nil {
				return err
			}
			if err := p.checkNamespace(role); err != nil {
				return err
			}
			return p.openObject(role.Name, className)
		}
		if p.logger != nil {
			p.logger.Warnf("ignoring unrecognized element <%s>", tag)
		}
		// skip the whole subtree so its children are not misread
		return dec.Skip()
	}
}

func (p *xmlParser) endElement(ee xml.EndElement) {
	switch ee.Name.Local {
	case "object":
		p.currentObj = ""
	default:
		if _, ok := p.roles.Lookup(ee.Name.Local); ok {
			p.currentObj = ""
		}
	}
}

// A document may declare built-ins from only one namespace: either the
// per-invocation roles or the host-wide (global) ones, never both.
func (p *xmlParser) checkNamespace(role Role) error {
	ns := "invocation"
	if role.Global {
		ns = "global"
	}
	if p.namespace == "" {
		p.namespace = ns
		return nil
	}
	if p.namespace != ns {
		return ConfigurationError(errors.Errorf(
			"<%s> is a %s object but this document already declares %s objects",
			role.Name, ns, p.namespace))
	}
	return nil
}

func (p *xmlParser) openObject(typeName, className string) error {
	if p.currentObj != "" {
		return ConfigurationError(errors.Errorf(
			"object elements cannot nest (inside %s)", p.currentObj))
	}
	n := p.def.AddObjectDef(typeName, className)
	p.currentObj = fmt.Sprintf("%s#%d", className, n)
	return nil
}

func (p *xmlParser) option(se xml.StartElement) error {
	name, err := requiredAttr(se, "name")
	if err != nil {
		return err
	}
	value, err := requiredAttr(se, "value")
	if err != nil {
		return err
	}
	if p.currentObj != "" {
		name = p.currentObj + ":" + name
	}
	if key, ok := optionalAttr(se, "key"); ok {
		p.def.AddKeyedOptionDef(name, key, value)
	} else {
		p.def.AddOptionDef(name, value)
	}
	return nil
}

func attr(se xml.StartElement, name string) string {
	v, _ := optionalAttr(se, name)
	return v
}

func optionalAttr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func requiredAttr(se xml.StartElement, name string) (string, error) {
	v, ok := optionalAttr(se, name)
	if !ok {
		return "", ConfigurationError(errors.Errorf(
			"<%s> is missing its required %q attribute", se.Name.Local, name))
	}
	return v, nil
}

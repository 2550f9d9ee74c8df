package config

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// QualifiedObject is one binding target plus the namespace qualifier the
// configuration layer assigned to it ("classname#2" style).  The qualifier
// may be empty for objects bound outside of a configuration definition.
type QualifiedObject struct {
	Qualifier string
	Object    interface{}
}

type binding struct {
	field  *optionField
	negate bool
}

// OptionSetter is one binder session over a fixed set of objects.  It
// discovers every option-tagged field on every object (including fields
// contributed by embedded and nested structs), indexes them by long name,
// short name, "no-" negation alias, and qualified forms, and applies string
// values with type conversion and update-rule semantics.
//
// The index is built once at construction and the session is never reused
// across object sets.
type OptionSetter struct {
	index   map[string][]binding
	ordered []*optionField
}

// NewOptionSetter builds a binder session over the given objects, each of
// which must be a non-nil pointer to a struct.  Construction fails fast on
// duplicate option names claimed by different types and on option fields
// whose type has no string conversion.
func NewOptionSetter(objects ...interface{}) (*OptionSetter, error) {
	qs := make([]QualifiedObject, len(objects))
	for i, o := range objects {
		qs[i] = QualifiedObject{Object: o}
	}
	return NewQualifiedOptionSetter(qs)
}

// NewQualifiedOptionSetter is NewOptionSetter for objects that carry
// configuration namespace qualifiers.
func NewQualifiedOptionSetter(objects []QualifiedObject) (*OptionSetter, error) {
	s := &OptionSetter{
		index: make(map[string][]binding),
	}
	for _, qo := range objects {
		fields, err := optionFieldsFromObject(qo.Object, qo.Qualifier)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			if err := s.addField(f); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func (s *OptionSetter) addField(f *optionField) error {
	s.ordered = append(s.ordered, f)
	if err := s.addKey(f.spec.Name, binding{field: f}); err != nil {
		return err
	}
	if f.spec.Short != "" {
		if err := s.addKey(f.spec.Short, binding{field: f}); err != nil {
			return err
		}
	}
	if f.isBool() {
		if err := s.addKey("no-"+f.spec.Name, binding{field: f, negate: true}); err != nil {
			return err
		}
	}
	return nil
}

func (s *OptionSetter) addKey(key string, b binding) error {
	keys := []string{key}
	if b.field.qualifier != "" {
		keys = append(keys, b.field.qualifier+":"+key)
	}
	for _, k := range keys {
		for _, existing := range s.index[k] {
			if !sameDeclaration(existing, b) {
				return ConfigurationError(errors.Errorf(
					"option %q is defined more than once (by %s and %s)",
					k, existing.field.ownerType, b.field.ownerType))
			}
		}
		s.index[k] = append(s.index[k], b)
	}
	return nil
}

// Two bindings for the same key are tolerable only when they are the same
// declaration on different instances of the same type; that is what the
// "class#N:" qualifiers exist to disambiguate.
func sameDeclaration(a, b binding) bool {
	if a.negate != b.negate || a.field.ownerType != b.field.ownerType {
		return false
	}
	if len(a.field.index) != len(b.field.index) {
		return false
	}
	for i := range a.field.index {
		if a.field.index[i] != b.field.index[i] {
			return false
		}
	}
	return true
}

func (s *OptionSetter) lookup(name string) ([]binding, error) {
	bindings, ok := s.index[name]
	if !ok {
		return nil, ConfigurationError(errors.Errorf("unknown option %q", name))
	}
	return bindings, nil
}

// SetOptionValue converts value and applies it to every field bound under
// name.  For map-valued options the value must be in key=value form.
func (s *OptionSetter) SetOptionValue(name, value string) error {
	bindings, err := s.lookup(name)
	if err != nil {
		return err
	}
	for _, b := range bindings {
		if b.field.kind == mapField {
			kv := strings.SplitN(value, "=", 2)
			if len(kv) != 2 {
				return ConfigurationError(errors.Errorf(
					"option %q is a map and requires key=value, got %q", name, value))
			}
			if err := b.field.insert(name, kv[0], kv[1]); err != nil {
				return err
			}
			continue
		}
		if err := b.apply(name, value); err != nil {
			return err
		}
	}
	return nil
}

// SetKeyedOptionValue applies a single key/value pair to a map-valued
// option.
func (s *OptionSetter) SetKeyedOptionValue(name, key, value string) error {
	bindings, err := s.lookup(name)
	if err != nil {
		return err
	}
	for _, b := range bindings {
		if b.field.kind != mapField {
			return ConfigurationError(errors.Errorf(
				"option %q is not a map and does not take a key", name))
		}
		if err := b.field.insert(name, key, value); err != nil {
			return err
		}
	}
	return nil
}

// IsBoolOption reports whether name resolves to a boolean option.  The
// command-line parser uses this to decide bare-flag and negation forms.
func (s *OptionSetter) IsBoolOption(name string) (bool, error) {
	bindings, err := s.lookup(name)
	if err != nil {
		return false, err
	}
	return bindings[0].field.isBool(), nil
}

// TypeOf returns a human-readable type name for the option, for error
// messages.  Unknown options yield "".
func (s *OptionSetter) TypeOf(name string) string {
	bindings, ok := s.index[name]
	if !ok {
		return ""
	}
	return TypeName(bindings[0].field.fieldType)
}

// Describe returns the option specs of the session in declaration order,
// one entry per distinct declaration (multiple instances of the same type
// collapse).
func (s *OptionSetter) Describe() []OptionSpec {
	seen := make(map[string]struct{})
	specs := make([]OptionSpec, 0, len(s.ordered))
	for _, f := range s.ordered {
		key := f.ownerType.String() + "\x00" + f.spec.Name
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		specs = append(specs, f.spec)
	}
	return specs
}

// ValidateMandatoryOptions fails if any mandatory option was never assigned
// during this session.
func (s *OptionSetter) ValidateMandatoryOptions() error {
	var missing []string
	for _, f := range s.ordered {
		if f.spec.Mandatory && !f.wasSet {
			name := f.spec.Name
			if f.qualifier != "" {
				name = f.qualifier + ":" + name
			}
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ConfigurationError(errors.Errorf(
			"mandatory options were never set: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func (b binding) apply(name, value string) error {
	f := b.field
	switch f.kind {
	case sliceField:
		ev := reflect.New(reflectutils.NonPointer(f.fieldType).Elem()).Elem()
		if err := f.setElem(ev, value); err != nil {
			return conversionError(err, name, value, f.fieldType)
		}
		fv := f.value()
		fv.Set(reflect.Append(fv, ev))
		f.wasSet = true
		return nil
	case scalarField:
		text := value
		if f.isBool() {
			text = normalizeBool(text)
			if b.negate {
				parsed, err := strconv.ParseBool(text)
				if err != nil {
					return conversionError(err, name, value, f.fieldType)
				}
				text = strconv.FormatBool(!parsed)
			}
		}
		return f.setScalarValue(name, value, text)
	default:
		return LibraryError(errors.Errorf("internal error: unexpected field kind for %q", name))
	}
}

func (f *optionField) setScalarValue(name, original, text string) error {
	// parse into a scratch value first so a bad value never half-applies
	scratch := reflect.New(f.fieldType).Elem()
	if err := f.setScalar(scratch, text); err != nil {
		return conversionError(err, name, original, f.fieldType)
	}
	target := f.value()
	switch f.spec.UpdateRule {
	case UpdateFirst:
		if f.wasSet {
			return nil
		}
	case UpdateGreatest:
		if f.wasSet && numericValue(scratch) <= numericValue(target) {
			return nil
		}
	case UpdateLeast:
		if f.wasSet && numericValue(scratch) >= numericValue(target) {
			return nil
		}
	}
	target.Set(scratch)
	f.wasSet = true
	return nil
}

func (f *optionField) insert(name, key, value string) error {
	t := reflectutils.NonPointer(f.fieldType)
	kp := reflect.New(t.Key())
	if err := f.setKey(kp.Elem(), key); err != nil {
		return ConfigurationError(errors.Wrapf(err,
			"invalid key %q for option %q: expecting %s", key, name, TypeName(t.Key())))
	}
	ep := reflect.New(t.Elem())
	if err := f.setElem(ep.Elem(), value); err != nil {
		return conversionError(err, name, value, t.Elem())
	}
	fv := f.value()
	if fv.IsNil() {
		fv.Set(reflect.MakeMap(t))
	}
	fv.SetMapIndex(kp.Elem(), ep.Elem())
	f.wasSet = true
	return nil
}

func conversionError(err error, name, value string, t reflect.Type) error {
	return ConfigurationError(errors.Wrapf(err,
		"invalid value %q for option %q: expecting %s", value, name, TypeName(t)))
}

package config

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// UpdateRule controls what happens when an option that already has a value
// receives another one within the same binder session.  Container options
// ignore their rule: they always accumulate.
type UpdateRule int

const (
	UpdateLast     UpdateRule = iota // overwrite (default)
	UpdateFirst                      // keep the first value set
	UpdateGreatest                   // keep the numerically greatest value
	UpdateLeast                      // keep the numerically least value
	UpdateAppend                     // containers only; same as the container default
)

func (u UpdateRule) String() string {
	switch u {
	case UpdateLast:
		return "last"
	case UpdateFirst:
		return "first"
	case UpdateGreatest:
		return "greatest"
	case UpdateLeast:
		return "least"
	case UpdateAppend:
		return "append"
	}
	return "unknown"
}

var updateRules = map[string]UpdateRule{
	"last":     UpdateLast,
	"first":    UpdateFirst,
	"greatest": UpdateGreatest,
	"least":    UpdateLeast,
	"append":   UpdateAppend,
}

// Importance controls whether an option appears in generated help output.
type Importance int

const (
	ImportanceNever   Importance = iota // never shown
	ImportanceIfUnset                   // shown while the option has no value
	ImportanceAlways                    // always shown
)

func (i Importance) String() string {
	switch i {
	case ImportanceNever:
		return "never"
	case ImportanceIfUnset:
		return "if-unset"
	case ImportanceAlways:
		return "always"
	}
	return "unknown"
}

var importances = map[string]Importance{
	"never":    ImportanceNever,
	"if-unset": ImportanceIfUnset,
	"always":   ImportanceAlways,
}

// OptionSpec describes one bindable option as declared by a struct tag.
// Specs are derived once per struct type when a binder session is built and
// are immutable afterwards.
type OptionSpec struct {
	Name        string
	Short       string
	Description string
	Mandatory   bool
	Importance  Importance
	UpdateRule  UpdateRule
}

// Options are declared on struct fields:
//
//	type flashOptions struct {
//		Serial  string        `option:"serial s,mandatory" help:"device serial"`
//		Retries int           `option:"retries,update=greatest"`
//		Wipe    bool          `option:"wipe w" help:"wipe userdata before flashing"`
//		Timeout time.Duration `option:"timeout,importance=always"`
//	}
//
// The first tag parameter is a space-split list of names: a single-rune
// name becomes the short name, anything longer the long name.  Boolean
// options additionally answer to a "no-" prefixed long form.
type optionTag struct {
	Name       []string `pt:"0,split=space"`
	Mandatory  bool     `pt:"mandatory"`
	Update     string   `pt:"update"`
	Importance string   `pt:"importance"`
}

type fieldKind int

const (
	scalarField fieldKind = iota
	sliceField
	mapField
)

// optionField pairs a spec with the field of one concrete object instance.
type optionField struct {
	spec      OptionSpec
	kind      fieldKind
	ownerType reflect.Type  // struct type that declared the field
	owner     reflect.Value // the instance (struct value, addressable)
	index     []int         // field index path within ownerType
	fieldType reflect.Type
	qualifier string // "class#1" style, empty outside definitions
	wasSet    bool

	setScalar setterFunc // scalars
	setElem   setterFunc // slice elements, map values
	setKey    setterFunc // map keys
}

type setterFunc func(reflect.Value, string) error

func (f *optionField) value() reflect.Value {
	return fieldByIndexAlloc(f.owner, f.index)
}

// fieldByIndexAlloc is FieldByIndex that allocates intermediate nil
// pointers instead of panicking on them.
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// optionFieldsFromObject discovers every option-tagged field reachable from
// object, which must be a non-nil pointer to a struct.  Embedded and nested
// structs contribute their own fields; that is how a composed type extends
// the option surface of the types it is built from.
func optionFieldsFromObject(object interface{}, qualifier string) ([]*optionField, error) {
	v := reflect.ValueOf(object)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Type().Elem().Kind() != reflect.Struct {
		return nil, ProgrammerError(errors.Errorf(
			"option target must be a non-nil pointer to a struct, not %T", object))
	}
	ownerType := v.Type().Elem()
	var fields []*optionField
	var walkErr error
	reflectutils.WalkStructElements(v.Type(), func(f reflect.StructField) bool {
		tag := reflectutils.SplitTag(f.Tag).Set().Get("option")
		if tag.Tag == "" {
			return true
		}
		var parsed optionTag
		if err := tag.Fill(&parsed); err != nil {
			walkErr = ProgrammerError(errors.Wrapf(err, "option tag on %s.%s", ownerType, f.Name))
			return false
		}
		spec, err := specFromTag(parsed, f)
		if err != nil {
			walkErr = errors.Wrapf(err, "%s.%s", ownerType, f.Name)
			return false
		}
		field, err := newOptionField(spec, ownerType, v.Elem(), f, qualifier)
		if err != nil {
			walkErr = errors.Wrapf(err, "%s.%s", ownerType, f.Name)
			return false
		}
		fields = append(fields, field)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return fields, nil
}

func specFromTag(parsed optionTag, f reflect.StructField) (OptionSpec, error) {
	spec := OptionSpec{
		Description: f.Tag.Get("help"),
		Mandatory:   parsed.Mandatory,
	}
	for _, n := range parsed.Name {
		switch utf8.RuneCountInString(n) {
		case 0:
			continue
		case 1:
			if spec.Short != "" {
				return spec, ProgrammerError(errors.Errorf(
					"option declares two short names (%q and %q)", spec.Short, n))
			}
			spec.Short = n
		default:
			if spec.Name != "" {
				return spec, ProgrammerError(errors.Errorf(
					"option declares two long names (%q and %q)", spec.Name, n))
			}
			spec.Name = n
		}
	}
	if spec.Name == "" {
		return spec, ProgrammerError(errors.New("option tag is missing a long name"))
	}
	if parsed.Update != "" {
		rule, ok := updateRules[strings.ToLower(parsed.Update)]
		if !ok {
			return spec, ProgrammerError(errors.Errorf(
				"unknown update rule %q for option %q", parsed.Update, spec.Name))
		}
		spec.UpdateRule = rule
	}
	if parsed.Importance != "" {
		imp, ok := importances[strings.ToLower(parsed.Importance)]
		if !ok {
			return spec, ProgrammerError(errors.Errorf(
				"unknown importance %q for option %q", parsed.Importance, spec.Name))
		}
		spec.Importance = imp
	}
	return spec, nil
}

func newOptionField(spec OptionSpec, ownerType reflect.Type, owner reflect.Value, f reflect.StructField, qualifier string) (*optionField, error) {
	field := &optionField{
		spec:      spec,
		ownerType: ownerType,
		owner:     owner,
		index:     f.Index,
		fieldType: f.Type,
		qualifier: qualifier,
	}
	t := reflectutils.NonPointer(f.Type)
	if f.Type.Kind() == reflect.Ptr && (t.Kind() == reflect.Slice || t.Kind() == reflect.Map) {
		return nil, ConfigurationError(errors.Errorf(
			"option %q has unsupported pointer-to-container type %s", spec.Name, f.Type))
	}
	switch t.Kind() {
	case reflect.Slice:
		field.kind = sliceField
		if err := checkScalar(t.Elem(), spec.Name); err != nil {
			return nil, err
		}
		setter, err := reflectutils.MakeStringSetter(t.Elem())
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "option %q", spec.Name))
		}
		field.setElem = setter
	case reflect.Map:
		field.kind = mapField
		if err := checkScalar(t.Key(), spec.Name); err != nil {
			return nil, err
		}
		if err := checkScalar(t.Elem(), spec.Name); err != nil {
			return nil, err
		}
		keySetter, err := reflectutils.MakeStringSetter(t.Key())
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "option %q key", spec.Name))
		}
		elemSetter, err := reflectutils.MakeStringSetter(t.Elem())
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "option %q value", spec.Name))
		}
		field.setKey = keySetter
		field.setElem = elemSetter
	default:
		field.kind = scalarField
		if err := checkScalar(t, spec.Name); err != nil {
			return nil, err
		}
		setter, err := reflectutils.MakeStringSetter(f.Type)
		if err != nil {
			return nil, ConfigurationError(errors.Wrapf(err, "option %q", spec.Name))
		}
		field.setScalar = setter
	}
	switch spec.UpdateRule {
	case UpdateGreatest, UpdateLeast:
		if field.kind != scalarField || !isNumeric(t) {
			return nil, ProgrammerError(errors.Errorf(
				"update=%s requires a numeric option, %q is %s",
				spec.UpdateRule, spec.Name, TypeName(f.Type)))
		}
	}
	return field, nil
}

func (f *optionField) isBool() bool {
	return f.kind == scalarField && reflectutils.NonPointer(f.fieldType).Kind() == reflect.Bool
}

// checkScalar rejects field types we cannot convert a string into: nested
// containers and non-value kinds.
func checkScalar(t reflect.Type, optionName string) error {
	t = reflectutils.NonPointer(t)
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Map, reflect.Array:
		return ConfigurationError(errors.Errorf(
			"option %q has unsupported nested container type %s", optionName, t))
	default:
		return ConfigurationError(errors.Errorf(
			"option %q has unsupported type %s", optionName, t))
	}
}

func isNumeric(t reflect.Type) bool {
	switch reflectutils.NonPointer(t).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

package config

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"github.com/devicelab/harness/framework"
)

type configObject struct {
	ClassName string
	Object    interface{}
}

// Configuration is the runtime object graph: role name → ordered,
// option-populated objects.  One Configuration backs exactly one
// invocation; reuse goes through Clone.
type Configuration struct {
	Name        string
	Description string
	roles       RoleTable
	objects     map[string][]configObject
	order       []string
	setter      *OptionSetter // live binder session; invalidated on replace
}

func newConfiguration(name, description string, roles RoleTable) *Configuration {
	return &Configuration{
		Name:        name,
		Description: description,
		roles:       roles,
		objects:     make(map[string][]configObject),
	}
}

func (c *Configuration) addObject(role, className string, object interface{}) {
	if _, ok := c.objects[role]; !ok {
		c.order = append(c.order, role)
	}
	c.objects[role] = append(c.objects[role], configObject{ClassName: className, Object: object})
}

func checkRoleType(role Role, object interface{}) error {
	if role.Interface == nil {
		return nil
	}
	t := reflect.TypeOf(object)
	var ok bool
	if role.Interface.Kind() == reflect.Interface {
		ok = t.Implements(role.Interface)
	} else {
		ok = t.AssignableTo(role.Interface)
	}
	if !ok {
		return ConfigurationError(errors.Errorf(
			"%T does not satisfy %s required by role %q", object, role.Interface, role.Name))
	}
	return nil
}

// Object returns the single object bound to a role.  Singleton built-in
// roles fail when zero or multiple objects are present; multi-valued roles
// must be read through ObjectList.
func (c *Configuration) Object(role string) (interface{}, error) {
	if r, ok := c.roles.Lookup(role); ok && r.Multi {
		return nil, ProgrammerError(errors.Errorf(
			"role %q is multi-valued, use ObjectList", role))
	}
	objs := c.objects[role]
	switch len(objs) {
	case 0:
		return nil, ConfigurationError(errors.Errorf("no object bound for role %q", role))
	case 1:
		return objs[0].Object, nil
	default:
		return nil, ConfigurationError(errors.Errorf(
			"role %q holds %d objects where one was expected", role, len(objs)))
	}
}

// ObjectList returns the objects bound to a role in declaration order, or
// nil if the role was never set.
func (c *Configuration) ObjectList(role string) []interface{} {
	objs := c.objects[role]
	if objs == nil {
		return nil
	}
	out := make([]interface{}, len(objs))
	for i, o := range objs {
		out[i] = o.Object
	}
	return out
}

// SetObject replaces the contents of a singleton role.
func (c *Configuration) SetObject(role string, object interface{}) error {
	if r, ok := c.roles.Lookup(role); ok {
		if r.Multi {
			return ConfigurationError(errors.Errorf(
				"role %q takes a list, use SetObjectList", role))
		}
		if err := checkRoleType(r, object); err != nil {
			return err
		}
	}
	c.replace(role, []configObject{{ClassName: fmt.Sprintf("%T", object), Object: object}})
	return nil
}

// SetObjectList replaces the contents of a multi-valued role wholesale.
func (c *Configuration) SetObjectList(role string, objects []interface{}) error {
	if r, ok := c.roles.Lookup(role); ok {
		if !r.Multi {
			return ConfigurationError(errors.Errorf(
				"role %q takes a single object, use SetObject", role))
		}
		for _, o := range objects {
			if err := checkRoleType(r, o); err != nil {
				return err
			}
		}
	}
	replacement := make([]configObject, len(objects))
	for i, o := range objects {
		replacement[i] = configObject{ClassName: fmt.Sprintf("%T", o), Object: o}
	}
	c.replace(role, replacement)
	return nil
}

func (c *Configuration) replace(role string, objs []configObject) {
	if _, ok := c.objects[role]; !ok {
		c.order = append(c.order, role)
	}
	c.objects[role] = objs
	c.setter = nil // the object set changed, the old session is stale
}

// qualifiedObjects rebuilds the binder view of the live object set, with
// per-role "class#N" qualifiers matching what CreateConfiguration used.
func (c *Configuration) qualifiedObjects() []QualifiedObject {
	var out []QualifiedObject
	for _, role := range c.order {
		for i, o := range c.objects[role] {
			out = append(out, QualifiedObject{
				Qualifier: fmt.Sprintf("%s#%d", o.ClassName, i+1),
				Object:    o.Object,
			})
		}
	}
	return out
}

// InjectOptionValue applies one option value across the live object set,
// after construction.  The name may carry a "class#N:" qualifier.
func (c *Configuration) InjectOptionValue(name, value string) error {
	setter, err := c.OptionSetter()
	if err != nil {
		return err
	}
	return setter.SetOptionValue(name, value)
}

// InjectKeyedOptionValue is InjectOptionValue for map-valued options.
func (c *Configuration) InjectKeyedOptionValue(name, key, value string) error {
	setter, err := c.OptionSetter()
	if err != nil {
		return err
	}
	return setter.SetKeyedOptionValue(name, key, value)
}

// OptionSetter returns the binder session over the live object set; the
// command-line layer uses it to apply argument vectors to an already
// constructed configuration.  The session carries assignment state from
// construction onward so mandatory-option tracking spans all sources; it
// is rebuilt only when the object set changes.
func (c *Configuration) OptionSetter() (*OptionSetter, error) {
	if c.setter != nil {
		return c.setter, nil
	}
	setter, err := NewQualifiedOptionSetter(c.qualifiedObjects())
	if err != nil {
		return nil, err
	}
	c.setter = setter
	return setter, nil
}

// ValidateMandatoryOptions fails if any mandatory option on any object in
// the graph has not been assigned by some source.
func (c *Configuration) ValidateMandatoryOptions() error {
	setter, err := c.OptionSetter()
	if err != nil {
		return err
	}
	return setter.ValidateMandatoryOptions()
}

// Clone makes a shallow copy: fresh role map and lists, same child
// objects.  A parsed definition can back several invocations this way
// without re-parsing, as long as each invocation takes its own clone.
func (c *Configuration) Clone() *Configuration {
	n := newConfiguration(c.Name, c.Description, c.roles)
	n.order = append([]string(nil), c.order...)
	for role, objs := range c.objects {
		n.objects[role] = append([]configObject(nil), objs...)
	}
	return n
}

// Typed getters for the built-in roles.

func (c *Configuration) BuildProvider() (framework.BuildProvider, error) {
	o, err := c.Object(RoleBuildProvider)
	if err != nil {
		return nil, err
	}
	return o.(framework.BuildProvider), nil
}

func (c *Configuration) DeviceRecovery() (framework.DeviceRecovery, error) {
	o, err := c.Object(RoleDeviceRecovery)
	if err != nil {
		return nil, err
	}
	return o.(framework.DeviceRecovery), nil
}

func (c *Configuration) Logger() (framework.Logger, error) {
	o, err := c.Object(RoleLogger)
	if err != nil {
		return nil, err
	}
	return o.(framework.Logger), nil
}

func (c *Configuration) CommandOptions() (*framework.CommandOptions, error) {
	o, err := c.Object(RoleCommandOptions)
	if err != nil {
		return nil, err
	}
	return o.(*framework.CommandOptions), nil
}

func (c *Configuration) DeviceSelectionOptions() (*framework.DeviceSelectionOptions, error) {
	o, err := c.Object(RoleDeviceOptions)
	if err != nil {
		return nil, err
	}
	return o.(*framework.DeviceSelectionOptions), nil
}

func (c *Configuration) HostOptions() (*framework.HostOptions, error) {
	o, err := c.Object(RoleHostOptions)
	if err != nil {
		return nil, err
	}
	return o.(*framework.HostOptions), nil
}

func (c *Configuration) TargetPreparers() []framework.TargetPreparer {
	objs := c.ObjectList(RoleTargetPreparer)
	out := make([]framework.TargetPreparer, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(framework.TargetPreparer))
	}
	return out
}

func (c *Configuration) Tests() []framework.Test {
	objs := c.ObjectList(RoleTest)
	out := make([]framework.Test, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(framework.Test))
	}
	return out
}

func (c *Configuration) ResultReporters() []framework.ResultReporter {
	objs := c.ObjectList(RoleResultReporter)
	out := make([]framework.ResultReporter, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.(framework.ResultReporter))
	}
	return out
}

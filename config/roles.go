package config

import (
	"reflect"

	"github.com/devicelab/harness/framework"
)

// Role is one named slot in a configuration.  Built-in roles constrain the
// interface their objects must satisfy and whether more than one object may
// fill the slot; user-defined roles are unconstrained and always
// multi-valued.
type Role struct {
	Name      string
	Interface reflect.Type // nil means any type is acceptable
	Multi     bool
	Global    bool // belongs to the host-wide namespace, not per-invocation
}

// RoleTable is the immutable set of built-in roles a parser and
// configuration operate against.  It is constructed once and passed
// explicitly; there is no global registry.
type RoleTable struct {
	roles map[string]Role
	order []string
}

func NewRoleTable(roles ...Role) RoleTable {
	t := RoleTable{roles: make(map[string]Role, len(roles))}
	for _, r := range roles {
		if _, ok := t.roles[r.Name]; ok {
			continue
		}
		t.roles[r.Name] = r
		t.order = append(t.order, r.Name)
	}
	return t
}

// Lookup returns the built-in role for name, if there is one.
func (t RoleTable) Lookup(name string) (Role, bool) {
	r, ok := t.roles[name]
	return r, ok
}

// Names returns the built-in role names in table order.
func (t RoleTable) Names() []string {
	return append([]string(nil), t.order...)
}

// Built-in role names.
const (
	RoleBuildProvider  = "build_provider"
	RoleTargetPreparer = "target_preparer"
	RoleTest           = "test"
	RoleDeviceRecovery = "device_recovery"
	RoleLogger         = "logger"
	RoleResultReporter = "result_reporter"
	RoleCommandOptions = "cmd_options"
	RoleDeviceOptions  = "device_options"
	RoleHostOptions    = "host_options"
	RoleDeviceMonitor  = "device_monitor"
)

func interfaceOf(ptr interface{}) reflect.Type {
	return reflect.TypeOf(ptr).Elem()
}

// DefaultRoleTable returns the standard built-in roles: the per-invocation
// namespace (providers, preparers, tests, recovery, logging, reporting, and
// the two option holders) and the host-wide namespace (host options and
// device monitors).
func DefaultRoleTable() RoleTable {
	return NewRoleTable(
		Role{Name: RoleBuildProvider, Interface: interfaceOf((*framework.BuildProvider)(nil))},
		Role{Name: RoleTargetPreparer, Interface: interfaceOf((*framework.TargetPreparer)(nil)), Multi: true},
		Role{Name: RoleTest, Interface: interfaceOf((*framework.Test)(nil)), Multi: true},
		Role{Name: RoleDeviceRecovery, Interface: interfaceOf((*framework.DeviceRecovery)(nil))},
		Role{Name: RoleLogger, Interface: interfaceOf((*framework.Logger)(nil))},
		Role{Name: RoleResultReporter, Interface: interfaceOf((*framework.ResultReporter)(nil)), Multi: true},
		Role{Name: RoleCommandOptions, Interface: reflect.TypeOf(&framework.CommandOptions{})},
		Role{Name: RoleDeviceOptions, Interface: reflect.TypeOf(&framework.DeviceSelectionOptions{})},
		Role{Name: RoleHostOptions, Interface: reflect.TypeOf(&framework.HostOptions{}), Global: true},
		Role{Name: RoleDeviceMonitor, Multi: true, Global: true},
	)
}

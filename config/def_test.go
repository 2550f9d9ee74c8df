package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab/harness/framework"
)

func testFactories(t *testing.T) *FactoryRegistry {
	t.Helper()
	r := NewFactoryRegistry()
	r.MustRegister("stub-build", func() interface{} { return &framework.StubBuildProvider{} })
	r.MustRegister("stub-test", func() interface{} { return &framework.StubTest{} })
	r.MustRegister("noop-preparer", func() interface{} { return &framework.NoopPreparer{} })
	r.MustRegister("capturing-logger", func() interface{} { return &framework.CapturingLogger{} })
	r.MustRegister("text-reporter", func() interface{} { return &framework.TextResultReporter{} })
	r.MustRegister("cmd-options", func() interface{} { return &framework.CommandOptions{} })
	r.MustRegister("device-options", func() interface{} { return &framework.DeviceSelectionOptions{} })
	return r
}

func TestAddObjectDef(t *testing.T) {
	d := NewConfigurationDef("x")
	assert.Equal(t, 1, d.AddObjectDef("test", "stub-test"))
	assert.Equal(t, 2, d.AddObjectDef("test", "stub-test"))
	assert.Equal(t, 1, d.AddObjectDef("build_provider", "stub-build"))
	assert.Equal(t, []string{"test", "build_provider"}, d.RoleOrder)
	assert.Equal(t, []string{"stub-test", "stub-test"}, d.Objects["test"])
}

func TestInclude(t *testing.T) {
	base := NewConfigurationDef("base")
	base.AddObjectDef("logger", "capturing-logger")
	base.AddOptionDef("test-tag", "base")

	d := NewConfigurationDef("main")
	d.AddObjectDef("test", "stub-test")
	d.Include(base)
	d.AddOptionDef("test-tag", "main")

	assert.Equal(t, []string{"test", "logger"}, d.RoleOrder)
	require.Len(t, d.Options, 2)
	assert.Equal(t, "base", d.Options[0].Value)
	assert.Equal(t, "main", d.Options[1].Value, "the including document's assignment replays later")
}

func TestCreateConfiguration(t *testing.T) {
	d := NewConfigurationDef("demo")
	d.Description = "demo config"
	d.AddObjectDef(RoleBuildProvider, "stub-build")
	d.AddObjectDef(RoleTest, "stub-test")
	d.AddObjectDef(RoleTest, "stub-test")
	d.AddObjectDef(RoleCommandOptions, "cmd-options")
	d.AddOptionDef("build-id", "12345")
	d.AddOptionDef("test-name", "both")
	d.AddOptionDef("stub-test#2:test-name", "only-second")
	d.AddOptionDef("test-tag", "first")
	d.AddOptionDef("test-tag", "nightly")

	cfg, err := d.CreateConfiguration(testFactories(t), DefaultRoleTable())
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, "demo config", cfg.Description)

	provider, err := cfg.BuildProvider()
	require.NoError(t, err)
	assert.Equal(t, "12345", provider.(*framework.StubBuildProvider).BuildID)

	tests := cfg.Tests()
	require.Len(t, tests, 2)
	assert.Equal(t, "both", tests[0].(*framework.StubTest).Name,
		"plain assignment fans out, qualified replays after and retargets")
	assert.Equal(t, "only-second", tests[1].(*framework.StubTest).Name)

	cmdOpts, err := cfg.CommandOptions()
	require.NoError(t, err)
	assert.Equal(t, "nightly", cmdOpts.TestTag, "later assignment wins")
}

// The same definition creates independent object graphs.
func TestCreateConfigurationTwice(t *testing.T) {
	d := NewConfigurationDef("twice")
	d.AddObjectDef(RoleTest, "stub-test")
	d.AddOptionDef("test-name", "shared")

	factories := testFactories(t)
	roles := DefaultRoleTable()
	a, err := d.CreateConfiguration(factories, roles)
	require.NoError(t, err)
	b, err := d.CreateConfiguration(factories, roles)
	require.NoError(t, err)

	require.NoError(t, a.InjectOptionValue("test-name", "changed"))
	assert.Equal(t, "changed", a.Tests()[0].(*framework.StubTest).Name)
	assert.Equal(t, "shared", b.Tests()[0].(*framework.StubTest).Name)
}

func TestCreateConfigurationErrors(t *testing.T) {
	factories := testFactories(t)
	roles := DefaultRoleTable()

	t.Run("single cardinality", func(t *testing.T) {
		d := NewConfigurationDef("x")
		d.AddObjectDef(RoleBuildProvider, "stub-build")
		d.AddObjectDef(RoleBuildProvider, "stub-build")
		_, err := d.CreateConfiguration(factories, roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "accepts a single object but 2 are configured")
	})

	t.Run("unknown classes are collected", func(t *testing.T) {
		d := NewConfigurationDef("x")
		d.AddObjectDef(RoleTest, "missing-one")
		d.AddObjectDef(RoleTest, "missing-two")
		_, err := d.CreateConfiguration(factories, roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no class "missing-one" registered`)
		assert.Contains(t, err.Error(), `no class "missing-two" registered`)
	})

	t.Run("wrong type for role", func(t *testing.T) {
		d := NewConfigurationDef("x")
		d.AddObjectDef(RoleBuildProvider, "stub-test")
		_, err := d.CreateConfiguration(factories, roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not satisfy")
	})

	t.Run("unknown option", func(t *testing.T) {
		d := NewConfigurationDef("x")
		d.AddObjectDef(RoleTest, "stub-test")
		d.AddOptionDef("nonesuch", "v")
		_, err := d.CreateConfiguration(factories, roles)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown option "nonesuch"`)
	})
}

type mandatoryPreparer struct {
	framework.NoopPreparer
	Path string `option:"flash-path,mandatory"`
}

func TestMandatoryAtCreate(t *testing.T) {
	factories := testFactories(t)
	factories.MustRegister("flasher", func() interface{} { return &mandatoryPreparer{} })
	roles := DefaultRoleTable()

	d := NewConfigurationDef("flash")
	d.AddObjectDef(RoleTargetPreparer, "flasher")

	_, err := d.CreateConfiguration(factories, roles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mandatory options were never set: flasher#1:flash-path")

	// deferring lets a later source (the command line) satisfy it
	cfg, err := d.CreateConfiguration(factories, roles, DeferMandatoryCheck())
	require.NoError(t, err)
	err = cfg.ValidateMandatoryOptions()
	require.Error(t, err)
	require.NoError(t, cfg.InjectOptionValue("flash-path", "/images/boot.img"))
	assert.NoError(t, cfg.ValidateMandatoryOptions())
}

type rejectingValidator struct{ err error }

func (v rejectingValidator) Struct(interface{}) error { return v.err }

func (v rejectingValidator) StructPartial(interface{}, ...string) error { return v.err }

func TestCreateConfigurationValidator(t *testing.T) {
	d := NewConfigurationDef("x")
	d.AddObjectDef(RoleTest, "stub-test")

	_, err := d.CreateConfiguration(testFactories(t), DefaultRoleTable(),
		WithValidator(rejectingValidator{err: assert.AnError}))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = d.CreateConfiguration(testFactories(t), DefaultRoleTable(),
		WithValidator(rejectingValidator{}))
	assert.NoError(t, err)
}

func TestOnCreate(t *testing.T) {
	d := NewConfigurationDef("x")
	d.AddObjectDef(RoleTest, "stub-test")

	var got *Configuration
	cfg, err := d.CreateConfiguration(testFactories(t), DefaultRoleTable(),
		OnCreate(func(c *Configuration) {
			got = c
		}))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestFactoryRegistry(t *testing.T) {
	r := NewFactoryRegistry()
	require.NoError(t, r.Register("a", func() interface{} { return 1 }))
	err := r.Register("a", func() interface{} { return 2 })
	require.Error(t, err)
	assert.True(t, IsProgrammerError(err))
	err = r.Register("b", nil)
	require.Error(t, err)
	assert.Panics(t, func() { r.MustRegister("a", func() interface{} { return 3 }) })

	_, ok := r.Lookup("a")
	assert.True(t, ok)
	_, ok = r.Lookup("z")
	assert.False(t, ok)
	r.MustRegister("m", func() interface{} { return nil })
	assert.Equal(t, []string{"a", "m"}, r.Names())
}

package config

import (
	"testing"

	"github.com/muir/nflex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smokeYAML = `
description: smoke run
include:
  - base
objects:
  - type: build_provider
    class: stub-build
    options:
      build-id: 42
      throw-build-error: false
  - type: test
    class: stub-test
options:
  - name: test-tag
    value: nightly
  - name: property
    key: ro.build.type
    value: userdebug
`

func TestParseConfigSourceYAML(t *testing.T) {
	base := NewConfigurationDef("base")
	base.AddObjectDef("logger", "capturing-logger")

	source, err := nflex.UnmarshalYAML([]byte(smokeYAML))
	require.NoError(t, err)
	def, err := ParseConfigSource(DefaultRoleTable(), "smoke", source, fakeLoader{"base": base})
	require.NoError(t, err)

	assert.Equal(t, "smoke run", def.Description)
	assert.Equal(t, []string{"logger", "build_provider", "test"}, def.RoleOrder)

	require.Len(t, def.Options, 4)
	// per-object options are namespaced and sorted by key
	assert.Equal(t, OptionDef{Name: "stub-build#1:build-id", Value: "42"}, def.Options[0],
		"YAML scalars coerce to their string form")
	assert.Equal(t, OptionDef{Name: "stub-build#1:throw-build-error", Value: "false"}, def.Options[1])
	assert.Equal(t, "test-tag", def.Options[2].Name)
	require.NotNil(t, def.Options[3].Key)
	assert.Equal(t, "ro.build.type", *def.Options[3].Key)
}

func TestParseConfigSourceJSON(t *testing.T) {
	doc := `{
		"description": "json run",
		"objects": [{"type": "test", "class": "stub-test"}],
		"options": [{"name": "test-tag", "value": "json"}]
	}`
	source, err := nflex.UnmarshalJSON([]byte(doc))
	require.NoError(t, err)
	def, err := ParseConfigSource(DefaultRoleTable(), "j", source, nil)
	require.NoError(t, err)
	assert.Equal(t, "json run", def.Description)
	assert.Equal(t, []string{"stub-test"}, def.Objects["test"])
	assert.Equal(t, []OptionDef{{Name: "test-tag", Value: "json"}}, def.Options)
}

func TestParseConfigSourceErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		doc   string
		error string
	}{
		{
			name:  "object without a class",
			doc:   "objects:\n  - type: test\n",
			error: "class",
		},
		{
			name:  "option without a name",
			doc:   "options:\n  - value: x\n",
			error: "name",
		},
		{
			name:  "include without a loader",
			doc:   "include:\n  - base\n",
			error: "no loader is available",
		},
		{
			name:  "non-scalar option value",
			doc:   "options:\n  - name: a\n    value: [1, 2]\n",
			error: "not a scalar",
		},
	} {
		t.Log(tc.name)
		source, err := nflex.UnmarshalYAML([]byte(tc.doc))
		require.NoError(t, err)
		_, err = ParseConfigSource(DefaultRoleTable(), "bad", source, nil)
		require.Errorf(t, err, "%s", tc.name)
		assert.Contains(t, err.Error(), tc.error, tc.name)
	}
}

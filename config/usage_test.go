package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usageOpts struct {
	Serial  string `option:"serial s,mandatory" help:"device serial"`
	TestTag string `option:"test-tag,importance=always" help:"tag for results"`
	TmpDir  string `option:"tmp-dir,importance=if-unset"`
	Secret  string `option:"secret"`
	Wipe    bool   `option:"wipe"`
}

func TestWriteUsage(t *testing.T) {
	var o usageOpts
	setter, err := NewOptionSetter(&o)
	require.NoError(t, err)

	var full strings.Builder
	require.NoError(t, setter.WriteUsage(&full, false))
	out := full.String()
	assert.Contains(t, out, "--serial, -s <string>  device serial [mandatory]")
	assert.Contains(t, out, "--test-tag <string>  tag for results")
	assert.Contains(t, out, "--secret <string>")
	assert.Contains(t, out, "--wipe\n", "bools get no value placeholder")
	assert.Contains(t, out, "config.usageOpts:", "options grouped under their owner")
}

func TestWriteUsageImportantOnly(t *testing.T) {
	var o usageOpts
	setter, err := NewOptionSetter(&o)
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, setter.WriteUsage(&buf, true))
	out := buf.String()
	assert.Contains(t, out, "--test-tag", "importance=always is shown")
	assert.Contains(t, out, "--tmp-dir", "importance=if-unset with no value is shown")
	assert.NotContains(t, out, "--serial", "importance defaults to never")
	assert.NotContains(t, out, "--secret")

	// once the if-unset option has a value it disappears
	require.NoError(t, setter.SetOptionValue("tmp-dir", "/tmp/x"))
	buf.Reset()
	require.NoError(t, setter.WriteUsage(&buf, true))
	assert.NotContains(t, buf.String(), "--tmp-dir")
}

func TestWriteUsageQualifiedSections(t *testing.T) {
	setter, err := NewQualifiedOptionSetter([]QualifiedObject{
		{Qualifier: "stub-test#1", Object: &usageOpts{}},
		{Qualifier: "stub-test#2", Object: &usageOpts{}},
	})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, setter.WriteUsage(&buf, false))
	out := buf.String()
	assert.Contains(t, out, "stub-test#1:")
	assert.NotContains(t, out, "stub-test#2:",
		"duplicate declarations of one type collapse to the first instance")
}

func TestPrintUsage(t *testing.T) {
	cfg := demoConfiguration(t)
	cfg.Description = "a demo"
	var buf strings.Builder
	require.NoError(t, cfg.PrintUsage(&buf, false))
	assert.Contains(t, buf.String(), `"demo" configuration: a demo`)
	assert.Contains(t, buf.String(), "--build-id")
}

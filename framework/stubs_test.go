package framework

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubBuildProvider(t *testing.T) {
	p := &StubBuildProvider{BuildID: "42", Branch: "main"}
	build, err := p.GetBuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", build.BuildID)
	assert.Equal(t, "main", build.Branch)
	p.CleanUp(build)

	p.ThrowUp = true
	_, err = p.GetBuild(context.Background())
	assert.Error(t, err)
}

func TestStubTest(t *testing.T) {
	var r TextResultReporter
	var buf strings.Builder
	r.SetOutput(&buf)

	s := &StubTest{Name: "smoke", NumFailures: 2}
	require.NoError(t, s.Run(context.Background(), &r))

	out := buf.String()
	assert.Contains(t, out, "run started: smoke (2 tests)")
	assert.Contains(t, out, "FAILED smoke#0: synthetic failure")
	assert.Contains(t, out, "FAILED smoke#1: synthetic failure")
	assert.Contains(t, out, "run ended after")
}

func TestTextResultReporterQuiet(t *testing.T) {
	r := TextResultReporter{Quiet: true}
	var buf strings.Builder
	r.SetOutput(&buf)

	r.TestRunStarted("x", 1)
	r.TestFailed("x#0", "trace")
	r.TestRunEnded(time.Second)

	out := buf.String()
	assert.NotContains(t, out, "run started")
	assert.NotContains(t, out, "run ended")
	assert.Contains(t, out, "FAILED x#0: trace")
}

func TestMuxReporter(t *testing.T) {
	var a, b TextResultReporter
	var bufA, bufB strings.Builder
	a.SetOutput(&bufA)
	b.SetOutput(&bufB)

	mux := MuxReporter{&a, &b}
	mux.TestRunStarted("x", 1)
	mux.TestFailed("x#0", "trace")
	mux.TestRunEnded(time.Second)

	assert.Equal(t, bufA.String(), bufB.String())
	assert.Contains(t, bufA.String(), "FAILED x#0")
}

func TestWaitDeviceRecoveryCancel(t *testing.T) {
	w := &WaitDeviceRecovery{Timeout: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Recover(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for device")
}

func TestWaitDeviceRecoveryTimeout(t *testing.T) {
	w := &WaitDeviceRecovery{Timeout: time.Millisecond}
	assert.NoError(t, w.Recover(context.Background()))
}

func TestNoopPreparer(t *testing.T) {
	n := &NoopPreparer{}
	assert.NoError(t, n.SetUp(context.Background(), &BuildInfo{}))
}

// Package framework defines the contracts between the configuration
// subsystem and the objects it instantiates: build providers, target
// preparers, tests, recovery, loggers, and result reporters.  The
// configuration layer only constructs and populates these objects; what
// they do with a device afterwards is not this package's concern.
package framework

import (
	"context"
	"time"
)

// BuildInfo describes one build under test.
type BuildInfo struct {
	BuildID    string
	Branch     string
	Flavor     string
	Attributes map[string]string
}

// BuildProvider locates the build that an invocation should run against.
type BuildProvider interface {
	// GetBuild returns the build to test, or nil if no build is available.
	GetBuild(ctx context.Context) (*BuildInfo, error)
	// CleanUp releases any resources associated with the build.
	CleanUp(build *BuildInfo)
}

// TargetPreparer puts a device into the state a test expects before the
// test runs.
type TargetPreparer interface {
	SetUp(ctx context.Context, build *BuildInfo) error
}

// Test is one runnable unit of testing.
type Test interface {
	Run(ctx context.Context, reporter ResultReporter) error
}

// DeviceRecovery attempts to bring an unresponsive device back.
type DeviceRecovery interface {
	Recover(ctx context.Context) error
}

// ResultReporter receives test lifecycle events.
type ResultReporter interface {
	TestRunStarted(name string, testCount int)
	TestFailed(name string, trace string)
	TestRunEnded(elapsed time.Duration)
}

// MuxReporter fans each lifecycle event out to every underlying reporter.
// An invocation configured with several result reporters runs its tests
// once and lets the mux keep the reporters in step.
type MuxReporter []ResultReporter

func (m MuxReporter) TestRunStarted(name string, testCount int) {
	for _, r := range m {
		r.TestRunStarted(name, testCount)
	}
}

func (m MuxReporter) TestFailed(name string, trace string) {
	for _, r := range m {
		r.TestFailed(name, trace)
	}
}

func (m MuxReporter) TestRunEnded(elapsed time.Duration) {
	for _, r := range m {
		r.TestRunEnded(elapsed)
	}
}

// Logger is the leveled log output role.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

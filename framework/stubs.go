package framework

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// StubBuildProvider returns a canned BuildInfo.  It exists so that
// configurations can be exercised without any real build source.
type StubBuildProvider struct {
	BuildID string `option:"build-id" help:"build id to report"`
	Branch  string `option:"branch" help:"branch to report"`
	Flavor  string `option:"build-flavor" help:"build flavor to report"`
	ThrowUp bool   `option:"throw-build-error" help:"fail instead of returning a build"`
}

func (s *StubBuildProvider) GetBuild(ctx context.Context) (*BuildInfo, error) {
	if s.ThrowUp {
		return nil, errors.New("stub build provider was asked to fail")
	}
	return &BuildInfo{
		BuildID: s.BuildID,
		Branch:  s.Branch,
		Flavor:  s.Flavor,
	}, nil
}

func (s *StubBuildProvider) CleanUp(build *BuildInfo) {}

// NoopPreparer is a target preparer that does nothing.
type NoopPreparer struct {
	Disable bool `option:"disable" help:"skip this preparer entirely"`
}

func (n *NoopPreparer) SetUp(ctx context.Context, build *BuildInfo) error { return nil }

// StubTest reports a fixed number of synthetic failures.
type StubTest struct {
	Name        string `option:"test-name" help:"name reported for the synthetic run"`
	NumFailures int    `option:"num-failures" help:"how many synthetic failures to report"`
}

func (s *StubTest) Run(ctx context.Context, reporter ResultReporter) error {
	name := s.Name
	if name == "" {
		name = "stub"
	}
	start := time.Now()
	reporter.TestRunStarted(name, s.NumFailures)
	for i := 0; i < s.NumFailures; i++ {
		reporter.TestFailed(fmt.Sprintf("%s#%d", name, i), "synthetic failure")
	}
	reporter.TestRunEnded(time.Since(start))
	return nil
}

// WaitDeviceRecovery "recovers" a device by waiting for it to come back on
// its own, up to a timeout.
type WaitDeviceRecovery struct {
	Timeout time.Duration `option:"online-wait-time" help:"how long to wait for the device to return"`
}

func (w *WaitDeviceRecovery) Recover(ctx context.Context) error {
	timeout := w.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for device")
	case <-time.After(timeout):
		return nil
	}
}

// TextResultReporter writes test results as plain text.
type TextResultReporter struct {
	Quiet bool `option:"quiet q" help:"only report failures"`

	mu  sync.Mutex
	out io.Writer
}

func (r *TextResultReporter) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = w
}

func (r *TextResultReporter) writer() io.Writer {
	if r.out == nil {
		return os.Stdout
	}
	return r.out
}

func (r *TextResultReporter) TestRunStarted(name string, testCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Quiet {
		fmt.Fprintf(r.writer(), "run started: %s (%d tests)\n", name, testCount)
	}
}

func (r *TextResultReporter) TestFailed(name string, trace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.writer(), "FAILED %s: %s\n", name, trace)
}

func (r *TextResultReporter) TestRunEnded(elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.Quiet {
		fmt.Fprintf(r.writer(), "run ended after %s\n", elapsed)
	}
}

// Package harness wires the configuration subsystem to the framework's
// standard implementations: the default factory registrations, the bundled
// configuration fragments, and a convenience entry point that goes from a
// configuration name plus an argument vector to a runnable object graph.
package harness

import (
	"context"
	"embed"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/devicelab/harness/config"
	"github.com/devicelab/harness/framework"
)

//go:embed bundled/config
var bundled embed.FS

// BundledConfigs exposes the configuration fragments shipped with the
// harness ("empty", "stub", "base-reporting", ...).
func BundledConfigs() fs.FS {
	sub, err := fs.Sub(bundled, "bundled")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	return sub
}

// DefaultFactories registers the standard implementation classes.
func DefaultFactories() *config.FactoryRegistry {
	r := config.NewFactoryRegistry()
	r.MustRegister("stub-build", func() interface{} { return &framework.StubBuildProvider{} })
	r.MustRegister("noop-preparer", func() interface{} { return &framework.NoopPreparer{} })
	r.MustRegister("stub-test", func() interface{} { return &framework.StubTest{} })
	r.MustRegister("wait-recovery", func() interface{} { return &framework.WaitDeviceRecovery{} })
	r.MustRegister("console-logger", func() interface{} { return &framework.ConsoleLogger{} })
	r.MustRegister("capturing-logger", func() interface{} { return &framework.CapturingLogger{} })
	r.MustRegister("text-reporter", func() interface{} { return &framework.TextResultReporter{} })
	r.MustRegister("cmd-options", func() interface{} { return &framework.CommandOptions{} })
	r.MustRegister("device-options", func() interface{} { return &framework.DeviceSelectionOptions{} })
	r.MustRegister("host-options", func() interface{} { return &framework.HostOptions{} })
	return r
}

// NewLoader returns a caching loader over the default role table and the
// bundled configurations.
func NewLoader(opts ...config.LoaderOptArg) *config.CachingLoader {
	opts = append([]config.LoaderOptArg{config.WithBundledConfigs(BundledConfigs())}, opts...)
	return config.NewCachingLoader(config.DefaultRoleTable(), opts...)
}

// LoadConfiguration resolves a named configuration, builds its object
// graph, and applies the remaining command-line arguments over it.  The
// returned strings are the leftover positional arguments.
func LoadConfiguration(name string, args []string) (*config.Configuration, []string, error) {
	loader := NewLoader()
	def, err := loader.LoadConfigDef(name)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := def.CreateConfiguration(DefaultFactories(), config.DefaultRoleTable(),
		config.WithValidator(validator.New()),
		config.DeferMandatoryCheck())
	if err != nil {
		return nil, nil, err
	}
	setter, err := cfg.OptionSetter()
	if err != nil {
		return nil, nil, err
	}
	leftover, err := config.NewArgsParser(setter).Parse(args)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "arguments for configuration %q", name)
	}
	if err := cfg.ValidateMandatoryOptions(); err != nil {
		return nil, nil, errors.Wrapf(err, "configuration %q", name)
	}
	return cfg, leftover, nil
}

// RunInvocation walks the standard lifecycle: fetch a build, run the
// target preparers, then run each test against the configured reporters.
func RunInvocation(ctx context.Context, cfg *config.Configuration, logger framework.Logger) error {
	provider, err := cfg.BuildProvider()
	if err != nil {
		return err
	}
	build, err := provider.GetBuild(ctx)
	if err != nil {
		return err
	}
	if build == nil {
		logger.Warnf("no build available, nothing to do")
		return nil
	}
	defer provider.CleanUp(build)
	logger.Infof("fetched build %s (branch %s)", build.BuildID, build.Branch)

	for _, prep := range cfg.TargetPreparers() {
		if err := prep.SetUp(ctx, build); err != nil {
			return err
		}
	}

	reporter := framework.MuxReporter(cfg.ResultReporters())
	for _, test := range cfg.Tests() {
		if err := test.Run(ctx, reporter); err != nil {
			return err
		}
	}
	logger.Infof("invocation complete")
	return nil
}

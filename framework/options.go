package framework

import (
	"time"
)

// CommandOptions is the option holder for invocation-level behavior.  It
// carries no logic of its own: the configuration layer binds values into
// it and the scheduler reads them back out.
type CommandOptions struct {
	Loop         bool          `option:"loop" help:"keep repeating the command until it is cancelled"`
	MinLoopTime  time.Duration `option:"min-loop-time" help:"minimum time between repeats when looping"`
	ShardCount   int           `option:"shard-count,update=greatest" help:"split the invocation into this many shards"`
	ShardIndex   int           `option:"shard-index" help:"which shard to run (0-based)"`
	TestTag      string        `option:"test-tag,importance=always" help:"tag recorded with the invocation's results"`
	DryRun       bool          `option:"dry-run" help:"resolve the configuration but do not run anything"`
	InvocationTO time.Duration `option:"invocation-timeout" help:"hard cap on total invocation time"`
}

// DeviceSelectionOptions is the option holder describing which devices an
// invocation may claim.
type DeviceSelectionOptions struct {
	Serials        []string          `option:"serial s" help:"run only on a device with this serial (repeatable)"`
	ExcludeSerials []string          `option:"exclude-serial" help:"never run on a device with this serial (repeatable)"`
	ProductTypes   []string          `option:"product-type" help:"run only on devices of this product type (repeatable)"`
	Properties     map[string]string `option:"property" help:"device property that must match, as key/value"`
	EmulatorOnly   bool              `option:"emulator e" help:"match only emulators"`
	MinBattery     int               `option:"min-battery,update=greatest" help:"minimum battery percentage required"`
}

// HostOptions is the option holder for host-wide (global) settings.
type HostOptions struct {
	TmpDir         string        `option:"tmp-dir" help:"directory for scratch files"`
	MaxConcurrency int           `option:"max-concurrency,update=least" help:"cap on simultaneous invocations"`
	SyncTimeout    time.Duration `option:"sync-timeout" help:"timeout for host-level sync operations"`
}

/*
Package config turns declarative configuration (XML or YAML documents plus
command-line arguments) into populated object graphs for test invocations.

A configuration document names roles ("test", "build_provider", ...) and the
classes that fill them, plus option assignments:

	<configuration description="smoke">
	  <build_provider class="stub-build" />
	  <test class="stub-test">
	    <option name="test-name" value="smoke" />
	  </test>
	  <include name="base-reporting" />
	</configuration>

Parsing yields a ConfigurationDef, a mutable template.  Creating a
Configuration from it instantiates every class through a FactoryRegistry
(class names map to constructor closures, registered at startup) and binds
every recorded option over the full object set.

Objects expose options with struct tags:

	type flasher struct {
		Serial  string `option:"serial s,mandatory" help:"device serial"`
		Wipe    bool   `option:"wipe"`
		Retries int    `option:"retries,update=greatest"`
	}

OptionSetter is one binder session over a fixed object set: it indexes every
option by long name, short name, and boolean "no-" alias, rejects name
collisions between types up front, and converts string values per field
type.  ArgsParser applies a command-line vector through a session using
POSIX-ish grammar (--name=value, --no-flag, grouped short options, "--"
terminator) and returns leftover positional arguments.

Option application is last-wins: replaying a definition's assignments in
order means later entries, including everything merged in after an
<include>, override earlier scalar values.  Options can opt out with
update=first/greatest/least; container options always accumulate.
*/
package config

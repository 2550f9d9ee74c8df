package config

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ArgsParser applies a command-line argument vector to a binder session.
//
// Grammar:
//
//	--name=value        long option with inline value
//	--name value        long option, value from the next token
//	--flag, --no-flag   boolean long options
//	-ab                 grouped short booleans
//	-fvalue, -f value   short option with value; the rest of a group after
//	                    a non-boolean is consumed verbatim (-abfout.txt)
//	--                  ends option parsing
//
// The first token that matches no rule starts the positional tail; from
// there on every token is kept verbatim, dashes and all.
type ArgsParser struct {
	setter *OptionSetter
}

func NewArgsParser(setter *OptionSetter) *ArgsParser {
	return &ArgsParser{setter: setter}
}

// Parse walks the argument vector left to right, applying option values
// through the binder, and returns the leftover positional arguments in
// their original order.
func (p *ArgsParser) Parse(args []string) ([]string, error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append([]string{}, args[i+1:]...), nil
		}
		switch {
		case strings.HasPrefix(arg, "--"):
			consumed, err := p.parseLong(args, i)
			if err != nil {
				return nil, err
			}
			i += consumed
		case strings.HasPrefix(arg, "-") && arg != "-":
			consumed, err := p.parseShortGroup(args, i)
			if err != nil {
				return nil, err
			}
			i += consumed
		default:
			return append([]string{}, args[i:]...), nil
		}
	}
	return nil, nil
}

// parseLong handles one --token; returns how many extra tokens it consumed.
func (p *ArgsParser) parseLong(args []string, i int) (int, error) {
	name := args[i][2:]
	if eq := strings.IndexByte(name, '='); eq != -1 {
		return 0, p.setter.SetOptionValue(name[:eq], name[eq+1:])
	}
	isBool, err := p.setter.IsBoolOption(name)
	if err != nil {
		return 0, err
	}
	if isBool {
		// the binder's no- alias handles negation, so "true" is right
		// for both --flag and --no-flag
		return 0, p.setter.SetOptionValue(name, "true")
	}
	if i+1 >= len(args) {
		return 0, ConfigurationError(errors.Errorf(
			"option --%s requires a %s argument", name, p.setter.TypeOf(name)))
	}
	return 1, p.setter.SetOptionValue(name, args[i+1])
}

// parseShortGroup handles one -token of clustered short options; returns
// how many extra tokens it consumed.
func (p *ArgsParser) parseShortGroup(args []string, i int) (int, error) {
	cluster := args[i][1:]
	for len(cluster) > 0 {
		r, size := utf8.DecodeRuneInString(cluster)
		name := string(r)
		cluster = cluster[size:]
		isBool, err := p.setter.IsBoolOption(name)
		if err != nil {
			return 0, errors.Wrapf(err, "in %s", args[i])
		}
		if isBool {
			if err := p.setter.SetOptionValue(name, "true"); err != nil {
				return 0, err
			}
			continue
		}
		if len(cluster) > 0 {
			// the rest of the group is the value, verbatim
			return 0, p.setter.SetOptionValue(name, cluster)
		}
		if i+1 >= len(args) {
			return 0, ConfigurationError(errors.Errorf(
				"option -%s requires a %s argument", name, p.setter.TypeOf(name)))
		}
		return 1, p.setter.SetOptionValue(name, args[i+1])
	}
	return 0, nil
}

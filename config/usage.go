package config

import (
	"fmt"
	"io"
	"strings"
)

// WriteUsage renders the options of this binder session, one per line:
//
//	  --serial, -s <string>  device serial [mandatory]
//
// With importantOnly set, only options marked importance=always are shown,
// plus importance=if-unset options that still have no value.
// Options marked importance=never never appear in filtered output.
func (s *OptionSetter) WriteUsage(w io.Writer, importantOnly bool) error {
	seen := make(map[string]struct{})
	section := ""
	for _, f := range s.ordered {
		key := f.ownerType.String() + "\x00" + f.spec.Name
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if importantOnly && !f.important() {
			continue
		}
		header := f.qualifier
		if header == "" {
			header = f.ownerType.String()
		}
		if header != section {
			section = header
			if _, err := fmt.Fprintf(w, "%s:\n", header); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  %s\n", usageLine(f)); err != nil {
			return err
		}
	}
	return nil
}

func (f *optionField) important() bool {
	switch f.spec.Importance {
	case ImportanceAlways:
		return true
	case ImportanceIfUnset:
		return !f.wasSet && f.value().IsZero()
	default:
		return false
	}
}

func usageLine(f *optionField) string {
	var b strings.Builder
	b.WriteString("--")
	b.WriteString(f.spec.Name)
	if f.spec.Short != "" {
		b.WriteString(", -")
		b.WriteString(f.spec.Short)
	}
	if !f.isBool() {
		b.WriteString(" <")
		b.WriteString(TypeName(f.fieldType))
		b.WriteString(">")
	}
	if f.spec.Description != "" {
		b.WriteString("  ")
		b.WriteString(f.spec.Description)
	}
	if f.spec.Mandatory {
		b.WriteString(" [mandatory]")
	}
	return b.String()
}

// PrintUsage writes per-object option help for the live object graph.
func (c *Configuration) PrintUsage(w io.Writer, importantOnly bool) error {
	setter, err := c.OptionSetter()
	if err != nil {
		return err
	}
	if c.Description != "" {
		if _, err := fmt.Fprintf(w, "%q configuration: %s\n", c.Name, c.Description); err != nil {
			return err
		}
	}
	return setter.WriteUsage(w, importantOnly)
}

package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/muir/reflectutils"
)

var durationType = reflect.TypeOf(time.Duration(0))

// TypeName renders a field type the way error messages and help text talk
// about it: "int", "bool", "duration", "list of string", "map of string to
// int".
func TypeName(t reflect.Type) string {
	t = reflectutils.NonPointer(t)
	if t == durationType {
		return "duration"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice:
		return "list of " + TypeName(t.Elem())
	case reflect.Map:
		return fmt.Sprintf("map of %s to %s", TypeName(t.Key()), TypeName(t.Elem()))
	}
	return t.String()
}

// normalizeBool translates the yes/no synonyms the configuration grammar
// accepts into forms strconv understands.
func normalizeBool(value string) string {
	switch strings.ToLower(value) {
	case "yes":
		return "true"
	case "no":
		return "false"
	}
	return value
}

// numericValue flattens any numeric reflect value to a float64 for
// greatest/least comparisons.  Only called on kinds isNumeric accepted.
func numericValue(v reflect.Value) float64 {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return 0
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return 0
}

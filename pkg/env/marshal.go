package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// MarshalEnv renders the env-tagged fields of c (a struct or pointer to one)
// as KEY=value lines. Zero values are written commented out so the file
// still documents every option.
func MarshalEnv(c any) (string, error) {
	v := reflect.Indirect(reflect.ValueOf(c))
	if v.Kind() != reflect.Struct {
		return "", fmt.Errorf("marshal env: expected struct, got %s", v.Kind())
	}
	t := v.Type()

	var sb strings.Builder
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		// "KEY,required,notEmpty" or "KEY"
		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if key == "" {
			continue
		}

		val := v.Field(i)
		if val.IsZero() {
			fmt.Fprintf(&sb, "# %s=\n", key)
			continue
		}

		str, err := formatValue(val, field.Tag.Get("envSeparator"))
		if err != nil {
			return "", fmt.Errorf("marshal env %s: %w", key, err)
		}
		fmt.Fprintf(&sb, "%s=%s\n", key, quote(str))
	}

	return sb.String(), nil
}

func formatValue(v reflect.Value, sep string) (string, error) {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String(), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Slice:
		if sep == "" {
			sep = ","
		}
		items := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, err := formatValue(v.Index(i), sep)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return strings.Join(items, sep), nil
	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

// quote wraps values godotenv would otherwise split or strip.
func quote(s string) string {
	if strings.ContainsAny(s, " #'\"") {
		return strconv.Quote(s)
	}
	return s
}

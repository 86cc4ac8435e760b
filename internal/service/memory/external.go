package memory

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/sandevgo/vitalbot/internal/core"
)

// ComposeWeather joins the present weather parts with commas.
func ComposeWeather(w *core.WeatherRecord) string {
	if w.IsEmpty() {
		return ""
	}

	var parts []string
	if w.Temperature != nil {
		parts = append(parts, fmt.Sprintf("%.0f°C", *w.Temperature))
	}
	if w.Condition != "" {
		parts = append(parts, w.Condition)
	}
	if w.AirQuality != "" {
		parts = append(parts, "air quality "+w.AirQuality)
	}
	return strings.Join(parts, ", ")
}

// isFalsy treats nil, false, zero numbers, blank strings and empty
// collections as absent.
func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case bool:
		return !t
	case string:
		return strings.TrimSpace(t) == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func formatSignal(v any) string {
	switch t := v.(type) {
	case bool:
		return "yes"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []string:
		return strings.Join(t, ", ")
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// buildExternalView renders weather and the generic signals, sorted by name
// and with falsy values skipped.
func buildExternalView(snap core.ExternalContextSnapshot) core.ExternalView {
	view := core.ExternalView{Weather: ComposeWeather(snap.Weather)}

	names := make([]string, 0, len(snap.Signals))
	for name, v := range snap.Signals {
		if isFalsy(v) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		view.Signals = append(view.Signals, core.Signal{
			Name:  name,
			Label: HumanizeKey(name),
			Value: formatSignal(snap.Signals[name]),
		})
	}
	return view
}

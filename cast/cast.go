// Package cast converts configured response data into the values a real
// client would return, as directed by the method's resolved output shape.
package cast

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/modifier"
	"github.com/Paranoid-AF/hollow/shape"
	"github.com/araddon/dateparse"
)

// Cast converts raw into the value described by t. A nil shape leaves raw
// unchanged, and nil values stay nil. Any failure, nested ones included, is
// reported as a *hollow.DataTypeError for the value at this level wrapping
// the underlying cause.
func Cast(t *shape.Shape, raw any) (any, error) {
	value := raw
	if m, ok := raw.(modifier.Modifier); ok {
		resolved, err := m.Resolve()
		if err != nil {
			return nil, &hollow.DataTypeError{Type: t.TypeName(), Value: raw, Err: err}
		}
		value = resolved
	}
	if t == nil || value == nil {
		return value, nil
	}

	out, err := convert(t, value)
	if err != nil {
		return nil, &hollow.DataTypeError{Type: t.Type, Value: raw, Err: err}
	}
	return out, nil
}

func convert(t *shape.Shape, value any) (any, error) {
	switch t.Type {
	case shape.TypeStructure:
		if t.EventStream {
			return castEventStream(t, value)
		}
		return castStructure(t, value)
	case shape.TypeList:
		return castList(t, value)
	case shape.TypeMap:
		return castMap(t, value)
	case shape.TypeInteger, shape.TypeLong:
		return castInteger(value)
	case shape.TypeString:
		return castString(t, value)
	case shape.TypeBlob:
		return castBlob(t, value)
	case shape.TypeTimestamp:
		return castTimestamp(value)
	}
	// Floats, booleans and unknown types pass through.
	return value, nil
}

func castStructure(t *shape.Shape, value any) (map[string]any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", value)
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		member, _ := t.Members.Get(k)
		cast, err := Cast(member, v)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", k, err)
		}
		out[k] = cast
	}
	return out, nil
}

func castEventStream(t *shape.Shape, value any) (*EventStream, error) {
	if s, ok := value.(*EventStream); ok {
		return s, nil
	}

	var events []any
	if fields, ok := value.(map[string]any); ok {
		events = []any{fields}
	} else if list, ok := asList(value); ok {
		events = list
	} else {
		return nil, fmt.Errorf("expected a mapping or a list of mappings, got %T", value)
	}

	event := *t
	event.EventStream = false
	out := make([]any, len(events))
	for i, e := range events {
		cast, err := Cast(&event, e)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out[i] = cast
	}
	return NewEventStream(out), nil
}

func castList(t *shape.Shape, value any) ([]any, error) {
	list, ok := asList(value)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
	out := make([]any, len(list))
	for i, item := range list {
		cast, err := Cast(t.Member, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = cast
	}
	return out, nil
}

func castMap(t *shape.Shape, value any) (map[string]any, error) {
	entries, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", value)
	}
	out := make(map[string]any, len(entries))
	for k, v := range entries {
		cast, err := Cast(t.Value, v)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out[k] = cast
	}
	return out, nil
}

// asList accepts any slice other than a byte slice, so that decoders
// producing typed slices (e.g. TOML arrays of tables) are handled alike.
func asList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	if _, ok := value.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func castInteger(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", value)
}

// floatToInt truncates toward zero.
func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is not representable as an integer", f)
	}
	return int64(f), nil
}

func castString(t *shape.Shape, value any) (any, error) {
	if b, ok := value.(*Body); ok && t.Streaming {
		return b, nil
	}
	s := stringify(value)
	if t.Streaming {
		return NewBody([]byte(s), true), nil
	}
	return s, nil
}

func castBlob(t *shape.Shape, value any) (any, error) {
	if b, ok := value.(*Body); ok && t.Streaming {
		return b, nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case *Body:
		data = v.data
	default:
		data = []byte(stringify(value))
	}
	if t.Streaming {
		return NewBody(data, false), nil
	}
	return data, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case *Body:
		return string(v.data)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(value)
}

// Location names BurntSushi/toml gives to values written without an offset.
var tomlLocalZones = map[string]bool{
	"datetime-local": true,
	"date-local":     true,
	"time-local":     true,
}

func castTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		if tomlLocalZones[v.Location().String()] {
			return time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC), nil
		}
		return v, nil
	case string:
		t, err := dateparse.ParseIn(strings.TrimSpace(v), time.UTC)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	case float32:
		return epoch(float64(v)), nil
	case float64:
		return epoch(v), nil
	}
	if n, err := castInteger(value); err == nil {
		if _, isBool := value.(bool); !isBool {
			return time.Unix(n, 0).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to a timestamp", value)
}

func epoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
}

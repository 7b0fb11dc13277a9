package encode

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"net/url"
	"reflect"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// maxEncodeDepth bounds recursion through cyclic or pathological object
// graphs; past it a value degrades to an unknown envelope.
const maxEncodeDepth = 32

// Enumer is implemented by enumeration types that want their wire value
// encoded instead of their rendered name.
type Enumer interface {
	EnumValue() any
}

// EnumMemberser optionally exposes the full member set so the schema builder
// can derive a collapsed member type.
type EnumMemberser interface {
	EnumMembers() []any
}

// Table is a lightweight tabular attribute value (column names plus rows).
type Table struct {
	Columns []string
	Rows    [][]any
}

// Encode converts v into a JSON-marshalable value. Scalars pass through,
// everything else becomes arrays, string-keyed maps, or tagged envelopes.
// Encoding is total and never returns an error.
func Encode(v any) any {
	return encodeDepth(v, 0)
}

// ToJSON encodes v and marshals the result.
func ToJSON(v any) (string, error) {
	b, err := json.Marshal(Encode(v))
	if err != nil {
		return "", fmt.Errorf("encode: marshal: %w", err)
	}
	return string(b), nil
}

// IsScalar reports whether v needs no encoding or side-channel transport:
// it is natively representable as an OTLP attribute value.
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Dispatch order (fixed): exact type table, error values, enums, registered
// extensions, mappings, structs, sequences, unknown fallback.
func encodeDepth(v any, depth int) any {
	if v == nil {
		return nil
	}
	if depth > maxEncodeDepth {
		// Rendering the value here could itself recurse through a cycle;
		// report only its type.
		return Value{Datatype: TagUnknown, Data: "...", Class: typeName(v)}
	}
	recurse := func(child any) any { return encodeDepth(child, depth+1) }

	// JSON-native scalars pass through.
	switch x := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return x
	}

	// Exact type table. Nearest-match semantics: a named type whose
	// underlying representation lands here via an interface records itself
	// as a subclass (see error handling below).
	switch x := v.(type) {
	case time.Time:
		return Value{Datatype: TagDatetime, Data: x.Format(time.RFC3339Nano)}
	case *time.Time:
		if x == nil {
			return nil
		}
		return recurse(*x)
	case time.Duration:
		return Value{Datatype: TagTimedelta, Data: x.Seconds()}
	case uuid.UUID:
		return Value{Datatype: TagUUID, Data: x.String(), Version: int(x.Version())}
	case *regexp.Regexp:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagRegexp, Data: x.String()}
	case url.URL:
		return Value{Datatype: TagURL, Data: x.String()}
	case *url.URL:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagURL, Data: x.String()}
	case net.IP:
		return Value{Datatype: TagIPAddress, Data: x.String()}
	case netip.Addr:
		return Value{Datatype: TagIPAddress, Data: x.String()}
	case net.IPNet:
		return Value{Datatype: TagIPNetwork, Data: x.String()}
	case *net.IPNet:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagIPNetwork, Data: x.String()}
	case netip.Prefix:
		return Value{Datatype: TagIPNetwork, Data: x.String()}
	case *big.Int:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagDecimal, Data: x.String()}
	case *big.Float:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagDecimal, Data: x.Text('g', -1)}
	case *big.Rat:
		if x == nil {
			return nil
		}
		return Value{Datatype: TagDecimal, Data: x.RatString()}
	case []byte:
		return Value{Datatype: TagBytes, Data: string(x)}
	case Table:
		return encodeTable(x, recurse)
	case *Table:
		if x == nil {
			return nil
		}
		return encodeTable(*x, recurse)
	}

	// Interface rules.
	if err, ok := v.(error); ok {
		return Value{Datatype: TagException, Data: err.Error(), Class: typeName(v)}
	}
	if e, ok := v.(Enumer); ok {
		return Value{Datatype: TagEnum, Data: recurse(e.EnumValue()), Class: typeName(v)}
	}
	if rule, ok := extensionFor(v); ok {
		return rule.Encode(v, recurse)
	}

	return encodeReflect(v, depth)
}

func encodeTable(t Table, recurse func(any) any) any {
	rows := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = recurse(cell)
		}
		rows[i] = cells
	}
	return Value{Datatype: TagDataFrame, Data: map[string]any{
		"columns": t.Columns,
		"rows":    rows,
	}}
}

func encodeReflect(v any, depth int) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	recurse := func(child any) any { return encodeDepth(child, depth+1) }

	switch rv.Kind() {
	// Named scalar types flatten to their underlying plain value.
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()

	case reflect.Map:
		return encodeMap(rv, recurse)

	case reflect.Struct:
		data := make(map[string]any)
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			data[f.Name] = recurse(rv.Field(i).Interface())
		}
		return Value{Datatype: TagStruct, Data: data, Class: rt.Name()}

	case reflect.Slice:
		// A named byte slice is a subclassed bytes value.
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Value{Datatype: TagBytes, Data: string(rv.Bytes()), Class: namedOnly(rv.Type())}
		}
		return encodeSeq(rv, recurse)

	case reflect.Array:
		// Fixed-size sequences keep their identity: the JSON layer would
		// silently coerce them to plain arrays otherwise.
		return Value{Datatype: TagTuple, Data: encodeSeq(rv, recurse), Class: namedOnly(rv.Type())}
	}

	return unknown(v)
}

func encodeMap(rv reflect.Value, recurse func(any) any) any {
	data := make(map[string]any, rv.Len())
	stringKeys := rv.Type().Key().Kind() == reflect.String
	iter := rv.MapRange()
	for iter.Next() {
		var key string
		if stringKeys {
			key = iter.Key().String()
		} else {
			key = fmt.Sprint(iter.Key().Interface())
		}
		data[key] = recurse(iter.Value().Interface())
	}

	// Plain string-keyed unnamed maps are JSON-native objects; anything
	// else needs an envelope to survive the trip.
	if stringKeys && rv.Type().Name() == "" {
		return data
	}
	return Value{Datatype: TagMapping, Data: data, Class: namedOnly(rv.Type())}
}

func encodeSeq(rv reflect.Value, recurse func(any) any) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = recurse(rv.Index(i).Interface())
	}
	return out
}

func unknown(v any) Value {
	return Value{Datatype: TagUnknown, Data: fmt.Sprintf("%v", v), Class: typeName(v)}
}

// typeName returns the bare type name of v's concrete type, dereferencing
// pointers, falling back to the full type string for unnamed types.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func namedOnly(t reflect.Type) string {
	return t.Name()
}

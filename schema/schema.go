package schema

import (
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"net/url"
	"reflect"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/lanternhq/lantern/encode"
)

// Fragment is one attribute's schema descriptor. An empty fragment means the
// plain JSON value is self-describing.
type Fragment = map[string]any

// Extension keywords shared with the collector.
const (
	keyDatatype    = "x-python-datatype"
	keyShape       = "x-shape"
	keyDType       = "x-dtype"
	keyColumns     = "x-columns"
	keyIndices     = "x-indices"
	keyColumnCount = "x-column-count"
	keyRowCount    = "x-row-count"
)

// codeLocationKeys are transport metadata, never described by a schema.
var codeLocationKeys = map[string]struct{}{
	"code.filepath": {},
	"code.lineno":   {},
	"code.function": {},
}

// maxDepth bounds recursion through cyclic graphs.
const maxDepth = 32

// Create derives the schema fragment for a single value.
func Create(v any) Fragment {
	return createDepth(v, 0)
}

// BuildAttributes derives the object schema for a whole attribute mapping,
// omitting plain fragments and code-location keys.
func BuildAttributes(attrs map[string]any) Fragment {
	properties := Fragment{}
	for k, v := range attrs {
		if _, ok := codeLocationKeys[k]; ok {
			continue
		}
		if frag := Create(v); !IsPlain(frag) {
			properties[k] = frag
		}
	}
	return Fragment{"type": "object", "properties": properties}
}

// IsPlain reports whether a fragment carries no information beyond what the
// JSON value already shows.
func IsPlain(f Fragment) bool {
	switch len(f) {
	case 0:
		return true
	case 1:
		t, _ := f["type"].(string)
		return t == "object" || t == "array"
	}
	return false
}

func createDepth(v any, depth int) Fragment {
	if v == nil || depth > maxDepth {
		return Fragment{}
	}

	// Exact type table, mirroring the encoder's dispatch order.
	switch x := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return Fragment{}
	case time.Time, *time.Time:
		return Fragment{"type": "string", "format": "date-time", keyDatatype: encode.TagDatetime}
	case time.Duration:
		return Fragment{"type": "number", keyDatatype: encode.TagTimedelta}
	case uuid.UUID:
		return Fragment{"type": "string", "format": "uuid", keyDatatype: encode.TagUUID}
	case *regexp.Regexp:
		return Fragment{"type": "string", keyDatatype: encode.TagRegexp}
	case url.URL, *url.URL:
		return Fragment{"type": "string", "format": "uri", keyDatatype: encode.TagURL}
	case net.IP, netip.Addr:
		return Fragment{"type": "string", keyDatatype: encode.TagIPAddress}
	case net.IPNet, *net.IPNet, netip.Prefix:
		return Fragment{"type": "string", keyDatatype: encode.TagIPNetwork}
	case *big.Int, *big.Float, *big.Rat:
		return Fragment{"type": "string", keyDatatype: encode.TagDecimal}
	case []byte:
		return Fragment{"type": "string", keyDatatype: encode.TagBytes}
	case encode.Table:
		return tableFragment(x)
	case *encode.Table:
		if x == nil {
			return Fragment{}
		}
		return tableFragment(*x)
	}

	if _, ok := v.(error); ok {
		return Fragment{"type": "object", "title": typeName(v), keyDatatype: encode.TagException}
	}
	if e, ok := v.(encode.Enumer); ok {
		return enumFragment(v, e)
	}
	if frag, ok := encode.ExtensionSchema(v); ok {
		return frag
	}

	return reflectFragment(v, depth)
}

func tableFragment(t encode.Table) Fragment {
	indices := make([]int, len(t.Rows))
	for i := range indices {
		indices[i] = i
	}
	return Fragment{
		"type":         "array",
		keyDatatype:    encode.TagDataFrame,
		keyColumns:     t.Columns,
		keyIndices:     indices,
		keyColumnCount: len(t.Columns),
		keyRowCount:    len(t.Rows),
	}
}

// enumFragment collapses a homogeneous scalar member set to the matching
// JSON type, else falls back to object.
func enumFragment(v any, e encode.Enumer) Fragment {
	members := []any{e.EnumValue()}
	if m, ok := v.(encode.EnumMemberser); ok {
		members = m.EnumMembers()
	}

	jsonType := ""
	for _, member := range members {
		t := scalarJSONType(member)
		if t == "" || (jsonType != "" && t != jsonType) {
			jsonType = "object"
			break
		}
		jsonType = t
	}
	if jsonType == "" {
		jsonType = "object"
	}
	return Fragment{"type": jsonType, "title": typeName(v), keyDatatype: encode.TagEnum}
}

func scalarJSONType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "number"
	}
	return ""
}

func reflectFragment(v any, depth int) Fragment {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Fragment{}
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Fragment{}

	case reflect.Map:
		return mapFragment(rv, depth)

	case reflect.Struct:
		return structFragment(rv, depth)

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			frag := Fragment{"type": "string", keyDatatype: encode.TagBytes}
			addTitle(frag, rv.Type())
			return frag
		}
		frag := Fragment{"type": "array"}
		addTitle(frag, rv.Type())
		addItems(frag, rv, depth)
		return frag

	case reflect.Array:
		frag := Fragment{"type": "array", keyDatatype: encode.TagTuple}
		addTitle(frag, rv.Type())
		addItems(frag, rv, depth)
		return frag
	}

	return Fragment{"type": "object", "title": typeName(v), keyDatatype: encode.TagUnknown}
}

// mapFragment records every key so differing object shapes stay
// distinguishable inside sequence schemas; members that are themselves plain
// contribute an empty fragment under their key.
func mapFragment(rv reflect.Value, depth int) Fragment {
	frag := Fragment{"type": "object"}
	addTitle(frag, rv.Type())
	if rv.Type().Name() != "" {
		frag[keyDatatype] = encode.TagMapping
	}
	if rv.Len() == 0 {
		return frag
	}

	properties := Fragment{}
	iter := rv.MapRange()
	for iter.Next() {
		properties[keyString(iter.Key())] = createDepth(iter.Value().Interface(), depth+1)
	}
	frag["properties"] = properties
	return frag
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// structFragment describes a record: field fragments recurse, plain fields
// are omitted entirely.
func structFragment(rv reflect.Value, depth int) Fragment {
	rt := rv.Type()
	frag := Fragment{"type": "object", keyDatatype: encode.TagStruct}
	addTitle(frag, rt)

	properties := Fragment{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if sub := createDepth(rv.Field(i).Interface(), depth+1); !IsPlain(sub) {
			properties[f.Name] = sub
		}
	}
	if len(properties) > 0 {
		frag["properties"] = properties
	}
	return frag
}

// addItems applies the sequence inference rule: identical non-plain element
// fragments collapse to items, differing ones emit a positional prefixItems
// list, all-plain elements yield neither.
func addItems(frag Fragment, rv reflect.Value, depth int) {
	n := rv.Len()
	if n == 0 {
		return
	}

	fragments := make([]Fragment, n)
	var first Fragment
	allPlain := true
	identical := true
	for i := 0; i < n; i++ {
		fragments[i] = createDepth(rv.Index(i).Interface(), depth+1)
		if IsPlain(fragments[i]) {
			continue
		}
		if allPlain {
			allPlain = false
			first = fragments[i]
			continue
		}
		if !reflect.DeepEqual(fragments[i], first) {
			identical = false
		}
	}

	switch {
	case allPlain:
	case identical:
		frag["items"] = first
	default:
		prefix := make([]Fragment, n)
		for i, f := range fragments {
			prefix[i] = f
		}
		frag["prefixItems"] = prefix
	}
}

func addTitle(frag Fragment, t reflect.Type) {
	if t.Name() != "" {
		frag["title"] = t.Name()
	}
}

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

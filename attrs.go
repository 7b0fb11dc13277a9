package lantern

import (
	"encoding/json"
	"path/filepath"
	"runtime"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lanternhq/lantern/encode"
	"github.com/lanternhq/lantern/schema"
	"github.com/lanternhq/lantern/scrub"
)

// SDK attribute keys.
const (
	attrSpanType      = "lantern.span_type"
	attrMsgTemplate   = "lantern.msg_template"
	attrMsg           = "lantern.msg"
	attrLevelNum      = "lantern.level_num"
	attrTags          = "lantern.tags"
	attrSchema        = "lantern.json_schema"
	attrStartParentID = "lantern.start_parent_id"

	attrCodeFilepath = "code.filepath"
	attrCodeLineno   = "code.lineno"
	attrCodeFunction = "code.function"

	// jsonSuffix marks attributes whose value is a JSON document rather
	// than a native scalar.
	jsonSuffix = "__JSON"
)

// Attr is one user attribute.
type Attr struct {
	Key   string
	Value any
}

// A builds an Attr.
func A(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// attrSet collects the converted attribute state for one emission.
type attrSet struct {
	kvs []attribute.KeyValue
	// raw keeps the original values for schema inference, keyed by the
	// user's attribute name (without the JSON suffix).
	raw map[string]any
}

// buildAttrs converts user attributes to OTel form. Scalars become typed
// attributes (string values pass through the scrubber); everything else is
// encoded to a tagged JSON envelope under key__JSON.
func (c *Client) buildAttrs(attrs []Attr) *attrSet {
	set := &attrSet{raw: make(map[string]any, len(attrs))}
	for _, a := range attrs {
		set.raw[a.Key] = a.Value
		if encode.IsScalar(a.Value) {
			set.kvs = append(set.kvs, c.scalarAttr(a.Key, a.Value))
			continue
		}
		js, err := encode.ToJSON(a.Value)
		if err != nil {
			c.diag.Warn("attribute not serializable", "key", a.Key, "error", err)
			continue
		}
		set.kvs = append(set.kvs, attribute.String(a.Key+jsonSuffix, js))
	}
	return set
}

func (c *Client) scalarAttr(key string, v any) attribute.KeyValue {
	switch x := v.(type) {
	case nil:
		return attribute.String(key, "null")
	case bool:
		return attribute.Bool(key, x)
	case int:
		return attribute.Int(key, x)
	case int8:
		return attribute.Int64(key, int64(x))
	case int16:
		return attribute.Int64(key, int64(x))
	case int32:
		return attribute.Int64(key, int64(x))
	case int64:
		return attribute.Int64(key, x)
	case uint:
		return attribute.Int64(key, int64(x)) // #nosec G115 -- representable values expected
	case uint8:
		return attribute.Int64(key, int64(x))
	case uint16:
		return attribute.Int64(key, int64(x))
	case uint32:
		return attribute.Int64(key, int64(x))
	case uint64:
		return attribute.Int64(key, int64(x)) // #nosec G115 -- representable values expected
	case float32:
		return attribute.Float64(key, float64(x))
	case float64:
		return attribute.Float64(key, x)
	case string:
		scrubbed := c.scrubber.Scrub(scrub.Context{Category: "attribute", FieldName: key}, x)
		return attribute.String(key, scrubbed)
	}
	return attribute.String(key, "null")
}

// schemaAttr infers the aggregate attribute schema. Returns false when every
// value is plain and the schema would carry no information.
func schemaAttr(raw map[string]any) (attribute.KeyValue, bool) {
	frag := schema.BuildAttributes(raw)
	props, _ := frag["properties"].(schema.Fragment)
	if len(props) == 0 {
		return attribute.KeyValue{}, false
	}
	js, err := json.Marshal(frag)
	if err != nil {
		return attribute.KeyValue{}, false
	}
	return attribute.String(attrSchema, string(js)), true
}

// callerAttrs captures the emission call site. skip counts stack frames
// above the user's call, as in runtime.Caller.
func callerAttrs(skip int) []attribute.KeyValue {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return nil
	}
	out := []attribute.KeyValue{
		attribute.String(attrCodeFilepath, file),
		attribute.Int(attrCodeLineno, line),
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		out = append(out, attribute.String(attrCodeFunction, filepath.Base(fn.Name())))
	}
	return out
}

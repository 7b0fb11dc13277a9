package encode

import "encoding/json"

// Datatype tags carried by envelopes. These are wire constants shared with
// the collector; changing one breaks stored telemetry.
const (
	TagDatetime  = "datetime"
	TagTimedelta = "timedelta"
	TagUUID      = "UUID"
	TagRegexp    = "Regexp"
	TagURL       = "URL"
	TagIPAddress = "IPAddress"
	TagIPNetwork = "IPNetwork"
	TagDecimal   = "Decimal"
	TagBytes     = "bytes"
	TagException = "Exception"
	TagEnum      = "Enum"
	TagMapping   = "Mapping"
	TagStruct    = "struct"
	TagTuple     = "tuple"
	TagDataFrame = "DataFrame"
	TagNDArray   = "ndarray"
	TagUnknown   = "unknown"
)

// datatypeKey marks an envelope in the JSON encoding.
const datatypeKey = "$__datatype__"

// Value is the tagged envelope wrapping a non-JSON-native value.
type Value struct {
	Datatype string
	Data     any
	Class    string
	Subclass string
	Version  int
}

type envelopeJSON struct {
	Datatype string `json:"$__datatype__"`
	Data     any    `json:"data"`
	Class    string `json:"cls,omitempty"`
	Subclass string `json:"subclass,omitempty"`
	Version  int    `json:"version,omitempty"`
}

// MarshalJSON writes the envelope form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		Datatype: v.Datatype,
		Data:     v.Data,
		Class:    v.Class,
		Subclass: v.Subclass,
		Version:  v.Version,
	})
}

// UnmarshalJSON reads the envelope form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var e envelopeJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	*v = Value{
		Datatype: e.Datatype,
		Data:     e.Data,
		Class:    e.Class,
		Subclass: e.Subclass,
		Version:  e.Version,
	}
	return nil
}

// AsEnvelope recognizes an envelope in either its typed form or the generic
// map form produced by json.Unmarshal.
func AsEnvelope(v any) (Value, bool) {
	switch e := v.(type) {
	case Value:
		return e, true
	case *Value:
		return *e, true
	case map[string]any:
		dt, ok := e[datatypeKey].(string)
		if !ok {
			return Value{}, false
		}
		out := Value{Datatype: dt, Data: e["data"]}
		if cls, ok := e["cls"].(string); ok {
			out.Class = cls
		}
		if sub, ok := e["subclass"].(string); ok {
			out.Subclass = sub
		}
		if ver, ok := e["version"].(float64); ok {
			out.Version = int(ver)
		}
		return out, true
	}
	return Value{}, false
}

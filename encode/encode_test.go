package encode

import (
	"encoding/json"
	"errors"
	"math/big"
	"net"
	"net/netip"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

type color int

func (c color) EnumValue() any     { return int(c) }
func (c color) EnumMembers() []any { return []any{0, 1, 2} }

type payload []byte

type request struct {
	Method string
	Path   string
	retry  int
}

// TestEncode_DatatypeTags verifies each recognized type lands under its
// expected envelope tag.
func TestEncode_DatatypeTags(t *testing.T) {
	u := uuid.MustParse("0190a3c1-95c8-7aaa-8888-999999999999")
	addr := netip.MustParseAddr("10.1.2.3")
	_, ipnet, _ := net.ParseCIDR("10.0.0.0/8")
	parsed, _ := url.Parse("https://example.com/x")

	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"datetime", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), TagDatetime},
		{"timedelta", 1500 * time.Millisecond, TagTimedelta},
		{"uuid", u, TagUUID},
		{"regexp", regexp.MustCompile(`a+b`), TagRegexp},
		{"url", parsed, TagURL},
		{"ip", net.ParseIP("192.168.0.1"), TagIPAddress},
		{"netip addr", addr, TagIPAddress},
		{"ipnet", ipnet, TagIPNetwork},
		{"prefix", netip.MustParsePrefix("10.0.0.0/8"), TagIPNetwork},
		{"big int", big.NewInt(123), TagDecimal},
		{"big rat", big.NewRat(1, 3), TagDecimal},
		{"bytes", []byte("raw"), TagBytes},
		{"error", errors.New("boom"), TagException},
		{"enum", color(2), TagEnum},
		{"struct", request{Method: "GET", Path: "/"}, TagStruct},
		{"array is tuple", [2]int{1, 2}, TagTuple},
		{"table", Table{Columns: []string{"a"}, Rows: [][]any{{1}}}, TagDataFrame},
		{"matrix", mat.NewDense(2, 2, []float64{1, 2, 3, 4}), TagNDArray},
		{"unresolvable", make(chan int), TagUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env, ok := Encode(tc.value).(Value)
			if !ok {
				t.Fatalf("expected envelope, got %T", Encode(tc.value))
			}
			if env.Datatype != tc.expected {
				t.Errorf("expected tag %q, got %q", tc.expected, env.Datatype)
			}
		})
	}
}

// TestEncode_ScalarsPassThrough verifies JSON-native values are untouched.
func TestEncode_ScalarsPassThrough(t *testing.T) {
	for _, v := range []any{nil, "s", 1, int64(2), 1.5, true} {
		if got := Encode(v); got != v {
			t.Errorf("expected %v to pass through, got %v", v, got)
		}
	}
}

// TestEncode_PlainContainers verifies unnamed maps and slices stay plain.
func TestEncode_PlainContainers(t *testing.T) {
	got := Encode(map[string]any{"a": []any{1, "b"}})
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected plain map, got %T", got)
	}
	if _, ok := m["a"].([]any); !ok {
		t.Errorf("expected plain array member, got %T", m["a"])
	}
}

// TestEncode_NonStringKeyMap verifies non-string keys force a Mapping
// envelope with stringified keys.
func TestEncode_NonStringKeyMap(t *testing.T) {
	env, ok := Encode(map[int]string{1: "a"}).(Value)
	if !ok || env.Datatype != TagMapping {
		t.Fatalf("expected Mapping envelope, got %#v", Encode(map[int]string{1: "a"}))
	}
	data := env.Data.(map[string]any)
	if data["1"] != "a" {
		t.Errorf("expected stringified key, got %v", data)
	}
}

// TestEncode_SubclassedBytes verifies named byte slices carry their type.
func TestEncode_SubclassedBytes(t *testing.T) {
	env, ok := Encode(payload("x")).(Value)
	if !ok || env.Datatype != TagBytes {
		t.Fatalf("expected bytes envelope, got %#v", Encode(payload("x")))
	}
	if env.Class != "payload" {
		t.Errorf("expected cls 'payload', got %q", env.Class)
	}
}

// TestEncode_StructFields verifies exported fields are captured and
// unexported fields skipped.
func TestEncode_StructFields(t *testing.T) {
	env := Encode(request{Method: "GET", Path: "/health", retry: 3}).(Value)
	if env.Class != "request" {
		t.Errorf("expected cls 'request', got %q", env.Class)
	}
	data := env.Data.(map[string]any)
	if data["Method"] != "GET" || data["Path"] != "/health" {
		t.Errorf("unexpected struct data: %v", data)
	}
	if _, ok := data["retry"]; ok {
		t.Error("unexported field must be skipped")
	}
}

// TestEncode_RoundTrip verifies the wire JSON decodes back to the same
// envelope: same tag, and re-encoding the data is identical.
func TestEncode_RoundTrip(t *testing.T) {
	values := []any{
		time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC),
		uuid.MustParse("0190a3c1-95c8-7aaa-8888-999999999999"),
		[2]string{"a", "b"},
		errors.New("boom"),
	}
	for _, v := range values {
		wire, err := ToJSON(v)
		if err != nil {
			t.Fatalf("ToJSON(%v): %v", v, err)
		}
		var decoded any
		if err := json.Unmarshal([]byte(wire), &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got, ok := AsEnvelope(decoded)
		if !ok {
			t.Fatalf("expected envelope on the wire, got %q", wire)
		}
		want := Encode(v).(Value)
		if got.Datatype != want.Datatype || got.Class != want.Class || got.Version != want.Version {
			t.Errorf("round trip changed envelope: got %+v want %+v", got, want)
		}
	}
}

// TestEncode_UUIDVersion verifies the version field rides along.
func TestEncode_UUIDVersion(t *testing.T) {
	env := Encode(uuid.MustParse("0190a3c1-95c8-7aaa-8888-999999999999")).(Value)
	if env.Version != 7 {
		t.Errorf("expected version 7, got %d", env.Version)
	}
}

// TestEncode_CycleDegrades verifies cyclic graphs terminate in an unknown
// envelope instead of recursing forever.
func TestEncode_CycleDegrades(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	done := make(chan any, 1)
	go func() { done <- Encode(cyclic) }()
	select {
	case v := <-done:
		if v == nil {
			t.Error("expected a value")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("encode did not terminate on a cyclic value")
	}
}

// TestDisplay verifies datatype-specific rendering in compact mode.
func TestDisplay(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hi", "'hi'"},
		{"uuid", uuid.MustParse("0190a3c1-95c8-7aaa-8888-999999999999"),
			"UUID('0190a3c1-95c8-7aaa-8888-999999999999')"},
		{"regexp", regexp.MustCompile("a+"), "Regexp('a+')"},
		{"tuple", [2]int{1, 2}, "(1, 2)"},
		{"struct", request{Method: "GET", Path: "/"}, "request(Method='GET', Path='/')"},
		{"exception", errors.New("boom"), "errorString('boom')"},
		{"decimal", big.NewRat(1, 2), "Decimal('1/2')"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Display(Encode(tc.value), 0); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

// TestDisplay_Indent verifies one-entry-per-line rendering without a
// trailing comma.
func TestDisplay_Indent(t *testing.T) {
	got := Display(Encode(map[string]any{"a": 1, "b": 2}), 2)
	expected := "{\n  'a': 1,\n  'b': 2\n}"
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestDisplay_WireForm verifies Display accepts json-decoded envelopes.
func TestDisplay_WireForm(t *testing.T) {
	wire, err := ToJSON(uuid.MustParse("0190a3c1-95c8-7aaa-8888-999999999999"))
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded any
	if err := json.Unmarshal([]byte(wire), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := Display(decoded, 0); got != "UUID('0190a3c1-95c8-7aaa-8888-999999999999')" {
		t.Errorf("unexpected display: %q", got)
	}
}

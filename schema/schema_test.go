package schema

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/lanternhq/lantern/encode"
)

type level int

func (l level) EnumValue() any     { return int(l) }
func (l level) EnumMembers() []any { return []any{1, 2, 3} }

type mode string

func (m mode) EnumValue() any     { return string(m) }
func (m mode) EnumMembers() []any { return []any{"on", "off"} }

type mixed int

func (m mixed) EnumValue() any     { return int(m) }
func (m mixed) EnumMembers() []any { return []any{1, "two"} }

type order struct {
	ID      int
	Placed  time.Time
	Comment string
}

// TestCreate_PlainValuesElide verifies scalars produce the empty fragment.
func TestCreate_PlainValuesElide(t *testing.T) {
	for _, v := range []any{nil, "str", 1, 1.0, true} {
		if frag := Create(v); len(frag) != 0 {
			t.Errorf("expected empty fragment for %v, got %v", v, frag)
		}
	}
}

// TestCreate_StructuredValues verifies non-obvious types produce non-empty
// fragments with the right extension keys.
func TestCreate_StructuredValues(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		datatype string
		jsonType string
	}{
		{"datetime", time.Now(), encode.TagDatetime, "string"},
		{"timedelta", time.Second, encode.TagTimedelta, "number"},
		{"uuid", uuid.New(), encode.TagUUID, "string"},
		{"decimal", big.NewInt(1), encode.TagDecimal, "string"},
		{"bytes", []byte("x"), encode.TagBytes, "string"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frag := Create(tc.value)
			if frag[keyDatatype] != tc.datatype {
				t.Errorf("expected %s=%q, got %v", keyDatatype, tc.datatype, frag)
			}
			if frag["type"] != tc.jsonType {
				t.Errorf("expected type %q, got %v", tc.jsonType, frag["type"])
			}
		})
	}
}

// TestCreate_ArrayCollapsing verifies the three sequence inference outcomes.
func TestCreate_ArrayCollapsing(t *testing.T) {
	t.Run("plain elements have no items", func(t *testing.T) {
		frag := Create([]int{1, 2, 3})
		if _, ok := frag["items"]; ok {
			t.Errorf("unexpected items: %v", frag)
		}
		if _, ok := frag["prefixItems"]; ok {
			t.Errorf("unexpected prefixItems: %v", frag)
		}
	})

	t.Run("identical element schemas collapse to items", func(t *testing.T) {
		frag := Create([]time.Time{time.Now(), time.Now()})
		items, ok := frag["items"].(Fragment)
		if !ok {
			t.Fatalf("expected items, got %v", frag)
		}
		if items[keyDatatype] != encode.TagDatetime {
			t.Errorf("expected datetime items, got %v", items)
		}
	})

	t.Run("differing shapes emit prefixItems", func(t *testing.T) {
		frag := Create([]any{map[string]any{"a": 1}, map[string]any{"b": 2}})
		prefix, ok := frag["prefixItems"].([]Fragment)
		if !ok {
			t.Fatalf("expected prefixItems, got %v", frag)
		}
		if len(prefix) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(prefix))
		}
		if reflect.DeepEqual(prefix[0], prefix[1]) {
			t.Errorf("expected distinct entries, got %v", prefix)
		}
	})

	t.Run("empty collection yields bare fragment", func(t *testing.T) {
		frag := Create([]any{})
		if _, ok := frag["items"]; ok {
			t.Errorf("unexpected items on empty array: %v", frag)
		}
	})
}

// TestCreate_Tuple verifies fixed-size sequences are tagged.
func TestCreate_Tuple(t *testing.T) {
	frag := Create([2]time.Duration{time.Second, time.Minute})
	if frag[keyDatatype] != encode.TagTuple {
		t.Errorf("expected tuple tag, got %v", frag)
	}
	if _, ok := frag["items"]; !ok {
		t.Errorf("expected collapsed items, got %v", frag)
	}
}

// TestCreate_Enum verifies member-type collapsing.
func TestCreate_Enum(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		jsonType string
	}{
		{"int members", level(2), "integer"},
		{"string members", mode("on"), "string"},
		{"heterogeneous members", mixed(1), "object"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			frag := Create(tc.value)
			if frag[keyDatatype] != encode.TagEnum {
				t.Fatalf("expected enum fragment, got %v", frag)
			}
			if frag["type"] != tc.jsonType {
				t.Errorf("expected type %q, got %v", tc.jsonType, frag["type"])
			}
		})
	}
}

// TestCreate_StructOmitsPlainFields verifies record schemas keep only
// interesting fields.
func TestCreate_StructOmitsPlainFields(t *testing.T) {
	frag := Create(order{ID: 1, Placed: time.Now(), Comment: "x"})
	if frag["title"] != "order" {
		t.Errorf("expected title 'order', got %v", frag["title"])
	}
	props, ok := frag["properties"].(Fragment)
	if !ok {
		t.Fatalf("expected properties, got %v", frag)
	}
	if _, ok := props["Placed"]; !ok {
		t.Error("expected Placed in properties")
	}
	if _, ok := props["ID"]; ok {
		t.Error("plain field ID must be omitted")
	}
}

// TestCreate_Matrix verifies the registered gonum extension contributes
// shape metadata.
func TestCreate_Matrix(t *testing.T) {
	frag := Create(mat.NewDense(2, 3, nil))
	if frag[keyDatatype] != encode.TagNDArray {
		t.Fatalf("expected ndarray fragment, got %v", frag)
	}
	shape, ok := frag[keyShape].([]int)
	if !ok || shape[0] != 2 || shape[1] != 3 {
		t.Errorf("expected shape [2 3], got %v", frag[keyShape])
	}
	if frag[keyDType] != "float64" {
		t.Errorf("expected float64 dtype, got %v", frag[keyDType])
	}
}

// TestCreate_Table verifies tabular metadata keys.
func TestCreate_Table(t *testing.T) {
	frag := Create(encode.Table{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{1, 2}, {3, 4}, {5, 6}},
	})
	if frag[keyColumnCount] != 2 || frag[keyRowCount] != 3 {
		t.Errorf("unexpected counts: %v", frag)
	}
	if cols, ok := frag[keyColumns].([]string); !ok || len(cols) != 2 {
		t.Errorf("expected columns, got %v", frag[keyColumns])
	}
	if idx, ok := frag[keyIndices].([]int); !ok || len(idx) != 3 {
		t.Errorf("expected 3 indices, got %v", frag[keyIndices])
	}
}

// TestBuildAttributes verifies elision and code-location exclusion.
func TestBuildAttributes(t *testing.T) {
	out := BuildAttributes(map[string]any{
		"plain_str":     "x",
		"plain_int":     1,
		"when":          time.Now(),
		"code.filepath": time.Now(), // would be non-plain, must be excluded
		"code.lineno":   42,
	})

	props, ok := out["properties"].(Fragment)
	if !ok {
		t.Fatalf("expected properties, got %v", out)
	}
	if len(props) != 1 {
		t.Errorf("expected exactly one property, got %v", props)
	}
	if _, ok := props["when"]; !ok {
		t.Error("expected 'when' in properties")
	}
}

package export

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// protojson emits protobuf bytes fields (trace and span ids) base64-encoded,
// where the protocol's JSON mapping mandates lowercase hex. rewriteHexIDs
// post-processes a marshaled export request to the mandated encoding.
func rewriteHexIDs(raw []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("export: rewrite ids: %w", err)
	}
	if err := rewriteIDs(doc); err != nil {
		return nil, err
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("export: rewrite ids: %w", err)
	}
	return out, nil
}

var idFields = map[string]struct{}{
	"traceId":      {},
	"spanId":       {},
	"parentSpanId": {},
}

func rewriteIDs(node any) error {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if _, ok := idFields[k]; ok {
				s, ok := v.(string)
				if !ok {
					continue
				}
				decoded, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return fmt.Errorf("export: rewrite ids: field %q: %w", k, err)
				}
				n[k] = hex.EncodeToString(decoded)
				continue
			}
			if err := rewriteIDs(v); err != nil {
				return err
			}
		}
	case []any:
		for _, v := range n {
			if err := rewriteIDs(v); err != nil {
				return err
			}
		}
	}
	return nil
}

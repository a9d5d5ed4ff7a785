package hashing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// canonicalJSON encodes v as JSON with object keys sorted recursively.
// Numbers, strings and booleans use encoding/json's standard encoding, so
// the output is stable across runs and across differently-ordered inputs.
func canonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := maps.Keys(val)
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encKey, err := json.Marshal(k)
			if err != nil {
				return fmt.Errorf("failed to encode key %q: %w", k, err)
			}
			buf.Write(encKey)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		enc, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("failed to encode value: %w", err)
		}
		buf.Write(enc)
		return nil
	}
}

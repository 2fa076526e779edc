// Package canonical derives deterministic cache keys from the agent catalog:
// canonical JSON serialization, content fingerprints, and build ids.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Canonicalize renders a JSON-compatible value as canonical JSON: object keys
// sorted ascending by their quoted form, array order preserved, no
// insignificant whitespace. Two values that are deeply equal up to map key
// order canonicalize to identical output.
//
// The value is expected to come from DecodeValue (or an equivalent decode
// with json.Number enabled); any other type is a precondition violation.
func Canonicalize(v any) (string, error) {
	var sb strings.Builder
	if err := writeValue(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// DecodeValue decodes raw JSON into the generic value form Canonicalize
// accepts. Numbers are kept as json.Number so the original literal survives
// a decode/canonicalize round trip unchanged.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON document: trailing data")
	}
	return v, nil
}

func writeValue(sb *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		sb.WriteString(quote(x))
	case json.Number:
		sb.WriteString(x.String())
	case float64:
		// Values built in code rather than decoded from JSON.
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Errorf("cannot canonicalize number: %w", err)
		}
		sb.Write(b)
	case int:
		fmt.Fprintf(sb, "%d", x)
	case []any:
		sb.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeValue(sb, e); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		// Keys sort by their quoted form, so escaping participates in the order.
		sort.Slice(keys, func(i, j int) bool { return quote(keys[i]) < quote(keys[j]) })
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quote(k))
			sb.WriteByte(':')
			if err := writeValue(sb, x[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("cannot canonicalize value of type %T", v)
	}
	return nil
}

// quote returns the JSON string encoding of s.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Package fingerprint produces stable content hashes over JSON-shaped values.
// The serialized contract is cache-validated by these hashes, so the encoding
// must be byte-identical for semantically identical input: map keys are
// sorted, numbers are normalized, and identifier lists are canonicalized.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Hash returns the hex sha256 of the canonical encoding of v.
func Hash(v any) (string, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// HashFields hashes a flat list of label=value pairs. Order of the pairs is
// the caller's contract; use it for composite cache keys.
func HashFields(pairs ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(pairs, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// CanonicalJSON encodes v as JSON with object keys sorted at every level.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	var sb strings.Builder
	if err := writeCanonical(&sb, decoded); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case float64:
		// Integral floats print without exponent or trailing zeros so that
		// 3 and 3.0 fingerprint identically.
		if val == float64(int64(val)) {
			sb.WriteString(strconv.FormatInt(int64(val), 10))
		} else {
			sb.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		}
	case string:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		sb.Write(b)
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			sb.Write(kb)
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return fmt.Errorf("fingerprint: unsupported value %T", v)
	}
	return nil
}

// CanonicalizeIDs normalizes a caller-supplied identifier list: values are
// trimmed, numeric strings are coerced to integers, duplicates are kept, and
// the result is sorted so [3,1,2] and ["1","2","3"] canonicalize identically.
func CanonicalizeIDs(ids []any) []string {
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		switch v := raw.(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				out = append(out, strconv.FormatInt(n, 10))
				continue
			}
			out = append(out, s)
		case int:
			out = append(out, strconv.Itoa(v))
		case int64:
			out = append(out, strconv.FormatInt(v, 10))
		case float64:
			if v == float64(int64(v)) {
				out = append(out, strconv.FormatInt(int64(v), 10))
				continue
			}
			out = append(out, strconv.FormatFloat(v, 'g', -1, 64))
		default:
			out = append(out, fmt.Sprintf("%v", v))
		}
	}
	sort.Strings(out)
	return out
}

// HashIDs fingerprints a canonicalized identifier list.
func HashIDs(ids []any) string {
	return HashFields(CanonicalizeIDs(ids)...)
}

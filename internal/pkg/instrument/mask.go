package instrument

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Masked replaces the value of every masked field.
const Masked = "***"

// Masker hides sensitive fields (passwords, one-time codes, tokens) in log
// attributes, JSON payloads and HTTP headers. Keys match case-insensitively
// at any depth.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker for fields. Blank entries are ignored.
func NewMasker(fields []string) Masker {
	keys := lo.SliceToMap(
		lo.Compact(lo.Map(fields, func(f string, _ int) string { return strings.ToLower(strings.TrimSpace(f)) })),
		func(f string) (string, struct{}) { return f, struct{}{} },
	)
	return Masker{keys: keys}
}

// Enabled reports whether any field is masked.
func (m Masker) Enabled() bool {
	return len(m.keys) > 0
}

// Has reports whether key is masked.
func (m Masker) Has(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Value masks decoded JSON values: maps, slices and their nesting.
func (m Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Has(k) {
				out[k] = Masked
				continue
			}
			out[k] = m.Value(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Has(k) {
				out[k] = Masked
				continue
			}
			out[k] = inner
		}
		return out
	case []any:
		return lo.Map(val, func(inner any, _ int) any { return m.Value(inner) })
	default:
		return v
	}
}

// JSON decodes payload and masks it. It reports false when payload is not
// a JSON object or array.
func (m Masker) JSON(payload []byte) (any, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}

	return m.Value(decoded), true
}

// Header returns a copy of h with masked header values replaced.
func (m Masker) Header(h http.Header) http.Header {
	if !m.Enabled() {
		return h
	}

	out := h.Clone()
	for key := range out {
		if m.Has(key) {
			out.Set(key, Masked)
		}
	}
	return out
}

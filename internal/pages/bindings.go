package pages

import (
	"fmt"
	"maps"
)

// Bindings are the values a template interpolates, keyed by field name.
type Bindings map[string]any

// String returns the value bound to key formatted for display, or "" when
// the key is unbound.
func (b Bindings) String(key string) string {
	v, ok := b[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// merge returns a new Bindings holding the layers in order; later layers
// win key by key.
func merge(layers ...map[string]any) Bindings {
	out := Bindings{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

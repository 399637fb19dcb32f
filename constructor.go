package mapengine

// MapEntry pairs a target field with its leaf or nested-array spec, the
// building block Block composes into a map block object. Mirrors the
// teacher's Prop/Object fluent-builder pairing, generalised from JSON-Schema
// properties to mapping-spec targets.
type MapEntry struct {
	Target string
	Spec   Value
}

// Field creates a map-block entry.
func Field(target string, spec Value) MapEntry { return MapEntry{Target: target, Spec: spec} }

// Block assembles a map block from target/spec entries.
func Block(entries ...MapEntry) Value {
	out := NewObject()
	for _, e := range entries {
		out.Set(e.Target, e.Spec)
	}
	return out
}

// LeafOption configures a leaf spec built by Leaf.
type LeafOption func(*Value)

// WithTransform sets the leaf's transform name.
func WithTransform(name string) LeafOption {
	return func(s *Value) { s.Set("transform", String(name)) }
}

// WithMatch sets the leaf's match map.
func WithMatch(match Value) LeafOption {
	return func(s *Value) { s.Set("match", match) }
}

// WithRequired marks the leaf as required: it is emitted as null rather than
// omitted when no source yields a value.
func WithRequired() LeafOption {
	return func(s *Value) { s.Set("required", Bool(true)) }
}

// Leaf builds a leaf spec {source, transform?, match?, required?}.
func Leaf(source Value, opts ...LeafOption) Value {
	spec := NewObject()
	spec.Set("source", source)
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

// Source wraps a single structural path as a leaf source.
func Source(path string) Value { return String(path) }

// Sources wraps an ordered list of fallback structural paths.
func Sources(paths ...string) Value {
	items := make([]Value, len(paths))
	for i, p := range paths {
		items[i] = String(p)
	}
	return Array(items...)
}

// NoSource builds a null leaf source (field intentionally empty).
func NoSource() Value { return Null() }

// Nested builds a {path, map} nested-array spec.
func Nested(path string, block Value) Value {
	spec := NewObject()
	spec.Set("path", String(path))
	spec.Set("map", block)
	return spec
}

// SpecOption configures a spec built by BuildSpec.
type SpecOption func(*Value)

// WithDefaults sets the spec's top-level defaults map.
func WithDefaults(defaults Value) SpecOption {
	return func(s *Value) { s.Set("defaults", defaults) }
}

// WithBroadcast sets the spec's top-level broadcast map.
func WithBroadcast(broadcast Value) SpecOption {
	return func(s *Value) { s.Set("broadcast", broadcast) }
}

// WithPartnerID attaches an informational partner_id the Executor passes
// through to its result.
func WithPartnerID(id string) SpecOption {
	return func(s *Value) { s.Set("partner_id", String(id)) }
}

// WithSpecVersion overrides the spec's informational version string.
func WithSpecVersion(v string) SpecOption {
	return func(s *Value) { s.Set("version", String(v)) }
}

// BuildSpec assembles a complete normative mapping spec from an items path
// and map block, applying any SpecOptions over the empty-defaults/
// empty-broadcast baseline.
func BuildSpec(itemsPath string, itemsMap Value, opts ...SpecOption) Value {
	items := NewObject()
	items.Set("path", String(itemsPath))
	items.Set("map", itemsMap)

	mappings := NewObject()
	mappings.Set("items", items)

	spec := NewObject()
	spec.Set("version", String("1.0"))
	spec.Set("defaults", NewObject())
	spec.Set("broadcast", NewObject())
	spec.Set("mappings", mappings)

	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

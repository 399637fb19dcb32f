package mapengine

import (
	"io"
	"sort"

	"github.com/goccy/go-json"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindInt
	KindString
	KindArray
	KindObject
)

// Value is the tagged JSON value ADT every component operates on. Object
// preserves source key insertion order, which fingerprinting (schema
// determinism) and item iteration both depend on.
type Value struct {
	kind   Kind
	b      bool
	num    float64
	i      int64
	str    string
	arr    []Value
	keys   []string
	fields map[string]Value
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int wraps an int64, kept distinct from Number so integral JSON literals
// round-trip without gaining a trailing ".0".
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps a slice of values.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// NewObject returns an empty, order-preserving object.
func NewObject() Value {
	return Value{kind: KindObject, fields: map[string]Value{}}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsObject() bool { return v.kind == KindObject }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsString() bool { return v.kind == KindString }

// Bool returns the boolean payload; false if v is not a bool.
func (v Value) Bool() bool { return v.b }

// Float returns the numeric payload as a float64, covering both Number and Int.
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.num
}

// Str returns the string payload; "" if v is not a string.
func (v Value) Str() string { return v.str }

// Items returns the array payload; nil if v is not an array.
func (v Value) Items() []Value { return v.arr }

// Keys returns object keys in insertion order; nil if v is not an object.
func (v Value) Keys() []string { return v.keys }

// Get returns the value stored at key and whether it was present.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	val, ok := v.fields[key]
	return val, ok
}

// Set inserts or overwrites key, preserving first-insertion order.
func (v *Value) Set(key string, val Value) {
	if v.kind != KindObject {
		*v = NewObject()
	}
	if _, exists := v.fields[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.fields[key] = val
}

// Len reports the number of elements: object field count or array length.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.keys)
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Clone performs a deep copy; safe to call on any variant.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Clone()
		}
		return Value{kind: KindArray, arr: out}
	case KindObject:
		out := NewObject()
		for _, k := range v.keys {
			out.Set(k, v.fields[k].Clone())
		}
		return out
	default:
		return v
	}
}

// ToAny converts v into plain Go values (map[string]any/[]any/...), useful
// at adapter boundaries and for equality checks in tests.
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindInt:
		return v.i
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.fields[k].ToAny()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a plain Go value (as produced by encoding/json or
// goccy/go-json into interface{}, or hand-built map[string]any/[]any trees)
// into a Value. Object key order is not recoverable from a Go map, so
// FromAny sorts object keys lexically — callers that need source-preserved
// order must go through ParseJSON instead.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return numberOrInt(t)
	case float32:
		return numberOrInt(float64(t))
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		f, _ := t.Float64()
		return Number(f)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return Array(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewObject()
		for _, k := range keys {
			out.Set(k, FromAny(t[k]))
		}
		return out
	default:
		return Null()
	}
}

func numberOrInt(f float64) Value {
	if f == float64(int64(f)) {
		return Int(int64(f))
	}
	return Number(f)
}

// ParseJSON decodes raw JSON bytes into a Value, preserving object key order
// via goccy/go-json's token stream.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(newByteReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				elem, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, elem)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return Value{}, err
			}
			return Value{kind: KindArray, arr: items}, nil
		case '{':
			out := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, _ := keyTok.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				out.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing }
				return Value{}, err
			}
			return out, nil
		}
	}
	return Null(), nil
}

// MarshalJSON renders v with object keys in their preserved insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindInt:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		buf := []byte{'['}
		for i, e := range v.arr {
			if i > 0 {
				buf = append(buf, ',')
			}
			encoded, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, encoded...)
		}
		return append(buf, ']'), nil
	case KindObject:
		buf := []byte{'{'}
		for i, k := range v.keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyBytes...)
			buf = append(buf, ':')
			encoded, err := v.fields[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, encoded...)
		}
		return append(buf, '}'), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes into v via the order-preserving token path.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

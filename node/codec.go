package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// FromNative converts a decoded Go value into a Node. It accepts the shapes
// produced by encoding/json and goccy/go-yaml: nil, bool, every integer
// width, float32/64, string, json.Number, []any, map[string]any (keys are
// sorted) and yaml.MapSlice (order kept). A *Node is deep-copied.
func FromNative(v any) (*Node, error) {
	switch v := v.(type) {
	case nil:
		return NewNone(), nil
	case *Node:
		return Copy(v), nil
	case bool:
		return NewFlag(v), nil
	case int:
		return NewInt64(int64(v)), nil
	case int8:
		return NewInt64(int64(v)), nil
	case int16:
		return NewInt64(int64(v)), nil
	case int32:
		return NewInt64(int64(v)), nil
	case int64:
		return NewInt64(v), nil
	case uint:
		return fromUnsigned(uint64(v))
	case uint8:
		return NewInt64(int64(v)), nil
	case uint16:
		return NewInt64(int64(v)), nil
	case uint32:
		return NewInt64(int64(v)), nil
	case uint64:
		return fromUnsigned(v)
	case float32:
		return NewDouble(float64(v)), nil
	case float64:
		return NewDouble(v), nil
	case json.Number:
		return fromNumber(string(v))
	case string:
		return NewString(v), nil
	case []any:
		arr := NewArray()
		for _, e := range v {
			c, err := FromNative(e)
			if err != nil {
				return nil, err
			}

			arr.AppendNode(c)
		}

		return arr, nil
	case map[string]any:
		m := NewMap()
		for _, k := range slices.Sorted(maps.Keys(v)) {
			c, err := FromNative(v[k])
			if err != nil {
				return nil, err
			}

			m.SetNode(k, c)
		}

		return m, nil
	case yaml.MapSlice:
		m := NewMap()
		for _, item := range v {
			c, err := FromNative(item.Value)
			if err != nil {
				return nil, err
			}

			m.SetNode(fmt.Sprint(item.Key), c)
		}

		return m, nil
	default:
		return nil, pkg.ErrInvalidFormat.With(
			slog.String("type", fmt.Sprintf("%T", v)),
		)
	}
}

func fromUnsigned(v uint64) (*Node, error) {
	if v > math.MaxInt64 {
		return nil, pkg.ErrInvalidFormat.With(slog.Uint64("overflow", v))
	}

	return NewInt64(int64(v)), nil
}

func fromNumber(s string) (*Node, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewInt64(i), nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, pkg.ErrInvalidFormat.Wrap(err)
	}

	return NewDouble(f), nil
}

// Native converts n into plain Go values. Maps become yaml.MapSlice so that
// order and duplicate keys survive; use [Node.Map] for lookup-friendly maps.
func (n *Node) Native() any {
	switch n.Kind() {
	case KindFlag:
		return n.flag
	case KindInt64:
		return n.i64
	case KindDouble:
		return n.f64
	case KindString:
		return n.str
	case KindArray:
		out := make([]any, len(n.list))
		for i, c := range n.list {
			out[i] = c.Native()
		}

		return out
	case KindMap:
		out := make(yaml.MapSlice, len(n.list))
		for i, c := range n.list {
			out[i] = yaml.MapItem{Key: n.keys[i], Value: c.Native()}
		}

		return out
	default:
		return nil
	}
}

// Map converts a Map node into a Go map. The first value of a duplicated
// key wins, matching [Node.Get].
func (n *Node) Map() map[string]any {
	if !n.Is(KindMap) {
		return nil
	}

	out := make(map[string]any, len(n.keys))
	for i, k := range n.keys {
		if _, dup := out[k]; !dup {
			out[k] = n.list[i].Native()
		}
	}

	return out
}

// MarshalJSON encodes n with map order preserved.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encodeJSON(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (n *Node) encodeJSON(buf *bytes.Buffer) error {
	switch n.Kind() {
	case KindNone:
		buf.WriteString("null")
	case KindFlag:
		buf.WriteString(strconv.FormatBool(n.flag))
	case KindInt64:
		buf.WriteString(strconv.FormatInt(n.i64, 10))
	case KindDouble:
		if math.IsNaN(n.f64) || math.IsInf(n.f64, 0) {
			return pkg.ErrJSONMarshal.With(slog.Float64("value", n.f64))
		}

		s := strconv.FormatFloat(n.f64, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			// keep doubles distinguishable from integers on decode
			s += ".0"
		}

		buf.WriteString(s)
	case KindString:
		if err := quote(buf, n.str); err != nil {
			return err
		}
	case KindArray:
		buf.WriteByte('[')

		for i, c := range n.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := c.encodeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')

		for i, c := range n.list {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := quote(buf, n.keys[i]); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := c.encodeJSON(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	}

	return nil
}

// quote writes s as a JSON string without HTML escaping.
func quote(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer

	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return pkg.ErrJSONMarshal.Wrap(err)
	}

	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))

	return nil
}

// UnmarshalJSON decodes data into n, preserving object key order and
// duplicate keys. Integral numbers decode as Int64, others as Double.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return pkg.ErrInvalidFormat.Wrap(err)
	}

	*n = *v

	return nil
}

// readJSON reads one JSON value from r.
func readJSON(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeJSON(dec)
	if err != nil {
		return nil, pkg.ErrInvalidFormat.Wrap(err)
	}

	return v, nil
}

func decodeJSON(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			arr := NewArray()

			for dec.More() {
				c, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}

				arr.AppendNode(c)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return arr, nil
		case '{':
			m := NewMap()

			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}

				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}

				c, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}

				m.SetNode(key, c)
			}

			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return m, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		return fromNumber(string(t))
	default:
		return FromNative(t)
	}
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (n *Node) MarshalYAML() (any, error) {
	return n.Native(), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler. Mapping order is kept.
func (n *Node) UnmarshalYAML(data []byte) error {
	v, err := DecodeYAML(data)
	if err != nil {
		return err
	}

	*n = *v

	return nil
}

// DecodeYAML parses a YAML document into a Node.
func DecodeYAML(data []byte) (*Node, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, pkg.ErrInvalidFormat.Wrap(err)
	}

	return FromNative(v)
}

// EncodeYAML renders n as a YAML document.
func EncodeYAML(n *Node) ([]byte, error) {
	b, err := yaml.MarshalWithOptions(n.Native(), yaml.Indent(2))
	if err != nil {
		return nil, pkg.ErrYAMLMarshal.Wrap(err)
	}

	return b, nil
}

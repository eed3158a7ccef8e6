package reqif

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindHTML
	KindEnum
	KindBool
	KindInt
	KindReal
)

var kindNames = [...]string{"missing", "text", "html", "enum", "bool", "int", "real"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

func parseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return KindMissing, false
}

// Value is the typed value of one requirement field. The zero Value is
// Missing. Values are immutable; Html values carry their extracted plain
// text so it is computed once at construction.
type Value struct {
	kind  Kind
	str   string
	plain string
	b     bool
	i     int64
	f     float64
}

// Missing returns the absent value.
func Missing() Value { return Value{} }

func TextValue(s string) Value { return Value{kind: KindText, str: s} }

// HTMLValue wraps an XHTML fragment.
func HTMLValue(fragment string) Value {
	return Value{kind: KindHTML, str: fragment, plain: PlainText(fragment)}
}

func EnumValue(s string) Value { return Value{kind: KindEnum, str: s} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func RealValue(f float64) Value { return Value{kind: KindReal, f: f} }

func (v Value) Kind() Kind { return v.kind }

// Raw returns the stored string of a Text, Html or Enum value (the XHTML
// markup for Html), or "" for the other kinds.
func (v Value) Raw() string { return v.str }

func (v Value) Bool() bool { return v.b }

func (v Value) Int() int64 { return v.i }

func (v Value) Real() float64 { return v.f }

// String renders the value for display and text comparison.
func (v Value) String() string {
	switch v.kind {
	case KindText, KindEnum:
		return v.str
	case KindHTML:
		return v.plain
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return ""
	}
}

// IsEmpty reports whether the value is Missing or a blank string variant.
// Booleans and numbers are never empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindMissing:
		return true
	case KindText, KindHTML, KindEnum:
		return strings.TrimSpace(v.String()) == ""
	default:
		return false
	}
}

// Equal is type-aware: values of different kinds are never equal, so Missing
// and Text("") differ. Html values compare by their extracted text.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindMissing:
		return true
	case KindText, KindEnum:
		return v.str == o.str
	case KindHTML:
		return v.plain == o.plain
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindReal:
		return v.f == o.f
	}
	return false
}

type jsonValue struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{Kind: v.kind.String()}
	switch v.kind {
	case KindText, KindHTML, KindEnum:
		jv.Value = v.str
	case KindBool:
		jv.Value = v.b
	case KindInt:
		jv.Value = v.i
	case KindReal:
		jv.Value = v.f
	}
	return json.Marshal(jv)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, ok := parseKind(raw.Kind)
	if !ok {
		return errors.Newf("unknown value kind %q", raw.Kind)
	}
	if kind == KindMissing {
		*v = Missing()
		return nil
	}
	if len(raw.Value) == 0 {
		raw.Value = json.RawMessage("null")
	}
	var err error
	switch kind {
	case KindText, KindHTML, KindEnum:
		var s string
		err = json.Unmarshal(raw.Value, &s)
		switch kind {
		case KindText:
			*v = TextValue(s)
		case KindHTML:
			*v = HTMLValue(s)
		default:
			*v = EnumValue(s)
		}
	case KindBool:
		var b bool
		err = json.Unmarshal(raw.Value, &b)
		*v = BoolValue(b)
	case KindInt:
		var i int64
		err = json.Unmarshal(raw.Value, &i)
		*v = IntValue(i)
	case KindReal:
		var f float64
		err = json.Unmarshal(raw.Value, &f)
		*v = RealValue(f)
	}
	return errors.Wrapf(err, "decode %s value", kind)
}

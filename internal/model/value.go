package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/shopspring/decimal"
)

// Kind enumerates the variants a Value can hold.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (kind Kind) String() string {
	switch kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", int(kind))
	}
}

// Member is one key/value pair of an object Value.
type Member struct {
	Key   string
	Value *Value
}

// Value is a tagged JSON-like value: null, bool, number, string, object or
// array. Objects keep their member order. Numbers are arbitrary-precision
// decimals so that 64-bit unsigned bitrates never lose precision; a number
// may also be NaN, the result of coercing something that is not a number.
//
// A nil *Value behaves like null for every read accessor.
type Value struct {
	kind    Kind
	boolean bool
	number  decimal.Decimal
	nan     bool
	text    string
	members []Member
	items   []*Value
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func Null() *Value { return &Value{kind: KindNull} }

func Bool(b bool) *Value { return &Value{kind: KindBool, boolean: b} }

func Number(d decimal.Decimal) *Value { return &Value{kind: KindNumber, number: d} }

func Int(i int64) *Value { return Number(decimal.NewFromInt(i)) }

func Uint(u uint64) *Value {
	return Number(decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0))
}

// NaN returns a number Value that holds no valid quantity.
func NaN() *Value { return &Value{kind: KindNumber, nan: true} }

func String(s string) *Value { return &Value{kind: KindString, text: s} }

// Object builds an object from members. A repeated key replaces the value of
// its first occurrence, keeping that position.
func Object(members ...Member) *Value {
	object := &Value{kind: KindObject, members: make([]Member, 0, len(members))}
	for _, member := range members {
		object.members = setMember(object.members, member.Key, member.Value)
	}
	return object
}

func Array(items ...*Value) *Value {
	copied := make([]*Value, len(items))
	copy(copied, items)
	return &Value{kind: KindArray, items: copied}
}

// Field is shorthand for building an object Member.
func Field(key string, value *Value) Member { return Member{Key: key, Value: value} }

func setMember(members []Member, key string, value *Value) []Member {
	for index := range members {
		if members[index].Key == key {
			members[index].Value = value
			return members
		}
	}
	return append(members, Member{Key: key, Value: value})
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (value *Value) Kind() Kind {
	if value == nil {
		return KindNull
	}
	return value.kind
}

func (value *Value) IsNull() bool   { return value.Kind() == KindNull }
func (value *Value) IsNumber() bool { return value.Kind() == KindNumber }
func (value *Value) IsString() bool { return value.Kind() == KindString }
func (value *Value) IsObject() bool { return value.Kind() == KindObject }
func (value *Value) IsArray() bool  { return value.Kind() == KindArray }

// IsNaN reports whether the value is a number without a valid quantity.
func (value *Value) IsNaN() bool {
	return value.Kind() == KindNumber && value.nan
}

func (value *Value) Bool() (bool, bool) {
	if value.Kind() != KindBool {
		return false, false
	}
	return value.boolean, true
}

// Decimal returns the numeric quantity. ok is false for NaN and non-numbers.
func (value *Value) Decimal() (decimal.Decimal, bool) {
	if value.Kind() != KindNumber || value.nan {
		return decimal.Zero, false
	}
	return value.number, true
}

func (value *Value) Text() (string, bool) {
	if value.Kind() != KindString {
		return "", false
	}
	return value.text, true
}

// Get returns the member stored under key, or nil when value is not an
// object or has no such member.
func (value *Value) Get(key string) *Value {
	if value.Kind() != KindObject {
		return nil
	}
	for _, member := range value.members {
		if member.Key == key {
			return member.Value
		}
	}
	return nil
}

func (value *Value) Has(key string) bool {
	if value.Kind() != KindObject {
		return false
	}
	for _, member := range value.members {
		if member.Key == key {
			return true
		}
	}
	return false
}

// Members returns a copy of the object members in order.
func (value *Value) Members() []Member {
	if value.Kind() != KindObject {
		return nil
	}
	copied := make([]Member, len(value.members))
	copy(copied, value.members)
	return copied
}

func (value *Value) Keys() []string {
	if value.Kind() != KindObject {
		return nil
	}
	keys := make([]string, 0, len(value.members))
	for _, member := range value.members {
		keys = append(keys, member.Key)
	}
	return keys
}

// Items returns a copy of the array elements.
func (value *Value) Items() []*Value {
	if value.Kind() != KindArray {
		return nil
	}
	copied := make([]*Value, len(value.items))
	copy(copied, value.items)
	return copied
}

// Len is the member count of an object or the element count of an array.
func (value *Value) Len() int {
	switch value.Kind() {
	case KindObject:
		return len(value.members)
	case KindArray:
		return len(value.items)
	default:
		return 0
	}
}

func (value *Value) Index(index int) *Value {
	if value.Kind() != KindArray || index < 0 || index >= len(value.items) {
		return nil
	}
	return value.items[index]
}

// With returns a shallow copy of the object with key set to member. The
// receiver is left untouched. A non-object receiver yields a new object.
func (value *Value) With(key string, member *Value) *Value {
	members := value.Members()
	return &Value{kind: KindObject, members: setMember(members, key, member)}
}

// Clone returns a deep copy.
func (value *Value) Clone() *Value {
	if value == nil {
		return nil
	}
	copied := *value
	if value.kind == KindObject {
		copied.members = make([]Member, len(value.members))
		for index, member := range value.members {
			copied.members[index] = Member{Key: member.Key, Value: member.Value.Clone()}
		}
	}
	if value.kind == KindArray {
		copied.items = make([]*Value, len(value.items))
		for index, item := range value.items {
			copied.items[index] = item.Clone()
		}
	}
	return &copied
}

// Equal reports structural equality. Object member order is ignored, numbers
// compare by quantity and two NaN values are considered equal.
func (value *Value) Equal(other *Value) bool {
	if value.Kind() != other.Kind() {
		return false
	}
	switch value.Kind() {
	case KindNull:
		return true
	case KindBool:
		return value.boolean == other.boolean
	case KindNumber:
		if value.nan || other.nan {
			return value.nan == other.nan
		}
		return value.number.Equal(other.number)
	case KindString:
		return value.text == other.text
	case KindObject:
		if len(value.members) != len(other.members) {
			return false
		}
		for _, member := range value.members {
			if !other.Has(member.Key) || !member.Value.Equal(other.Get(member.Key)) {
				return false
			}
		}
		return true
	case KindArray:
		if len(value.items) != len(other.items) {
			return false
		}
		for index := range value.items {
			if !value.items[index].Equal(other.items[index]) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the value into plain Go types (map[string]any, []any,
// float64, string, bool, nil) as produced by encoding/json. NaN becomes nil,
// mirroring its JSON encoding.
func (value *Value) Interface() any {
	switch value.Kind() {
	case KindBool:
		return value.boolean
	case KindNumber:
		if value.nan {
			return nil
		}
		floatValue, _ := value.number.Float64()
		return floatValue
	case KindString:
		return value.text
	case KindObject:
		object := make(map[string]any, len(value.members))
		for _, member := range value.members {
			object[member.Key] = member.Value.Interface()
		}
		return object
	case KindArray:
		array := make([]any, len(value.items))
		for index, item := range value.items {
			array[index] = item.Interface()
		}
		return array
	default:
		return nil
	}
}

// String renders the value as compact JSON, for logs and messages.
func (value *Value) String() string {
	encoded, err := value.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return string(encoded)
}

// ---------------------------------------------------------------------------
// JSON encoding
// ---------------------------------------------------------------------------

// MarshalJSON implements json.Marshaler. Member order is preserved.
func (value *Value) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	if err := value.encode(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (value *Value) encode(buffer *bytes.Buffer) error {
	switch value.Kind() {
	case KindNull:
		buffer.WriteString("null")
	case KindBool:
		if value.boolean {
			buffer.WriteString("true")
		} else {
			buffer.WriteString("false")
		}
	case KindNumber:
		if value.nan {
			buffer.WriteString("null")
		} else {
			buffer.WriteString(value.number.String())
		}
	case KindString:
		return encodeString(buffer, value.text)
	case KindObject:
		buffer.WriteByte('{')
		for index, member := range value.members {
			if index > 0 {
				buffer.WriteByte(',')
			}
			if err := encodeString(buffer, member.Key); err != nil {
				return err
			}
			buffer.WriteByte(':')
			if err := member.Value.encode(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte('}')
	case KindArray:
		buffer.WriteByte('[')
		for index, item := range value.items {
			if index > 0 {
				buffer.WriteByte(',')
			}
			if err := item.encode(buffer); err != nil {
				return err
			}
		}
		buffer.WriteByte(']')
	}
	return nil
}

func encodeString(buffer *bytes.Buffer, text string) error {
	var encoded bytes.Buffer
	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(text); err != nil {
		return err
	}
	buffer.Write(bytes.TrimRight(encoded.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (value *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}
	*value = *parsed
	return nil
}

// ParseValue decodes a single JSON document into a Value, keeping object
// member order and the exact text of every number.
func ParseValue(data []byte) (*Value, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	parsed, err := decodeValue(decoder)
	if err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}
	return parsed, nil
}

// MustParse is like ParseValue but panics on malformed input. It is meant
// for literals embedded in source code.
func MustParse(text string) *Value {
	parsed, err := ParseValue([]byte(text))
	if err != nil {
		panic(fmt.Sprintf("model: MustParse: %v", err))
	}
	return parsed
}

func decodeValue(decoder *json.Decoder) (*Value, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch typed := token.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(typed), nil
	case string:
		return String(typed), nil
	case json.Number:
		number, parseError := decimal.NewFromString(typed.String())
		if parseError != nil {
			return nil, fmt.Errorf("invalid number %q: %w", typed.String(), parseError)
		}
		return Number(number), nil
	case json.Delim:
		switch typed {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", token)
}

func decodeObject(decoder *json.Decoder) (*Value, error) {
	object := &Value{kind: KindObject, members: make([]Member, 0)}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", keyToken)
		}
		member, err := decodeValue(decoder)
		if err != nil {
			return nil, err
		}
		object.members = setMember(object.members, key, member)
	}
	// closing '}'
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return object, nil
}

func decodeArray(decoder *json.Decoder) (*Value, error) {
	array := &Value{kind: KindArray, items: make([]*Value, 0)}
	for decoder.More() {
		item, err := decodeValue(decoder)
		if err != nil {
			return nil, err
		}
		array.items = append(array.items, item)
	}
	// closing ']'
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return array, nil
}

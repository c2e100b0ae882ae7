package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	t.Run("Should keep member order and exact numbers", func(t *testing.T) {
		parsed, err := ParseValue([]byte(`{"z":1,"a":"x","ambr":{"downlink":18446744073709551615}}`))
		require.NoError(t, err)

		assert.Equal(t, []string{"z", "a", "ambr"}, parsed.Keys())
		downlink, ok := parsed.Get("ambr").Get("downlink").Decimal()
		require.True(t, ok)
		assert.Equal(t, "18446744073709551615", downlink.String())
		assert.Equal(t, `{"z":1,"a":"x","ambr":{"downlink":18446744073709551615}}`, parsed.String())
	})

	t.Run("Should decode every kind", func(t *testing.T) {
		parsed, err := ParseValue([]byte(`[null,true,1.5,"s",{},[]]`))
		require.NoError(t, err)
		require.Equal(t, 6, parsed.Len())

		kinds := make([]Kind, 0, parsed.Len())
		for _, item := range parsed.Items() {
			kinds = append(kinds, item.Kind())
		}
		assert.Equal(t, []Kind{KindNull, KindBool, KindNumber, KindString, KindObject, KindArray}, kinds)
	})

	t.Run("Should reject trailing data", func(t *testing.T) {
		_, err := ParseValue([]byte(`{} {}`))
		assert.Error(t, err)
	})

	t.Run("Should reject malformed input", func(t *testing.T) {
		_, err := ParseValue([]byte(`{"a":`))
		assert.Error(t, err)
	})

	t.Run("Should let a repeated key replace the first occurrence", func(t *testing.T) {
		parsed, err := ParseValue([]byte(`{"a":1,"b":2,"a":3}`))
		require.NoError(t, err)
		assert.Equal(t, `{"a":3,"b":2}`, parsed.String())
	})
}

func TestValueJSONRoundTrip(t *testing.T) {
	type envelope struct {
		Record *Value `json:"record"`
	}

	var decoded envelope
	require.NoError(t, json.Unmarshal([]byte(`{"record":{"imsi":"001","html":"<a&b>"}}`), &decoded))

	encoded, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"record":{"imsi":"001","html":"<a&b>"}}`, string(encoded))
	assert.Equal(t, `{"imsi":"001","html":"<a&b>"}`, decoded.Record.String())
}

func TestNaN(t *testing.T) {
	nan := NaN()

	assert.True(t, nan.IsNumber())
	assert.True(t, nan.IsNaN())
	_, ok := nan.Decimal()
	assert.False(t, ok)
	assert.Equal(t, "null", nan.String())
	assert.Nil(t, nan.Interface())
	assert.True(t, nan.Equal(NaN()))
	assert.False(t, nan.Equal(Int(0)))
}

func TestValueEqual(t *testing.T) {
	left := MustParse(`{"a":1,"b":[1,"x",null]}`)
	right := MustParse(`{"b":[1.0,"x",null],"a":1}`)
	assert.True(t, left.Equal(right))

	assert.False(t, left.Equal(MustParse(`{"a":1,"b":[1,"x"]}`)))
	assert.False(t, String("1").Equal(Int(1)))
	assert.True(t, (*Value)(nil).Equal(Null()))
}

func TestWithAndClone(t *testing.T) {
	original := MustParse(`{"imsi":"001","pdn":[{"apn":"internet"}]}`)

	updated := original.With("_id", String("abc"))
	assert.False(t, original.Has("_id"))
	assert.Equal(t, "abc", StorageID(updated))

	replaced := original.With("imsi", String("002"))
	assert.Equal(t, []string{"imsi", "pdn"}, replaced.Keys())
	imsi, _ := IMSI(original)
	assert.Equal(t, "001", imsi)

	cloned := original.Clone()
	assert.True(t, cloned.Equal(original))
	assert.NotSame(t, original.Get("pdn"), cloned.Get("pdn"))
}

func TestInterface(t *testing.T) {
	plain := MustParse(`{"n":1024000,"s":"x","b":false,"l":[null]}`).Interface()
	assert.Equal(t, map[string]any{
		"n": float64(1024000),
		"s": "x",
		"b": false,
		"l": []any{nil},
	}, plain)
}

func TestNilValueAccessors(t *testing.T) {
	var missing *Value

	assert.Equal(t, KindNull, missing.Kind())
	assert.Nil(t, missing.Get("x"))
	assert.Nil(t, missing.Index(0))
	assert.Equal(t, 0, missing.Len())
	assert.Nil(t, missing.Clone())
	_, ok := missing.Text()
	assert.False(t, ok)
}

func TestUint(t *testing.T) {
	max := Uint(18446744073709551615)
	quantity, ok := max.Decimal()
	require.True(t, ok)
	assert.True(t, quantity.Equal(decimal.RequireFromString("18446744073709551615")))
}

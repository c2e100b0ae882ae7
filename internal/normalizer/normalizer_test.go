package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/free5gc/profilecheck/internal/model"
)

// writtenProfile looks like a profile echoed back by a create/update call:
// every 64-bit rate arrives as a string.
const writtenProfile = `{
	"_id": "abc123",
	"imsi": "001010000000001",
	"ambr": {"downlink": "4294967296", "uplink": "1024000"},
	"pdn": [
		{"apn": "internet", "qos": {"qci": 9, "mbr": {"downlink": "5000000000", "uplink": 20}}},
		{"apn": "ims", "qos": {"qci": 5, "gbr": {"downlink": " 128 ", "uplink": "128"}}}
	],
	"future": [[{"nested": {"uplink": "1"}}]]
}`

func assertRatesNumeric(t *testing.T, node *model.Value, path string) {
	t.Helper()
	switch node.Kind() {
	case model.KindObject:
		for _, member := range node.Members() {
			childPath := path + "." + member.Key
			if member.Key == model.FieldDownlink || member.Key == model.FieldUplink {
				assert.True(t, member.Value.IsNumber(), "%s is %s", childPath, member.Value.Kind())
				continue
			}
			assertRatesNumeric(t, member.Value, childPath)
		}
	case model.KindArray:
		for _, item := range node.Items() {
			assertRatesNumeric(t, item, path+"[]")
		}
	}
}

func TestNormalize(t *testing.T) {
	normalizerInstance := NewNormalizer()

	t.Run("Should make every rate numeric at any depth", func(t *testing.T) {
		normalized := normalizerInstance.Normalize(model.MustParse(writtenProfile))
		assertRatesNumeric(t, normalized, "")

		downlink, ok := normalized.Get("ambr").Get("downlink").Decimal()
		require.True(t, ok)
		assert.Equal(t, "4294967296", downlink.String())

		mbr := model.PDNEntries(normalized)[0].Get("qos").Get("mbr")
		mbrDownlink, _ := mbr.Get("downlink").Decimal()
		assert.Equal(t, "5000000000", mbrDownlink.String())

		nested := normalized.Get("future").Index(0).Index(0).Get("nested").Get("uplink")
		assert.True(t, nested.IsNumber())
	})

	t.Run("Should leave every other field alone", func(t *testing.T) {
		normalized := normalizerInstance.Normalize(model.MustParse(writtenProfile))

		imsi, _ := model.IMSI(normalized)
		assert.Equal(t, "001010000000001", imsi)
		assert.Equal(t, "abc123", model.StorageID(normalized))
		assert.Equal(t, []string{"_id", "imsi", "ambr", "pdn", "future"}, normalized.Keys())
		assert.True(t, normalized.Get("pdn").Index(0).Get("qos").Get("qci").Equal(model.Int(9)))
	})

	t.Run("Should agree across provenances", func(t *testing.T) {
		fetched := model.MustParse(`{"ambr":{"downlink":4294967296,"uplink":1024000}}`)
		written := model.MustParse(`{"ambr":{"downlink":"4294967296","uplink":"1024000"}}`)

		assert.True(t, normalizerInstance.Normalize(fetched).Equal(normalizerInstance.Normalize(written)))
	})

	t.Run("Should not mutate the input", func(t *testing.T) {
		input := model.MustParse(writtenProfile)
		snapshot := input.Clone()

		_ = normalizerInstance.Normalize(input)
		assert.True(t, input.Equal(snapshot))
		assert.True(t, input.Get("ambr").Get("downlink").IsString())
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		records := []string{
			writtenProfile,
			`{"ambr":{"downlink":"fast","uplink":{"x":1}}}`,
			`{"uplink":null,"downlink":true}`,
			`[]`,
			`"downlink"`,
		}
		for _, text := range records {
			once := normalizerInstance.Normalize(model.MustParse(text))
			twice := normalizerInstance.Normalize(once)
			assert.True(t, once.Equal(twice), text)
		}
	})

	t.Run("Should pass the blank template through unchanged", func(t *testing.T) {
		template := model.DefaultProfile()
		assert.True(t, normalizerInstance.Normalize(template).Equal(template))
	})

	t.Run("Should return nil for a missing record", func(t *testing.T) {
		assert.Nil(t, normalizerInstance.Normalize(nil))
	})

	t.Run("Should honour custom rate keys", func(t *testing.T) {
		custom := NewNormalizer("maxBitrate")
		normalized := custom.Normalize(model.MustParse(`{"maxBitrate":"10","downlink":"10"}`))
		assert.True(t, normalized.Get("maxBitrate").IsNumber())
		assert.True(t, normalized.Get("downlink").IsString())
	})
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		input   *model.Value
		want    string
		wantNaN bool
	}{
		{name: "number unchanged", input: model.Int(42), want: "42"},
		{name: "decimal text", input: model.String("18446744073709551615"), want: "18446744073709551615"},
		{name: "padded text", input: model.String("  7 "), want: "7"},
		{name: "empty text", input: model.String(""), want: "0"},
		{name: "exponent text", input: model.String("1e3"), want: "1000"},
		{name: "junk text", input: model.String("10 Mbps"), wantNaN: true},
		{name: "true", input: model.Bool(true), want: "1"},
		{name: "false", input: model.Bool(false), want: "0"},
		{name: "null", input: model.Null(), want: "0"},
		{name: "object", input: model.Object(), wantNaN: true},
		{name: "array", input: model.Array(), wantNaN: true},
		{name: "NaN unchanged", input: model.NaN(), wantNaN: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.input)
			require.True(t, got.IsNumber())
			if tt.wantNaN {
				assert.True(t, got.IsNaN())
				return
			}
			quantity, ok := got.Decimal()
			require.True(t, ok)
			assert.Equal(t, tt.want, quantity.String())
		})
	}
}

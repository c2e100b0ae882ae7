// Package normalizer repairs the representation of bitrate fields in a
// subscriber profile after it crossed a storage boundary.
//
// The storage layer returns 64-bit rates as numbers when a profile is
// fetched but as strings when it echoes a created or updated profile. The
// normalizer walks the whole record (objects and arrays, any depth) and
// coerces every member named like a rate key to a number, so that the two
// paths always yield the same canonical record.
package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
)

// Normalizer rewrites rate members of a record into numbers. It holds no
// per-record state and is safe for concurrent use.
type Normalizer struct {
	rateKeys map[string]struct{}
}

// NewNormalizer creates a Normalizer for the given member names. Without
// arguments it uses model.RateKeys (downlink, uplink).
func NewNormalizer(rateKeys ...string) *Normalizer {
	return &Normalizer{rateKeys: model.RateKeySet(rateKeys)}
}

// Normalize returns a record structurally identical to record, except that
// every rate member holds a number. The input is never modified; untouched
// leaves may be shared with the result. A nil record yields nil.
func (normalizer *Normalizer) Normalize(record *model.Value) *model.Value {
	if record == nil {
		return nil
	}

	coercedCount := 0
	normalized := normalizer.walk(record, &coercedCount)

	if coercedCount > 0 {
		logger.NormLog.Debugf("coerced %d rate field(s) to numbers", coercedCount)
	}
	return normalized
}

// IsRateKey reports whether key names a rate member.
func (normalizer *Normalizer) IsRateKey(key string) bool {
	_, exists := normalizer.rateKeys[key]
	return exists
}

func (normalizer *Normalizer) walk(node *model.Value, coercedCount *int) *model.Value {
	switch node.Kind() {
	case model.KindObject:
		members := node.Members()
		for index, member := range members {
			if normalizer.IsRateKey(member.Key) {
				if !member.Value.IsNumber() {
					*coercedCount++
				}
				members[index].Value = Coerce(member.Value)
				continue
			}
			members[index].Value = normalizer.walk(member.Value, coercedCount)
		}
		return model.Object(members...)
	case model.KindArray:
		items := node.Items()
		for index, item := range items {
			items[index] = normalizer.walk(item, coercedCount)
		}
		return model.Array(items...)
	default:
		return node
	}
}

// Coerce converts a single value to a number using best-effort rules:
//   - numbers (NaN included) are returned unchanged
//   - strings are parsed after trimming; "" is 0, unparsable text is NaN
//   - true/false become 1/0, null becomes 0
//   - objects and arrays become NaN
func Coerce(value *model.Value) *model.Value {
	switch value.Kind() {
	case model.KindNumber:
		return value
	case model.KindString:
		text, _ := value.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return model.Int(0)
		}
		parsed, parseError := decimal.NewFromString(trimmed)
		if parseError != nil {
			logger.NormLog.Debugf("rate value %q is not numeric: %v", text, parseError)
			return model.NaN()
		}
		return model.Number(parsed)
	case model.KindBool:
		if flag, _ := value.Bool(); flag {
			return model.Int(1)
		}
		return model.Int(0)
	case model.KindNull:
		return model.Int(0)
	default:
		return model.NaN()
	}
}

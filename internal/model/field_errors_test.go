package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldErrors(t *testing.T) {
	t.Run("Should start empty", func(t *testing.T) {
		errs := NewFieldErrors()
		assert.False(t, errs.HasErrors())
		assert.Empty(t, errs.Flatten())
	})

	t.Run("Should accumulate by path in insertion order", func(t *testing.T) {
		errs := NewFieldErrors()
		errs.PDN(2).APN().AddError("'internet' is duplicated")
		errs.IMSI().AddError("'001' is duplicated")
		errs.PDN(2).APN().AddError("second")
		errs.At("ambr", "downlink").AddError("bad rate")

		assert.Equal(t, 4, errs.Count())
		assert.Equal(t, []FieldError{
			{Path: "pdn.2.apn", Message: "'internet' is duplicated"},
			{Path: "pdn.2.apn", Message: "second"},
			{Path: "imsi", Message: "'001' is duplicated"},
			{Path: "ambr.downlink", Message: "bad rate"},
		}, errs.Flatten())
	})

	t.Run("Should not grow the tree on lookup", func(t *testing.T) {
		errs := NewFieldErrors()
		assert.Nil(t, errs.Lookup("pdn", "0", "apn"))
		assert.Nil(t, errs.Lookup("pdn", "0", "apn").Errors())
		assert.Empty(t, errs.Flatten())

		errs.IMSI()
		assert.NotNil(t, errs.Lookup("imsi"))
		assert.False(t, errs.HasErrors())
	})

	t.Run("Should return copies of messages", func(t *testing.T) {
		errs := NewFieldErrors()
		errs.IMSI().AddError("one")
		messages := errs.IMSI().Errors()
		messages[0] = "changed"
		assert.Equal(t, []string{"one"}, errs.IMSI().Errors())
	})

	t.Run("Should report root messages with an empty path", func(t *testing.T) {
		errs := NewFieldErrors()
		errs.AddError("record is not an object")
		assert.Equal(t, []FieldError{{Path: "", Message: "record is not an object"}}, errs.Flatten())
	})
}

// Package validator enforces the structural invariants a subscriber profile
// must satisfy before it is submitted:
//   - the IMSI of a new profile is not already used by an existing profile
//   - no two PDN entries of a profile share an APN
//   - every bitrate holds an unsigned 64-bit integer
//   - the IMSI, when present, is a string of at most 15 digits.
//
// Violations are accumulated in a model.FieldErrors tree supplied by the
// caller; nothing is returned as a Go error and no check short-circuits.
package validator

import (
	"fmt"
	"math/big"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"

	"github.com/free5gc/profilecheck/internal/logger"
	"github.com/free5gc/profilecheck/internal/model"
)

const maxIMSIDigits = 15

var maxBitrate = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)

// Input is one validation request.
type Input struct {
	// Record is the candidate profile, already normalized.
	Record *model.Value
	// Existing holds the profiles already in the store.
	Existing []*model.Value
	// ExistingLoaded is false while the existing profiles have not been
	// fetched yet; identity uniqueness is then not checked.
	ExistingLoaded bool
	Action         model.ActionTag
}

// Options switches the supplementary checks on or off. The uniqueness rules
// always run.
type Options struct {
	CheckIMSIFormat bool
	CheckRates      bool
	RateKeys        []string
}

// DefaultOptions enables every check with the standard rate keys.
func DefaultOptions() Options {
	return Options{
		CheckIMSIFormat: true,
		CheckRates:      true,
		RateKeys:        model.RateKeys,
	}
}

// Validator runs the profile checks. It keeps no state between calls.
type Validator struct {
	options  Options
	rateKeys map[string]struct{}
}

// NewValidator creates a Validator with the given options. An empty
// options.RateKeys selects model.RateKeys.
func NewValidator(options Options) *Validator {
	return &Validator{options: options, rateKeys: model.RateKeySet(options.RateKeys)}
}

// Validate appends every violation of input to errs and returns errs itself,
// so that a caller may pre-seed the tree (e.g. with schema errors). A nil
// errs is replaced by a new tree.
func (validatorInstance *Validator) Validate(input Input, errs *model.FieldErrors) *model.FieldErrors {
	if errs == nil {
		errs = model.NewFieldErrors()
	}
	before := errs.Count()

	checkIdentityUniqueness(input, errs)
	checkAPNUniqueness(input.Record, errs)

	if validatorInstance.options.CheckIMSIFormat {
		checkIMSIFormat(input.Record, errs)
	}
	if validatorInstance.options.CheckRates {
		validatorInstance.checkRates(input.Record, nil, errs)
	}

	if added := errs.Count() - before; added > 0 {
		logger.ValidLog.Debugf("validation of %s request added %d error(s)", input.Action, added)
	}
	return errs
}

// checkIdentityUniqueness flags the IMSI of a record being created when an
// existing profile already carries it. An update may always keep its own
// identity.
func checkIdentityUniqueness(input Input, errs *model.FieldErrors) {
	if input.Action != model.ActionCreate || !input.ExistingLoaded {
		return
	}

	imsiValue := input.Record.Get(model.FieldIMSI)
	if imsiValue == nil {
		return
	}

	for _, existing := range input.Existing {
		if existing.Get(model.FieldIMSI).Equal(imsiValue) {
			errs.IMSI().AddError(fmt.Sprintf("'%s' is duplicated", displayText(imsiValue)))
			return
		}
	}
}

// checkAPNUniqueness flags every repeated APN from its second occurrence on.
// The first occurrence of a name is left unannotated.
func checkAPNUniqueness(record *model.Value, errs *model.FieldErrors) {
	entries := model.PDNEntries(record)
	if len(entries) == 0 {
		return
	}

	names := make([]string, len(entries))
	named := make([]bool, len(entries))
	lastIndex := make(map[string]int, len(entries))
	for index, entry := range entries {
		names[index], named[index] = model.APN(entry)
		if named[index] {
			lastIndex[names[index]] = index
		}
	}

	duplicates := make(map[string][]int)
	order := make([]string, 0)
	for index, name := range names {
		if !named[index] {
			continue
		}
		if tracked, seen := duplicates[name]; seen {
			duplicates[name] = append(tracked, index)
		} else if lastIndex[name] != index {
			duplicates[name] = []int{}
			order = append(order, name)
		}
	}

	for _, name := range order {
		for _, index := range duplicates[name] {
			errs.PDN(index).APN().AddError(fmt.Sprintf("'%s' is duplicated", name))
		}
	}
}

func checkIMSIFormat(record *model.Value, errs *model.FieldErrors) {
	imsiValue := record.Get(model.FieldIMSI)
	if imsiValue == nil {
		return
	}

	imsi, isText := imsiValue.Text()
	if !isText || imsi == "" || !govalidator.IsNumeric(imsi) || len(imsi) > maxIMSIDigits {
		errs.IMSI().AddError(fmt.Sprintf("'%s' is not a valid IMSI", displayText(imsiValue)))
	}
}

func (validatorInstance *Validator) checkRates(node *model.Value, path []string, errs *model.FieldErrors) {
	switch node.Kind() {
	case model.KindObject:
		for _, member := range node.Members() {
			memberPath := append(append(make([]string, 0, len(path)+1), path...), member.Key)
			if _, isRate := validatorInstance.rateKeys[member.Key]; isRate {
				if !isValidBitrate(member.Value) {
					errs.At(memberPath...).AddError(
						fmt.Sprintf("'%s' is not a valid bitrate", displayText(member.Value)))
				}
				continue
			}
			validatorInstance.checkRates(member.Value, memberPath, errs)
		}
	case model.KindArray:
		for index, item := range node.Items() {
			itemPath := append(append(make([]string, 0, len(path)+1), path...), fmt.Sprint(index))
			validatorInstance.checkRates(item, itemPath, errs)
		}
	}
}

func isValidBitrate(value *model.Value) bool {
	quantity, ok := value.Decimal()
	if !ok {
		return false
	}
	return quantity.IsInteger() && quantity.Sign() >= 0 && quantity.LessThanOrEqual(maxBitrate)
}

// displayText renders a value the way it is quoted in messages: strings
// without JSON quotes, NaN as NaN, everything else as JSON.
func displayText(value *model.Value) string {
	if text, isText := value.Text(); isText {
		return text
	}
	if value.IsNaN() {
		return "NaN"
	}
	return value.String()
}

// Package model defines the data structures shared by the profile check
// engine:
//   - Value, the generic tagged tree every subscriber profile is held in
//   - accessors for the profile fields the engine reasons about
//   - FieldErrors, the per-field violation tree built by a validation pass
//   - ActionTag and Provenance.
//
// All types here are intentionally free of dependencies on other internal
// packages to avoid circular imports.
package model

import (
	"fmt"
	"strings"
)

// Profile field names.
const (
	FieldIMSI      = "imsi"
	FieldStorageID = "_id"
	FieldSecurity  = "security"
	FieldAMBR      = "ambr"
	FieldPDN       = "pdn"
	FieldAPN       = "apn"
	FieldQoS       = "qos"
	FieldMBR       = "mbr"
	FieldGBR       = "gbr"
	FieldDownlink  = "downlink"
	FieldUplink    = "uplink"
)

// RateKeys are the member names that always carry a bitrate, at any depth.
var RateKeys = []string{FieldDownlink, FieldUplink}

// RateKeySet returns keys as a lookup set, or RateKeys as one when keys is
// empty.
func RateKeySet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		keys = RateKeys
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		keySet[key] = struct{}{}
	}
	return keySet
}

// ActionTag selects the write path of a submission.
type ActionTag string

const (
	ActionCreate ActionTag = "create"
	ActionUpdate ActionTag = "update"
)

// Valid reports whether the tag is one of the supported actions.
func (action ActionTag) Valid() bool {
	return action == ActionCreate || action == ActionUpdate
}

// ParseActionTag converts user input into an ActionTag.
func ParseActionTag(text string) (ActionTag, error) {
	action := ActionTag(strings.ToLower(strings.TrimSpace(text)))
	if !action.Valid() {
		return "", fmt.Errorf("action %q is invalid (expected %q or %q)", text, ActionCreate, ActionUpdate)
	}
	return action, nil
}

// Provenance records where a record handed to the engine came from. The two
// storage paths disagree on how they encode 64-bit rates: fetched records
// carry numbers, records echoed back by create/update carry strings.
type Provenance int

const (
	ProvenanceTemplate Provenance = iota
	ProvenanceFetched
	ProvenanceWritten
)

func (provenance Provenance) String() string {
	switch provenance {
	case ProvenanceTemplate:
		return "template"
	case ProvenanceFetched:
		return "fetched"
	case ProvenanceWritten:
		return "written"
	default:
		return fmt.Sprintf("provenance(%d)", int(provenance))
	}
}

// IMSI returns the identity key of a profile record.
func IMSI(record *Value) (string, bool) {
	return record.Get(FieldIMSI).Text()
}

// StorageID returns the storage-assigned identifier, or "" before creation.
func StorageID(record *Value) string {
	storageID, _ := record.Get(FieldStorageID).Text()
	return storageID
}

// PDNEntries returns the PDN attachment points of a record in order.
func PDNEntries(record *Value) []*Value {
	return record.Get(FieldPDN).Items()
}

// APN returns the access point name of a PDN entry. Non-string names are
// rendered as JSON text so that they still compare by content; ok is false
// when the entry carries no name at all.
func APN(entry *Value) (string, bool) {
	name := entry.Get(FieldAPN)
	if name == nil || name.IsNull() {
		return "", false
	}
	if text, isText := name.Text(); isText {
		return text, true
	}
	return name.String(), true
}

const defaultProfileJSON = `{
  "security": {
    "k": "465B5CE8 B199B49F AA5F0A2E E238A6BC",
    "op": "5F1D289C 5D354D0A 140C2548 F5F3E3BA",
    "amf": "8000"
  },
  "ambr": {
    "downlink": 1024000,
    "uplink": 1024000
  },
  "pdn": [
    {
      "apn": "internet",
      "qos": {
        "qci": 9,
        "arp": {
          "priority_level": 8,
          "pre_emption_capability": 1,
          "pre_emption_vulnerability": 1
        }
      }
    }
  ]
}`

// DefaultProfile returns a fresh copy of the blank profile template used when
// a new subscriber is being created.
func DefaultProfile() *Value {
	return MustParse(defaultProfileJSON)
}

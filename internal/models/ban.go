package models

import "fmt"

// AttributeType names a breed attribute that can be banned.
type AttributeType string

const (
	AttributeBreedName   AttributeType = "breedName"
	AttributeTemperament AttributeType = "temperament"
	AttributeOrigin      AttributeType = "origin"
)

// AttributeTypes lists the valid types in display order.
var AttributeTypes = []AttributeType{AttributeBreedName, AttributeTemperament, AttributeOrigin}

// Valid reports whether t is one of the known attribute types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeBreedName, AttributeTemperament, AttributeOrigin:
		return true
	default:
		return false
	}
}

// Label is the human readable name shown next to attribute chips.
func (t AttributeType) Label() string {
	switch t {
	case AttributeBreedName:
		return "Breed"
	case AttributeTemperament:
		return "Temperament"
	case AttributeOrigin:
		return "Origin"
	default:
		return string(t)
	}
}

// BanRule is a single banned (attribute type, value) pair.
type BanRule struct {
	Type  AttributeType `json:"type"`
	Value string        `json:"value"`
}

func (r BanRule) String() string {
	return fmt.Sprintf("%s: %s", r.Type, r.Value)
}

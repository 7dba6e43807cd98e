package algorithms

import (
	"strings"

	"vinivici/internal/models"
)

// TemperamentSeparator splits the API's temperament string into tokens.
const TemperamentSeparator = ", "

// Observation is one attribute value read off a candidate.
type Observation struct {
	Type  models.AttributeType
	Value string
}

// TemperamentTokens splits a temperament string on ", ". Empty input yields nil.
func TemperamentTokens(temperament string) []string {
	if temperament == "" {
		return nil
	}
	return strings.Split(temperament, TemperamentSeparator)
}

// Observations returns the breed name, temperament and origin of the
// candidate's primary breed, skipping empty values.
func Observations(c *models.Candidate) []Observation {
	breed := c.PrimaryBreed()
	if breed == nil {
		return nil
	}

	all := []Observation{
		{Type: models.AttributeBreedName, Value: breed.Name},
		{Type: models.AttributeTemperament, Value: breed.Temperament},
		{Type: models.AttributeOrigin, Value: breed.Origin},
	}

	observed := make([]Observation, 0, len(all))
	for _, o := range all {
		if o.Value != "" {
			observed = append(observed, o)
		}
	}
	return observed
}

// IsBanned reports whether any rule matches any observation of the candidate.
// Candidates without breed metadata are never banned. Temperament rules match
// a whole token, never a substring; every other rule needs an exact,
// case-sensitive type and value match.
func IsBanned(c *models.Candidate, rules []models.BanRule) bool {
	if len(rules) == 0 {
		return false
	}

	observed := Observations(c)
	for _, rule := range rules {
		for _, o := range observed {
			if matches(rule, o) {
				return true
			}
		}
	}
	return false
}

func matches(rule models.BanRule, o Observation) bool {
	if rule.Type == models.AttributeTemperament {
		if o.Type != models.AttributeTemperament {
			return false
		}
		for _, token := range TemperamentTokens(o.Value) {
			if token == rule.Value {
				return true
			}
		}
		return false
	}
	return rule.Type == o.Type && rule.Value == o.Value
}

// FirstUnbanned returns the first candidate in batch order that no rule bans.
func FirstUnbanned(batch []models.Candidate, rules []models.BanRule) (*models.Candidate, bool) {
	for i := range batch {
		if !IsBanned(&batch[i], rules) {
			c := batch[i]
			return &c, true
		}
	}
	return nil, false
}

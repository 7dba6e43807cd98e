package validator

import (
	"vinivici/internal/logger"
	"vinivici/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules registers the custom validation tags on v.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// a broken rule set is a startup bug
			logger.Fatal("failed to register custom validation tag", "tag", tag, "error", err)
		}
	}

	// 'is-attribute-type': breedName, temperament or origin
	mustRegister("is-attribute-type", validateAttributeType)
}

func validateAttributeType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empty values
	}
	return models.AttributeType(value).Valid()
}
